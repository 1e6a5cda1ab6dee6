package salonapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListMasters はスペシャリスト一覧を取得する。serviceIDが0の場合は絞り込まない。
func (c *Client) ListMasters(ctx context.Context, serviceID int64, activeOnly bool) ([]Master, error) {
	q := url.Values{}
	if serviceID > 0 {
		q.Set("service_id", strconv.FormatInt(serviceID, 10))
	}
	q.Set("is_active", strconv.FormatBool(activeOnly))

	key := fmt.Sprintf("masters:service=%d:active=%t", serviceID, activeOnly)
	return cachedGet[[]Master](ctx, c, key, "/masters/?"+q.Encode())
}

// GetMaster はスペシャリストを1件取得する。
func (c *Client) GetMaster(ctx context.Context, id int64) (Master, error) {
	return cachedGet[Master](ctx, c, fmt.Sprintf("master:%d", id), fmt.Sprintf("/masters/%d", id))
}

// MasterSlots は指定スペシャリストの空き時間を取得する。空き状況は変わりやすいためキャッシュしない。
func (c *Client) MasterSlots(ctx context.Context, masterID int64, date string, serviceID int64) (AvailableSlotsResponse, error) {
	q := url.Values{}
	q.Set("booking_date", date)
	q.Set("service_id", strconv.FormatInt(serviceID, 10))

	var out AvailableSlotsResponse
	err := c.http.GetJSON(ctx, fmt.Sprintf("/masters/%d/available-slots?%s", masterID, q.Encode()), &out)
	return out, err
}

// ServiceSlots はサービス単位の空き時間を取得する。masterIDが0の場合は全スペシャリストの枠を返す。
func (c *Client) ServiceSlots(ctx context.Context, serviceID int64, date string, masterID int64) (AvailableSlotsResponse, error) {
	q := url.Values{}
	q.Set("booking_date", date)
	if masterID > 0 {
		q.Set("master_id", strconv.FormatInt(masterID, 10))
	}

	var out AvailableSlotsResponse
	err := c.http.GetJSON(ctx, fmt.Sprintf("/masters/service/%d/available-slots?%s", serviceID, q.Encode()), &out)
	return out, err
}
