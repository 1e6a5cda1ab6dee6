package salonapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListServices はサービス一覧を取得する。categoryが空の場合は全カテゴリ。
func (c *Client) ListServices(ctx context.Context, category string, activeOnly bool) ([]Service, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	q.Set("is_active", strconv.FormatBool(activeOnly))

	key := fmt.Sprintf("services:category=%s:active=%t", category, activeOnly)
	return cachedGet[[]Service](ctx, c, key, "/services/?"+q.Encode())
}

// GetService はサービスを1件取得する。
func (c *Client) GetService(ctx context.Context, id int64) (Service, error) {
	return cachedGet[Service](ctx, c, fmt.Sprintf("service:%d", id), fmt.Sprintf("/services/%d", id))
}

// ListCategories はサービスのカテゴリ一覧を取得する。
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	return cachedGet[[]string](ctx, c, "categories", "/services/categories/list")
}
