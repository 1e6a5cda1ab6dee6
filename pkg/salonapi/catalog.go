package salonapi

import (
	"context"
	"fmt"
	"strconv"
)

// ListCertificates は利用者の証明書一覧を取得する。isUsedがnilの場合は全件。
func (c *Client) ListCertificates(ctx context.Context, isUsed *bool) ([]Certificate, error) {
	if err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	path := "/certificates/"
	if isUsed != nil {
		path += "?is_used=" + strconv.FormatBool(*isUsed)
	}
	var out []Certificate
	if err := c.http.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCertificate は証明書を1件取得する。
func (c *Client) GetCertificate(ctx context.Context, id int64) (Certificate, error) {
	var out Certificate
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.GetJSON(ctx, fmt.Sprintf("/certificates/%d", id), &out)
	return out, err
}

// ListPromotions はプロモーション一覧を取得する。
func (c *Client) ListPromotions(ctx context.Context, activeOnly bool) ([]Promotion, error) {
	key := fmt.Sprintf("promotions:active=%t", activeOnly)
	return cachedGet[[]Promotion](ctx, c, key, "/promotions/?active_only="+strconv.FormatBool(activeOnly))
}

// GetPromotion はプロモーションを1件取得する。
func (c *Client) GetPromotion(ctx context.Context, id int64) (Promotion, error) {
	return cachedGet[Promotion](ctx, c, fmt.Sprintf("promotion:%d", id), fmt.Sprintf("/promotions/%d", id))
}

// GetSettings はサロン設定を取得する。
func (c *Client) GetSettings(ctx context.Context) (SalonSettings, error) {
	return cachedGet[SalonSettings](ctx, c, "settings", "/settings/")
}
