package salonapi

import "context"

// Me は現在の利用者を取得する。
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.GetJSON(ctx, "/users/me", &out)
	return out, err
}

// UpdateMe は現在の利用者のプロフィールを更新する。
func (c *Client) UpdateMe(ctx context.Context, req UserUpdate) (User, error) {
	var out User
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.PatchJSON(ctx, "/users/me", req, &out)
	return out, err
}
