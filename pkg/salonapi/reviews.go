package salonapi

import (
	"context"
	"fmt"
)

// CreateReview はレビューを投稿する。成功するとスペシャリストのキャッシュを破棄する。
func (c *Client) CreateReview(ctx context.Context, req ReviewCreate) (Review, error) {
	var out Review
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	if err := c.http.PostJSON(ctx, "/reviews/", req, &out); err != nil {
		return out, err
	}
	// 評価と件数が変わるため関連する読み取り結果を破棄する
	c.cache.Invalidate(
		fmt.Sprintf("reviews:master:%d", req.MasterID),
		fmt.Sprintf("master:%d", req.MasterID),
		"masters",
	)
	return out, nil
}

// ListMasterReviews はスペシャリストのレビュー一覧を取得する。
func (c *Client) ListMasterReviews(ctx context.Context, masterID int64) ([]Review, error) {
	key := fmt.Sprintf("reviews:master:%d", masterID)
	return cachedGet[[]Review](ctx, c, key, fmt.Sprintf("/reviews/master/%d", masterID))
}
