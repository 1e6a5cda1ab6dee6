package salonapi

import (
	"context"
	"errors"

	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/querycache"
)

// ErrNoIdentity はユーザー固有の操作でTelegramユーザーIDが無いことを表す。
var ErrNoIdentity = errors.New("TelegramユーザーIDが設定されていません")

// Client はサロンAPIの型付きクライアント。
type Client struct {
	// http はJSON通信に使うクライアント。
	http *httpclient.Client
	// cache は公開カタログのキャッシュ。nilの場合はキャッシュしない。
	cache *querycache.Cache
}

// New は新しいClientを生成する。cacheはnilでもよい。
func New(http *httpclient.Client, cache *querycache.Cache) *Client {
	return &Client{http: http, cache: cache}
}

// Cache は内部のキャッシュを返す。
func (c *Client) Cache() *querycache.Cache {
	return c.cache
}

// cachedGet はキャッシュを経由してGETする。
func cachedGet[T any](ctx context.Context, c *Client, key, path string) (T, error) {
	if v, ok := querycache.Get[T](c.cache, key); ok {
		return v, nil
	}
	var out T
	if err := c.http.GetJSON(ctx, path, &out); err != nil {
		return out, err
	}
	c.cache.Set(key, out)
	return out, nil
}

// requireIdentity はコンテキストにTelegramユーザーIDがあることを確認する。
func requireIdentity(ctx context.Context) error {
	if _, ok := httpclient.TelegramUserID(ctx); !ok {
		return ErrNoIdentity
	}
	return nil
}
