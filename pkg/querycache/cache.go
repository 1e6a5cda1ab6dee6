// Package querycache はAPIの読み取り結果をキー単位でTTL付きキャッシュする。
//
// キーは "services:category=...", "master:3" のようにリソース名を先頭に置き、
// 更新系の操作は Invalidate でプレフィックス単位に破棄する。
package querycache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize はキャッシュに保持する最大エントリ数。
const DefaultSize = 512

// Cache はTTL付きのLRUキャッシュ。nilのCacheは常にミスする。
// 格納した値は共有されるため、呼び出し側で変更してはならない。
type Cache struct {
	// lru は期限付きLRUの実体。
	lru *expirable.LRU[string, any]
}

// New は新しいキャッシュを生成する。ttlが0以下の場合はnilを返し、キャッシュを無効にする。
func New(size int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Set は値を格納する。
func (c *Cache) Set(key string, v any) {
	if c == nil {
		return
	}
	c.lru.Add(key, v)
}

// Invalidate はプレフィックスに一致するキーを全て破棄する。
// プレフィックスがキー全体と一致する場合、またはその直後が ':' の場合のみ一致とみなす。
func (c *Cache) Invalidate(prefixes ...string) {
	if c == nil {
		return
	}
	for _, key := range c.lru.Keys() {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+":") {
				c.lru.Remove(key)
				break
			}
		}
	}
}

// Purge は全てのエントリを破棄する。
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Len は現在のエントリ数を返す。
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Get はキーに対応する値を型Tとして取り出す。型が一致しない場合はミスとして扱う。
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
