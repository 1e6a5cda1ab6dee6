// Package telegram はTelegram Mini-Appの initData を検証する。
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// initData の検証エラー。
var (
	// ErrMissingHash は hash パラメータが無いことを表す。
	ErrMissingHash = errors.New("initDataにhashがありません")
	// ErrInvalidSignature は署名が一致しないことを表す。
	ErrInvalidSignature = errors.New("initDataの署名が一致しません")
	// ErrExpired は auth_date が有効期間を過ぎていることを表す。
	ErrExpired = errors.New("initDataの有効期限が切れています")
	// ErrMissingUser は user パラメータが無いか不正であることを表す。
	ErrMissingUser = errors.New("initDataにユーザー情報がありません")
)

// WebAppUser は initData の user フィールド。
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

// InitData は検証済みの initData。
type InitData struct {
	// User は Mini-App を開いたユーザー。
	User WebAppUser
	// AuthDate は initData の発行時刻。
	AuthDate time.Time
	// QueryID はインラインクエリID（ある場合）。
	QueryID string
}

// Validate はボットトークンで initData の署名を検証し、内容を返す。
// maxAgeが0より大きい場合、auth_date がnowからmaxAge以内であることも確認する。
func Validate(raw, botToken string, maxAge time.Duration, now time.Time) (InitData, error) {
	var out InitData

	values, err := url.ParseQuery(raw)
	if err != nil {
		return out, fmt.Errorf("initDataの解析に失敗: %w", err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return out, ErrMissingHash
	}

	expected := sign(values, botToken)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return out, ErrInvalidSignature
	}

	if ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err == nil {
		out.AuthDate = time.Unix(ts, 0)
	}
	if maxAge > 0 && (out.AuthDate.IsZero() || now.Sub(out.AuthDate) > maxAge) {
		return out, ErrExpired
	}

	if err := json.Unmarshal([]byte(values.Get("user")), &out.User); err != nil || out.User.ID == 0 {
		return out, ErrMissingUser
	}
	out.QueryID = values.Get("query_id")
	return out, nil
}

// Sign は値に hash を付与した initData 文字列を生成する。開発用のクライアントとテストで使う。
func Sign(values url.Values, botToken string) string {
	signed := url.Values{}
	for k, v := range values {
		if k != "hash" {
			signed[k] = v
		}
	}
	signed.Set("hash", sign(signed, botToken))
	return signed.Encode()
}

// sign は data-check-string のHMAC-SHA256を16進文字列で返す。
// 秘密鍵は HMAC-SHA256("WebAppData", botToken)。
func sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
