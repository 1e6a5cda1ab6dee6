package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/beautybar/pkg/httpclient"
)

// SessionCookie はセッションJWTを保持するCookie名。
const SessionCookie = "bb_session"

// sessionIssuer はセッションJWTの発行者。
const sessionIssuer = "beautybar-web"

// contextKeyTelegramUserID はGinコンテキストにTelegramユーザーIDを格納するキー。
const contextKeyTelegramUserID = "telegram_user_id"

// ErrInvalidSession はセッショントークンが無効であることを表す。
var ErrInvalidSession = errors.New("セッションが無効です")

// SessionClaims はセッションJWTのクレーム。
type SessionClaims struct {
	jwt.RegisteredClaims
	// TelegramUserID はログイン中のTelegramユーザーID。
	TelegramUserID int64 `json:"tg_id"`
	// Name は表示用の名前。
	Name string `json:"name,omitempty"`
}

// IssueSession はTelegramユーザーIDからセッションJWTを生成する。
func IssueSession(secret string, telegramUserID int64, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(telegramUserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
		},
		TelegramUserID: telegramUserID,
		Name:           name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseSession はセッションJWTを検証してクレームを返す。
func ParseSession(secret, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
	)
	if err != nil || !token.Valid || claims.TelegramUserID <= 0 {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// SetSessionCookie はセッションCookieを設定する。
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(ttl.Seconds()), "/", "", c.Request.TLS != nil, true)
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}

// IdentityConfig はIdentityミドルウェアの設定。
type IdentityConfig struct {
	// Secret はセッションJWTの署名鍵。
	Secret string
	// TrustHeader がtrueの場合、X-Telegram-User-Id ヘッダーと tg_id クエリを信頼する。開発用。
	TrustHeader bool
}

// Identity はリクエストのTelegramユーザーIDを解決するGinミドルウェアを返す。
// 解決できた場合はGinコンテキストと、APIクライアントが参照するリクエストコンテキストに設定する。
// 解決できなくてもリクエストは続行する。
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resolveIdentity(c, cfg)
		if ok {
			c.Set(contextKeyTelegramUserID, id)
			c.Request = c.Request.WithContext(httpclient.WithTelegramUserID(c.Request.Context(), id))
		}
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, cfg IdentityConfig) (int64, bool) {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		if claims, err := ParseSession(cfg.Secret, token); err == nil {
			return claims.TelegramUserID, true
		}
	}
	if !cfg.TrustHeader {
		return 0, false
	}
	for _, raw := range []string{c.GetHeader(httpclient.HeaderTelegramUserID), c.Query("tg_id")} {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

// TelegramUserID はGinコンテキストからTelegramユーザーIDを取得する。
// Identityミドルウェアが事前に適用されている必要がある。
func TelegramUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(contextKeyTelegramUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// RequireIdentityJSON はTelegramユーザーIDが無い場合に401を返すGinミドルウェアを返す。
func RequireIdentityJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := TelegramUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "Telegram user ID required",
			})
			return
		}
		c.Next()
	}
}
