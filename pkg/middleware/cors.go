package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/pkg/httpclient"
)

// corsAllowHeaders はプリフライトで許可するリクエストヘッダー。
var corsAllowHeaders = strings.Join([]string{
	"Authorization",
	"Content-Type",
	httpclient.HeaderTelegramUserID,
}, ", ")

// CORS は指定されたオリジンからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// Mini-Appが別オリジンから /api を呼ぶためにセッションCookieの送信も許可する。
// "*" を含めると全オリジンを許可するが、その場合Cookieは送信されない。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originsSet := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		originsSet[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Vary", "Origin")
			if _, ok := originsSet[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				setPreflightHeaders(c)
			} else if wildcard {
				c.Header("Access-Control-Allow-Origin", "*")
				setPreflightHeaders(c)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func setPreflightHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
	c.Header("Access-Control-Max-Age", "86400")
}
