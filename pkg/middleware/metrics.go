package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver はリクエストの記録先。
type RequestObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// Metrics はリクエストごとの件数と処理時間を記録するGinミドルウェアを返す。
// ルートはパターン（例: "/services/:id"）で記録する。
func Metrics(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		o.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
