package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAPIRoutes(t *testing.T) {
	t.Parallel()

	t.Run("各メソッドのAPI転送ルートが登録されていること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /services/", http.StatusOK, `[]`)
		env.api.set("POST /bookings/", http.StatusCreated, `{"id":1}`)
		env.api.set("PATCH /users/me", http.StatusOK, `{"id":42}`)

		tests := []struct {
			method string
			target string
			want   int
		}{
			{http.MethodGet, "/health", http.StatusOK},
			{http.MethodGet, "/api/services/", http.StatusOK},
			{http.MethodPost, "/api/bookings/", http.StatusCreated},
			{http.MethodPatch, "/api/users/me", http.StatusOK},
		}
		for _, tt := range tests {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Telegram-User-Id", testUserID)
			w := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, w.Code, tt.want)
			}
		}
	})

	t.Run("匿名の利用者固有APIは転送せず401になること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /bookings/", http.StatusOK, `[]`)
		env.api.set("POST /reviews/", http.StatusCreated, `{"id":5}`)

		w := env.request(t, http.MethodGet, "/api/bookings/", "", nil)
		assertStatus(t, w, http.StatusUnauthorized)
		w = env.request(t, http.MethodPost, "/api/reviews/", "", nil)
		assertStatus(t, w, http.StatusUnauthorized)

		if n := env.api.hits("GET /bookings/") + env.api.hits("POST /reviews/"); n != 0 {
			t.Errorf("APIに %d 件転送されました", n)
		}
	})

	t.Run("匿名でも公開APIは転送されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /reviews/master/3", http.StatusOK, `[]`)
		env.api.set("GET /services/", http.StatusOK, `[]`)

		assertStatus(t, env.request(t, http.MethodGet, "/api/reviews/master/3", "", nil), http.StatusOK)
		assertStatus(t, env.request(t, http.MethodGet, "/api/services/", "", nil), http.StatusOK)
	})
}

func TestUserScoped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodGet, "/bookings/", true},
		{http.MethodPatch, "/bookings/7/cancel", true},
		{http.MethodGet, "/users/me", true},
		{http.MethodGet, "/certificates", true},
		{http.MethodPost, "/reviews/", true},
		{http.MethodGet, "/reviews/master/3", false},
		{http.MethodGet, "/services/", false},
		{http.MethodGet, "/bookingsx", false},
	}
	for _, tt := range tests {
		if got := userScoped(tt.method, tt.path); got != tt.want {
			t.Errorf("userScoped(%s, %s) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestAccessLogger(t *testing.T) {
	t.Parallel()

	t.Run("Webhookのボットトークンがログに出ないこと", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := gin.New()
		router.Use(accessLogger(&buf, testBotToken))
		router.POST("/webhook/:token", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodPost, "/webhook/"+testBotToken, nil),
			httptest.NewRequest(http.MethodGet, "/health", nil),
		} {
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		out := buf.String()
		if strings.Contains(out, testBotToken) {
			t.Errorf("ログにトークンが含まれています: %s", out)
		}
		if !strings.Contains(out, "/health") {
			t.Errorf("他のリクエストが記録されていません: %s", out)
		}
	})
}
