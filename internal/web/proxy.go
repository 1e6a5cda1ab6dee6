package web

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/middleware"
)

// maxProxyBody は転送するリクエストボディの上限（バイト）。
const maxProxyBody = 1 << 20

// userAPIPrefixes は利用者固有のデータを扱うAPIパス。
var userAPIPrefixes = []string{"/bookings", "/users", "/certificates"}

// userScoped はTelegramユーザーIDが必要なAPI呼び出しかを返す。
// レビューは投稿のみ利用者固有で、一覧は公開。
func userScoped(method, path string) bool {
	prefixes := userAPIPrefixes
	if method != http.MethodGet {
		prefixes = append(prefixes, "/reviews")
	}
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// requireIdentityForUserAPI は利用者固有のAPIへの匿名リクエストを401で拒否する。
func (s *Server) requireIdentityForUserAPI() gin.HandlerFunc {
	require := middleware.RequireIdentityJSON()
	return func(c *gin.Context) {
		if userScoped(c.Request.Method, c.Param("path")) {
			require(c)
			return
		}
		c.Next()
	}
}

// handleProxy は /api/*path をサロンAPIへ転送するハンドラを返す。
// セッションのTelegramユーザーIDを X-Telegram-User-Id として付与する。
func (s *Server) handleProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		proxyURL := s.apiURL + c.Param("path")
		if c.Request.URL.RawQuery != "" {
			proxyURL += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, proxyURL)
	}
}

// doProxy はリクエストをサロンAPIに転送する共通処理。
// 更新系のリクエストが成功した場合はカタログのキャッシュを破棄する。
func (s *Server) doProxy(c *gin.Context, url string) {
	var body io.Reader
	if c.Request.Body != nil && c.Request.Method != http.MethodGet {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProxyBody)
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, url, body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Не удалось создать запрос"})
		return
	}

	// 元のリクエストヘッダーを転送
	if ct := c.GetHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := middleware.TelegramUserID(c); ok {
		req.Header.Set(httpclient.HeaderTelegramUserID, strconv.FormatInt(id, 10))
	}

	resp, err := s.proxyClient.Do(req)
	if err != nil {
		log.Printf("[Proxy] プロキシエラー: url=%s, error=%v", url, err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": httpclient.MsgUnreachable})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"detail": "Не удалось прочитать ответ сервера"})
		return
	}

	if c.Request.Method != http.MethodGet && resp.StatusCode < 300 {
		s.api.Cache().Purge()
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	if strings.HasPrefix(contentType, "text/html") {
		// APIのHTMLエラーページはそのまま返さない
		c.JSON(resp.StatusCode, gin.H{"detail": httpclient.MsgRequestFailed})
		return
	}
	c.Data(resp.StatusCode, contentType, respBody)
}
