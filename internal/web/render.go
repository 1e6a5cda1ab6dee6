package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/middleware"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

//go:embed templates/*.html
var templateFS embed.FS

// layoutFile はすべてのページが共有するレイアウト。
const layoutFile = "templates/layout.html"

// boundaryPage は描画中に回復不能なエラーが起きた場合のページ名。
const boundaryPage = "boundary"

// templateFuncs はテンプレートで使う関数。
var templateFuncs = template.FuncMap{
	"price":       formatPrice,
	"amount":      formatAmount,
	"rating":      formatRating,
	"discount":    formatDiscount,
	"date":        formatDate,
	"longDate":    formatLongDate,
	"clock":       formatClock,
	"reviewsWord": pluralReviews,
	"stars":       stars,
	"statusText":  booking.StatusText,
	"statusClass": booking.StatusClass,
	"add": func(a, b int) int {
		return a + b
	},
}

// parsePages はレイアウトと各ページのテンプレートを読み込む。
// boundary はレイアウトを使わない単独ページ。
func parsePages() (map[string]*template.Template, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		patterns := []string{layoutFile, f}
		if name == boundaryPage {
			patterns = []string{f}
		}
		t, err := template.New(path.Base(f)).Funcs(templateFuncs).ParseFS(templateFS, patterns...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// errorBlock はページ内に表示するエラー。
type errorBlock struct {
	// Message は表示するメッセージ。
	Message string
	// RetryURL は「Попробовать снова」のリンク先。空の場合はリンクを出さない。
	RetryURL string
}

// pageData はレイアウトに渡すデータ。
type pageData struct {
	// Title はページタイトル。
	Title string
	// TelegramUserID はログイン中のユーザー。0は匿名。
	TelegramUserID int64
	// LoginRequired はログインを促すメッセージを表示するか。
	LoginRequired bool
	// TelegramAuth はinitDataによるログインが有効か。
	TelegramAuth bool
	// Error は読み込みに失敗した場合のエラー。設定されるとページ本文の代わりに表示される。
	Error *errorBlock
	// FormError はフォームの入力エラー。
	FormError string
	// Notice は操作完了の通知。
	Notice string
	// Data はページ固有のデータ。
	Data any
}

// render はページを描画する。
func (s *Server) render(c *gin.Context, status int, name, title string, data any) {
	s.renderPage(c, status, name, pageData{Title: title, Data: data})
}

// renderForm は入力エラー付きでページを描画する。
func (s *Server) renderForm(c *gin.Context, name, title, formError string, data any) {
	s.renderPage(c, http.StatusUnprocessableEntity, name, pageData{Title: title, FormError: formError, Data: data})
}

// renderAPIError はAPIエラーをエラーブロックとして描画する。
func (s *Server) renderAPIError(c *gin.Context, name, title string, err error) {
	if errors.Is(err, salonapi.ErrNoIdentity) {
		c.Redirect(http.StatusSeeOther, "/?login=required")
		return
	}
	log.Printf("[Web] APIエラー: path=%s, error=%v", c.Request.URL.Path, err)
	s.renderPage(c, statusFor(err), name, pageData{
		Title: title,
		Error: &errorBlock{
			Message:  httpclient.Message(err),
			RetryURL: c.Request.URL.RequestURI(),
		},
	})
}

// statusFor はAPIエラーに対応するレスポンスステータスを返す。
func statusFor(err error) int {
	switch code := httpclient.StatusCode(err); {
	case code == http.StatusNotFound:
		return http.StatusNotFound
	case code >= 400 && code < 500:
		return http.StatusBadRequest
	case errors.Is(err, httpclient.ErrUnreachable), code >= 500:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// renderPage はテンプレートをバッファに描画してから書き出す。
// 描画に失敗した場合はエラーページに切り替える。
func (s *Server) renderPage(c *gin.Context, status int, name string, data pageData) {
	t, ok := s.pages[name]
	if !ok {
		panic(fmt.Sprintf("テンプレートが見つかりません: %s", name))
	}
	if id, ok := middleware.TelegramUserID(c); ok {
		data.TelegramUserID = id
	}
	data.TelegramAuth = s.botToken != ""

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("[Web] テンプレートの描画に失敗: page=%s, error=%v", name, err)
		c.Status(http.StatusInternalServerError)
		s.renderBoundary(c)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// renderBoundary は「Произошла ошибка」ページを描画する。
func (s *Server) renderBoundary(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.pages[boundaryPage].ExecuteTemplate(&buf, "boundary", nil); err != nil {
		c.String(http.StatusInternalServerError, "Произошла ошибка")
		return
	}
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", buf.Bytes())
}

// handleNotFound は未定義のパスへのハンドラを返す。
func (s *Server) handleNotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.render(c, http.StatusNotFound, "not_found", "Страница не найдена", nil)
	}
}
