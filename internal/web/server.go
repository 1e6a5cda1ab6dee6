package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/internal/config"
	"github.com/nao1215/beautybar/internal/validator"
	"github.com/nao1215/beautybar/internal/wizard"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/metrics"
	"github.com/nao1215/beautybar/pkg/middleware"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Deps はServerが利用するコンポーネント。
type Deps struct {
	// API はサロンAPIクライアント。
	API *salonapi.Client
	// Drafts は予約ウィザードの下書きストア。
	Drafts *wizard.Store
	// Outbox は通知用のイベントアウトボックス。
	Outbox *event.Outbox
	// Metrics はメトリクス。nilの場合は /metrics を公開しない。
	Metrics *metrics.Metrics
	// Webhook はTelegram Webhookのハンドラー。nilの場合はルートを登録しない。
	Webhook gin.HandlerFunc
}

// Server はWebフロントエンドのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// api はサロンAPIクライアント。
	api *salonapi.Client
	// drafts は予約ウィザードの下書きストア。
	drafts *wizard.Store
	// draftTTL は下書きCookieの有効期間。
	draftTTL time.Duration
	// outbox は通知用のイベントアウトボックス。
	outbox *event.Outbox
	// metrics はメトリクス。
	metrics *metrics.Metrics
	// pages は描画用テンプレート（ページ名ごと）。
	pages map[string]*template.Template
	// proxyClient は /api 転送に使うHTTPクライアント。
	proxyClient *http.Client
	// apiURL はサロンAPIのベースURL。
	apiURL string
	// sessionSecret はセッションJWTの署名鍵。
	sessionSecret string
	// sessionTTL はセッションの有効期間。
	sessionTTL time.Duration
	// botToken はinitData検証に使うボットトークン。
	botToken string
	// initDataMaxAge はinitDataの最大経過時間。
	initDataMaxAge time.Duration
	// loc はサロンのタイムゾーン。
	loc *time.Location
	// now は現在時刻を返す関数。
	now func() time.Time
}

// NewServer は新しいWebサーバーを生成する。
func NewServer(cfg config.Config, deps Deps) (*Server, error) {
	if deps.API == nil || deps.Drafts == nil || deps.Outbox == nil {
		return nil, errors.New("APIクライアント、下書きストア、アウトボックスは必須です")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	validator.RegisterGin()
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗: %w", err)
	}

	s := &Server{
		router:         gin.New(),
		port:           cfg.Port,
		api:            deps.API,
		drafts:         deps.Drafts,
		draftTTL:       cfg.DraftTTL.Duration,
		outbox:         deps.Outbox,
		metrics:        deps.Metrics,
		pages:          pages,
		proxyClient:    &http.Client{Timeout: cfg.APITimeout.Duration},
		apiURL:         cfg.APIURL,
		sessionSecret:  cfg.SessionSecret,
		sessionTTL:     cfg.SessionTTL.Duration,
		botToken:       cfg.Telegram.BotToken,
		initDataMaxAge: cfg.Telegram.InitDataMaxAge.Duration,
		loc:            loc,
		now:            time.Now,
	}

	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
	s.router.Use(middleware.Recovery(s.renderBoundary))
	s.router.Use(accessLogger(nil, cfg.Telegram.BotToken))
	s.router.Use(middleware.CORS(cfg.FrontendOrigins))
	s.router.Use(middleware.Identity(middleware.IdentityConfig{
		Secret:      cfg.SessionSecret,
		TrustHeader: cfg.DevIdentity,
	}))
	s.setupRoutes(deps.Webhook)

	return s, nil
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[Web] シャットダウンを開始します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	return nil
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes(webhook gin.HandlerFunc) {
	s.router.GET("/", s.handleHome())

	// カタログ（認証不要）
	s.router.GET("/services", s.handleServices())
	s.router.GET("/services/:id", s.handleServiceDetail())
	s.router.GET("/masters", s.handleMasters())
	s.router.GET("/masters/:id", s.handleMasterDetail())
	s.router.GET("/promotions", s.handlePromotions())
	s.router.GET("/salon", s.handleSalon())

	// Telegram認証
	auth := s.router.Group("/auth")
	{
		auth.POST("/telegram", s.handleTelegramAuth())
		auth.POST("/logout", s.handleLogout())
	}

	// ユーザー固有のページ
	user := s.router.Group("")
	user.Use(s.requireIdentityPage())
	{
		user.GET("/booking", s.handleWizardShow())
		user.POST("/booking", s.handleWizardSubmit())

		user.GET("/bookings", s.handleBookings())
		user.POST("/bookings/:id/cancel", s.handleCancelBooking())
		user.GET("/bookings/:id/reschedule", s.handleRescheduleForm())
		user.POST("/bookings/:id/reschedule", s.handleReschedule())

		user.GET("/profile", s.handleProfile())
		user.GET("/profile/edit", s.handleProfileEdit())
		user.POST("/profile/edit", s.handleProfileUpdate())

		user.GET("/certificates", s.handleCertificates())

		user.GET("/reviews/create", s.handleReviewForm())
		user.POST("/reviews/create", s.handleReviewCreate())
	}

	// Mini-App向けのAPI転送
	api := s.router.Group("/api")
	api.Use(s.requireIdentityForUserAPI())
	{
		api.GET("/*path", s.handleProxy())
		api.POST("/*path", s.handleProxy())
		api.PATCH("/*path", s.handleProxy())
	}

	if webhook != nil {
		s.router.POST("/webhook/:token", webhook)
	}
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "web"})
	})

	s.router.NoRoute(s.handleNotFound())
}

// accessLogger はアクセスログのミドルウェアを返す。outがnilの場合はgin.DefaultWriterに出力する。
// パスにボットトークンを含むWebhookのリクエストは記録しない。
func accessLogger(out io.Writer, botToken string) gin.HandlerFunc {
	conf := gin.LoggerConfig{Output: out}
	if botToken != "" {
		conf.SkipPaths = []string{"/webhook/" + botToken}
	}
	return gin.LoggerWithConfig(conf)
}

// clock はサロンのタイムゾーンでの現在時刻を返す。
func (s *Server) clock() time.Time {
	return s.now().In(s.loc)
}
