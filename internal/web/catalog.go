package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// homeView はトップページのデータ。
type homeView struct {
	Promotions []salonapi.Promotion
}

// handleHome はトップページのハンドラを返す。
// アクティブなプロモーションの取得に失敗してもページは表示する。
func (s *Server) handleHome() gin.HandlerFunc {
	return func(c *gin.Context) {
		view := homeView{}
		if promos, err := s.api.ListPromotions(c.Request.Context(), true); err == nil {
			view.Promotions = promos
		}
		s.renderPage(c, http.StatusOK, "home", pageData{
			Title:         "LL BeautyBar",
			LoginRequired: c.Query("login") == "required",
			Data:          view,
		})
	}
}

// servicesView はサービス一覧のデータ。
type servicesView struct {
	Categories []string
	Category   string
	Services   []salonapi.Service
}

// handleServices はサービス一覧のハンドラを返す。?category= で絞り込む。
func (s *Server) handleServices() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		category := c.Query("category")

		services, err := s.api.ListServices(ctx, category, true)
		if err != nil {
			s.renderAPIError(c, "services", "Услуги", err)
			return
		}
		// カテゴリが取れなくても一覧は表示する
		categories, _ := s.api.ListCategories(ctx)
		s.render(c, http.StatusOK, "services", "Услуги", servicesView{
			Categories: categories,
			Category:   category,
			Services:   services,
		})
	}
}

// serviceDetailView はサービス詳細のデータ。
type serviceDetailView struct {
	Service salonapi.Service
	Masters []salonapi.Master
}

// handleServiceDetail はサービス詳細のハンドラを返す。
func (s *Server) handleServiceDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			s.render(c, http.StatusNotFound, "not_found", "Услуга не найдена", nil)
			return
		}
		ctx := c.Request.Context()
		service, err := s.api.GetService(ctx, id)
		if err != nil {
			s.renderAPIError(c, "service", "Услуга", err)
			return
		}
		masters, err := s.api.ListMasters(ctx, id, true)
		if err != nil {
			s.renderAPIError(c, "service", service.Name, err)
			return
		}
		s.render(c, http.StatusOK, "service", service.Name, serviceDetailView{Service: service, Masters: masters})
	}
}

// handleMasters はスペシャリスト一覧のハンドラを返す。
func (s *Server) handleMasters() gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceID, _ := strconv.ParseInt(c.Query("service_id"), 10, 64)
		masters, err := s.api.ListMasters(c.Request.Context(), serviceID, true)
		if err != nil {
			s.renderAPIError(c, "masters", "Специалисты", err)
			return
		}
		s.render(c, http.StatusOK, "masters", "Специалисты", masters)
	}
}

// masterDetailView はスペシャリスト詳細のデータ。
type masterDetailView struct {
	Master  salonapi.Master
	Reviews []salonapi.Review
}

// handleMasterDetail はスペシャリスト詳細のハンドラを返す。
func (s *Server) handleMasterDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			s.render(c, http.StatusNotFound, "not_found", "Специалист не найден", nil)
			return
		}
		ctx := c.Request.Context()
		master, err := s.api.GetMaster(ctx, id)
		if err != nil {
			s.renderAPIError(c, "master", "Специалист", err)
			return
		}
		reviews, err := s.api.ListMasterReviews(ctx, id)
		if err != nil {
			s.renderAPIError(c, "master", master.Name, err)
			return
		}
		s.renderPage(c, http.StatusOK, "master", pageData{
			Title:  master.Name,
			Notice: noticeText(c.Query("notice")),
			Data:   masterDetailView{Master: master, Reviews: reviews},
		})
	}
}

// handlePromotions はアクティブなプロモーション一覧のハンドラを返す。
func (s *Server) handlePromotions() gin.HandlerFunc {
	return func(c *gin.Context) {
		promos, err := s.api.ListPromotions(c.Request.Context(), true)
		if err != nil {
			s.renderAPIError(c, "promotions", "Акции и предложения", err)
			return
		}
		s.render(c, http.StatusOK, "promotions", "Акции и предложения", promos)
	}
}

// certificateFilter は証明書一覧の絞り込み。
type certificateFilter struct {
	Value string
	Label string
}

// certificateFilters は証明書一覧の絞り込みボタン。
var certificateFilters = []certificateFilter{
	{Value: "", Label: "Все"},
	{Value: "false", Label: "Активные"},
	{Value: "true", Label: "Использованные"},
}

// certificatesView は証明書一覧のデータ。
type certificatesView struct {
	Filters      []certificateFilter
	Used         string
	Certificates []salonapi.Certificate
}

// handleCertificates はユーザーの証明書一覧のハンドラを返す。?used=true|false で絞り込む。
func (s *Server) handleCertificates() gin.HandlerFunc {
	return func(c *gin.Context) {
		used := c.Query("used")
		var isUsed *bool
		if b, err := strconv.ParseBool(used); err == nil {
			isUsed = &b
		} else {
			used = ""
		}

		certs, err := s.api.ListCertificates(c.Request.Context(), isUsed)
		if err != nil {
			s.renderAPIError(c, "certificates", "Мои сертификаты", err)
			return
		}
		s.render(c, http.StatusOK, "certificates", "Мои сертификаты", certificatesView{
			Filters:      certificateFilters,
			Used:         used,
			Certificates: certs,
		})
	}
}

// salonView はサロン情報のデータ。
type salonView struct {
	Settings     salonapi.SalonSettings
	WorkingHours []entry
	SocialLinks  []entry
}

// handleSalon はサロン情報（住所、連絡先、営業時間、SNS、地図、プライバシーポリシー）のハンドラを返す。
func (s *Server) handleSalon() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := s.api.GetSettings(c.Request.Context())
		if err != nil {
			s.renderAPIError(c, "salon", "О салоне", err)
			return
		}
		s.render(c, http.StatusOK, "salon", "О салоне", salonView{
			Settings:     settings,
			WorkingHours: workingHours(settings.WorkingHours),
			SocialLinks:  sortedEntries(settings.SocialLinks, nil),
		})
	}
}

// pathID はパスパラメータ :id を正の整数として解析する。
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// noticeText はリダイレクト後に表示する通知文言を返す。
func noticeText(key string) string {
	switch key {
	case "cancelled":
		return "Запись отменена"
	case "rescheduled":
		return "Запись перенесена. Ожидайте подтверждения."
	case "review":
		return "Спасибо за отзыв!"
	case "profile":
		return "Профиль сохранён"
	default:
		return ""
	}
}
