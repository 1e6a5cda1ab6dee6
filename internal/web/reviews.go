package web

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/internal/validator"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/middleware"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// reviewTitle はレビュー投稿ページのタイトル。
const reviewTitle = "Оставить отзыв"

// reviewForm はレビュー投稿フォームの入力。
type reviewForm struct {
	MasterID  int64  `form:"master_id" binding:"required,gt=0"`
	BookingID int64  `form:"booking_id" binding:"gte=0"`
	Rating    int    `form:"rating" binding:"required,min=1,max=5"`
	Comment   string `form:"comment" binding:"max=1000"`
}

// reviewLabels はレビュー投稿フォームの表示名。
var reviewLabels = map[string]string{
	"MasterID":  "Специалист",
	"BookingID": "Запись",
	"Rating":    "Оценка",
	"Comment":   "Комментарий",
}

// reviewView はレビュー投稿ページのデータ。
type reviewView struct {
	Master  *salonapi.Master
	Form    reviewForm
	Ratings []int
}

// handleReviewForm はレビュー投稿フォームのハンドラを返す。?master_id= が必須。
func (s *Server) handleReviewForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		masterID, _ := strconv.ParseInt(c.Query("master_id"), 10, 64)
		bookingID, _ := strconv.ParseInt(c.Query("booking_id"), 10, 64)
		s.renderReview(c, http.StatusOK, reviewForm{MasterID: masterID, BookingID: bookingID, Rating: 5}, "")
	}
}

// handleReviewCreate はレビューを投稿するハンドラを返す。
// 投稿後はスペシャリストのページへリダイレクトする。
func (s *Server) handleReviewCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tgID, _ := middleware.TelegramUserID(c)

		var form reviewForm
		if err := c.ShouldBind(&form); err != nil {
			s.renderReview(c, http.StatusUnprocessableEntity, form, validator.Message(err, reviewLabels))
			return
		}
		form.Comment = strings.TrimSpace(form.Comment)

		review, err := s.api.CreateReview(ctx, salonapi.ReviewCreate{
			MasterID:  form.MasterID,
			BookingID: form.BookingID,
			Rating:    form.Rating,
			Comment:   form.Comment,
		})
		if err != nil {
			s.renderReview(c, http.StatusUnprocessableEntity, form, httpclient.Message(err))
			return
		}

		data := event.ReviewData{ReviewID: review.ID, MasterID: form.MasterID, Rating: form.Rating}
		if m, err := s.api.GetMaster(ctx, form.MasterID); err == nil {
			data.MasterName = m.Name
		}
		log.Printf("[Review] レビューを投稿しました: review=%d, master=%d, user=%d", review.ID, form.MasterID, tgID)
		s.record(ctx, event.AggregateTypeReview, review.ID, event.TypeReviewSubmitted, tgID, data)

		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/masters/%d?notice=review", form.MasterID))
	}
}

// renderReview はレビュー投稿フォームを描画する。スペシャリストが無い場合は案内を表示する。
func (s *Server) renderReview(c *gin.Context, status int, form reviewForm, formError string) {
	view := reviewView{Form: form, Ratings: []int{1, 2, 3, 4, 5}}
	if form.MasterID > 0 {
		m, err := s.api.GetMaster(c.Request.Context(), form.MasterID)
		if err != nil {
			s.renderAPIError(c, "review", reviewTitle, err)
			return
		}
		view.Master = &m
	}
	s.renderPage(c, status, "review", pageData{Title: reviewTitle, FormError: formError, Data: view})
}
