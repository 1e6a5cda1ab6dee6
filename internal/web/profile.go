package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/internal/validator"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// profileForm はプロフィール編集フォームの入力。
type profileForm struct {
	FirstName string `form:"first_name" binding:"max=100"`
	LastName  string `form:"last_name" binding:"max=100"`
	Phone     string `form:"phone" binding:"omitempty,phone"`
	Email     string `form:"email" binding:"omitempty,email"`
}

// profileLabels はプロフィール編集フォームの表示名。
var profileLabels = map[string]string{
	"FirstName": "Имя",
	"LastName":  "Фамилия",
	"Phone":     "Телефон",
	"Email":     "Email",
}

// handleProfile はプロフィールのハンドラを返す。
func (s *Server) handleProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, err := s.api.Me(c.Request.Context())
		if err != nil {
			s.renderAPIError(c, "profile", "Профиль", err)
			return
		}
		s.renderPage(c, http.StatusOK, "profile", pageData{
			Title:  "Профиль",
			Notice: noticeText(c.Query("notice")),
			Data:   me,
		})
	}
}

// handleProfileEdit はプロフィール編集フォームのハンドラを返す。
func (s *Server) handleProfileEdit() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, err := s.api.Me(c.Request.Context())
		if err != nil {
			s.renderAPIError(c, "profile_edit", "Редактирование профиля", err)
			return
		}
		s.render(c, http.StatusOK, "profile_edit", "Редактирование профиля", profileForm{
			FirstName: me.FirstName,
			LastName:  me.LastName,
			Phone:     me.Phone,
			Email:     me.Email,
		})
	}
}

// handleProfileUpdate はプロフィールを保存するハンドラを返す。
func (s *Server) handleProfileUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var form profileForm
		if err := c.ShouldBind(&form); err != nil {
			s.renderForm(c, "profile_edit", "Редактирование профиля", validator.Message(err, profileLabels), form)
			return
		}
		form = profileForm{
			FirstName: strings.TrimSpace(form.FirstName),
			LastName:  strings.TrimSpace(form.LastName),
			Phone:     strings.TrimSpace(form.Phone),
			Email:     strings.TrimSpace(form.Email),
		}

		_, err := s.api.UpdateMe(c.Request.Context(), salonapi.UserUpdate{
			FirstName: &form.FirstName,
			LastName:  &form.LastName,
			Phone:     &form.Phone,
			Email:     &form.Email,
		})
		if err != nil {
			s.renderForm(c, "profile_edit", "Редактирование профиля", httpclient.Message(err), form)
			return
		}
		c.Redirect(http.StatusSeeOther, "/profile?notice=profile")
	}
}
