package web

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/pkg/middleware"
	"github.com/nao1215/beautybar/pkg/telegram"
)

// telegramAuthRequest は POST /auth/telegram のリクエスト。
type telegramAuthRequest struct {
	InitData string `json:"init_data" form:"init_data" binding:"required"`
}

// handleTelegramAuth はMini-AppのinitDataを検証してセッションCookieを発行するハンドラを返す。
func (s *Server) handleTelegramAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.botToken == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Авторизация через Telegram не настроена"})
			return
		}

		var req telegramAuthRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Не переданы данные Telegram"})
			return
		}

		data, err := telegram.Validate(req.InitData, s.botToken, s.initDataMaxAge, s.now())
		if err != nil {
			log.Printf("[Auth] initDataの検証に失敗: %v", err)
			msg := "Не удалось подтвердить данные Telegram"
			if errors.Is(err, telegram.ErrExpired) {
				msg = "Сессия Telegram устарела. Откройте приложение заново."
			}
			c.JSON(http.StatusUnauthorized, gin.H{"detail": msg})
			return
		}

		token, err := middleware.IssueSession(s.sessionSecret, data.User.ID, data.User.FirstName, s.sessionTTL)
		if err != nil {
			log.Printf("[Auth] セッション発行エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		middleware.SetSessionCookie(c, token, s.sessionTTL)

		if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			c.JSON(http.StatusOK, gin.H{
				"telegram_user_id": data.User.ID,
				"first_name":       data.User.FirstName,
			})
			return
		}
		c.Redirect(http.StatusSeeOther, safeRedirect(c.PostForm("next")))
	}
}

// handleLogout はセッションCookieを削除するハンドラを返す。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// requireIdentityPage はTelegramユーザーIDが無い場合にトップへリダイレクトするミドルウェアを返す。
func (s *Server) requireIdentityPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.TelegramUserID(c); !ok {
			c.Redirect(http.StatusSeeOther, "/?login=required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// safeRedirect は同一サイト内のパスのみを許可する。
func safeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
