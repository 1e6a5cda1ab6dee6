package bot

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HeaderSecretToken はWebhookの秘密トークンを運ぶヘッダー。
const HeaderSecretToken = "X-Telegram-Bot-Api-Secret-Token"

// RunPolling はロングポーリングで更新を受け取り、ctxが終了するまで処理する。
func (b *Bot) RunPolling(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	log.Printf("[Bot] ロングポーリングを開始します: @%s", api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			log.Println("[Bot] ロングポーリングを停止しました")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				log.Printf("[Bot] 更新の処理に失敗: update=%d, error=%v", update.UpdateID, err)
			}
		}
	}
}

// SetWebhook はTelegramにWebhookのURLと秘密トークンを登録する。
func SetWebhook(api *tgbotapi.BotAPI, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	_, err := api.MakeRequest("setWebhook", params)
	return err
}

// WebhookHandler は POST /webhook/:token のハンドラを返す。
// パスのトークンがボットトークンと一致し、secretが設定されていればヘッダーとも一致する必要がある。
func (b *Bot) WebhookHandler(token, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || !equal(c.Param("token"), token) {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Invalid token"})
			return
		}
		if secret != "" && !equal(c.GetHeader(HeaderSecretToken), secret) {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Invalid secret token"})
			return
		}

		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid update"})
			return
		}
		// 処理の失敗はログのみ。Telegramには常に200を返す
		if err := b.HandleUpdate(c.Request.Context(), update); err != nil {
			log.Printf("[Bot] Webhookの処理に失敗: update=%d, error=%v", update.UpdateID, err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
