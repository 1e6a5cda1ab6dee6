package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender はチャットへメッセージを送る。
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TelegramSender はTelegram Bot APIでメッセージを送るSender。
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramSender は新しいTelegramSenderを生成する。
func NewTelegramSender(bot *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{bot: bot}
}

// Send はメッセージを送信する。コンテキストは送信前にのみ確認する。
func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("Telegramへの送信に失敗: chat=%d: %w", chatID, err)
	}
	return nil
}
