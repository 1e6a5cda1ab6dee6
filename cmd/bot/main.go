// Telegramボットのエントリポイント。
// ロングポーリングで /start, /help, /bookings を処理する。
// Webhookでの受信はWebサービス側が担当するため、TELEGRAM_WEBHOOK_URLが設定されている場合は起動しない。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nao1215/beautybar/internal/bot"
	"github.com/nao1215/beautybar/internal/config"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("ボットの起動に失敗: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if !cfg.BotEnabled() {
		return errors.New("TELEGRAM_BOT_TOKENが設定されていません")
	}
	if cfg.Telegram.WebhookURL != "" {
		return errors.New("TELEGRAM_WEBHOOK_URLが設定されています。Webhookはwebサービスで受信してください")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("Telegramボットの初期化に失敗: %w", err)
	}
	// 以前に登録されたWebhookが残っているとgetUpdatesが拒否される
	if _, err := api.MakeRequest("deleteWebhook", nil); err != nil {
		return fmt.Errorf("Webhookの解除に失敗: %w", err)
	}

	client := salonapi.New(httpclient.New(cfg.APIURL, httpclient.WithTimeout(cfg.APITimeout.Duration)), nil)
	b := bot.New(api, client, cfg.Telegram.WebAppURL, loc)

	log.Printf("ボットを起動します: @%s", api.Self.UserName)
	b.RunPolling(ctx, api)
	return nil
}
