// Webフロントエンドのエントリポイント。
// サロンAPIのカタログ・予約画面とMini-App向けのAPI転送を提供する。
// ボットトークンが設定されている場合は予約通知の送信とWebhookの受信も担当する。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nao1215/beautybar/internal/bot"
	"github.com/nao1215/beautybar/internal/config"
	"github.com/nao1215/beautybar/internal/notifier"
	"github.com/nao1215/beautybar/internal/store"
	"github.com/nao1215/beautybar/internal/web"
	"github.com/nao1215/beautybar/internal/wizard"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/metrics"
	"github.com/nao1215/beautybar/pkg/querycache"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// cacheSize はカタログキャッシュの最大エントリ数。
const cacheSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Webサービスの起動に失敗: %v", err)
	}
	log.Println("Webサービスを停止しました")
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := store.Open(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New("beautybar")
	client := salonapi.New(
		httpclient.New(cfg.APIURL,
			httpclient.WithTimeout(cfg.APITimeout.Duration),
			httpclient.WithObserver(m.ObserveUpstream),
		),
		querycache.New(cacheSize, cfg.CacheTTL.Duration),
	)
	drafts := wizard.NewStore(db)
	outbox := event.NewOutbox(db)

	deps := web.Deps{
		API:     client,
		Drafts:  drafts,
		Outbox:  outbox,
		Metrics: m,
	}

	if cfg.BotEnabled() {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("Telegramボットの初期化に失敗: %w", err)
		}

		n := notifier.New(outbox, notifier.NewTelegramSender(api),
			notifier.WithInterval(cfg.Telegram.NotifyInterval.Duration),
			notifier.WithRecorder(m),
			notifier.WithDraftPurge(drafts, cfg.DraftTTL.Duration),
		)
		n.Start(ctx)
		defer n.Stop()

		if cfg.Telegram.WebhookURL != "" {
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			b := bot.New(api, client, cfg.Telegram.WebAppURL, loc)
			url := strings.TrimRight(cfg.Telegram.WebhookURL, "/") + "/webhook/" + cfg.Telegram.BotToken
			if err := bot.SetWebhook(api, url, cfg.Telegram.WebhookSecret); err != nil {
				return fmt.Errorf("Webhookの登録に失敗: %w", err)
			}
			deps.Webhook = b.WebhookHandler(cfg.Telegram.BotToken, cfg.Telegram.WebhookSecret)
			log.Printf("[Web] Webhookを登録しました: @%s", api.Self.UserName)
		}
	} else {
		log.Println("[Web] TELEGRAM_BOT_TOKENが未設定のため通知を無効にします")
	}

	server, err := web.NewServer(cfg, deps)
	if err != nil {
		return fmt.Errorf("Webサーバーの初期化に失敗: %w", err)
	}

	log.Printf("Webサービスを起動します: :%s", cfg.Port)
	return server.Run(ctx)
}
