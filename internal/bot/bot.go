package bot

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// ボットの文面。
const (
	msgWelcome = "Добро пожаловать в LL BeautyBar!\n\nНажмите кнопку ниже, чтобы открыть приложение:"
	msgHelp    = "Команды:\n" +
		"/start - открыть приложение\n" +
		"/bookings - ближайшие записи\n" +
		"/help - список команд"
	msgNoBookings = "У вас нет предстоящих записей."
	msgUnknown    = "Неизвестная команда. Напишите /help"
	// openAppText は Mini-App を開くボタンの文言。
	openAppText = "Открыть приложение"
)

// maxListed は /bookings で表示する予約の最大件数。
const maxListed = 5

// Messenger はTelegramへメッセージを送る。*tgbotapi.BotAPI が満たす。
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BookingLister はユーザーの予約を取得する。*salonapi.Client が満たす。
type BookingLister interface {
	ListBookings(ctx context.Context, status salonapi.BookingStatus) ([]salonapi.Booking, error)
}

// Bot はTelegramのコマンドを処理する。
type Bot struct {
	// messenger は返信の送信先。
	messenger Messenger
	// bookings は予約の取得元。
	bookings BookingLister
	// webAppURL はMini-AppのURL。
	webAppURL string
	// loc はサロンのタイムゾーン。
	loc *time.Location
	// now は現在時刻を返す。
	now func() time.Time
}

// New は新しいBotを生成する。locがnilの場合はUTCを使う。
func New(m Messenger, bookings BookingLister, webAppURL string, loc *time.Location) *Bot {
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		messenger: m,
		bookings:  bookings,
		webAppURL: webAppURL,
		loc:       loc,
		now:       time.Now,
	}
}

// webAppInfo はMini-Appを開くボタンの指定。
type webAppInfo struct {
	URL string `json:"url"`
}

// webAppButton はMini-Appを開くインラインボタン。
type webAppButton struct {
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

// webAppKeyboard はMini-Appボタンを含むインラインキーボード。
type webAppKeyboard struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

// HandleUpdate は1件の更新を処理する。コマンド以外のメッセージは無視する。
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return nil
	}

	var reply tgbotapi.MessageConfig
	switch msg.Command() {
	case "start":
		reply = b.start(msg.Chat.ID)
	case "help":
		reply = tgbotapi.NewMessage(msg.Chat.ID, msgHelp)
	case "bookings":
		var from int64
		if msg.From != nil {
			from = msg.From.ID
		}
		reply = tgbotapi.NewMessage(msg.Chat.ID, b.upcoming(ctx, from))
	default:
		reply = tgbotapi.NewMessage(msg.Chat.ID, msgUnknown)
	}

	if _, err := b.messenger.Send(reply); err != nil {
		return fmt.Errorf("返信の送信に失敗: chat=%d, command=%s: %w", msg.Chat.ID, msg.Command(), err)
	}
	return nil
}

// start は歓迎メッセージを組み立てる。URLが設定されていればMini-Appのボタンを付ける。
func (b *Bot) start(chatID int64) tgbotapi.MessageConfig {
	reply := tgbotapi.NewMessage(chatID, msgWelcome)
	if b.webAppURL != "" {
		reply.ReplyMarkup = webAppKeyboard{
			InlineKeyboard: [][]webAppButton{{{Text: openAppText, WebApp: webAppInfo{URL: b.webAppURL}}}},
		}
	}
	return reply
}

// upcoming は今後の有効な予約を開始日時の順に一覧にする。
func (b *Bot) upcoming(ctx context.Context, telegramUserID int64) string {
	if telegramUserID <= 0 {
		return msgNoBookings
	}
	list, err := b.bookings.ListBookings(httpclient.WithTelegramUserID(ctx, telegramUserID), "")
	if err != nil {
		log.Printf("[Bot] 予約一覧の取得に失敗: user=%d, error=%v", telegramUserID, err)
		return "⚠️ " + httpclient.Message(err)
	}

	type item struct {
		start time.Time
		b     salonapi.Booking
	}
	now := b.now().In(b.loc)
	items := make([]item, 0, len(list))
	for _, bk := range list {
		if !booking.CanReschedule(bk) {
			continue
		}
		start, err := booking.StartsAt(bk, b.loc)
		if err != nil || start.Before(now) {
			continue
		}
		items = append(items, item{start: start, b: bk})
	}
	if len(items) == 0 {
		return msgNoBookings
	}
	slices.SortFunc(items, func(x, y item) int { return x.start.Compare(y.start) })
	if len(items) > maxListed {
		items = items[:maxListed]
	}

	var sb strings.Builder
	sb.WriteString("Ваши ближайшие записи:\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "\n• %s · %s", it.start.Format("02.01.2006 15:04"), it.b.Service.Name)
		if it.b.Master != nil && it.b.Master.Name != "" {
			fmt.Fprintf(&sb, " (%s)", it.b.Master.Name)
		}
		fmt.Fprintf(&sb, " · %s", booking.StatusText(it.b.Status))
	}
	return sb.String()
}
