package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nao1215/beautybar/pkg/event"
)

// 既定値。
const (
	// DefaultInterval はポーリング間隔の既定値。
	DefaultInterval = 5 * time.Second
	// DefaultBatchSize は1回のポーリングで処理するイベント数の既定値。
	DefaultBatchSize = 50
	// DefaultMaxAttempts は1イベントあたりの送信試行回数の上限の既定値。
	DefaultMaxAttempts = 5
)

// Recorder は通知の送信結果の記録先。
type Recorder interface {
	NotificationSent(ok bool)
}

// DraftPurger は古い予約ウィザードの下書きを削除する。
type DraftPurger interface {
	PurgeOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// Notifier はアウトボックスをポーリングし、未送信のイベントを通知するバックグラウンドプロセス。
type Notifier struct {
	// outbox は送信待ちイベントのキュー。
	outbox *event.Outbox
	// sender はメッセージの送信先。
	sender Sender
	// recorder は送信結果の記録先。nilの場合は記録しない。
	recorder Recorder
	// drafts は下書きの削除先。nilの場合は削除しない。
	drafts DraftPurger
	// draftTTL は下書きを保持する期間。
	draftTTL time.Duration
	// interval はポーリング間隔。
	interval time.Duration
	// batchSize は1回のポーリングで処理するイベント数。
	batchSize int
	// maxAttempts は1イベントあたりの送信試行回数の上限。
	maxAttempts int
	// now は現在時刻を返す。
	now func() time.Time
	// cancel はバックグラウンドゴルーチンを停止するためのキャンセル関数。
	cancel context.CancelFunc
	// done はバックグラウンドゴルーチンの終了を通知する。
	done chan struct{}
}

// Option はNotifierの設定を変更する関数。
type Option func(*Notifier)

// WithInterval はポーリング間隔を設定する。
func WithInterval(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.interval = d
		}
	}
}

// WithMaxAttempts は送信試行回数の上限を設定する。
func WithMaxAttempts(attempts int) Option {
	return func(n *Notifier) {
		if attempts > 0 {
			n.maxAttempts = attempts
		}
	}
}

// WithRecorder は送信結果の記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(n *Notifier) {
		n.recorder = r
	}
}

// WithDraftPurge はポーリングのたびにttlより古い下書きを削除するよう設定する。
func WithDraftPurge(p DraftPurger, ttl time.Duration) Option {
	return func(n *Notifier) {
		n.drafts = p
		n.draftTTL = ttl
	}
}

// New は新しいNotifierを生成する。
func New(outbox *event.Outbox, sender Sender, opts ...Option) *Notifier {
	n := &Notifier{
		outbox:      outbox,
		sender:      sender,
		interval:    DefaultInterval,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Start はバックグラウンドでアウトボックスのポーリングを開始する。
func (n *Notifier) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})

	go func() {
		defer close(n.done)
		log.Println("[Notifier] アウトボックスのポーリングを開始します")
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Notifier] ポーリングを停止しました")
				return
			case <-ticker.C:
				if err := n.poll(ctx); err != nil {
					log.Printf("[Notifier] ポーリングエラー: %v", err)
				}
			}
		}
	}()
}

// Stop はバックグラウンドのポーリングを停止し、終了を待つ。
func (n *Notifier) Stop() {
	if n.cancel == nil {
		return
	}
	n.cancel()
	<-n.done
}

// poll は未送信のイベントを通知し、古い下書きを削除する。
func (n *Notifier) poll(ctx context.Context) error {
	if n.drafts != nil && n.draftTTL > 0 {
		if purged, err := n.drafts.PurgeOlderThan(ctx, n.now().Add(-n.draftTTL)); err != nil {
			log.Printf("[Notifier] 下書きの削除に失敗: %v", err)
		} else if purged > 0 {
			log.Printf("[Notifier] 古い下書きを%d件削除しました", purged)
		}
	}

	events, err := n.outbox.Pending(ctx, n.batchSize, n.maxAttempts)
	if err != nil {
		return fmt.Errorf("未送信イベントの取得に失敗: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	sent := 0
	for _, e := range events {
		if err := n.deliver(ctx, e); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Notifier] 通知エラー (id=%s, type=%s, attempt=%d): %v", e.ID, e.EventType, e.Attempts+1, err)
			continue
		}
		sent++
	}
	log.Printf("[Notifier] %d/%d件のイベントを処理しました", sent, len(events))
	return nil
}

// deliver は1つのイベントを送信し、結果をアウトボックスに記録する。
// 通知対象外のイベントと送信先の無いイベントは送らずに送信済みにする。
func (n *Notifier) deliver(ctx context.Context, e *event.Event) error {
	text, err := Render(e)
	if errors.Is(err, ErrUnsupported) || e.TelegramUserID <= 0 {
		return n.outbox.MarkSent(ctx, e.ID, n.now())
	}
	if err != nil {
		return n.fail(ctx, e, err)
	}

	if err := n.sender.Send(ctx, e.TelegramUserID, text); err != nil {
		n.record(false)
		return n.fail(ctx, e, err)
	}
	n.record(true)
	if err := n.outbox.MarkSent(ctx, e.ID, n.now()); err != nil {
		return fmt.Errorf("送信済みの記録に失敗: %w", err)
	}
	return nil
}

// fail は送信失敗を記録し、元のエラーを返す。
func (n *Notifier) fail(ctx context.Context, e *event.Event, cause error) error {
	if err := n.outbox.MarkFailed(ctx, e.ID, cause.Error()); err != nil {
		return errors.Join(cause, fmt.Errorf("送信失敗の記録に失敗: %w", err))
	}
	return cause
}

func (n *Notifier) record(ok bool) {
	if n.recorder != nil {
		n.recorder.NotificationSent(ok)
	}
}
