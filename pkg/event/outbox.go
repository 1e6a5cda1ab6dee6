package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrNotFound はイベントが存在しないことを表す。
var ErrNotFound = errors.New("イベントが見つかりません")

// eventColumns は events テーブルの列。
var eventColumns = []string{
	"id", "aggregate_id", "aggregate_type", "event_type", "telegram_user_id",
	"data", "created_at", "sent_at", "attempts", "last_error",
}

// Outbox は送信待ちイベントを保持するSQLiteのキュー。
type Outbox struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewOutbox は新しいOutboxを生成する。
func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{db: db}
}

// Append はイベントを未送信として記録する。
func (o *Outbox) Append(ctx context.Context, e *Event) error {
	_, err := sq.Insert("events").
		Columns(eventColumns...).
		Values(e.ID, e.AggregateID, string(e.AggregateType), string(e.EventType), e.TelegramUserID,
			string(e.Data), e.CreatedAt.UnixMilli(), nil, 0, "").
		RunWith(o.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("イベントの記録に失敗: %w", err)
	}
	return nil
}

// Pending は未送信で試行回数が maxAttempts 未満のイベントを古い順に返す。
func (o *Outbox) Pending(ctx context.Context, limit, maxAttempts int) ([]*Event, error) {
	q := sq.Select(eventColumns...).
		From("events").
		Where(sq.Eq{"sent_at": nil}).
		Where(sq.Lt{"attempts": maxAttempts}).
		OrderBy("created_at", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return o.query(ctx, q)
}

// ListByUser はユーザーのイベントを新しい順に返す。
func (o *Outbox) ListByUser(ctx context.Context, telegramUserID int64, limit int) ([]*Event, error) {
	q := sq.Select(eventColumns...).
		From("events").
		Where(sq.Eq{"telegram_user_id": telegramUserID}).
		OrderBy("created_at DESC", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return o.query(ctx, q)
}

// MarkSent はイベントを送信済みにする。
func (o *Outbox) MarkSent(ctx context.Context, id string, at time.Time) error {
	return o.update(ctx, sq.Update("events").
		Set("sent_at", at.UnixMilli()).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", "").
		Where(sq.Eq{"id": id}))
}

// MarkFailed は送信失敗を記録し、試行回数を増やす。
func (o *Outbox) MarkFailed(ctx context.Context, id string, reason string) error {
	return o.update(ctx, sq.Update("events").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", reason).
		Where(sq.Eq{"id": id}))
}

func (o *Outbox) update(ctx context.Context, b sq.UpdateBuilder) error {
	res, err := b.RunWith(o.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("イベントの更新に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (o *Outbox) query(ctx context.Context, b sq.SelectBuilder) ([]*Event, error) {
	rows, err := b.RunWith(o.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*Event
	for rows.Next() {
		var (
			e         Event
			aggType   string
			eventType string
			data      string
			createdAt int64
			sentAt    sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &aggType, &eventType, &e.TelegramUserID,
			&data, &createdAt, &sentAt, &e.Attempts, &e.LastError); err != nil {
			return nil, fmt.Errorf("イベントの読み取りに失敗: %w", err)
		}
		e.AggregateType = AggregateType(aggType)
		e.EventType = Type(eventType)
		e.Data = []byte(data)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		if sentAt.Valid {
			e.SentAt = time.UnixMilli(sentAt.Int64).UTC()
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
