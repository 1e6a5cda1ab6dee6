package wizard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrDraftNotFound は下書きが存在しないことを表す。
var ErrDraftNotFound = errors.New("下書きが見つかりません")

// draftColumns は booking_drafts テーブルの列。
var draftColumns = []string{
	"id", "telegram_user_id", "step", "service_id", "master_id",
	"booking_date", "booking_time", "slot_master_id",
	"contact_name", "contact_phone", "comment",
	"certificate_id", "booking_id", "updated_at",
}

// Store は下書きをSQLiteに保存する。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save は下書きを保存する。同じIDがあれば上書きする。
func (s *Store) Save(ctx context.Context, d *Draft) error {
	if !d.Step.Valid() {
		return ErrStepOutOfRange
	}
	_, err := sq.Insert("booking_drafts").
		Columns(draftColumns...).
		Values(
			d.ID, d.TelegramUserID, int(d.Step), d.ServiceID, d.MasterID,
			d.Date, d.Time, d.SlotMasterID,
			d.ContactName, d.ContactPhone, d.Comment,
			d.CertificateID, d.BookingID, d.UpdatedAt.UnixMilli(),
		).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			telegram_user_id = excluded.telegram_user_id,
			step = excluded.step,
			service_id = excluded.service_id,
			master_id = excluded.master_id,
			booking_date = excluded.booking_date,
			booking_time = excluded.booking_time,
			slot_master_id = excluded.slot_master_id,
			contact_name = excluded.contact_name,
			contact_phone = excluded.contact_phone,
			comment = excluded.comment,
			certificate_id = excluded.certificate_id,
			booking_id = excluded.booking_id,
			updated_at = excluded.updated_at`).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("下書きの保存に失敗: id=%s: %w", d.ID, err)
	}
	return nil
}

// Get は下書きを取得する。
func (s *Store) Get(ctx context.Context, id string) (*Draft, error) {
	var (
		d         Draft
		step      int
		updatedAt int64
	)
	err := sq.Select(draftColumns...).
		From("booking_drafts").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(
			&d.ID, &d.TelegramUserID, &step, &d.ServiceID, &d.MasterID,
			&d.Date, &d.Time, &d.SlotMasterID,
			&d.ContactName, &d.ContactPhone, &d.Comment,
			&d.CertificateID, &d.BookingID, &updatedAt,
		)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("下書きの取得に失敗: id=%s: %w", id, err)
	}
	d.Step = Step(step)
	if !d.Step.Valid() {
		return nil, fmt.Errorf("下書き id=%s: %w", id, ErrStepOutOfRange)
	}
	d.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &d, nil
}

// Delete は下書きを削除する。存在しない場合も成功とする。
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := sq.Delete("booking_drafts").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("下書きの削除に失敗: id=%s: %w", id, err)
	}
	return nil
}

// PurgeOlderThan は t より前に更新された下書きを削除し、削除件数を返す。
func (s *Store) PurgeOlderThan(ctx context.Context, t time.Time) (int64, error) {
	res, err := sq.Delete("booking_drafts").
		Where(sq.Lt{"updated_at": t.UnixMilli()}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("古い下書きの削除に失敗: %w", err)
	}
	return res.RowsAffected()
}
