package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/beautybar/pkg/salonapi"
)

// 日付と時刻の書式。
const (
	// DateFormat はAPIが使う日付の書式。
	DateFormat = "2006-01-02"
	// TimeFormat はAPIが使う時刻の書式。
	TimeFormat = "15:04"
)

// CancelWindow はキャンセルが可能な開始までの最短時間。
const CancelWindow = 24 * time.Hour

// MaxAdvanceDays は何日先まで予約できるか。
const MaxAdvanceDays = 90

// 日付検証のエラー。
var (
	// ErrDateInPast は過去の日付が指定されたことを表す。
	ErrDateInPast = errors.New("過去の日付は指定できません")
	// ErrDateTooFar は予約可能期間より先の日付が指定されたことを表す。
	ErrDateTooFar = errors.New("予約可能期間を超えています")
)

// StartsAt は予約の開始時刻を loc で解釈して返す。
func StartsAt(b salonapi.Booking, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	// "10:00:00" 形式の時刻は秒を切り捨てる
	clock := b.BookingTime
	if len(clock) > len(TimeFormat) {
		clock = clock[:len(TimeFormat)]
	}
	t, err := time.ParseInLocation(DateFormat+" "+TimeFormat, b.BookingDate+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("予約日時の解析に失敗: booking_id=%d: %w", b.ID, err)
	}
	return t, nil
}

// closed は完了またはキャンセル済みかどうかを返す。
func closed(s salonapi.BookingStatus) bool {
	return s == salonapi.StatusCompleted || s == salonapi.StatusCancelled
}

// CanCancel は予約をキャンセルできるかを返す。
// 完了・キャンセル済みでなく、開始まで CancelWindow 以上あることが条件。
func CanCancel(b salonapi.Booking, now time.Time) bool {
	if closed(b.Status) {
		return false
	}
	start, err := StartsAt(b, now.Location())
	if err != nil {
		return false
	}
	return start.Sub(now) >= CancelWindow
}

// CanReschedule は予約の日時を変更できるかを返す。
func CanReschedule(b salonapi.Booking) bool {
	return !closed(b.Status)
}

// CanReview はレビューを投稿できるかを返す。
func CanReview(b salonapi.Booking) bool {
	return b.Status == salonapi.StatusCompleted && b.Master != nil
}

// StatusText は状態の表示名を返す。未知の状態はそのまま返す。
func StatusText(s salonapi.BookingStatus) string {
	switch s {
	case salonapi.StatusConfirmed:
		return "Подтверждена"
	case salonapi.StatusPending:
		return "Ожидает подтверждения"
	case salonapi.StatusCompleted:
		return "Завершена"
	case salonapi.StatusCancelled:
		return "Отменена"
	default:
		return string(s)
	}
}

// StatusClass は状態バッジのCSSクラスを返す。
func StatusClass(s salonapi.BookingStatus) string {
	switch s {
	case salonapi.StatusConfirmed:
		return "badge-green"
	case salonapi.StatusPending:
		return "badge-yellow"
	case salonapi.StatusCompleted:
		return "badge-blue"
	case salonapi.StatusCancelled:
		return "badge-red"
	default:
		return "badge-gray"
	}
}

// DateRange は now を基準に予約可能な最初と最後の日付（0時）を返す。
func DateRange(now time.Time) (earliest, latest time.Time) {
	y, m, d := now.Date()
	earliest = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	latest = earliest.AddDate(0, 0, MaxAdvanceDays)
	return earliest, latest
}

// ValidateDate は YYYY-MM-DD の日付が予約可能期間内かを検証し、解析結果を返す。
func ValidateDate(date string, now time.Time) (time.Time, error) {
	d, err := time.ParseInLocation(DateFormat, date, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("日付の形式が不正です: %q: %w", date, err)
	}
	earliest, latest := DateRange(now)
	if d.Before(earliest) {
		return time.Time{}, ErrDateInPast
	}
	if d.After(latest) {
		return time.Time{}, ErrDateTooFar
	}
	return d, nil
}

// Filter は予約一覧の絞り込みボタン。
type Filter struct {
	// Status は絞り込む状態。空の場合は全件。
	Status salonapi.BookingStatus
	// Label はボタンの表示名。
	Label string
}

// Filters は予約一覧ページで選べる絞り込み。
var Filters = []Filter{
	{Status: "", Label: "Все"},
	{Status: salonapi.StatusPending, Label: "Ожидают"},
	{Status: salonapi.StatusConfirmed, Label: "Подтверждены"},
	{Status: salonapi.StatusCompleted, Label: "Завершены"},
}

// ParseFilter はクエリ文字列の状態を検証する。未知の値は全件扱いになる。
func ParseFilter(s string) salonapi.BookingStatus {
	for _, f := range Filters {
		if string(f.Status) == s {
			return f.Status
		}
	}
	return ""
}
