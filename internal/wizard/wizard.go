package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/internal/validator"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// Step はウィザードのステップ。
type Step int

// ステップ一覧。並び順が進行順。
const (
	StepService Step = iota
	StepMaster
	StepDate
	StepTime
	StepContact
	StepConfirm
	StepSuccess
)

var stepNames = [...]string{"service", "master", "date", "time", "contact", "confirm", "success"}

// ウィザードのエラー。
var (
	// ErrStepOutOfRange はステップ番号が範囲外であることを表す。
	ErrStepOutOfRange = errors.New("ステップが範囲外です")
	// ErrForwardJump は先のステップへ直接移動しようとしたことを表す。
	ErrForwardJump = errors.New("先のステップへは移動できません")
	// ErrFinished は完了済みのウィザードを操作しようとしたことを表す。
	ErrFinished = errors.New("予約は既に完了しています")
	// ErrNotConfirmStep は確認ステップ以外で予約を確定しようとしたことを表す。
	ErrNotConfirmStep = errors.New("確認ステップではありません")
	// ErrServiceRequired はサービスが未選択であることを表す。
	ErrServiceRequired = errors.New("サービスが選択されていません")
	// ErrDateRequired は日付が未選択であることを表す。
	ErrDateRequired = errors.New("日付が選択されていません")
	// ErrTimeRequired は時刻が未選択であることを表す。
	ErrTimeRequired = errors.New("時刻が選択されていません")
	// ErrSlotUnavailable は選択した枠が存在しないか予約できないことを表す。
	ErrSlotUnavailable = errors.New("選択した時間は予約できません")
	// ErrContactInvalid は連絡先の入力が不正であることを表す。
	ErrContactInvalid = errors.New("連絡先が不正です")
)

// String はステップ名を返す。
func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid はステップ番号が範囲内かを返す。
func (s Step) Valid() bool {
	return s >= StepService && int(s) < len(stepNames)
}

// Index は1始まりの表示用番号を返す。
func (s Step) Index() int {
	return int(s) + 1
}

// ParseStep はステップ名を解析する。
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrStepOutOfRange, name)
}

// Steps は入力が必要なステップ（success以外）を順に返す。
func Steps() []Step {
	return []Step{StepService, StepMaster, StepDate, StepTime, StepContact, StepConfirm}
}

// Draft は予約ウィザードの入力途中の状態。
type Draft struct {
	// ID は下書きの識別子（UUID）。
	ID string
	// TelegramUserID は所有者。
	TelegramUserID int64
	// Step は現在のステップ。
	Step Step
	// ServiceID は選択したサービス。
	ServiceID int64
	// MasterID は選択したスペシャリスト。0は「任意のスペシャリスト」。
	MasterID int64
	// Date は予約日（YYYY-MM-DD）。
	Date string
	// Time は予約時刻（HH:MM）。
	Time string
	// SlotMasterID は選択した枠に紐づくスペシャリスト。
	SlotMasterID int64
	// ContactName は連絡先の名前。
	ContactName string
	// ContactPhone は連絡先の電話番号。
	ContactPhone string
	// Comment は予約へのコメント。
	Comment string
	// CertificateID は使用する証明書。0は使用しない。
	CertificateID int64
	// BookingID は作成済みの予約ID。
	BookingID int64
	// UpdatedAt は最終更新日時。
	UpdatedAt time.Time
}

// New は新しい下書きを生成する。serviceIDが指定された場合はスペシャリスト選択から始まる。
func New(id string, telegramUserID, serviceID int64) *Draft {
	d := &Draft{
		ID:             id,
		TelegramUserID: telegramUserID,
		Step:           StepService,
		UpdatedAt:      time.Now().UTC(),
	}
	if serviceID > 0 {
		d.ServiceID = serviceID
		d.Step = StepMaster
	}
	return d
}

// Finished は予約が完了済みかを返す。
func (d *Draft) Finished() bool {
	return d.Step == StepSuccess
}

// Next は現在のステップを検証して次へ進む。確認ステップからは Complete を使う。
func (d *Draft) Next() error {
	if d.Finished() {
		return ErrFinished
	}
	if !d.Step.Valid() {
		return ErrStepOutOfRange
	}
	if d.Step == StepConfirm {
		return ErrNotConfirmStep
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.Step++
	d.touch()
	return nil
}

// Prev は前のステップへ戻る。最初のステップと完了後は何もしない。
func (d *Draft) Prev() {
	if d.Step <= StepService || d.Finished() {
		return
	}
	d.Step--
	d.touch()
}

// GoTo は現在より前（または同じ）のステップへ移動する。
func (d *Draft) GoTo(step Step) error {
	if !step.Valid() {
		return ErrStepOutOfRange
	}
	if d.Finished() {
		return ErrFinished
	}
	if step > d.Step {
		return ErrForwardJump
	}
	d.Step = step
	d.touch()
	return nil
}

// SelectService はサービスを選択する。スペシャリストと時刻は選び直しになる。
func (d *Draft) SelectService(id int64) error {
	if d.Finished() {
		return ErrFinished
	}
	if id <= 0 {
		return ErrServiceRequired
	}
	if id != d.ServiceID {
		d.MasterID = 0
		d.clearTime()
	}
	d.ServiceID = id
	d.touch()
	return nil
}

// SelectMaster はスペシャリストを選択する。0は「任意のスペシャリスト」。時刻は選び直しになる。
func (d *Draft) SelectMaster(id int64) error {
	if d.Finished() {
		return ErrFinished
	}
	if id < 0 {
		id = 0
	}
	if id != d.MasterID {
		d.clearTime()
	}
	d.MasterID = id
	d.touch()
	return nil
}

// SelectDate は予約日を選択する。当日から90日後までに限られる。時刻は選び直しになる。
func (d *Draft) SelectDate(date string, now time.Time) error {
	if d.Finished() {
		return ErrFinished
	}
	if _, err := booking.ValidateDate(date, now); err != nil {
		return err
	}
	if date != d.Date {
		d.clearTime()
	}
	d.Date = date
	d.touch()
	return nil
}

// SelectSlot は空き時間一覧から時刻を選択する。masterIDが0でない場合はその担当の枠に限る。
func (d *Draft) SelectSlot(clock string, masterID int64, slots []salonapi.AvailableTimeSlot) error {
	if d.Finished() {
		return ErrFinished
	}
	for _, s := range slots {
		if s.Time != clock || !s.Available {
			continue
		}
		if masterID > 0 && s.MasterID > 0 && s.MasterID != masterID {
			continue
		}
		d.Time = s.Time
		d.SlotMasterID = s.MasterID
		d.touch()
		return nil
	}
	return ErrSlotUnavailable
}

// contactForm は連絡先ステップの検証対象。
type contactForm struct {
	Name    string `validate:"notblank,max=100"`
	Phone   string `validate:"phone"`
	Comment string `validate:"max=1000"`
}

// contactLabels は連絡先フィールドの表示名。
var contactLabels = map[string]string{
	"Name":    "Имя",
	"Phone":   "Телефон",
	"Comment": "Комментарий",
}

// SetContact は連絡先とコメントを設定する。前後の空白は取り除く。
func (d *Draft) SetContact(name, phone, comment string) error {
	if d.Finished() {
		return ErrFinished
	}
	d.ContactName = strings.TrimSpace(name)
	d.ContactPhone = strings.TrimSpace(phone)
	d.Comment = strings.TrimSpace(comment)
	d.touch()
	return d.check(StepContact)
}

// SetCertificate は使用する証明書を設定する。0は使用しない。
func (d *Draft) SetCertificate(id int64) {
	if id < 0 {
		id = 0
	}
	d.CertificateID = id
	d.touch()
}

// Validate は現在のステップに必要な入力が揃っているかを検証する。
func (d *Draft) Validate() error {
	if !d.Step.Valid() {
		return ErrStepOutOfRange
	}
	if d.Step == StepConfirm || d.Step == StepSuccess {
		return d.checkUpTo(StepContact)
	}
	return d.check(d.Step)
}

func (d *Draft) checkUpTo(last Step) error {
	for s := StepService; s <= last; s++ {
		if err := d.check(s); err != nil {
			return err
		}
	}
	return nil
}

// check は1つのステップの入力を検証する。
func (d *Draft) check(step Step) error {
	switch step {
	case StepService:
		if d.ServiceID <= 0 {
			return ErrServiceRequired
		}
	case StepMaster:
		// 「任意のスペシャリスト」を許可する
	case StepDate:
		if validator.Validate.Var(d.Date, "bookingdate") != nil {
			return ErrDateRequired
		}
	case StepTime:
		if validator.Validate.Var(d.Time, "hhmm") != nil {
			return ErrTimeRequired
		}
	case StepContact:
		form := contactForm{Name: d.ContactName, Phone: d.ContactPhone, Comment: d.Comment}
		if err := validator.Validate.Struct(form); err != nil {
			return fmt.Errorf("%w: %s", ErrContactInvalid, validator.Message(err, contactLabels))
		}
	case StepConfirm, StepSuccess:
	default:
		return ErrStepOutOfRange
	}
	return nil
}

// EffectiveMasterID は予約に使うスペシャリストを返す。
// 「任意」を選んだ場合は選択した枠の担当になる。
func (d *Draft) EffectiveMasterID() int64 {
	if d.MasterID > 0 {
		return d.MasterID
	}
	return d.SlotMasterID
}

// BookingRequest は全ステップを検証し、予約作成リクエストを組み立てる。
func (d *Draft) BookingRequest() (salonapi.BookingCreate, error) {
	if err := d.checkUpTo(StepContact); err != nil {
		return salonapi.BookingCreate{}, err
	}
	return salonapi.BookingCreate{
		ServiceID:     d.ServiceID,
		MasterID:      d.EffectiveMasterID(),
		BookingDate:   d.Date,
		BookingTime:   d.Time,
		Comment:       d.Comment,
		CertificateID: d.CertificateID,
	}, nil
}

// Complete は予約の作成結果を記録して完了ステップへ進む。
func (d *Draft) Complete(bookingID int64) error {
	if d.Step != StepConfirm {
		return ErrNotConfirmStep
	}
	d.BookingID = bookingID
	d.Step = StepSuccess
	d.touch()
	return nil
}

// Message はウィザードのエラーを利用者向けの文言に変換する。
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServiceRequired):
		return "Выберите услугу"
	case errors.Is(err, ErrDateRequired):
		return "Выберите дату"
	case errors.Is(err, ErrTimeRequired):
		return "Выберите время"
	case errors.Is(err, ErrSlotUnavailable):
		return "Выбранное время недоступно"
	case errors.Is(err, booking.ErrDateInPast):
		return "Нельзя выбрать прошедшую дату"
	case errors.Is(err, booking.ErrDateTooFar):
		return fmt.Sprintf("Запись доступна не более чем на %d дней вперёд", booking.MaxAdvanceDays)
	case errors.Is(err, ErrContactInvalid):
		if _, detail, ok := strings.Cut(err.Error(), ": "); ok {
			return detail
		}
		return "Проверьте контактные данные"
	case errors.Is(err, ErrFinished):
		return "Запись уже создана"
	default:
		return "Пожалуйста, заполните все обязательные поля"
	}
}

func (d *Draft) clearTime() {
	d.Time = ""
	d.SlotMasterID = 0
}

func (d *Draft) touch() {
	d.UpdatedAt = time.Now().UTC()
}
