package salonapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Decimal はAPIが文字列で返す10進数値（価格、評価、額面、割引率）。
// JSONの数値と文字列のどちらからも読み込める。nullは空文字列になる。
type Decimal string

// UnmarshalJSON はJSONの文字列・数値・nullからDecimalを読み込む。
func (d *Decimal) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = Decimal(n.String())
	return nil
}

// Valid は数値として解釈できるかを返す。
func (d Decimal) Valid() bool {
	_, err := strconv.ParseFloat(string(d), 64)
	return err == nil
}

// Float は数値に変換する。解釈できない場合は0を返す。
func (d Decimal) Float() float64 {
	f, err := strconv.ParseFloat(string(d), 64)
	if err != nil {
		return 0
	}
	return f
}

// Service はサロンのサービス。
type Service struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	Price           Decimal `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	ImageURL        string  `json:"image_url"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// Master はスペシャリスト。
type Master struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Specialization string         `json:"specialization"`
	Phone          string         `json:"phone"`
	TelegramID     int64          `json:"telegram_id"`
	PhotoURL       string         `json:"photo_url"`
	WorkSchedule   map[string]any `json:"work_schedule"`
	Rating         Decimal        `json:"rating"`
	ReviewsCount   int            `json:"reviews_count"`
	Services       []Service      `json:"services"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// BookingStatus は予約の状態。
type BookingStatus string

// 予約の状態一覧。
const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking は予約。BookingDate は YYYY-MM-DD、BookingTime は HH:MM。
type Booking struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	ServiceID     int64         `json:"service_id"`
	MasterID      int64         `json:"master_id"`
	BookingDate   string        `json:"booking_date"`
	BookingTime   string        `json:"booking_time"`
	Status        BookingStatus `json:"status"`
	Comment       string        `json:"comment"`
	CertificateID int64         `json:"certificate_id"`
	Service       Service       `json:"service"`
	Master        *Master       `json:"master"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

// Certificate はギフト証明書。
type Certificate struct {
	ID                int64          `json:"id"`
	Code              string         `json:"code"`
	Amount            Decimal        `json:"amount"`
	Category          string         `json:"category"`
	Description       map[string]any `json:"description"`
	ImageURL          string         `json:"image_url"`
	UserID            int64          `json:"user_id"`
	PurchasedByUserID int64          `json:"purchased_by_user_id"`
	IsUsed            bool           `json:"is_used"`
	UsedAt            string         `json:"used_at"`
	ExpiresAt         string         `json:"expires_at"`
	CreatedAt         string         `json:"created_at"`
}

// Promotion はプロモーション。
type Promotion struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DiscountPercent Decimal `json:"discount_percent"`
	ImageURL        string  `json:"image_url"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
}

// Review はスペシャリストへのレビュー。
type Review struct {
	ID        int64  `json:"id"`
	MasterID  int64  `json:"master_id"`
	UserID    int64  `json:"user_id"`
	BookingID int64  `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SalonSettings はサロンの基本情報。
type SalonSettings struct {
	ID                int64          `json:"id"`
	WorkingHours      map[string]any `json:"working_hours"`
	Address           string         `json:"address"`
	Phone             string         `json:"phone"`
	Email             string         `json:"email"`
	SocialLinks       map[string]any `json:"social_links"`
	MapCoordinates    string         `json:"map_coordinates"`
	PrivacyPolicyText string         `json:"privacy_policy_text"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// User はTelegramユーザーに紐づくサロンの利用者。
type User struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// AvailableTimeSlot は予約可能な時間枠。MasterID が0の場合は担当未定。
type AvailableTimeSlot struct {
	Time       string `json:"time"`
	Available  bool   `json:"available"`
	MasterID   int64  `json:"master_id"`
	MasterName string `json:"master_name"`
}

// AvailableSlotsResponse は空き時間一覧のレスポンス。
type AvailableSlotsResponse struct {
	Date  string              `json:"date"`
	Slots []AvailableTimeSlot `json:"slots"`
}

// BookingCreate は予約作成リクエスト。
type BookingCreate struct {
	ServiceID     int64  `json:"service_id"`
	MasterID      int64  `json:"master_id,omitempty"`
	BookingDate   string `json:"booking_date"`
	BookingTime   string `json:"booking_time"`
	Comment       string `json:"comment,omitempty"`
	CertificateID int64  `json:"certificate_id,omitempty"`
}

// BookingReschedule は予約の日時変更リクエスト。
type BookingReschedule struct {
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
}

// ReviewCreate はレビュー投稿リクエスト。
type ReviewCreate struct {
	MasterID  int64  `json:"master_id"`
	BookingID int64  `json:"booking_id,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// UserUpdate はプロフィール更新リクエスト。nilのフィールドは送信しない。
type UserUpdate struct {
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}
