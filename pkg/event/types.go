// Package event は予約操作の後に記録するドメインイベントと、その送信待ちキュー（アウトボックス）を提供する。
package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeBooking は予約を表す。
	AggregateTypeBooking AggregateType = "Booking"
	// AggregateTypeReview はレビューを表す。
	AggregateTypeReview AggregateType = "Review"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeBookingCreated は予約が作成されたことを表す。
	TypeBookingCreated Type = "BookingCreated"
	// TypeBookingCancelled は予約がキャンセルされたことを表す。
	TypeBookingCancelled Type = "BookingCancelled"
	// TypeBookingRescheduled は予約の日時が変更されたことを表す。
	TypeBookingRescheduled Type = "BookingRescheduled"
	// TypeReviewSubmitted はレビューが投稿されたことを表す。
	TypeReviewSubmitted Type = "ReviewSubmitted"
)

// Event はアウトボックスに記録されるイベント。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// TelegramUserID は通知先のTelegramユーザーID。
	TelegramUserID int64 `json:"telegram_user_id"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
	// SentAt は通知を送信した日時。未送信の場合はゼロ値。
	SentAt time.Time `json:"sent_at"`
	// Attempts は送信を試みた回数。
	Attempts int `json:"attempts"`
	// LastError は最後の送信失敗の理由。
	LastError string `json:"last_error"`
}

// BookingData は予約に関するイベントのデータ。
type BookingData struct {
	// BookingID は予約ID。
	BookingID int64 `json:"booking_id"`
	// ServiceName はサービス名。
	ServiceName string `json:"service_name"`
	// MasterName は担当スペシャリスト名。未定の場合は空。
	MasterName string `json:"master_name,omitempty"`
	// Date は予約日（YYYY-MM-DD）。
	Date string `json:"date"`
	// Time は予約時刻（HH:MM）。
	Time string `json:"time"`
	// PreviousDate は日時変更前の予約日。
	PreviousDate string `json:"previous_date,omitempty"`
	// PreviousTime は日時変更前の予約時刻。
	PreviousTime string `json:"previous_time,omitempty"`
}

// ReviewData はReviewSubmittedイベントのデータ。
type ReviewData struct {
	// ReviewID はレビューID。
	ReviewID int64 `json:"review_id"`
	// MasterID はスペシャリストID。
	MasterID int64 `json:"master_id"`
	// MasterName はスペシャリスト名。
	MasterName string `json:"master_name"`
	// Rating は評価（1〜5）。
	Rating int `json:"rating"`
}
