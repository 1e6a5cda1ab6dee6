package notifier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/beautybar/pkg/event"
)

// ErrUnsupported は通知の対象外のイベントであることを表す。
var ErrUnsupported = errors.New("通知対象外のイベントです")

// Render はイベントから通知の文面を組み立てる。
func Render(e *event.Event) (string, error) {
	switch e.EventType {
	case event.TypeBookingCreated, event.TypeBookingCancelled, event.TypeBookingRescheduled:
		data, err := event.DecodeData[event.BookingData](e)
		if err != nil {
			return "", err
		}
		return renderBooking(e.EventType, data), nil
	case event.TypeReviewSubmitted:
		data, err := event.DecodeData[event.ReviewData](e)
		if err != nil {
			return "", err
		}
		return renderReview(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, e.EventType)
	}
}

func renderBooking(t event.Type, d *event.BookingData) string {
	var b strings.Builder
	switch t {
	case event.TypeBookingCreated:
		b.WriteString("✅ Вы записаны!\n\n")
	case event.TypeBookingCancelled:
		b.WriteString("❌ Запись отменена\n\n")
	case event.TypeBookingRescheduled:
		b.WriteString("🔄 Запись перенесена\n\n")
	}

	if d.ServiceName != "" {
		fmt.Fprintf(&b, "Услуга: %s\n", d.ServiceName)
	}
	if d.MasterName != "" {
		fmt.Fprintf(&b, "Специалист: %s\n", d.MasterName)
	}
	if t == event.TypeBookingRescheduled && d.PreviousDate != "" {
		fmt.Fprintf(&b, "Было: %s в %s\n", day(d.PreviousDate), clock(d.PreviousTime))
		fmt.Fprintf(&b, "Стало: %s в %s\n", day(d.Date), clock(d.Time))
	} else {
		fmt.Fprintf(&b, "Дата: %s\n", day(d.Date))
		fmt.Fprintf(&b, "Время: %s\n", clock(d.Time))
	}

	switch t {
	case event.TypeBookingCreated, event.TypeBookingRescheduled:
		b.WriteString("\nОжидайте подтверждения записи.")
	case event.TypeBookingCancelled:
		b.WriteString("\nБудем рады видеть вас снова!")
	}
	return b.String()
}

func renderReview(d *event.ReviewData) string {
	master := d.MasterName
	if master == "" {
		master = "специалиста"
	}
	return fmt.Sprintf("⭐ Спасибо за отзыв!\n\nВаша оценка для %s: %d из 5", master, d.Rating)
}

// day は "2026-10-15" を "15.10.2026" にする。解析できない場合はそのまま返す。
func day(s string) string {
	if len(s) < 10 {
		return s
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return s
	}
	return t.Format("02.01.2006")
}

// clock は "10:00:00" を "10:00" にする。
func clock(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
