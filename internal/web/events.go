package web

import (
	"context"
	"log"
	"strconv"

	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// record はイベントをアウトボックスに記録する。記録の失敗は利用者の操作を失敗させない。
func (s *Server) record(ctx context.Context, aggregateType event.AggregateType, aggregateID int64, eventType event.Type, telegramUserID int64, data any) {
	ev, err := event.New(aggregateType, aggregateID, eventType, telegramUserID, data)
	if err != nil {
		log.Printf("[Outbox] イベントの生成に失敗: type=%s, error=%v", eventType, err)
		return
	}
	if err := s.outbox.Append(ctx, ev); err != nil {
		log.Printf("[Outbox] イベントの記録に失敗: type=%s, id=%s, error=%v", eventType, ev.ID, err)
	}
}

// recordBooking は予約に関するイベントを記録する。previousは操作前の予約で、応答に無い項目を補う。
func (s *Server) recordBooking(ctx context.Context, eventType event.Type, telegramUserID int64, b salonapi.Booking, previous *salonapi.Booking) {
	data := event.BookingData{
		BookingID:   b.ID,
		ServiceName: b.Service.Name,
		Date:        b.BookingDate,
		Time:        b.BookingTime,
	}
	if b.Master != nil {
		data.MasterName = b.Master.Name
	}
	if previous != nil {
		if eventType == event.TypeBookingRescheduled {
			data.PreviousDate = previous.BookingDate
			data.PreviousTime = previous.BookingTime
		}
		if data.Date == "" {
			data.Date, data.Time = previous.BookingDate, previous.BookingTime
		}
		if data.ServiceName == "" {
			data.ServiceName = previous.Service.Name
		}
		if data.MasterName == "" && previous.Master != nil {
			data.MasterName = previous.Master.Name
		}
	}
	s.record(ctx, event.AggregateTypeBooking, b.ID, eventType, telegramUserID, data)
}

// bookingLabel はログ用の予約表記。
func bookingLabel(id int64) string {
	return "booking=" + strconv.FormatInt(id, 10)
}
