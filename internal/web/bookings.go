package web

import (
	"context"
	"log"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/internal/validator"
	"github.com/nao1215/beautybar/internal/wizard"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/middleware"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// msgCancelWindow は24時間を切った予約をキャンセルしようとした場合のメッセージ。
const msgCancelWindow = "Отменить запись можно не позднее чем за 24 часа до визита"

// msgRescheduleClosed は変更できない状態の予約のメッセージ。
const msgRescheduleClosed = "Эту запись нельзя перенести"

// bookingItem は予約一覧の1件。
type bookingItem struct {
	Booking       salonapi.Booking
	CanCancel     bool
	CanReschedule bool
	CanReview     bool
}

// bookingsView は予約一覧のデータ。
type bookingsView struct {
	Filters  []booking.Filter
	Status   salonapi.BookingStatus
	Bookings []bookingItem
}

// handleBookings はユーザーの予約一覧のハンドラを返す。?status= で絞り込む。
func (s *Server) handleBookings() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := booking.ParseFilter(c.Query("status"))
		view, err := s.loadBookings(c.Request.Context(), status)
		if err != nil {
			s.renderAPIError(c, "bookings", "Мои записи", err)
			return
		}
		s.renderPage(c, http.StatusOK, "bookings", pageData{
			Title:  "Мои записи",
			Notice: noticeText(c.Query("notice")),
			Data:   view,
		})
	}
}

func (s *Server) loadBookings(ctx context.Context, status salonapi.BookingStatus) (bookingsView, error) {
	list, err := s.api.ListBookings(ctx, status)
	if err != nil {
		return bookingsView{}, err
	}
	now := s.clock()
	items := make([]bookingItem, 0, len(list))
	for _, b := range list {
		items = append(items, bookingItem{
			Booking:       b,
			CanCancel:     booking.CanCancel(b, now),
			CanReschedule: booking.CanReschedule(b),
			CanReview:     booking.CanReview(b),
		})
	}
	return bookingsView{Filters: booking.Filters, Status: status, Bookings: items}, nil
}

// handleCancelBooking は予約をキャンセルするハンドラを返す。
// 開始まで24時間を切った予約はAPIを呼ばずに拒否する。
func (s *Server) handleCancelBooking() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			s.render(c, http.StatusNotFound, "not_found", "Запись не найдена", nil)
			return
		}
		ctx := c.Request.Context()
		tgID, _ := middleware.TelegramUserID(c)

		current, err := s.api.GetBooking(ctx, id)
		if err != nil {
			s.renderAPIError(c, "bookings", "Мои записи", err)
			return
		}
		if !booking.CanCancel(current, s.clock()) {
			s.renderBookingsWithError(c, msgCancelWindow)
			return
		}

		cancelled, err := s.api.CancelBooking(ctx, id)
		if err != nil {
			s.renderBookingsWithError(c, httpclient.Message(err))
			return
		}
		log.Printf("[Booking] 予約をキャンセルしました: %s, user=%d", bookingLabel(id), tgID)
		s.recordBooking(ctx, event.TypeBookingCancelled, tgID, cancelled, &current)
		c.Redirect(http.StatusSeeOther, "/bookings?notice=cancelled")
	}
}

// renderBookingsWithError は予約一覧をフォームエラー付きで描画する。
func (s *Server) renderBookingsWithError(c *gin.Context, msg string) {
	view, err := s.loadBookings(c.Request.Context(), "")
	if err != nil {
		s.renderAPIError(c, "bookings", "Мои записи", err)
		return
	}
	s.renderForm(c, "bookings", "Мои записи", msg, view)
}

// rescheduleView は日時変更フォームのデータ。
type rescheduleView struct {
	Booking  salonapi.Booking
	Date     string
	Time     string
	MinDate  string
	MaxDate  string
	Slots    []salonapi.AvailableTimeSlot
	Editable bool
}

// rescheduleForm は日時変更フォームの入力。
type rescheduleForm struct {
	Date string `form:"date" binding:"required,bookingdate"`
	Time string `form:"time" binding:"required,hhmm"`
}

// rescheduleLabels は日時変更フォームの表示名。
var rescheduleLabels = map[string]string{
	"Date": "Дата",
	"Time": "Время",
}

// handleRescheduleForm は日時変更フォームのハンドラを返す。?date= で空き時間を表示する。
func (s *Server) handleRescheduleForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			s.render(c, http.StatusNotFound, "not_found", "Запись не найдена", nil)
			return
		}
		view, err := s.loadReschedule(c.Request.Context(), id, c.Query("date"))
		if err != nil {
			s.renderAPIError(c, "reschedule", "Перенос записи", err)
			return
		}
		if !view.Editable {
			s.renderForm(c, "reschedule", "Перенос записи", msgRescheduleClosed, view)
			return
		}
		s.render(c, http.StatusOK, "reschedule", "Перенос записи", view)
	}
}

// handleReschedule は予約の日時を変更するハンドラを返す。
// 変更後の予約は確認待ちに戻る。
func (s *Server) handleReschedule() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			s.render(c, http.StatusNotFound, "not_found", "Запись не найдена", nil)
			return
		}
		ctx := c.Request.Context()
		tgID, _ := middleware.TelegramUserID(c)

		var form rescheduleForm
		bindErr := c.ShouldBind(&form)

		view, err := s.loadReschedule(ctx, id, form.Date)
		if err != nil {
			s.renderAPIError(c, "reschedule", "Перенос записи", err)
			return
		}
		view.Time = form.Time
		if !view.Editable {
			s.renderForm(c, "reschedule", "Перенос записи", msgRescheduleClosed, view)
			return
		}
		if bindErr != nil {
			s.renderForm(c, "reschedule", "Перенос записи", validator.Message(bindErr, rescheduleLabels), view)
			return
		}
		if _, err := booking.ValidateDate(form.Date, s.clock()); err != nil {
			s.renderForm(c, "reschedule", "Перенос записи", wizard.Message(err), view)
			return
		}
		if !slotAvailable(view.Slots, form.Time) {
			s.renderForm(c, "reschedule", "Перенос записи", "Выбранное время недоступно", view)
			return
		}

		updated, err := s.api.RescheduleBooking(ctx, id, salonapi.BookingReschedule{
			BookingDate: form.Date,
			BookingTime: form.Time,
		})
		if err != nil {
			s.renderForm(c, "reschedule", "Перенос записи", httpclient.Message(err), view)
			return
		}
		log.Printf("[Booking] 予約日時を変更しました: %s, user=%d, %s %s -> %s %s",
			bookingLabel(id), tgID, view.Booking.BookingDate, view.Booking.BookingTime, form.Date, form.Time)
		s.recordBooking(ctx, event.TypeBookingRescheduled, tgID, updated, &view.Booking)
		c.Redirect(http.StatusSeeOther, "/bookings?notice=rescheduled")
	}
}

// loadReschedule は予約と、dateが有効であればその日の空き時間を取得する。
func (s *Server) loadReschedule(ctx context.Context, id int64, date string) (rescheduleView, error) {
	b, err := s.api.GetBooking(ctx, id)
	if err != nil {
		return rescheduleView{}, err
	}
	earliest, latest := booking.DateRange(s.clock())
	view := rescheduleView{
		Booking:  b,
		Date:     date,
		MinDate:  earliest.Format(booking.DateFormat),
		MaxDate:  latest.Format(booking.DateFormat),
		Editable: booking.CanReschedule(b),
	}
	if !view.Editable {
		return view, nil
	}
	if _, err := booking.ValidateDate(date, s.clock()); err != nil {
		return view, nil
	}

	var slots salonapi.AvailableSlotsResponse
	if b.MasterID > 0 {
		slots, err = s.api.MasterSlots(ctx, b.MasterID, date, b.ServiceID)
	} else {
		slots, err = s.api.ServiceSlots(ctx, b.ServiceID, date, 0)
	}
	if err != nil {
		return rescheduleView{}, err
	}
	view.Slots = slots.Slots
	return view, nil
}

// slotAvailable は指定時刻の枠が空いているかを返す。
func slotAvailable(slots []salonapi.AvailableTimeSlot, clock string) bool {
	return slices.ContainsFunc(slots, func(s salonapi.AvailableTimeSlot) bool {
		return s.Time == clock && s.Available
	})
}
