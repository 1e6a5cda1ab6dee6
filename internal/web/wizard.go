package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/internal/wizard"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/middleware"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// draftCookie は予約ウィザードの下書きIDを保持するCookie名。
const draftCookie = "bb_draft"

// wizardTitle は予約ウィザードのページタイトル。
const wizardTitle = "Запись на услугу"

// stepTitles はステップの表示名。
var stepTitles = map[wizard.Step]string{
	wizard.StepService: "Услуга",
	wizard.StepMaster:  "Специалист",
	wizard.StepDate:    "Дата",
	wizard.StepTime:    "Время",
	wizard.StepContact: "Контакты",
	wizard.StepConfirm: "Подтверждение",
	wizard.StepSuccess: "Готово",
}

// stepItem は進行表示の1ステップ。
type stepItem struct {
	Name    string
	Title   string
	Number  int
	Done    bool
	Current bool
}

// wizardView は予約ウィザードのデータ。
type wizardView struct {
	Draft        *wizard.Draft
	Step         string
	Steps        []stepItem
	Service      *salonapi.Service
	Master       *salonapi.Master
	Services     []salonapi.Service
	Masters      []salonapi.Master
	MinDate      string
	MaxDate      string
	Slots        []salonapi.AvailableTimeSlot
	Certificates []salonapi.Certificate
}

// handleWizardShow は現在のステップを表示するハンドラを返す。
// ?service_id= または ?restart=1 で新しい下書きを始める。
func (s *Server) handleWizardShow() gin.HandlerFunc {
	return func(c *gin.Context) {
		tgID, _ := middleware.TelegramUserID(c)
		serviceID, _ := strconv.ParseInt(c.Query("service_id"), 10, 64)

		d, err := s.loadDraft(c, tgID)
		if serviceID > 0 || c.Query("restart") != "" || errors.Is(err, wizard.ErrDraftNotFound) {
			d, err = s.startDraft(c, tgID, serviceID)
		}
		if err != nil {
			log.Printf("[Wizard] 下書きの読み込みに失敗: user=%d, error=%v", tgID, err)
			s.renderBoundary(c)
			return
		}
		s.renderWizard(c, http.StatusOK, d, "")
	}
}

// handleWizardSubmit はステップの操作（next / prev / goto）を処理するハンドラを返す。
// 成功した場合は GET /booking にリダイレクトする。
func (s *Server) handleWizardSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tgID, _ := middleware.TelegramUserID(c)

		d, err := s.loadDraft(c, tgID)
		if errors.Is(err, wizard.ErrDraftNotFound) {
			c.Redirect(http.StatusSeeOther, "/booking")
			return
		}
		if err != nil {
			log.Printf("[Wizard] 下書きの読み込みに失敗: user=%d, error=%v", tgID, err)
			s.renderBoundary(c)
			return
		}

		var stepErr error
		switch action := c.PostForm("action"); action {
		case "prev":
			d.Prev()
		case "goto":
			step, err := wizard.ParseStep(c.PostForm("step"))
			if err == nil {
				err = d.GoTo(step)
			}
			stepErr = err
		case "next", "":
			stepErr = s.applyStep(c, d)
		default:
			stepErr = fmt.Errorf("%w: action=%q", wizard.ErrStepOutOfRange, action)
		}

		if err := s.drafts.Save(ctx, d); err != nil {
			log.Printf("[Wizard] 下書きの保存に失敗: id=%s, error=%v", d.ID, err)
			s.renderBoundary(c)
			return
		}
		if stepErr != nil {
			s.renderWizard(c, http.StatusUnprocessableEntity, d, stepMessage(stepErr))
			return
		}
		c.Redirect(http.StatusSeeOther, "/booking")
	}
}

// applyStep は現在のステップの入力を反映して次へ進める。
func (s *Server) applyStep(c *gin.Context, d *wizard.Draft) error {
	ctx := c.Request.Context()
	switch d.Step {
	case wizard.StepService:
		id, _ := strconv.ParseInt(c.PostForm("service_id"), 10, 64)
		if err := d.SelectService(id); err != nil {
			return err
		}
	case wizard.StepMaster:
		id, _ := strconv.ParseInt(c.PostForm("master_id"), 10, 64)
		if err := d.SelectMaster(id); err != nil {
			return err
		}
	case wizard.StepDate:
		if err := d.SelectDate(c.PostForm("date"), s.clock()); err != nil {
			return err
		}
	case wizard.StepTime:
		slots, err := s.slotsFor(ctx, d)
		if err != nil {
			return err
		}
		masterID := d.MasterID
		if masterID == 0 {
			masterID, _ = strconv.ParseInt(c.PostForm("slot_master_id"), 10, 64)
		}
		if err := d.SelectSlot(c.PostForm("time"), masterID, slots); err != nil {
			return err
		}
	case wizard.StepContact:
		if err := d.SetContact(c.PostForm("name"), c.PostForm("phone"), c.PostForm("comment")); err != nil {
			return err
		}
		s.syncProfile(ctx, d)
	case wizard.StepConfirm:
		certID, _ := strconv.ParseInt(c.PostForm("certificate_id"), 10, 64)
		d.SetCertificate(certID)
		return s.completeBooking(ctx, d)
	case wizard.StepSuccess:
		return wizard.ErrFinished
	}
	return d.Next()
}

// completeBooking は予約を作成して下書きを完了にする。
func (s *Server) completeBooking(ctx context.Context, d *wizard.Draft) error {
	req, err := d.BookingRequest()
	if err != nil {
		return err
	}
	created, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		return err
	}
	if err := d.Complete(created.ID); err != nil {
		return err
	}
	if created.Service.Name == "" {
		if svc, err := s.api.GetService(ctx, d.ServiceID); err == nil {
			created.Service = svc
		}
	}
	if created.BookingDate == "" {
		created.BookingDate, created.BookingTime = d.Date, d.Time
	}
	log.Printf("[Booking] 予約を作成しました: %s, user=%d, service=%d, %s %s",
		bookingLabel(created.ID), d.TelegramUserID, d.ServiceID, d.Date, d.Time)
	s.recordBooking(ctx, event.TypeBookingCreated, d.TelegramUserID, created, nil)
	return nil
}

// syncProfile は連絡先がプロフィールと異なる場合のみプロフィールを更新する。
// 更新の失敗は予約を妨げない。
func (s *Server) syncProfile(ctx context.Context, d *wizard.Draft) {
	me, err := s.api.Me(ctx)
	if err != nil {
		log.Printf("[Wizard] プロフィールの取得に失敗: user=%d, error=%v", d.TelegramUserID, err)
		return
	}
	var update salonapi.UserUpdate
	if d.ContactName != fullName(me) {
		first, last, _ := strings.Cut(d.ContactName, " ")
		last = strings.TrimSpace(last)
		update.FirstName, update.LastName = &first, &last
	}
	if d.ContactPhone != me.Phone {
		update.Phone = &d.ContactPhone
	}
	if update == (salonapi.UserUpdate{}) {
		return
	}
	if _, err := s.api.UpdateMe(ctx, update); err != nil {
		log.Printf("[Wizard] プロフィールの更新に失敗: user=%d, error=%v", d.TelegramUserID, err)
	}
}

// slotsFor は下書きのサービス・日付・スペシャリストに対する空き時間を取得する。
func (s *Server) slotsFor(ctx context.Context, d *wizard.Draft) ([]salonapi.AvailableTimeSlot, error) {
	var (
		resp salonapi.AvailableSlotsResponse
		err  error
	)
	if d.MasterID > 0 {
		resp, err = s.api.MasterSlots(ctx, d.MasterID, d.Date, d.ServiceID)
	} else {
		resp, err = s.api.ServiceSlots(ctx, d.ServiceID, d.Date, 0)
	}
	if err != nil {
		return nil, err
	}
	return resp.Slots, nil
}

// renderWizard は現在のステップに必要なデータを読み込んで描画する。
func (s *Server) renderWizard(c *gin.Context, status int, d *wizard.Draft, formError string) {
	view, err := s.loadWizard(c.Request.Context(), d)
	if err != nil {
		s.renderAPIError(c, "booking", wizardTitle, err)
		return
	}
	s.renderPage(c, status, "booking", pageData{Title: wizardTitle, FormError: formError, Data: view})
}

func (s *Server) loadWizard(ctx context.Context, d *wizard.Draft) (wizardView, error) {
	view := wizardView{Draft: d, Step: d.Step.String(), Steps: progress(d.Step)}

	if d.ServiceID > 0 {
		svc, err := s.api.GetService(ctx, d.ServiceID)
		if err != nil {
			return view, err
		}
		view.Service = &svc
	}
	if id := d.EffectiveMasterID(); id > 0 && d.Step >= wizard.StepDate {
		m, err := s.api.GetMaster(ctx, id)
		if err != nil {
			return view, err
		}
		view.Master = &m
	}

	var err error
	switch d.Step {
	case wizard.StepService:
		view.Services, err = s.api.ListServices(ctx, "", true)
	case wizard.StepMaster:
		view.Masters, err = s.api.ListMasters(ctx, d.ServiceID, true)
	case wizard.StepDate:
		earliest, latest := booking.DateRange(s.clock())
		view.MinDate = earliest.Format(booking.DateFormat)
		view.MaxDate = latest.Format(booking.DateFormat)
	case wizard.StepTime:
		view.Slots, err = s.slotsFor(ctx, d)
	case wizard.StepContact:
		if d.ContactName == "" && d.ContactPhone == "" {
			// 表示用の初期値のみ。保存はしない
			if me, meErr := s.api.Me(ctx); meErr == nil {
				prefilled := *d
				prefilled.ContactName = fullName(me)
				prefilled.ContactPhone = me.Phone
				view.Draft = &prefilled
			}
		}
	case wizard.StepConfirm:
		unused := false
		// 証明書が取れなくても予約は続けられる
		view.Certificates, _ = s.api.ListCertificates(ctx, &unused)
	}
	return view, err
}

// startDraft は新しい下書きを作成してCookieに設定する。
func (s *Server) startDraft(c *gin.Context, tgID, serviceID int64) (*wizard.Draft, error) {
	d := wizard.New(uuid.New().String(), tgID, serviceID)
	if err := s.drafts.Save(c.Request.Context(), d); err != nil {
		return nil, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(draftCookie, d.ID, int(s.draftTTL.Seconds()), "/booking", "", c.Request.TLS != nil, true)
	return d, nil
}

// loadDraft はCookieの下書きを読み込む。他のユーザーの下書きは見つからない扱いにする。
func (s *Server) loadDraft(c *gin.Context, tgID int64) (*wizard.Draft, error) {
	id, err := c.Cookie(draftCookie)
	if err != nil || id == "" {
		return nil, wizard.ErrDraftNotFound
	}
	d, err := s.drafts.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if d.TelegramUserID != tgID {
		return nil, wizard.ErrDraftNotFound
	}
	return d, nil
}

// progress は進行表示を組み立てる。
func progress(current wizard.Step) []stepItem {
	steps := wizard.Steps()
	items := make([]stepItem, 0, len(steps))
	for _, st := range steps {
		items = append(items, stepItem{
			Name:    st.String(),
			Title:   stepTitles[st],
			Number:  st.Index(),
			Done:    st < current,
			Current: st == current,
		})
	}
	return items
}

// stepMessage はステップ操作のエラーを表示用の文言にする。
func stepMessage(err error) string {
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) || errors.Is(err, httpclient.ErrUnreachable) {
		return httpclient.Message(err)
	}
	return wizard.Message(err)
}

// fullName はユーザーの表示名を返す。
func fullName(u salonapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
