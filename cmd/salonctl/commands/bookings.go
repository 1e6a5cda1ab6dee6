package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/pkg/salonapi"
	"github.com/spf13/cobra"
)

// ErrCancelWindow は開始まで CancelWindow を切っていてキャンセルできないことを表す。
var ErrCancelWindow = errors.New("запись нельзя отменить менее чем за 24 часа до начала")

func bookingsCmd(a *app) *cobra.Command {
	var (
		tgID   int64
		status string
	)
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Записи клиента",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := identity(cmd.Context(), tgID)
			if err != nil {
				return err
			}
			st, err := parseStatus(status)
			if err != nil {
				return err
			}
			bookings, err := a.client.ListBookings(ctx, st)
			if err != nil {
				return err
			}
			if len(bookings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Записей нет")
				return nil
			}
			now := a.now().In(a.loc)
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tДАТА\tВРЕМЯ\tУСЛУГА\tСПЕЦИАЛИСТ\tСТАТУС\tОТМЕНА")
			for _, b := range bookings {
				master := "-"
				if b.Master != nil {
					master = b.Master.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					b.ID, b.BookingDate, clock(b.BookingTime), b.Service.Name, master,
					booking.StatusText(b.Status), yesNo(booking.CanCancel(b, now)))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&tgID, "tg-id", 0, "Telegram ID клиента")
	cmd.Flags().StringVar(&status, "status", "", "фильтр: pending, confirmed, completed, cancelled")
	_ = cmd.MarkFlagRequired("tg-id")
	return cmd
}

func cancelCmd(a *app) *cobra.Command {
	var (
		tgID  int64
		force bool
	)
	cmd := &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Отменить запись клиента",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("некорректный ID записи: %q", args[0])
			}
			ctx, err := identity(cmd.Context(), tgID)
			if err != nil {
				return err
			}
			if !force {
				b, err := a.client.GetBooking(ctx, id)
				if err != nil {
					return err
				}
				if !booking.CanCancel(b, a.now().In(a.loc)) {
					return ErrCancelWindow
				}
			}
			b, err := a.client.CancelBooking(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Запись #%d отменена (%s)\n", b.ID, booking.StatusText(b.Status))
			return nil
		},
	}
	cmd.Flags().Int64Var(&tgID, "tg-id", 0, "Telegram ID клиента")
	cmd.Flags().BoolVar(&force, "force", false, "не проверять окно отмены")
	_ = cmd.MarkFlagRequired("tg-id")
	return cmd
}

// parseStatus は--statusの値を検証する。空文字列は全件を表す。
func parseStatus(s string) (salonapi.BookingStatus, error) {
	st := salonapi.BookingStatus(s)
	switch st {
	case "", salonapi.StatusPending, salonapi.StatusConfirmed, salonapi.StatusCompleted, salonapi.StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("неизвестный статус: %q", s)
	}
}

func clock(s string) string {
	if len(s) > len(booking.TimeFormat) {
		return s[:len(booking.TimeFormat)]
	}
	return s
}
