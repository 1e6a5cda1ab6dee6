package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/pkg/salonapi"
	"github.com/spf13/cobra"
)

func servicesCmd(a *app) *cobra.Command {
	var (
		category string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Список услуг",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.client.ListServices(cmd.Context(), category, !all)
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tКАТЕГОРИЯ\tЦЕНА\tМИН")
			for _, s := range services {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", s.ID, s.Name, s.Category, money(s.Price), s.DurationMinutes)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "категория услуг")
	cmd.Flags().BoolVar(&all, "all", false, "включая неактивные")
	return cmd
}

func mastersCmd(a *app) *cobra.Command {
	var (
		serviceID int64
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "masters",
		Short: "Список специалистов",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			masters, err := a.client.ListMasters(cmd.Context(), serviceID, !all)
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tИМЯ\tСПЕЦИАЛИЗАЦИЯ\tРЕЙТИНГ\tОТЗЫВЫ")
			for _, m := range masters {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", m.ID, m.Name, m.Specialization, rating(m.Rating), m.ReviewsCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&serviceID, "service", 0, "ID услуги")
	cmd.Flags().BoolVar(&all, "all", false, "включая неактивных")
	return cmd
}

func slotsCmd(a *app) *cobra.Command {
	var (
		serviceID int64
		masterID  int64
		date      string
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Свободное время на дату",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serviceID <= 0 {
				return errors.New("--service が指定されていません")
			}
			if _, err := time.Parse(booking.DateFormat, date); err != nil {
				return fmt.Errorf("--date はYYYY-MM-DD形式で指定してください: %q", date)
			}
			resp, err := a.client.ServiceSlots(cmd.Context(), serviceID, date, masterID)
			if err != nil {
				return err
			}
			if len(resp.Slots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Нет свободного времени")
				return nil
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ВРЕМЯ\tСПЕЦИАЛИСТ\tСВОБОДНО")
			for _, s := range resp.Slots {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Time, masterLabel(s.MasterName, s.MasterID), yesNo(s.Available))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&serviceID, "service", 0, "ID услуги")
	cmd.Flags().Int64Var(&masterID, "master", 0, "ID специалиста (по умолчанию любой)")
	cmd.Flags().StringVar(&date, "date", "", "дата в формате YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func promotionsCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "promotions",
		Short: "Список акций",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			promos, err := a.client.ListPromotions(cmd.Context(), !all)
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tСКИДКА\tПЕРИОД")
			for _, p := range promos {
				fmt.Fprintf(w, "%d\t%s\t%s\tс %s по %s\n", p.ID, p.Title, discount(p.DiscountPercent), dash(p.StartDate), dash(p.EndDate))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "включая завершённые")
	return cmd
}

func money(d salonapi.Decimal) string {
	if !d.Valid() {
		return "-"
	}
	return fmt.Sprintf("%.0f ₽", d.Float())
}

func rating(d salonapi.Decimal) string {
	if !d.Valid() {
		return "-"
	}
	return fmt.Sprintf("%.1f", d.Float())
}

func discount(d salonapi.Decimal) string {
	if !d.Valid() {
		return "-"
	}
	return fmt.Sprintf("-%.0f%%", d.Float())
}

func masterLabel(name string, id int64) string {
	switch {
	case name != "":
		return name
	case id > 0:
		return fmt.Sprintf("#%d", id)
	default:
		return "-"
	}
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
