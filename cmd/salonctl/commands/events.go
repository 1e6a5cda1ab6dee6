package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nao1215/beautybar/internal/store"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/spf13/cobra"
)

// eventTimeFormat はイベント日時の表示書式。
const eventTimeFormat = "02.01.2006 15:04"

func eventsCmd(a *app) *cobra.Command {
	var (
		tgID  int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Уведомления клиента в локальной очереди",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := identity(cmd.Context(), tgID); err != nil {
				return err
			}
			return withDB(cmd.Context(), a.dataDir, func(db *sql.DB) error {
				events, err := event.NewOutbox(db).ListByUser(cmd.Context(), tgID, limit)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Уведомлений нет")
					return nil
				}
				w := table(cmd.OutOrStdout())
				fmt.Fprintln(w, "СОЗДАНО\tСОБЫТИЕ\tОБЪЕКТ\tОТПРАВЛЕНО\tПОПЫТОК\tОШИБКА")
				for _, e := range events {
					fmt.Fprintf(w, "%s\t%s\t%s#%s\t%s\t%d\t%s\n",
						a.local(e.CreatedAt), e.EventType, e.AggregateType, e.AggregateID,
						a.local(e.SentAt), e.Attempts, dash(e.LastError))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().Int64Var(&tgID, "tg-id", 0, "Telegram ID клиента")
	cmd.Flags().IntVar(&limit, "limit", 20, "максимум записей (0 = без ограничения)")
	_ = cmd.MarkFlagRequired("tg-id")
	return cmd
}

func dbCmd(a *app) *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Локальная база данных",
	}
	db.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Применённые миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), a.dataDir, func(conn *sql.DB) error {
				applied, err := store.Status(cmd.Context(), conn)
				if err != nil {
					return err
				}
				w := table(cmd.OutOrStdout())
				fmt.Fprintln(w, "ВЕРСИЯ\tПРИМЕНЕНА")
				for _, m := range applied {
					fmt.Fprintf(w, "%06d\t%s\n", m.Version, a.local(m.AppliedAt))
				}
				return w.Flush()
			})
		},
	})
	return db
}

// withDB はデータディレクトリのSQLiteを開いてfnを実行する。未適用のマイグレーションは適用される。
func withDB(ctx context.Context, dataDir string, fn func(*sql.DB) error) error {
	db, err := store.Open(ctx, dataDir)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// local は日時をサロンのタイムゾーンで表示する。ゼロ値は "-" になる。
func (a *app) local(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(a.loc).Format(eventTimeFormat)
}
