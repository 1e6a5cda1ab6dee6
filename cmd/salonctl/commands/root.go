// Package commands はsalonctlのサブコマンドを定義する。
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/nao1215/beautybar/internal/config"
	"github.com/nao1215/beautybar/pkg/httpclient"
	"github.com/nao1215/beautybar/pkg/salonapi"
	"github.com/spf13/cobra"
)

// app はサブコマンド間で共有する設定とクライアント。
type app struct {
	// apiURL はサロンAPIのベースURL。
	apiURL string
	// timeout は1リクエストあたりのタイムアウト。
	timeout time.Duration
	// dataDir はローカル状態のデータディレクトリ。
	dataDir string
	// timezone はサロンのタイムゾーン名。
	timezone string
	// client はサロンAPIクライアント。PersistentPreRunEで生成する。
	client *salonapi.Client
	// loc はサロンのタイムゾーン。
	loc *time.Location
	// now は現在時刻を返す関数。
	now func() time.Time
}

// NewRootCmd はルートコマンドを生成する。
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{now: time.Now})
}

func newRootCmd(a *app) *cobra.Command {
	defaults := config.Default()

	root := &cobra.Command{
		Use:           "salonctl",
		Short:         "Управление LL BeautyBar из командной строки",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(a.timezone)
			if err != nil {
				return fmt.Errorf("TIMEZONEが不正です: %q: %w", a.timezone, err)
			}
			a.loc = loc
			a.client = salonapi.New(httpclient.New(a.apiURL, httpclient.WithTimeout(a.timeout)), nil)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", envOr("API_URL", defaults.APIURL), "базовый URL API салона")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", defaults.APITimeout.Duration, "таймаут запроса к API")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", envOr("DATA_DIR", defaults.DataDir), "каталог локальной базы данных")
	root.PersistentFlags().StringVar(&a.timezone, "timezone", envOr("TIMEZONE", defaults.Timezone), "часовой пояс салона")

	root.AddCommand(
		servicesCmd(a),
		mastersCmd(a),
		slotsCmd(a),
		promotionsCmd(a),
		bookingsCmd(a),
		cancelCmd(a),
		eventsCmd(a),
		dbCmd(a),
	)
	return root
}

// Execute はルートコマンドを実行し、エラーを利用者向けの文言で出力する。
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Ошибка:", Describe(err))
		return 1
	}
	return 0
}

// Describe はエラーを表示用の文言に変換する。
// APIのエラーと接続エラーはhttpclientの文言を使い、それ以外はエラー文字列をそのまま返す。
func Describe(err error) string {
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) || errors.Is(err, httpclient.ErrUnreachable) {
		return httpclient.Message(err)
	}
	return err.Error()
}

// identity は--tg-idの値をコンテキストに載せる。
func identity(ctx context.Context, tgID int64) (context.Context, error) {
	if tgID <= 0 {
		return nil, errors.New("--tg-id が指定されていません")
	}
	return httpclient.WithTelegramUserID(ctx, tgID), nil
}

// table は列を揃えて出力するライターを返す。呼び出し側でFlushする。
func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
