// salonctlのエントリポイント。
// サロンAPIのカタログと利用者の予約を確認し、ローカルの通知アウトボックスを点検する運用CLI。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/nao1215/beautybar/cmd/salonctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx)
	stop()
	os.Exit(code)
}
