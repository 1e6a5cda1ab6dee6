package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/nao1215/beautybar/internal/store"
	"github.com/nao1215/beautybar/pkg/event"
	"github.com/nao1215/beautybar/pkg/httpclient"
)

// testNow はテストで固定する現在時刻（モスクワ時間 2026-10-14 12:00）。
var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// fakeAPI は "METHOD RequestURI" をキーに固定のJSONを返すサロンAPI。
type fakeAPI struct {
	mu       sync.Mutex
	routes   map[string]string
	requests []string
	userIDs  []string
}

func newFakeAPI(t *testing.T, routes map[string]string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.RequestURI()
		f.mu.Lock()
		f.requests = append(f.requests, key)
		f.userIDs = append(f.userIDs, r.Header.Get(httpclient.HeaderTelegramUserID))
		body, ok := f.routes[key]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"Not found"}`)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) hits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAPI) identities() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.userIDs...)
}

// execute はsalonctlを引数付きで実行し、出力を返す。
func execute(t *testing.T, apiURL string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(&app{now: func() time.Time { return testNow }})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api-url", apiURL, "--timezone", "Europe/Moscow"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("出力に %q が含まれていない:\n%s", want, out)
		}
	}
}

func TestCatalogCommands(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t, map[string]string{
		"GET /services/?is_active=true": `[{"id":1,"name":"Маникюр","category":"Ногти","price":"1500.00","duration_minutes":60,"is_active":true}]`,
		"GET /services/?category=%D0%9D%D0%BE%D0%B3%D1%82%D0%B8&is_active=false": `[{"id":2,"name":"Педикюр","category":"Ногти","price":null,"duration_minutes":90}]`,
		"GET /masters/?is_active=true&service_id=1":                              `[{"id":3,"name":"Анна","specialization":"Мастер маникюра","rating":"4.50","reviews_count":2}]`,
		"GET /promotions/?active_only=true":                                      `[{"id":5,"title":"Осенняя скидка","discount_percent":"15.00","start_date":"2026-10-01","end_date":"2026-10-31"}]`,
	})

	t.Run("サービス一覧が表形式で出力されること", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, srv.URL, "services")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "НАЗВАНИЕ", "Маникюр", "1500 ₽", "60")
	})

	t.Run("カテゴリと--allが問い合わせに反映されること", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, srv.URL, "services", "--category", "Ногти", "--all")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Педикюр", "-")
	})

	t.Run("スペシャリストをサービスで絞り込めること", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, srv.URL, "masters", "--service", "1")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Анна", "Мастер маникюра", "4.5")
	})

	t.Run("プロモーションの割引と期間が出力されること", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, srv.URL, "promotions")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Осенняя скидка", "-15%", "с 2026-10-01 по 2026-10-31")
	})

	t.Run("APIのエラー本文が文言として取り出せること", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, srv.URL, "masters", "--service", "99")
		if err == nil {
			t.Fatal("エラーが返されなかった")
		}
		if got := Describe(err); got != "Not found" {
			t.Errorf("Describe = %q, want %q", got, "Not found")
		}
	})
}

func TestSlotsCommand(t *testing.T) {
	t.Parallel()

	f, srv := newFakeAPI(t, map[string]string{
		"GET /masters/service/1/available-slots?booking_date=2026-10-20": `{"date":"2026-10-20","slots":[
			{"time":"10:00","available":true,"master_id":3,"master_name":"Анна"},
			{"time":"11:00","available":false,"master_id":4}]}`,
		"GET /masters/service/1/available-slots?booking_date=2026-10-21&master_id=3": `{"date":"2026-10-21","slots":[]}`,
	})

	t.Run("空き時間とスペシャリストが出力されること", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, srv.URL, "slots", "--service", "1", "--date", "2026-10-20")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "10:00", "Анна", "да", "11:00", "#4", "нет")
	})

	t.Run("枠が無い場合はその旨が出力されること", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, srv.URL, "slots", "--service", "1", "--date", "2026-10-21", "--master", "3")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Нет свободного времени")
	})

	t.Run("日付の形式が不正な場合はAPIを呼ばないこと", func(t *testing.T) {
		t.Parallel()
		before := len(f.hits())
		if _, err := execute(t, srv.URL, "slots", "--service", "1", "--date", "20.10.2026"); err == nil {
			t.Fatal("エラーが返されなかった")
		}
		if _, err := execute(t, srv.URL, "slots", "--date", "2026-10-20"); err == nil {
			t.Fatal("--service無しでエラーが返されなかった")
		}
		for _, h := range f.hits()[before:] {
			if strings.Contains(h, "20.10.2026") {
				t.Errorf("不正な日付でAPIが呼ばれた: %s", h)
			}
		}
	})
}

const bookingsJSON = `[
	{"id":7,"service_id":1,"master_id":3,"booking_date":"2026-10-15","booking_time":"10:00:00","status":"confirmed",
	 "service":{"id":1,"name":"Маникюр"},"master":{"id":3,"name":"Анна"}},
	{"id":8,"service_id":1,"booking_date":"2026-10-20","booking_time":"12:00:00","status":"pending",
	 "service":{"id":1,"name":"Маникюр"}}
]`

func TestBookingsCommand(t *testing.T) {
	t.Parallel()

	t.Run("利用者のIDを付けて予約一覧を取得すること", func(t *testing.T) {
		t.Parallel()
		f, srv := newFakeAPI(t, map[string]string{
			"GET /bookings/": bookingsJSON,
		})
		out, err := execute(t, srv.URL, "bookings", "--tg-id", "42")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "2026-10-15", "10:00", "Анна", "Подтверждена", "Ожидает подтверждения")
		if ids := f.identities(); len(ids) != 1 || ids[0] != "42" {
			t.Errorf("X-Telegram-User-Id = %v, want [42]", ids)
		}

		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 3 {
			t.Fatalf("行数 = %d, want 3:\n%s", len(lines), out)
		}
		// 翌日10:00の予約は24時間を切っているのでキャンセル不可
		if !strings.HasSuffix(strings.TrimSpace(lines[1]), "нет") {
			t.Errorf("当日近い予約がキャンセル可になっている: %q", lines[1])
		}
		if !strings.HasSuffix(strings.TrimSpace(lines[2]), "да") {
			t.Errorf("先の予約がキャンセル不可になっている: %q", lines[2])
		}
	})

	t.Run("状態で絞り込めること", func(t *testing.T) {
		t.Parallel()
		_, srv := newFakeAPI(t, map[string]string{
			"GET /bookings/?status=completed": `[]`,
		})
		out, err := execute(t, srv.URL, "bookings", "--tg-id", "42", "--status", "completed")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Записей нет")
	})

	t.Run("未知の状態はAPIを呼ばずにエラーになること", func(t *testing.T) {
		t.Parallel()
		f, srv := newFakeAPI(t, nil)
		if _, err := execute(t, srv.URL, "bookings", "--tg-id", "42", "--status", "unknown"); err == nil {
			t.Fatal("エラーが返されなかった")
		}
		if hits := f.hits(); len(hits) != 0 {
			t.Errorf("APIが呼ばれた: %v", hits)
		}
	})

	t.Run("--tg-idが無い場合はエラーになること", func(t *testing.T) {
		t.Parallel()
		_, srv := newFakeAPI(t, nil)
		if _, err := execute(t, srv.URL, "bookings"); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})
}

func TestCancelCommand(t *testing.T) {
	t.Parallel()

	routes := map[string]string{
		"GET /bookings/7":          `{"id":7,"booking_date":"2026-10-15","booking_time":"10:00:00","status":"confirmed"}`,
		"GET /bookings/8":          `{"id":8,"booking_date":"2026-10-20","booking_time":"12:00:00","status":"pending"}`,
		"PATCH /bookings/7/cancel": `{"id":7,"status":"cancelled"}`,
		"PATCH /bookings/8/cancel": `{"id":8,"status":"cancelled"}`,
	}

	t.Run("24時間以上先の予約をキャンセルできること", func(t *testing.T) {
		t.Parallel()
		f, srv := newFakeAPI(t, routes)
		out, err := execute(t, srv.URL, "cancel", "8", "--tg-id", "42")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Запись #8 отменена", "Отменена")
		hits := f.hits()
		if len(hits) != 2 || hits[1] != "PATCH /bookings/8/cancel" {
			t.Errorf("呼び出し = %v", hits)
		}
	})

	t.Run("24時間を切った予約はキャンセルしないこと", func(t *testing.T) {
		t.Parallel()
		f, srv := newFakeAPI(t, routes)
		_, err := execute(t, srv.URL, "cancel", "7", "--tg-id", "42")
		if !errors.Is(err, ErrCancelWindow) {
			t.Fatalf("err = %v, want ErrCancelWindow", err)
		}
		for _, h := range f.hits() {
			if strings.HasPrefix(h, "PATCH") {
				t.Errorf("キャンセルが送信された: %s", h)
			}
		}
	})

	t.Run("--forceは期限を確認せずにキャンセルすること", func(t *testing.T) {
		t.Parallel()
		f, srv := newFakeAPI(t, routes)
		if _, err := execute(t, srv.URL, "cancel", "7", "--tg-id", "42", "--force"); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if hits := f.hits(); len(hits) != 1 || hits[0] != "PATCH /bookings/7/cancel" {
			t.Errorf("呼び出し = %v", hits)
		}
	})

	t.Run("不正なIDはエラーになること", func(t *testing.T) {
		t.Parallel()
		_, srv := newFakeAPI(t, routes)
		if _, err := execute(t, srv.URL, "cancel", "abc", "--tg-id", "42"); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})
}

func TestLocalCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	db, err := store.Open(ctx, dir)
	if err != nil {
		t.Fatalf("DBのオープンに失敗: %v", err)
	}
	outbox := event.NewOutbox(db)
	e, err := event.New(event.AggregateTypeBooking, 8, event.TypeBookingCreated, 42, event.BookingData{BookingID: 8})
	if err != nil {
		t.Fatalf("イベントの生成に失敗: %v", err)
	}
	if err := outbox.Append(ctx, e); err != nil {
		t.Fatalf("イベントの保存に失敗: %v", err)
	}
	if err := outbox.MarkFailed(ctx, e.ID, "chat not found"); err != nil {
		t.Fatalf("失敗の記録に失敗: %v", err)
	}
	db.Close()

	t.Run("利用者の通知がアウトボックスから出力されること", func(t *testing.T) {
		out, err := execute(t, "http://127.0.0.1:0", "--data-dir", dir, "events", "--tg-id", "42")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "BookingCreated", "Booking#8", "chat not found")
	})

	t.Run("他の利用者の通知は出力されないこと", func(t *testing.T) {
		out, err := execute(t, "http://127.0.0.1:0", "--data-dir", dir, "events", "--tg-id", "7")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "Уведомлений нет")
	})

	t.Run("適用済みのマイグレーションが出力されること", func(t *testing.T) {
		out, err := execute(t, "http://127.0.0.1:0", "--data-dir", dir, "db", "status")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		assertContains(t, out, "000001", "000002")
	})
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"APIエラーは本文の文言", &httpclient.APIError{Status: 400, Message: "Слот занят"}, "Слот занят"},
		{"接続エラーは固定の文言", fmt.Errorf("get: %w", httpclient.ErrUnreachable), httpclient.MsgUnreachable},
		{"それ以外はエラー文字列", errors.New("--tg-id が指定されていません"), "--tg-id が指定されていません"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
