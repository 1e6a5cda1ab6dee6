package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// testPayload はテスト用のリクエスト/レスポンスペイロード。
type testPayload struct {
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
	// Value はテスト用の値フィールド。
	Value int `json:"value"`
}

// newTestClient は再試行の待ち時間を0にしたクライアントを生成する。
func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetry(1, 0)}, opts...)
	return New(url, opts...)
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("既定値で生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8000/api/")
		if client.BaseURL() != "http://localhost:8000/api" {
			t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), "http://localhost:8000/api")
		}
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
		if client.retries != 1 {
			t.Errorf("retries = %d, want 1", client.retries)
		}
	})

	t.Run("オプションが反映されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost", WithTimeout(5*time.Second), WithRetry(-3, time.Millisecond))
		if client.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.httpClient.Timeout)
		}
		if client.retries != 0 {
			t.Errorf("retries = %d, want 0", client.retries)
		}
	})
}

// TestGetJSON はGetJSONのレスポンス処理と再試行を検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("レスポンスをデシリアライズできること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("Method = %q, want GET", r.Method)
			}
			if r.URL.RequestURI() != "/services/?is_active=true" {
				t.Errorf("RequestURI = %q", r.URL.RequestURI())
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(testPayload{Name: "manicure", Value: 1500})
		}))
		defer ts.Close()

		var got testPayload
		if err := newTestClient(t, ts.URL).GetJSON(t.Context(), "/services/?is_active=true", &got); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
		if got.Name != "manicure" || got.Value != 1500 {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("5xxの場合に1回だけ再試行すること", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(testPayload{Name: "ok"})
		}))
		defer ts.Close()

		var got testPayload
		if err := newTestClient(t, ts.URL).GetJSON(t.Context(), "/settings/", &got); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("calls = %d, want 2", calls.Load())
		}
	})

	t.Run("5xxが続く場合は2回で諦めること", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		err := newTestClient(t, ts.URL).GetJSON(t.Context(), "/settings/", nil)
		if StatusCode(err) != http.StatusInternalServerError {
			t.Fatalf("StatusCode = %d, want 500 (err=%v)", StatusCode(err), err)
		}
		if calls.Load() != 2 {
			t.Errorf("calls = %d, want 2", calls.Load())
		}
	})

	t.Run("4xxの場合は再試行しないこと", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Услуга не найдена"}`))
		}))
		defer ts.Close()

		err := newTestClient(t, ts.URL).GetJSON(t.Context(), "/services/9", nil)
		if Message(err) != "Услуга не найдена" {
			t.Errorf("Message = %q", Message(err))
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})
}

// TestMutations は更新系リクエストを検証する。
func TestMutations(t *testing.T) {
	t.Parallel()

	t.Run("PATCHでボディとヘッダーが送信されること", func(t *testing.T) {
		t.Parallel()

		var gotBody []byte
		var gotHeader string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("Method = %q, want PATCH", r.Method)
			}
			gotBody, _ = io.ReadAll(r.Body)
			gotHeader = r.Header.Get(HeaderTelegramUserID)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"name":"done","value":2}`))
		}))
		defer ts.Close()

		ctx := WithTelegramUserID(t.Context(), 123456789)
		var got testPayload
		if err := newTestClient(t, ts.URL).PatchJSON(ctx, "/bookings/5/cancel", testPayload{Name: "x"}, &got); err != nil {
			t.Fatalf("PatchJSON() error = %v", err)
		}
		if gotHeader != "123456789" {
			t.Errorf("%s = %q, want 123456789", HeaderTelegramUserID, gotHeader)
		}
		if string(gotBody) != `{"name":"x","value":0}` {
			t.Errorf("body = %s", gotBody)
		}
		if got.Name != "done" {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("POSTは5xxでも再試行しないこと", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"message":"Сервис недоступен"}`))
		}))
		defer ts.Close()

		err := newTestClient(t, ts.URL).PostJSON(t.Context(), "/bookings/", testPayload{}, nil)
		if Message(err) != "Сервис недоступен" {
			t.Errorf("Message = %q", Message(err))
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("204の場合はデシリアライズしないこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		var got testPayload
		if err := newTestClient(t, ts.URL).PostJSON(t.Context(), "/reviews/", testPayload{}, &got); err != nil {
			t.Fatalf("PostJSON() error = %v", err)
		}
	})
}

// TestMessage はエラーから表示用メッセージへの変換を検証する。
func TestMessage(t *testing.T) {
	t.Parallel()

	t.Run("接続できない場合は固定メッセージになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		err := newTestClient(t, url).GetJSON(t.Context(), "/services/", nil)
		if !errors.Is(err, ErrUnreachable) {
			t.Fatalf("err = %v, want ErrUnreachable", err)
		}
		if Message(err) != MsgUnreachable {
			t.Errorf("Message = %q", Message(err))
		}
	})

	t.Run("本文が無い場合は既定メッセージになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer ts.Close()

		err := newTestClient(t, ts.URL).PostJSON(t.Context(), "/bookings/", nil, nil)
		if Message(err) != MsgRequestFailed {
			t.Errorf("Message = %q, want %q", Message(err), MsgRequestFailed)
		}
	})

	t.Run("detailが配列の場合は既定メッセージになること", func(t *testing.T) {
		t.Parallel()

		got := errorMessage([]byte(`{"detail":[{"loc":["body","phone"],"msg":"field required"}]}`))
		if got != MsgRequestFailed {
			t.Errorf("errorMessage() = %q", got)
		}
	})

	t.Run("detailがmessageより優先されること", func(t *testing.T) {
		t.Parallel()

		got := errorMessage([]byte(`{"detail":"Слот занят","message":"other"}`))
		if got != "Слот занят" {
			t.Errorf("errorMessage() = %q", got)
		}
	})

	t.Run("その他のエラーは不明なエラーになること", func(t *testing.T) {
		t.Parallel()

		if got := Message(errors.New("boom")); got != MsgUnknown {
			t.Errorf("Message = %q", got)
		}
		if got := Message(nil); got != "" {
			t.Errorf("Message(nil) = %q", got)
		}
	})

	t.Run("デシリアライズ失敗は不明なエラーになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer ts.Close()

		var got testPayload
		err := newTestClient(t, ts.URL).GetJSON(t.Context(), "/services/", &got)
		if err == nil || Message(err) != MsgUnknown {
			t.Errorf("err = %v, Message = %q", err, Message(err))
		}
	})
}

// TestObserver は計測フックが試行ごとに呼ばれることを検証する。
func TestObserver(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	var paths []string
	var statuses []int
	client := newTestClient(t, ts.URL, WithObserver(func(method, path string, status int, _ time.Duration, _ error) {
		paths = append(paths, method+" "+path)
		statuses = append(statuses, status)
	}))
	_ = client.GetJSON(t.Context(), "/masters/?is_active=true", nil)

	if len(paths) != 2 {
		t.Fatalf("observer calls = %d, want 2", len(paths))
	}
	if paths[0] != "GET /masters/" {
		t.Errorf("path = %q, want %q", paths[0], "GET /masters/")
	}
	if statuses[1] != http.StatusBadGateway {
		t.Errorf("status = %d", statuses[1])
	}
}

// TestTelegramUserID はコンテキストへの格納と取り出しを検証する。
func TestTelegramUserID(t *testing.T) {
	t.Parallel()

	t.Run("設定したIDを取り出せること", func(t *testing.T) {
		t.Parallel()

		ctx := WithTelegramUserID(context.Background(), 42)
		id, ok := TelegramUserID(ctx)
		if !ok || id != 42 {
			t.Errorf("TelegramUserID() = %d, %v", id, ok)
		}
	})

	t.Run("未設定の場合はfalseになること", func(t *testing.T) {
		t.Parallel()

		if _, ok := TelegramUserID(context.Background()); ok {
			t.Error("ok = true, want false")
		}
	})

	t.Run("中断されたコンテキストでは再試行しないこと", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer ts.Close()

		ctx, cancel := context.WithCancel(t.Context())
		client := New(ts.URL, WithRetry(1, time.Hour), WithObserver(func(string, string, int, time.Duration, error) {
			cancel()
		}))
		err := client.GetJSON(ctx, "/services/", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})
}
