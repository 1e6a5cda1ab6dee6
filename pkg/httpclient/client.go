package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// 利用者に表示するエラーメッセージ。
const (
	// MsgRequestFailed はAPIがエラー本文を返さなかった場合の既定メッセージ。
	MsgRequestFailed = "Произошла ошибка при запросе"
	// MsgUnreachable はサーバーから応答が得られなかった場合のメッセージ。
	MsgUnreachable = "Нет ответа от сервера. Проверьте подключение к интернету."
	// MsgUnknown はそれ以外のエラーのメッセージ。
	MsgUnknown = "Произошла неизвестная ошибка"
)

// HeaderTelegramUserID はAPIにTelegramユーザーIDを伝えるHTTPヘッダーキー。
const HeaderTelegramUserID = "X-Telegram-User-Id"

// ErrUnreachable は接続先から応答が得られなかったことを表す。
var ErrUnreachable = errors.New("サーバーから応答がありません")

// maxErrorBody はエラーレスポンス本文の読み取り上限（バイト）。
const maxErrorBody = 64 << 10

// APIError はAPIが2xx以外のステータスを返したことを表す。
type APIError struct {
	// Status はHTTPステータスコード。
	Status int
	// Message はレスポンスの detail / message から取り出した表示用メッセージ。
	Message string
}

// Error はエラー文字列を返す。
func (e *APIError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, message=%s", e.Status, e.Message)
}

// Message はエラーを利用者向けの文言に変換する。
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnreachable) {
		return MsgUnreachable
	}
	return MsgUnknown
}

// StatusCode はエラーがAPIErrorであればそのステータスを返し、それ以外は0を返す。
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Observer は1回のHTTP試行ごとに呼ばれるコールバック。
// statusは応答が無かった場合0になる。
type Observer func(method, path string, status int, elapsed time.Duration, err error)

// Client はサロンAPIとの通信に使うJSON HTTPクライアント。
// GETリクエストのみ失敗時に再試行する。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL。
	baseURL string
	// retries はGETリクエストの追加試行回数。
	retries int
	// retryDelay は再試行までの待ち時間。
	retryDelay time.Duration
	// observer は試行ごとの計測フック。
	observer Observer
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTimeout は1リクエストあたりのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetry はGETリクエストの追加試行回数と待ち時間を設定する。
func WithRetry(retries int, delay time.Duration) Option {
	return func(c *Client) {
		if retries < 0 {
			retries = 0
		}
		c.retries = retries
		c.retryDelay = delay
	}
}

// WithObserver は試行ごとに呼ばれる計測フックを設定する。
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New は新しいHTTPクライアントを生成する。
// baseURLにはAPIのベースURL（例: "http://backend:8000/api"）を指定する。
// 既定ではタイムアウト30秒、GETの再試行1回（1秒後）。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retries:    1,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON は指定パスにGETリクエストを送信し、レスポンスをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// PatchJSON は指定パスにJSONボディでPATCHリクエストを送信する。
func (c *Client) PatchJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, result)
}

// doJSON は再試行を含むJSONリクエストの共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		payload = b
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var err error
	for i := range attempts {
		if i > 0 {
			if waitErr := sleep(ctx, c.retryDelay); waitErr != nil {
				return fmt.Errorf("再試行の待機が中断されました: %w", waitErr)
			}
		}
		err = c.once(ctx, method, path, payload, result)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

// once は1回分のHTTPリクエストを実行する。
func (c *Client) once(ctx context.Context, method, path string, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// コンテキストからTelegramユーザーIDを伝播する
	if id, ok := TelegramUserID(ctx); ok {
		req.Header.Set(HeaderTelegramUserID, strconv.FormatInt(id, 10))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("HTTPリクエストが中断されました: %w", ctx.Err())
		} else {
			err = fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		c.observe(method, path, 0, time.Since(start), err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
		c.observe(method, path, resp.StatusCode, time.Since(start), apiErr)
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			err = fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
			c.observe(method, path, resp.StatusCode, time.Since(start), err)
			return err
		}
	}
	c.observe(method, path, resp.StatusCode, time.Since(start), nil)
	return nil
}

func (c *Client) observe(method, path string, status int, elapsed time.Duration, err error) {
	if c.observer == nil {
		return
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	c.observer(method, path, status, elapsed, err)
}

// errorMessage はエラーレスポンス本文から表示用メッセージを取り出す。
// detail が文字列であればそれを、無ければ message を使う。
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return MsgRequestFailed
	}
	var detail string
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if payload.Message != "" {
		return payload.Message
	}
	return MsgRequestFailed
}

// retryable は再試行すべきエラーかどうかを判定する。
func retryable(err error) bool {
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	return StatusCode(err) >= http.StatusInternalServerError
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyTelegramUserID はコンテキストにTelegramユーザーIDを格納するためのキー。
const contextKeyTelegramUserID contextKey = "telegram_user_id"

// WithTelegramUserID はコンテキストにTelegramユーザーIDを設定する。
// 設定されたIDは X-Telegram-User-Id ヘッダーとしてAPIに送られる。
func WithTelegramUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, contextKeyTelegramUserID, id)
}

// TelegramUserID はコンテキストからTelegramユーザーIDを取り出す。
func TelegramUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKeyTelegramUserID).(int64)
	return id, ok && id > 0
}
