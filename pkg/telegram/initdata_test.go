package telegram

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

const testToken = "123456:TEST-TOKEN"

// newInitData はテスト用の署名済み initData を生成する。
func newInitData(t *testing.T, authDate time.Time, user string) string {
	t.Helper()
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	v.Set("query_id", "AAH")
	if user != "" {
		v.Set("user", user)
	}
	return Sign(v, testToken)
}

// TestValidate は initData の検証を検証する。
func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	t.Run("正しい署名のinitDataを受け入れること", func(t *testing.T) {
		t.Parallel()

		raw := newInitData(t, now.Add(-time.Minute), `{"id":42,"first_name":"Ольга","username":"olga"}`)
		got, err := Validate(raw, testToken, 24*time.Hour, now)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got.User.ID != 42 || got.User.FirstName != "Ольга" || got.QueryID != "AAH" {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("別のトークンで署名された場合は拒否すること", func(t *testing.T) {
		t.Parallel()

		raw := newInitData(t, now, `{"id":42}`)
		if _, err := Validate(raw, "other", 0, now); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("err = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("改ざんされた場合は拒否すること", func(t *testing.T) {
		t.Parallel()

		raw := newInitData(t, now, `{"id":42}`)
		raw = strings.Replace(raw, "AAH", "BBB", 1)
		if _, err := Validate(raw, testToken, 0, now); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("err = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("hashが無い場合は拒否すること", func(t *testing.T) {
		t.Parallel()

		if _, err := Validate("auth_date=1", testToken, 0, now); !errors.Is(err, ErrMissingHash) {
			t.Errorf("err = %v, want ErrMissingHash", err)
		}
	})

	t.Run("期限切れの場合は拒否すること", func(t *testing.T) {
		t.Parallel()

		raw := newInitData(t, now.Add(-48*time.Hour), `{"id":42}`)
		if _, err := Validate(raw, testToken, 24*time.Hour, now); !errors.Is(err, ErrExpired) {
			t.Errorf("err = %v, want ErrExpired", err)
		}
	})

	t.Run("ユーザーが無い場合は拒否すること", func(t *testing.T) {
		t.Parallel()

		raw := newInitData(t, now, "")
		if _, err := Validate(raw, testToken, 0, now); !errors.Is(err, ErrMissingUser) {
			t.Errorf("err = %v, want ErrMissingUser", err)
		}
	})
}
