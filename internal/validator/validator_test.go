package validator

import (
	"errors"
	"testing"
)

// TestRules はカスタムルールを検証する。
func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag   string
		value string
		want  bool
	}{
		{"bookingdate", "2026-10-15", true},
		{"bookingdate", "15.10.2026", false},
		{"hhmm", "09:30", true},
		{"hhmm", "24:00", false},
		{"hhmm", "9:30", false},
		{"notblank", "Ольга", true},
		{"notblank", "   ", false},
		{"phone", "+7 (900) 123-45-67", true},
		{"phone", "89001234567", true},
		{"phone", "12345", false},
		{"phone", "телефон", false},
	}
	for _, tt := range tests {
		err := Validate.Var(tt.value, tt.tag)
		if got := err == nil; got != tt.want {
			t.Errorf("%s(%q) = %v, want %v (err=%v)", tt.tag, tt.value, got, tt.want, err)
		}
	}
}

// TestMessage は検証エラーの文言変換を検証する。
func TestMessage(t *testing.T) {
	t.Parallel()

	t.Run("フィールドの表示名と理由が含まれること", func(t *testing.T) {
		t.Parallel()

		type form struct {
			Name  string `validate:"notblank"`
			Phone string `validate:"phone"`
		}
		err := Validate.Struct(form{Name: " ", Phone: "1"})
		got := Message(err, map[string]string{"Name": "Имя", "Phone": "Телефон"})
		want := "Имя: обязательное поле; Телефон: неверный номер телефона"
		if got != want {
			t.Errorf("Message() = %q, want %q", got, want)
		}
	})

	t.Run("検証エラー以外は汎用文言になること", func(t *testing.T) {
		t.Parallel()

		if got := Message(errors.New("x"), nil); got != "Проверьте введённые данные" {
			t.Errorf("Message() = %q", got)
		}
	})
}
