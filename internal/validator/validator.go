// Package validator は入力検証のカスタムルールを登録する。
package validator

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validate はカスタムルール登録済みのバリデーター。
var Validate *validator.Validate

var (
	hhmmPattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s()\-]{10,20}$`)
	nonSpace     = regexp.MustCompile(`\S`)
)

func init() {
	Validate = validator.New()
	register(Validate)
}

// rules はカスタムルールの一覧。
var rules = map[string]validator.Func{
	// 日付: "2026-10-15"
	"bookingdate": func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	},
	// 時刻: "14:30"
	"hhmm": func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	},
	// 空文字や空白のみでないこと
	"notblank": func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	},
	// 電話番号: 数字10桁以上、+ ( ) - 空白を許可
	"phone": func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !phonePattern.MatchString(s) {
			return false
		}
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits >= 10 && digits <= 15
	},
}

func register(v *validator.Validate) {
	for tag, fn := range rules {
		_ = v.RegisterValidation(tag, fn)
	}
}

var ginOnce sync.Once

// RegisterGin はginのバインディングエンジンにカスタムルールを登録する。2回目以降の呼び出しは何もしない。
func RegisterGin() {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})
}

// fieldMessages はタグごとの表示用メッセージ。
var fieldMessages = map[string]string{
	"required":    "обязательное поле",
	"notblank":    "обязательное поле",
	"bookingdate": "неверный формат даты",
	"hhmm":        "неверный формат времени",
	"phone":       "неверный номер телефона",
	"email":       "неверный адрес электронной почты",
	"min":         "значение слишком маленькое",
	"max":         "значение слишком большое",
	"gte":         "значение слишком маленькое",
	"lte":         "значение слишком большое",
}

// Message は検証エラーを利用者向けの文言に変換する。labelsはフィールド名から表示名への対応。
func Message(err error, labels map[string]string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Проверьте введённые данные"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if l, ok := labels[name]; ok {
			name = l
		}
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "неверное значение"
		}
		parts = append(parts, name+": "+msg)
	}
	return strings.Join(parts, "; ")
}
