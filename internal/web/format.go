package web

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/nao1215/beautybar/internal/booking"
	"github.com/nao1215/beautybar/pkg/salonapi"
)

// ruPrinter はロシア語の数値書式で出力するプリンター。
var ruPrinter = message.NewPrinter(language.Russian)

var ruWeekdays = [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

var ruMonthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// formatAmount は金額をロシア語の桁区切りで整形する（例: "1 500"）。
func formatAmount(d salonapi.Decimal) string {
	if !d.Valid() {
		return ""
	}
	return ruPrinter.Sprintf("%v", number.Decimal(d.Float(), number.MaxFractionDigits(2)))
}

// formatPrice は価格を "1 500 ₽" の形式で整形する。
func formatPrice(d salonapi.Decimal) string {
	if !d.Valid() {
		return ""
	}
	return formatAmount(d) + " ₽"
}

// formatRating は評価を小数1桁で整形する。
func formatRating(d salonapi.Decimal) string {
	if !d.Valid() {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", d.Float())
}

// formatDiscount は割引率を "-15%" の形式で整形する。
func formatDiscount(d salonapi.Decimal) string {
	if !d.Valid() {
		return ""
	}
	return fmt.Sprintf("-%.0f%%", d.Float())
}

// parseDay は "2026-10-15" または日時文字列の日付部分を解析する。
func parseDay(s string) (time.Time, bool) {
	if len(s) < len(booking.DateFormat) {
		return time.Time{}, false
	}
	t, err := time.Parse(booking.DateFormat, s[:len(booking.DateFormat)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// formatDate は日付を "15.10.2026" の形式で整形する。解析できない場合はそのまま返す。
func formatDate(s string) string {
	t, ok := parseDay(s)
	if !ok {
		return s
	}
	return t.Format("02.01.2006")
}

// formatLongDate は日付を "четверг, 15 октября 2026 г." の形式で整形する。
func formatLongDate(s string) string {
	t, ok := parseDay(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%s, %d %s %d г.", ruWeekdays[t.Weekday()], t.Day(), ruMonthsGenitive[t.Month()-1], t.Year())
}

// formatClock は "10:00:00" 形式の時刻を "10:00" にする。
func formatClock(s string) string {
	if len(s) > len(booking.TimeFormat) {
		return s[:len(booking.TimeFormat)]
	}
	return s
}

// pluralReviews は件数に応じた「отзыв」の語形を返す。
func pluralReviews(n int) string {
	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return "отзыв"
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return "отзыва"
	default:
		return "отзывов"
	}
}

// stars は評価を星の文字列で表す。
func stars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// entry は表示用のキーと値の組。
type entry struct {
	Key   string
	Label string
	Value string
}

// weekdayOrder は営業時間の表示順とラベル。
var weekdayOrder = []entry{
	{Key: "monday", Label: "Понедельник"},
	{Key: "tuesday", Label: "Вторник"},
	{Key: "wednesday", Label: "Среда"},
	{Key: "thursday", Label: "Четверг"},
	{Key: "friday", Label: "Пятница"},
	{Key: "saturday", Label: "Суббота"},
	{Key: "sunday", Label: "Воскресенье"},
}

// workingHours は営業時間を曜日順に並べる。曜日以外のキーは名前順で後ろに続く。
func workingHours(m map[string]any) []entry {
	out := make([]entry, 0, len(m))
	seen := make(map[string]bool, len(weekdayOrder))
	for _, d := range weekdayOrder {
		v, ok := m[d.Key]
		if !ok {
			continue
		}
		seen[d.Key] = true
		out = append(out, entry{Key: d.Key, Label: d.Label, Value: displayValue(v)})
	}
	return append(out, sortedEntries(m, seen)...)
}

// sortedEntries はマップをキー順の一覧にする。
func sortedEntries(m map[string]any, skip map[string]bool) []entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, entry{Key: k, Label: k, Value: displayValue(m[k])})
	}
	return out
}

// displayValue はJSONの値を表示用文字列にする。
// {"open": "10:00", "close": "20:00"} の形式は "10:00–20:00" になる。
func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "Выходной"
	case string:
		return x
	case bool:
		if x {
			return "Да"
		}
		return "Выходной"
	case map[string]any:
		open, _ := x["open"].(string)
		closeAt, _ := x["close"].(string)
		if open != "" && closeAt != "" {
			return open + "–" + closeAt
		}
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}
