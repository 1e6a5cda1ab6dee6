package web

import (
	"net/http"
	"strings"
	"testing"
)

const servicesJSON = `[
  {"id":1,"name":"Маникюр","category":"Ногти","price":"1500.00","duration_minutes":60,"is_active":true},
  {"id":2,"name":"Стрижка","category":"Волосы","price":"2000.00","duration_minutes":45,"is_active":true}
]`

const masterJSON = `{"id":3,"name":"Анна","specialization":"Мастер маникюра","rating":"4.50","reviews_count":2,"is_active":true}`

func TestCatalogPages(t *testing.T) {
	t.Parallel()

	t.Run("サービス一覧にカテゴリと価格が表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /services/?is_active=true", http.StatusOK, servicesJSON)
		env.api.set("GET /services/categories/list", http.StatusOK, `["Ногти","Волосы"]`)

		w := env.request(t, http.MethodGet, "/services", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Маникюр", "Стрижка", "Ногти", "60 мин", "/booking?service_id=1")
		if !strings.Contains(normalizeSpaces(w.Body.String()), "1 500 ₽") {
			t.Error("価格が整形されていません")
		}
	})

	t.Run("カテゴリで絞り込めること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /services/?category=%D0%9D%D0%BE%D0%B3%D1%82%D0%B8&is_active=true", http.StatusOK, `[]`)
		env.api.set("GET /services/categories/list", http.StatusOK, `["Ногти"]`)

		w := env.request(t, http.MethodGet, "/services?category=%D0%9D%D0%BE%D0%B3%D1%82%D0%B8", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Услуги не найдены")
	})

	t.Run("カテゴリ取得に失敗しても一覧は表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /services/?is_active=true", http.StatusOK, servicesJSON)
		env.api.set("GET /services/categories/list", http.StatusInternalServerError, `{}`)

		w := env.request(t, http.MethodGet, "/services", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Маникюр")
	})

	t.Run("APIエラーの場合はメッセージと再試行リンクが表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /services/?is_active=true", http.StatusInternalServerError, `{"detail":"База данных недоступна"}`)

		w := env.request(t, http.MethodGet, "/services", "", nil)
		assertStatus(t, w, http.StatusBadGateway)
		assertContains(t, w, "База данных недоступна", "Попробовать снова", `href="/services"`)
	})

	t.Run("存在しないサービスは404になること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /services/99", http.StatusNotFound, `{"detail":"Услуга не найдена"}`)

		w := env.request(t, http.MethodGet, "/services/99", "", nil)
		assertStatus(t, w, http.StatusNotFound)
		assertContains(t, w, "Услуга не найдена")
	})

	t.Run("不正なIDは404になること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		w := env.request(t, http.MethodGet, "/masters/abc", "", nil)
		assertStatus(t, w, http.StatusNotFound)
		if n := env.api.hits("GET /masters/abc"); n != 0 {
			t.Errorf("APIへのリクエスト数 = %d, want 0", n)
		}
	})

	t.Run("スペシャリスト詳細に評価とレビューが表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /masters/3", http.StatusOK, masterJSON)
		env.api.set("GET /reviews/master/3", http.StatusOK,
			`[{"id":1,"master_id":3,"rating":4,"comment":"Отлично","created_at":"2026-10-01T10:00:00"}]`)

		w := env.request(t, http.MethodGet, "/masters/3?notice=review", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Анна", "4.5", "2 отзыва", "★★★★☆", "Отлично", "01.10.2026", "Спасибо за отзыв!")
	})

	t.Run("サービス指定でスペシャリスト一覧を取得すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /masters/?is_active=true&service_id=1", http.StatusOK, "["+masterJSON+"]")

		w := env.request(t, http.MethodGet, "/masters?service_id=1", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Анна")
	})

	t.Run("トップページにプロモーションが表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /promotions/?active_only=true", http.StatusOK,
			`[{"id":1,"title":"Осенняя скидка","discount_percent":"15.00","is_active":true}]`)

		w := env.request(t, http.MethodGet, "/", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Осенняя скидка", "-15%")
	})

	t.Run("プロモーションの取得に失敗してもトップページは表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		w := env.request(t, http.MethodGet, "/?login=required", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "LL BeautyBar", "Откройте приложение через Telegram")
	})

	t.Run("サロン情報に営業時間が曜日順で表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /settings/", http.StatusOK, `{
			"id":1,"address":"Москва, ул. Тверская, 1","phone":"+79990000000",
			"working_hours":{"sunday":null,"monday":{"open":"10:00","close":"20:00"}},
			"social_links":{"instagram":"https://instagram.com/llbeautybar"},
			"privacy_policy_text":"Мы бережём ваши данные"}`)

		w := env.request(t, http.MethodGet, "/salon", "", nil)
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Москва, ул. Тверская, 1", "Понедельник: 10:00–20:00", "Воскресенье: Выходной",
			"https://instagram.com/llbeautybar", "Мы бережём ваши данные")
		body := w.Body.String()
		if strings.Index(body, "Понедельник") > strings.Index(body, "Воскресенье") {
			t.Error("営業時間が曜日順になっていません")
		}
	})
}

func TestCertificatesPage(t *testing.T) {
	t.Parallel()

	t.Run("未使用の証明書で絞り込めること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /certificates/?is_used=false", http.StatusOK,
			`[{"id":5,"code":"GIFT-2026","amount":"3000.00","is_used":false,"expires_at":"2026-12-31T00:00:00"}]`)

		w := env.get(t, "/certificates?used=false")
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "GIFT-2026", "Действителен до: 31.12.2026")
		req, _ := env.api.last("GET /certificates/?is_used=false")
		if req.identity != testUserID {
			t.Errorf("identity = %q, want %q", req.identity, testUserID)
		}
	})

	t.Run("不正な絞り込み値は全件になること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /certificates/", http.StatusOK, `[]`)

		w := env.get(t, "/certificates?used=maybe")
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Сертификаты не найдены")
	})

	t.Run("匿名の場合はトップへリダイレクトされること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		w := env.request(t, http.MethodGet, "/certificates", "", nil)
		assertStatus(t, w, http.StatusSeeOther)
		if got := w.Header().Get("Location"); got != "/?login=required" {
			t.Errorf("Location = %q", got)
		}
	})
}
