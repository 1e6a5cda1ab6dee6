package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/nao1215/beautybar/pkg/event"
)

func TestReviews(t *testing.T) {
	t.Parallel()

	t.Run("スペシャリスト未指定の場合は案内が表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		w := env.get(t, "/reviews/create")
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Мастер не указан")
	})

	t.Run("フォームに予約IDが引き継がれること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /masters/3", http.StatusOK, masterJSON)

		w := env.get(t, "/reviews/create?master_id=3&booking_id=9")
		assertStatus(t, w, http.StatusOK)
		assertContains(t, w, "Оставить отзыв", "Анна", `name="booking_id" value="9"`)
	})

	t.Run("レビューを投稿するとイベントが記録されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /masters/3", http.StatusOK, masterJSON)
		env.api.set("POST /reviews/", http.StatusCreated, `{"id":11,"master_id":3,"rating":4}`)

		w := env.post(t, "/reviews/create", url.Values{
			"master_id":  {"3"},
			"booking_id": {"9"},
			"rating":     {"4"},
			"comment":    {"  Всё понравилось  "},
		})
		assertStatus(t, w, http.StatusSeeOther)
		if got := w.Header().Get("Location"); got != "/masters/3?notice=review" {
			t.Errorf("Location = %q", got)
		}

		posted, _ := env.api.last("POST /reviews/")
		var body map[string]any
		if err := json.Unmarshal([]byte(posted.body), &body); err != nil {
			t.Fatalf("POSTボディの解析に失敗: %v", err)
		}
		if body["comment"] != "Всё понравилось" || body["booking_id"] != float64(9) {
			t.Errorf("POSTボディ = %v", body)
		}

		events := env.pendingEvents(t)
		if len(events) != 1 || events[0].EventType != event.TypeReviewSubmitted {
			t.Fatalf("イベント = %+v, want ReviewSubmitted 1件", events)
		}
		data, err := event.DecodeData[event.ReviewData](events[0])
		if err != nil {
			t.Fatalf("イベントデータの解析に失敗: %v", err)
		}
		if data.ReviewID != 11 || data.MasterName != "Анна" || data.Rating != 4 {
			t.Errorf("イベントデータ = %+v", data)
		}
	})

	t.Run("評価が範囲外の場合は422になること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.api.set("GET /masters/3", http.StatusOK, masterJSON)

		w := env.post(t, "/reviews/create", url.Values{"master_id": {"3"}, "rating": {"7"}})
		assertStatus(t, w, http.StatusUnprocessableEntity)
		assertContains(t, w, "Оценка")
		if n := env.api.hits("POST /reviews/"); n != 0 {
			t.Errorf("POST /reviews/ = %d回, want 0", n)
		}
	})
}
