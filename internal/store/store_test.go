package store

import (
	"path/filepath"
	"testing"
)

// TestOpen はデータベースの初期化を検証する。
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("インメモリでテーブルが作成されること", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.Context(), ":memory:")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		for _, table := range []string{"booking_drafts", "events"} {
			var name string
			err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
			if err != nil {
				t.Errorf("table %s should exist: %v", table, err)
			}
		}
		applied, err := Status(t.Context(), db)
		if err != nil || len(applied) != 2 {
			t.Errorf("Status() = %+v, %v", applied, err)
		}
	})

	t.Run("ファイルを再度開いても再適用しないこと", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "data")
		db, err := Open(t.Context(), dir)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		db.Close()

		db, err = Open(t.Context(), dir)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		applied, err := Status(t.Context(), db)
		if err != nil || len(applied) != 2 {
			t.Errorf("Status() = %+v, %v", applied, err)
		}
	})
}
