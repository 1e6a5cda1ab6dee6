// Package store はローカル状態（予約の下書きと通知アウトボックス）を保持するSQLiteを開く。
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/beautybar/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// FileName はデータディレクトリ内のデータベースファイル名。
const FileName = "beautybar.db"

// Open はdataDir内のSQLiteを開き、マイグレーションを適用する。
// dataDirが ":memory:" の場合はインメモリデータベースを使う。
func Open(ctx context.Context, dataDir string) (*sql.DB, error) {
	dsn := ":memory:"
	if dataDir != ":memory:" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("データディレクトリの作成に失敗: %w", err)
		}
		dsn = filepath.Join(dataDir, FileName) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if dsn == ":memory:" {
		// インメモリDBは接続ごとに別物になる
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate は埋め込みのマイグレーションを適用する。
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return nil
}

// Status は適用済みのマイグレーションを返す。
func Status(ctx context.Context, db *sql.DB) ([]migration.Applied, error) {
	return migration.Status(ctx, db)
}
