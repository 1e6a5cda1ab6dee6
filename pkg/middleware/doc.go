// Package middleware はWebフロントエンドで使用するGinミドルウェアを提供する。
//
// セッションからのTelegramユーザーIDの解決、パニックリカバリ（エラーページ表示）、
// Mini-App向けのCORS設定、リクエストのメトリクス記録を含む。
package middleware
