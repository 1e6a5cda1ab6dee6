// Package httpclient はサロンAPIとのJSON通信を行うクライアントを提供する。
//
// APIのエラーレスポンスを表示用メッセージに変換し、応答が無い場合は固定の
// メッセージを返す。データ取得（GET）のみ1回だけ再試行し、更新系のリクエストは
// 再試行しない。TelegramユーザーIDはコンテキスト経由でヘッダーに載せる。
package httpclient
