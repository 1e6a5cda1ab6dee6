// Package salonapi はサロンREST APIの型付きクライアントを提供する。
//
// 公開カタログ（サービス、スペシャリスト、レビュー、プロモーション、サロン設定）の
// 読み取りはキャッシュされ、ユーザー固有のデータ（予約、証明書、プロフィール）は
// キャッシュしない。ユーザー固有の操作はコンテキストにTelegramユーザーIDが
// 必要で、無い場合は ErrNoIdentity を返す。
package salonapi
