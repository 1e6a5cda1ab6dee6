// Package web は予約フロントエンドのWebサーバーを提供する。
//
// カタログ、予約ウィザード、予約一覧、プロフィール、サロン情報をサーバー側で描画し、
// Telegram Mini-App向けに /api 配下をサロンAPIへ転送する。
// 予約の作成・キャンセル・日時変更とレビュー投稿はアウトボックスに記録され、
// notifier パッケージがTelegramへ通知する。
package web
