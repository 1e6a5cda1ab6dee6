// Package bot はLL BeautyBarのTelegramボットを提供する。
//
// /start でMini-Appを開くボタンを返し、/bookings で今後の予約を一覧にする。
// 更新はロングポーリングか、WebサーバーにマウントするWebhookハンドラで受け取る。
package bot
