// Package notifier はアウトボックスに記録されたイベントをTelegramのメッセージとして配信する。
//
// Notifier は一定間隔で未送信のイベントを取得し、イベントの種類ごとに文面を組み立てて
// ユーザーのチャットへ送る。送信に失敗したイベントは試行回数の上限まで次回以降に再送する。
package notifier
