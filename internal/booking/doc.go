// Package booking は予約の表示と操作可否に関する規則を提供する。
//
// キャンセルは開始の24時間前まで、日時変更は完了・キャンセル済み以外、
// レビューは担当スペシャリストがいる完了済みの予約に限られる。
// 予約可能な日付は当日から90日後まで。
package booking
