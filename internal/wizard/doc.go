// Package wizard は予約ウィザードの状態遷移と、その下書きの保存を提供する。
//
// ステップは service → master → date → time → contact → confirm → success の順に
// 進む。前のステップへはいつでも戻れるが、先のステップへ飛ぶことはできない。
// サービスを変えるとスペシャリストと時刻が、スペシャリストか日付を変えると
// 時刻が選び直しになる。
package wizard
