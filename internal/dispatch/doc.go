// Package dispatch はWeb Push通知の配信とサブスクリプションのライフサイクル管理を提供する。
//
// 配信先（ユーザーまたはロール）をサブスクリプションの一覧に解決し、
// 全エンドポイントへ並行に送信する。送信失敗は一時的か恒久的かに分類され、
// 恒久的に失効したエンドポイントはストアから自動的に削除される。
// 1件の送信失敗がバッチ全体を中断することはない。
package dispatch
