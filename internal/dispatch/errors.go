package dispatch

import (
	"errors"
	"fmt"
)

// 呼び出し元に即座に返されるエラー。いずれも操作全体を中断する。
// 個々のエンドポイントへの送信失敗はエラーとして返さず、Outcomeのデータとして扱う。
var (
	// ErrInvalidRequest は必須項目が欠けたリクエストを表す。
	ErrInvalidRequest = errors.New("リクエストが不正です")
	// ErrInvalidTarget は未知の配信先種別を表す。
	ErrInvalidTarget = errors.New("配信先の種類が不正です")
	// ErrInvalidSubscription はエンドポイントまたは鍵が欠けた購読登録を表す。
	ErrInvalidSubscription = errors.New("サブスクリプションが不正です")
	// ErrInvalidPayload は送信前に検出された不正な送信入力を表す。
	ErrInvalidPayload = errors.New("送信内容が不正です")
	// ErrNotFound は存在しないサブスクリプションへの操作を表す。
	ErrNotFound = errors.New("サブスクリプションが見つかりません")
	// ErrForbidden は所有者以外による操作を表す。
	ErrForbidden = errors.New("このサブスクリプションを操作する権限がありません")
)

// StatusError はプッシュサービスが2xx以外のステータスを返したことを表す。
// 分類器は文字列照合より先にこのステータスコードを参照する。
type StatusError struct {
	// StatusCode はプッシュサービスのHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ（先頭部分のみ）。
	Body string
}

// Error はエラーメッセージを返す。
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("プッシュサービスがステータス %d を返しました", e.StatusCode)
	}
	return fmt.Sprintf("プッシュサービスがステータス %d を返しました: %s", e.StatusCode, e.Body)
}
