package dispatch

import (
	"time"
)

// Keys はプッシュサービスがペイロードの暗号化に使用する鍵のペア。
// 内容は解釈せず、存在チェックのみ行う。
type Keys struct {
	// P256dh はクライアントのECDH公開鍵（Base64URL）。
	P256dh string `json:"p256dh"`
	// Auth はクライアントの認証シークレット（Base64URL）。
	Auth string `json:"auth"`
}

// Subscription はブラウザ1インストール分のプッシュ購読を表す。
// Endpointが自然キーであり、同一エンドポイントの購読は常に1件のみ存在する。
type Subscription struct {
	// ID はストアが採番する一意識別子。
	ID string `json:"id"`
	// OwnerID は購読を登録したユーザーのID。
	OwnerID string `json:"owner_id"`
	// Endpoint はプッシュサービスのURL。グローバルに一意。
	Endpoint string `json:"endpoint"`
	// Keys はペイロード暗号化用の鍵。
	Keys Keys `json:"keys"`
	// CreatedAt は購読の作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// TargetKind は配信先の種類を表す。
type TargetKind string

const (
	// TargetUser は単一ユーザーを配信先とする。
	TargetUser TargetKind = "user"
	// TargetRole は指定ロールを持つ全ユーザーを配信先とする。
	TargetRole TargetKind = "role"
)

// Target は論理的な配信先。リクエストごとに生成され、永続化はしない。
type Target struct {
	// Kind は配信先の種類。
	Kind TargetKind `json:"type"`
	// ID はKindに応じてユーザーIDまたはロールIDとして解釈される。
	ID string `json:"id"`
}

// Action は通知に表示するアクションボタン。
type Action struct {
	// Action はService Workerに渡されるアクション識別子。
	Action string `json:"action"`
	// Title はボタンに表示するラベル。
	Title string `json:"title"`
}

// Payload はService Workerに届けられる通知の内容。
// 正規化後にJSONへシリアライズされ、全受信者に同一の内容が送られる。
type Payload struct {
	// Title は通知のタイトル。必須。
	Title string `json:"title"`
	// Body は通知の本文。必須。
	Body string `json:"body"`
	// Icon は通知アイコンのURI。
	Icon string `json:"icon,omitempty"`
	// Badge はバッジ画像のURI。
	Badge string `json:"badge,omitempty"`
	// Vibrate はバイブレーションパターン（ミリ秒）。
	Vibrate []int `json:"vibrate,omitempty"`
	// Actions は通知のアクションボタン。
	Actions []Action `json:"actions,omitempty"`
	// Data は任意のキー値。正規化時に path と timestamp が設定される。
	Data map[string]any `json:"data,omitempty"`
}

// Outcome は1件のサブスクリプションに対する送信結果。
// 送信対象のサブスクリプションを値として保持するため、
// 結果をフィルタしても対応関係が失われることはない。
type Outcome struct {
	// Subscription は送信対象のサブスクリプション。
	Subscription Subscription
	// Succeeded は送信に成功したかどうか。
	Succeeded bool
	// Err は送信失敗時のエラー。成功時はnil。
	Err error
}

// ErrorMessage は失敗時のエラーメッセージを返す。成功時は空文字列。
func (o Outcome) ErrorMessage() string {
	if o.Succeeded || o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// ReportStatus は配信レポートの状態。
type ReportStatus string

const (
	// StatusDispatched は配信処理が実行されたことを表す。
	StatusDispatched ReportStatus = "dispatched"
	// StatusNoRecipients は配信先にサブスクリプションが存在しなかったことを表す。
	// エラーではなく、送信失敗とも区別される。
	StatusNoRecipients ReportStatus = "no_recipients"
)

// FailureDetail は送信に失敗したサブスクリプションの情報。
type FailureDetail struct {
	Endpoint       string `json:"endpoint"`
	SubscriptionID string `json:"subscription_id"`
	ErrorMessage   string `json:"error"`
}

// Report は1回の配信処理の集計結果。
type Report struct {
	// Status は配信処理の状態。
	Status ReportStatus
	// Sent は送信に成功した件数。
	Sent int
	// Failed は送信に失敗した件数。
	Failed int
	// Total は送信対象の件数。
	Total int
	// Deleted は恒久的失敗により削除されたサブスクリプションの件数。
	Deleted int
	// Errors は失敗した送信の詳細。元の送信順を保持する。
	Errors []FailureDetail
}
