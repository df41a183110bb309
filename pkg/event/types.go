package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeSubscription はプッシュサブスクリプションを表す。
	AggregateTypeSubscription AggregateType = "PushSubscription"
	// AggregateTypeDispatch は1回の通知配信を表す。
	AggregateTypeDispatch AggregateType = "PushDispatch"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeSubscriptionRegistered はサブスクリプションが新規登録されたことを表す。
	TypeSubscriptionRegistered Type = "SubscriptionRegistered"
	// TypeSubscriptionRemoved はサブスクリプションが削除されたことを表す。
	TypeSubscriptionRemoved Type = "SubscriptionRemoved"
	// TypeNotificationDispatched は通知配信が完了したことを表す。
	TypeNotificationDispatched Type = "NotificationDispatched"
)

// RemovalReason はサブスクリプションが削除された理由。
type RemovalReason string

const (
	// RemovalReasonUnsubscribed は所有者による登録解除。
	RemovalReasonUnsubscribed RemovalReason = "unsubscribed"
	// RemovalReasonInternal は内部APIによる無条件の登録解除。
	RemovalReasonInternal RemovalReason = "internal"
	// RemovalReasonExpired は配信時の恒久的失敗による自動削除。
	RemovalReasonExpired RemovalReason = "expired"
)

// Event はEvent Storeに永続化される不変のイベントレコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// Version はAggregate内でのイベントの順序番号。
	Version int64 `json:"version"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// SubscriptionRegisteredData はSubscriptionRegisteredイベントのデータ。
type SubscriptionRegisteredData struct {
	// UserID はサブスクリプションの所有者。
	UserID string `json:"user_id"`
	// Endpoint はプッシュサービスのエンドポイントURL。
	Endpoint string `json:"endpoint"`
}

// SubscriptionRemovedData はSubscriptionRemovedイベントのデータ。
type SubscriptionRemovedData struct {
	// Endpoint は削除されたエンドポイントURL。
	Endpoint string `json:"endpoint"`
	// RemovedBy は削除を要求したユーザーのID。内部APIの場合は空。
	RemovedBy string `json:"removed_by,omitempty"`
	// Reason は削除理由。
	Reason RemovalReason `json:"reason"`
}

// NotificationDispatchedData はNotificationDispatchedイベントのデータ。
type NotificationDispatchedData struct {
	// RequestedBy は配信を要求したユーザーのID。
	RequestedBy string `json:"requested_by"`
	// TargetType は配信先の種類（user または role）。
	TargetType string `json:"target_type"`
	// TargetID は配信先の識別子。
	TargetID string `json:"target_id"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Status は配信結果の状態。
	Status string `json:"status"`
	// Sent は送信に成功した件数。
	Sent int `json:"sent"`
	// Failed は送信に失敗した件数。
	Failed int `json:"failed"`
	// Deleted は失効により削除されたサブスクリプション数。
	Deleted int `json:"deleted"`
}
