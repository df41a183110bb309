package dispatch

import "context"

// SubscriptionFinder はサブスクリプションの検索を行う。
type SubscriptionFinder interface {
	// GetByEndpoint はエンドポイントでサブスクリプションを取得する。
	// 存在しない場合はErrNotFoundを返す。
	GetByEndpoint(ctx context.Context, endpoint string) (Subscription, error)
	// ListByOwner は指定ユーザーの全サブスクリプションを返す。
	ListByOwner(ctx context.Context, ownerID string) ([]Subscription, error)
	// ListByOwners は指定ユーザー群の全サブスクリプションを返す。
	ListByOwners(ctx context.Context, ownerIDs []string) ([]Subscription, error)
}

// SubscriptionDeleter はサブスクリプションの削除を行う。
type SubscriptionDeleter interface {
	// DeleteByID はIDでサブスクリプションを削除する。
	// 存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByEndpoint はエンドポイントでサブスクリプションを削除する。
	// 存在しない場合はErrNotFoundを返す。
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// SubscriptionStore はエンドポイントをキーとするサブスクリプションの永続化ストア。
// 同一エンドポイントに対する登録と削除の競合はストアの一意制約で直列化される。
type SubscriptionStore interface {
	SubscriptionFinder
	SubscriptionDeleter
	// CreateIfAbsent はエンドポイントが未登録の場合のみサブスクリプションを作成する。
	// 既に存在する場合は既存のレコードを変更せずに返し、createdはfalseとなる。
	CreateIfAbsent(ctx context.Context, sub Subscription) (stored Subscription, created bool, err error)
}

// RoleDirectory はロールに所属するユーザーを返す。
type RoleDirectory interface {
	// MembersOf は指定ロールを持つユーザーIDの一覧を返す。
	MembersOf(ctx context.Context, roleID string) ([]string, error)
}
