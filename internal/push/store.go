package push

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/nao1215/pushhub/internal/dispatch"
	pushdb "github.com/nao1215/pushhub/internal/push/db"
)

// ErrRoleMemberNotFound は存在しないロール所属の削除を表す。
var ErrRoleMemberNotFound = errors.New("ロール所属が見つかりません")

// defaultOwnerBatchSize はListByOwnersが1回のクエリに渡すユーザーIDの上限。
// SQLiteのバインド変数の上限（32766）を超えないように分割する。
const defaultOwnerBatchSize = 500

// Store はSQLite上のサブスクリプションとロール所属の永続化ストア。
// dispatch.SubscriptionStore と dispatch.RoleDirectory を実装する。
type Store struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *pushdb.Queries
	// ownerBatchSize は1回のクエリで検索するユーザー数。
	ownerBatchSize int
}

// NewStore は新しいStoreを生成する。
func NewStore(db pushdb.DBTX) *Store {
	return &Store{queries: pushdb.New(db), ownerBatchSize: defaultOwnerBatchSize}
}

var (
	_ dispatch.SubscriptionStore = (*Store)(nil)
	_ dispatch.RoleDirectory     = (*Store)(nil)
)

// toSubscription はDB行をドメインのサブスクリプションに変換する。
func toSubscription(row pushdb.PushSubscription) dispatch.Subscription {
	return dispatch.Subscription{
		ID:       row.ID,
		OwnerID:  row.UserID,
		Endpoint: row.Endpoint,
		Keys: dispatch.Keys{
			P256dh: row.P256dh,
			Auth:   row.Auth,
		},
		CreatedAt: row.CreatedAt,
	}
}

// toSubscriptions はDB行のスライスをドメインのサブスクリプションのスライスに変換する。
func toSubscriptions(rows []pushdb.PushSubscription) []dispatch.Subscription {
	subs := make([]dispatch.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, toSubscription(row))
	}
	return subs
}

// GetByEndpoint はエンドポイントでサブスクリプションを取得する。
func (s *Store) GetByEndpoint(ctx context.Context, endpoint string) (dispatch.Subscription, error) {
	row, err := s.queries.GetSubscriptionByEndpoint(ctx, endpoint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dispatch.Subscription{}, dispatch.ErrNotFound
		}
		return dispatch.Subscription{}, err
	}
	return toSubscription(row), nil
}

// ListByOwner は指定ユーザーの全サブスクリプションを作成日時順に返す。
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]dispatch.Subscription, error) {
	rows, err := s.queries.ListSubscriptionsByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toSubscriptions(rows), nil
}

// ListByOwners は指定ユーザー群の全サブスクリプションを返す。
func (s *Store) ListByOwners(ctx context.Context, ownerIDs []string) ([]dispatch.Subscription, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	var subs []dispatch.Subscription
	for batch := range slices.Chunk(ownerIDs, s.ownerBatchSize) {
		rows, err := s.queries.ListSubscriptionsByUserIDs(ctx, batch)
		if err != nil {
			return nil, err
		}
		subs = append(subs, toSubscriptions(rows)...)
	}
	return subs, nil
}

// DeleteByID はIDでサブスクリプションを削除する。
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	n, err := s.queries.DeleteSubscriptionByID(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return dispatch.ErrNotFound
	}
	return nil
}

// DeleteByEndpoint はエンドポイントでサブスクリプションを削除する。
func (s *Store) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	n, err := s.queries.DeleteSubscriptionByEndpoint(ctx, endpoint)
	if err != nil {
		return err
	}
	if n == 0 {
		return dispatch.ErrNotFound
	}
	return nil
}

// createAttempts は挿入と取得の間に削除が割り込んだ場合の試行回数。
const createAttempts = 2

// CreateIfAbsent はエンドポイントが未登録の場合のみサブスクリプションを作成する。
// 同時登録はendpointの一意制約で1件に収束し、後続は既存のレコードを受け取る。
func (s *Store) CreateIfAbsent(ctx context.Context, sub dispatch.Subscription) (dispatch.Subscription, bool, error) {
	for range createAttempts {
		n, err := s.queries.InsertSubscriptionIfAbsent(ctx, pushdb.InsertSubscriptionIfAbsentParams{
			ID:        sub.ID,
			UserID:    sub.OwnerID,
			Endpoint:  sub.Endpoint,
			P256dh:    sub.Keys.P256dh,
			Auth:      sub.Keys.Auth,
			CreatedAt: sub.CreatedAt,
		})
		if err != nil {
			return dispatch.Subscription{}, false, err
		}
		if n == 1 {
			return sub, true, nil
		}

		existing, err := s.GetByEndpoint(ctx, sub.Endpoint)
		if errors.Is(err, dispatch.ErrNotFound) {
			continue
		}
		if err != nil {
			return dispatch.Subscription{}, false, err
		}
		return existing, false, nil
	}
	return dispatch.Subscription{}, false, fmt.Errorf("エンドポイントの登録が競合しました: %s", sub.Endpoint)
}

// MembersOf は指定ロールを持つユーザーIDの一覧を返す。
func (s *Store) MembersOf(ctx context.Context, roleID string) ([]string, error) {
	return s.queries.ListUserIDsByRole(ctx, roleID)
}

// AddRoleMember はユーザーにロールを付与する。付与済みの場合は何もしない。
func (s *Store) AddRoleMember(ctx context.Context, roleID, userID string) error {
	return s.queries.AddUserRole(ctx, pushdb.AddUserRoleParams{RoleID: roleID, UserID: userID})
}

// RemoveRoleMember はユーザーからロールを外す。
func (s *Store) RemoveRoleMember(ctx context.Context, roleID, userID string) error {
	n, err := s.queries.RemoveUserRole(ctx, pushdb.RemoveUserRoleParams{RoleID: roleID, UserID: userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoleMemberNotFound
	}
	return nil
}
