package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle はサブスクリプションの登録と解除を管理する。
type Lifecycle struct {
	// store はサブスクリプションの永続化ストア。
	store SubscriptionStore
	// logger は所有者不一致の再登録などの記録先。
	logger *zap.Logger
	// now は現在時刻を返す。
	now func() time.Time
}

// NewLifecycle は新しいLifecycleを生成する。
func NewLifecycle(store SubscriptionStore, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Register はサブスクリプションを登録する。
// 同じエンドポイントが登録済みの場合は、登録者に関わらず既存のレコードを変更せずに返す。
// 登録によって所有者が付け替えられることはない。createdは新規作成時のみtrueとなる。
func (l *Lifecycle) Register(ctx context.Context, ownerID, endpoint string, keys Keys) (Subscription, bool, error) {
	if ownerID == "" {
		return Subscription{}, false, fmt.Errorf("%w: 登録者のユーザーIDが必要です", ErrInvalidRequest)
	}
	if endpoint == "" || keys.P256dh == "" || keys.Auth == "" {
		return Subscription{}, false, fmt.Errorf("%w: endpoint, keys.p256dh, keys.auth は必須です", ErrInvalidSubscription)
	}

	sub, created, err := l.store.CreateIfAbsent(ctx, Subscription{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Endpoint:  endpoint,
		Keys:      keys,
		CreatedAt: l.now().UTC(),
	})
	if err != nil {
		return Subscription{}, false, fmt.Errorf("サブスクリプションの登録に失敗: %w", err)
	}

	// 共有端末か、クライアント側の古いユーザー情報かは判別できないため記録のみ行う
	if !created && sub.OwnerID != ownerID {
		l.logger.Warn("別ユーザーが所有するエンドポイントの再登録を受け付けました",
			zap.String("subscription_id", sub.ID),
			zap.String("owner_id", sub.OwnerID),
			zap.String("requester_id", ownerID))
	}

	return sub, created, nil
}

// Unregister は所有者本人の要求によりサブスクリプションを削除する。
func (l *Lifecycle) Unregister(ctx context.Context, requesterID, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint は必須です", ErrInvalidSubscription)
	}

	sub, err := l.store.GetByEndpoint(ctx, endpoint)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("サブスクリプションの取得に失敗: %w", err)
	}

	if requesterID == "" || sub.OwnerID != requesterID {
		return ErrForbidden
	}

	if err := l.store.DeleteByID(ctx, sub.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("サブスクリプションの削除に失敗: %w", err)
	}
	return nil
}

// UnregisterUnconditional は所有者チェックを行わずにサブスクリプションを削除する。
// 互換用の内部経路専用であり、利用者向けの解除にはUnregisterを使うこと。
func (l *Lifecycle) UnregisterUnconditional(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint は必須です", ErrInvalidSubscription)
	}

	if err := l.store.DeleteByEndpoint(ctx, endpoint); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("サブスクリプションの削除に失敗: %w", err)
	}

	l.logger.Info("所有者チェックなしでサブスクリプションを削除しました",
		zap.String("endpoint", endpoint))
	return nil
}

// List は指定ユーザーのサブスクリプション一覧を返す。
func (l *Lifecycle) List(ctx context.Context, ownerID string) ([]Subscription, error) {
	subs, err := l.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("サブスクリプション一覧の取得に失敗: %w", err)
	}
	return subs, nil
}

// IsSubscribed は指定エンドポイントが指定ユーザーの購読として登録済みかを返す。
// ブラウザはセッション開始時にこの結果から購読状態を導出する。
func (l *Lifecycle) IsSubscribed(ctx context.Context, ownerID, endpoint string) (bool, error) {
	if endpoint == "" {
		return false, fmt.Errorf("%w: endpoint は必須です", ErrInvalidSubscription)
	}

	sub, err := l.store.GetByEndpoint(ctx, endpoint)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("サブスクリプションの取得に失敗: %w", err)
	}
	return sub.OwnerID == ownerID, nil
}
