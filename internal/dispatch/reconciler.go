package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nao1215/pushhub/pkg/metrics"
)

// Reconciler は恒久的失敗に分類されたサブスクリプションをストアから削除する。
type Reconciler struct {
	// store は削除先のストア。
	store SubscriptionDeleter
	// classifier は送信結果の分類器。
	classifier Classifier
	// logger は削除失敗の記録先。
	logger *zap.Logger
	// onRemoved は削除に成功したサブスクリプションごとに呼ばれる。
	onRemoved func(ctx context.Context, sub Subscription)
}

// ReconcilerOption はReconcilerの設定を変更する。
type ReconcilerOption func(*Reconciler)

// WithRemovalHook は削除に成功したサブスクリプションを受け取る関数を設定する。
// 既に存在しなかったものや削除に失敗したものでは呼ばれない。
func WithRemovalHook(fn func(ctx context.Context, sub Subscription)) ReconcilerOption {
	return func(r *Reconciler) {
		r.onRemoved = fn
	}
}

// NewReconciler は新しいReconcilerを生成する。
func NewReconciler(store SubscriptionDeleter, classifier Classifier, logger *zap.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:      store,
		classifier: classifier,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile は恒久的失敗のサブスクリプションを重複なく削除し、実際に削除できた件数を返す。
// 1件の削除失敗はログに記録するだけで、残りの削除は継続する。
func (r *Reconciler) Reconcile(ctx context.Context, outcomes []Outcome) int {
	seen := make(map[string]struct{})
	deleted := 0

	for _, o := range outcomes {
		if o.Succeeded || r.classifier.Classify(o) != Permanent {
			continue
		}

		id := o.Subscription.ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if err := r.store.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				r.logger.Debug("削除対象のサブスクリプションは既に存在しません",
					zap.String("subscription_id", id))
				continue
			}
			r.logger.Warn("失効したサブスクリプションの削除に失敗",
				zap.String("subscription_id", id),
				zap.String("endpoint", o.Subscription.Endpoint),
				zap.Error(err))
			continue
		}

		deleted++
		metrics.SubscriptionsPrunedTotal.Inc()
		r.logger.Info("失効したサブスクリプションを削除しました",
			zap.String("subscription_id", id),
			zap.String("owner_id", o.Subscription.OwnerID),
			zap.String("reason", o.ErrorMessage()))
		if r.onRemoved != nil {
			r.onRemoved(ctx, o.Subscription)
		}
	}

	return deleted
}
