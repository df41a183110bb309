package dispatch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// TestReconciler_Reconcile は失効したサブスクリプションの削除を検証する。
func TestReconciler_Reconcile(t *testing.T) {
	t.Parallel()

	// s1, s3 が恒久的失敗、s2 が一時的失敗、s4, s5 が成功
	newOutcomes := func() []Outcome {
		return []Outcome{
			{Subscription: testSub("s1", "u1"), Err: errors.New("410 Gone")},
			{Subscription: testSub("s2", "u1"), Err: errors.New("timeout")},
			{Subscription: testSub("s3", "u2"), Err: &StatusError{StatusCode: 404}},
			{Subscription: testSub("s4", "u2"), Succeeded: true},
			{Subscription: testSub("s5", "u3"), Succeeded: true},
		}
	}
	newStore := func() *memStore {
		return newMemStore(
			testSub("s1", "u1"), testSub("s2", "u1"), testSub("s3", "u2"),
			testSub("s4", "u2"), testSub("s5", "u3"),
		)
	}

	t.Run("恒久的失敗のサブスクリプションのみが削除されること", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		r := NewReconciler(store, NewClassifier(), zap.NewNop())

		deleted := r.Reconcile(t.Context(), newOutcomes())
		if deleted != 2 {
			t.Errorf("削除件数 = %d, want 2", deleted)
		}
		if store.has(testSub("s1", "").Endpoint) || store.has(testSub("s3", "").Endpoint) {
			t.Error("恒久的失敗のサブスクリプションが残っている")
		}
		if store.count() != 3 {
			t.Errorf("残りの件数 = %d, want 3", store.count())
		}
	})

	t.Run("1件の削除に失敗しても残りの削除を継続すること", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		store.deleteErrs["s1"] = errTest
		r := NewReconciler(store, NewClassifier(), zap.NewNop())

		deleted := r.Reconcile(t.Context(), newOutcomes())
		if deleted != 1 {
			t.Errorf("削除件数 = %d, want 1", deleted)
		}
		if store.has(testSub("s3", "").Endpoint) {
			t.Error("s3が削除されていない")
		}
		if !store.has(testSub("s1", "").Endpoint) {
			t.Error("削除に失敗したs1が存在しない")
		}
	})

	t.Run("同じサブスクリプションは1回だけ削除されること", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		r := NewReconciler(store, NewClassifier(), zap.NewNop())

		outcomes := []Outcome{
			{Subscription: testSub("s1", "u1"), Err: errors.New("410 Gone")},
			{Subscription: testSub("s1", "u1"), Err: errors.New("404 not found")},
		}
		if deleted := r.Reconcile(t.Context(), outcomes); deleted != 1 {
			t.Errorf("削除件数 = %d, want 1", deleted)
		}
		if got := store.deleteCalls.Load(); got != 1 {
			t.Errorf("削除呼び出し回数 = %d, want 1", got)
		}
	})

	t.Run("既に存在しないサブスクリプションは削除件数に含めないこと", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		r := NewReconciler(store, NewClassifier(), zap.NewNop())

		outcomes := []Outcome{{Subscription: testSub("gone", "u1"), Err: errors.New("410 Gone")}}
		if deleted := r.Reconcile(t.Context(), outcomes); deleted != 0 {
			t.Errorf("削除件数 = %d, want 0", deleted)
		}
	})
}

// TestReconciler_RemovalHook は削除通知の関数が呼ばれる条件を検証する。
func TestReconciler_RemovalHook(t *testing.T) {
	t.Parallel()

	t.Run("実際に削除したサブスクリプションのみが通知されること", func(t *testing.T) {
		t.Parallel()

		// s3 はストアに存在しない、s4 は削除に失敗する
		store := newMemStore(testSub("s1", "u1"), testSub("s2", "u1"), testSub("s4", "u2"))
		store.deleteErrs["s4"] = errTest

		var removed []string
		r := NewReconciler(store, NewClassifier(), zap.NewNop(),
			WithRemovalHook(func(_ context.Context, sub Subscription) {
				removed = append(removed, sub.ID)
			}))

		deleted := r.Reconcile(t.Context(), []Outcome{
			{Subscription: testSub("s1", "u1"), Err: &StatusError{StatusCode: 410}},
			{Subscription: testSub("s1", "u1"), Err: &StatusError{StatusCode: 410}},
			{Subscription: testSub("s2", "u1"), Err: &StatusError{StatusCode: 503}},
			{Subscription: testSub("s3", "u2"), Err: &StatusError{StatusCode: 404}},
			{Subscription: testSub("s4", "u2"), Err: &StatusError{StatusCode: 404}},
		})
		if deleted != 1 {
			t.Errorf("削除件数 = %d, want 1", deleted)
		}
		if len(removed) != 1 || removed[0] != "s1" {
			t.Errorf("通知されたID = %v, want [s1]", removed)
		}
	})
}
