package dispatch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// memStore はテスト用のインメモリSubscriptionStore。
type memStore struct {
	mu sync.Mutex
	// subs はエンドポイントをキーとするサブスクリプション。
	subs map[string]Subscription
	// order は登録順のエンドポイント。
	order []string
	// deleteErrs はDeleteByIDで返すエラー（ID単位）。
	deleteErrs map[string]error
	// deleteCalls はDeleteByIDの呼び出し回数。
	deleteCalls atomic.Int64
}

func newMemStore(subs ...Subscription) *memStore {
	s := &memStore{
		subs:       make(map[string]Subscription),
		deleteErrs: make(map[string]error),
	}
	for _, sub := range subs {
		s.subs[sub.Endpoint] = sub
		s.order = append(s.order, sub.Endpoint)
	}
	return s
}

func (s *memStore) GetByEndpoint(_ context.Context, endpoint string) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[endpoint]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID string) ([]Subscription, error) {
	return s.ListByOwners(ctx, []string{ownerID})
}

func (s *memStore) ListByOwners(_ context.Context, ownerIDs []string) ([]Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []Subscription{}
	for _, ep := range s.order {
		sub, ok := s.subs[ep]
		if ok && slices.Contains(ownerIDs, sub.OwnerID) {
			result = append(result, sub)
		}
	}
	return result, nil
}

func (s *memStore) CreateIfAbsent(_ context.Context, sub Subscription) (Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.subs[sub.Endpoint]; ok {
		return existing, false, nil
	}
	s.subs[sub.Endpoint] = sub
	s.order = append(s.order, sub.Endpoint)
	return sub, true, nil
}

func (s *memStore) DeleteByID(_ context.Context, id string) error {
	s.deleteCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErrs[id]; err != nil {
		return err
	}
	for ep, sub := range s.subs {
		if sub.ID == id {
			delete(s.subs, ep)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) DeleteByEndpoint(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[endpoint]; !ok {
		return ErrNotFound
	}
	delete(s.subs, endpoint)
	return nil
}

// count は保存されているサブスクリプション数を返す。
func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// has はエンドポイントが保存されているかを返す。
func (s *memStore) has(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[endpoint]
	return ok
}

// fakeRoles はテスト用のRoleDirectory。
type fakeRoles struct {
	members map[string][]string
	err     error
}

func (f *fakeRoles) MembersOf(_ context.Context, roleID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[roleID], nil
}

// fakeSender はテスト用のSender。SendFuncが未設定の場合は常に成功する。
type fakeSender struct {
	SendFunc func(ctx context.Context, sub Subscription, message []byte) error
	calls    atomic.Int64
}

func (f *fakeSender) Send(ctx context.Context, sub Subscription, message []byte) error {
	f.calls.Add(1)
	if f.SendFunc != nil {
		return f.SendFunc(ctx, sub, message)
	}
	return nil
}

// failByEndpoint は指定エンドポイントに対して指定エラーを返すSendFuncを生成する。
func failByEndpoint(errs map[string]error) func(context.Context, Subscription, []byte) error {
	return func(_ context.Context, sub Subscription, _ []byte) error {
		return errs[sub.Endpoint]
	}
}

// testSub はテスト用のサブスクリプションを生成する。
func testSub(id, owner string) Subscription {
	return Subscription{
		ID:       id,
		OwnerID:  owner,
		Endpoint: "https://push.example.com/" + id,
		Keys:     Keys{P256dh: "p256dh-" + id, Auth: "auth-" + id},
	}
}

var errTest = errors.New("テスト用エラー")
