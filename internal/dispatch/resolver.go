package dispatch

import (
	"context"
	"fmt"
)

// Resolver は論理的な配信先を具体的なサブスクリプション一覧に解決する。
type Resolver struct {
	// subscriptions はサブスクリプションの検索先。
	subscriptions SubscriptionFinder
	// roles はロール所属の検索先。
	roles RoleDirectory
}

// NewResolver は新しいResolverを生成する。
func NewResolver(subscriptions SubscriptionFinder, roles RoleDirectory) *Resolver {
	return &Resolver{
		subscriptions: subscriptions,
		roles:         roles,
	}
}

// Resolve は配信先に該当するサブスクリプションを返す。
// 該当がない場合は空のスライスを返し、エラーにはしない。
func (r *Resolver) Resolve(ctx context.Context, target Target) ([]Subscription, error) {
	switch target.Kind {
	case TargetUser:
		subs, err := r.subscriptions.ListByOwner(ctx, target.ID)
		if err != nil {
			return nil, fmt.Errorf("ユーザーのサブスクリプション取得に失敗: %w", err)
		}
		return subs, nil
	case TargetRole:
		return r.resolveRole(ctx, target.ID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target.Kind)
	}
}

// resolveRole はロール所属ユーザー全員のサブスクリプションを重複なく返す。
// 複数デバイスを持つユーザーはデバイス数分のサブスクリプションを持つ。
func (r *Resolver) resolveRole(ctx context.Context, roleID string) ([]Subscription, error) {
	if r.roles == nil {
		return nil, fmt.Errorf("%w: ロール解決が構成されていません", ErrInvalidTarget)
	}

	members, err := r.roles.MembersOf(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("ロール所属ユーザーの取得に失敗: %w", err)
	}

	owners := uniqueStrings(members)
	if len(owners) == 0 {
		return []Subscription{}, nil
	}

	subs, err := r.subscriptions.ListByOwners(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("ロールのサブスクリプション取得に失敗: %w", err)
	}

	seen := make(map[string]struct{}, len(subs))
	result := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		result = append(result, s)
	}
	return result, nil
}

// uniqueStrings は空文字列と重複を除いた値を出現順に返す。
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
