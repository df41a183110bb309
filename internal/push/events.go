package push

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nao1215/pushhub/internal/dispatch"
	"github.com/nao1215/pushhub/pkg/event"
	"github.com/nao1215/pushhub/pkg/httpclient"
)

// Publisher はプッシュ配信のドメインイベントをEvent Storeへ送信する。
// 送信の失敗はログに記録し、呼び出し元の処理結果には影響させない。
type Publisher struct {
	// client はEvent Storeへの通信クライアント。nilの場合は送信しない。
	client *httpclient.Client
	// logger は送信失敗の記録先。
	logger *zap.Logger
}

// NewPublisher は新しいPublisherを生成する。clientがnilの場合は何も送信しない。
func NewPublisher(client *httpclient.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// subscriptionAggregateID はエンドポイントから決定的に導出したAggregateIDを返す。
// 登録と削除のイベントを同じエンドポイントで関連付ける。
func subscriptionAggregateID(endpoint string) string {
	return "subscription-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(endpoint)).String()
}

// SubscriptionRegistered はSubscriptionRegisteredイベントを送信する。
func (p *Publisher) SubscriptionRegistered(ctx context.Context, sub dispatch.Subscription) {
	p.publish(ctx, subscriptionAggregateID(sub.Endpoint), event.AggregateTypeSubscription, event.TypeSubscriptionRegistered,
		event.SubscriptionRegisteredData{
			UserID:   sub.OwnerID,
			Endpoint: sub.Endpoint,
		})
}

// SubscriptionRemoved はSubscriptionRemovedイベントを送信する。
func (p *Publisher) SubscriptionRemoved(ctx context.Context, endpoint, removedBy string, reason event.RemovalReason) {
	p.publish(ctx, subscriptionAggregateID(endpoint), event.AggregateTypeSubscription, event.TypeSubscriptionRemoved,
		event.SubscriptionRemovedData{
			Endpoint:  endpoint,
			RemovedBy: removedBy,
			Reason:    reason,
		})
}

// NotificationDispatched はNotificationDispatchedイベントを送信する。
func (p *Publisher) NotificationDispatched(ctx context.Context, requestedBy string, req dispatch.Request, report dispatch.Report) {
	p.publish(ctx, "dispatch-"+uuid.New().String(), event.AggregateTypeDispatch, event.TypeNotificationDispatched,
		event.NotificationDispatchedData{
			RequestedBy: requestedBy,
			TargetType:  string(req.Target.Kind),
			TargetID:    req.Target.ID,
			Title:       req.Title,
			Status:      string(report.Status),
			Sent:        report.Sent,
			Failed:      report.Failed,
			Deleted:     report.Deleted,
		})
}

// publish はイベントを生成してEvent Storeの追記APIへ送信する。
func (p *Publisher) publish(ctx context.Context, aggregateID string, aggregateType event.AggregateType, eventType event.Type, data any) {
	if p == nil || p.client == nil {
		return
	}

	ev, err := event.New(aggregateID, aggregateType, eventType, 1, data)
	if err != nil {
		p.logger.Error("イベントの生成に失敗", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}

	// レスポンス送信後のキャンセルでイベントが欠落しないようにする
	ctx = context.WithoutCancel(ctx)
	var resp map[string]any
	if err := p.client.PostJSON(ctx, "/api/v1/events", ev.ToAppendRequest(), &resp); err != nil {
		p.logger.Warn("イベントの送信に失敗",
			zap.String("event_type", string(eventType)),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err))
	}
}
