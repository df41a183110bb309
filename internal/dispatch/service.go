package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nao1215/pushhub/pkg/metrics"
)

// Request は配信リクエスト。
type Request struct {
	// Title は通知のタイトル。必須。
	Title string
	// Message は通知の本文。必須。
	Message string
	// Target は配信先。必須。
	Target Target
	// Data は通知に添付する任意のキー値。
	Data map[string]any
	// Icon は通知アイコン。省略時は既定値。
	Icon string
	// Badge はバッジ画像。省略時は既定値。
	Badge string
	// Vibrate はバイブレーションパターン。省略時は既定値。
	Vibrate []int
	// Actions はアクションボタン。省略時は既定値。
	Actions []Action
}

// Service は配信先の解決、送信、失敗の分類、失効購読の削除を一連の処理として実行する。
type Service struct {
	resolver   *Resolver
	engine     *Engine
	classifier Classifier
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewService は新しいServiceを生成する。
func NewService(resolver *Resolver, engine *Engine, classifier Classifier, reconciler *Reconciler, logger *zap.Logger) *Service {
	return &Service{
		resolver:   resolver,
		engine:     engine,
		classifier: classifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Send は配信リクエストを処理して集計結果を返す。
// エラーを返すのは不正なリクエストと配信先解決の失敗のみで、
// 個々の送信失敗はReportに集計される。
func (s *Service) Send(ctx context.Context, req Request) (Report, error) {
	if err := validateRequest(req); err != nil {
		return Report{}, err
	}

	subs, err := s.resolver.Resolve(ctx, req.Target)
	if err != nil {
		return Report{}, err
	}
	if len(subs) == 0 {
		return Report{Status: StatusNoRecipients}, nil
	}

	// 呼び出し元の切断でバッチの途中の送信が中断されないようにする
	batchCtx := context.WithoutCancel(ctx)

	outcomes, err := s.engine.Dispatch(batchCtx, subs, Payload{
		Title:   req.Title,
		Body:    req.Message,
		Icon:    req.Icon,
		Badge:   req.Badge,
		Vibrate: req.Vibrate,
		Actions: req.Actions,
		Data:    req.Data,
	})
	if err != nil {
		return Report{}, err
	}

	for _, o := range outcomes {
		if o.Succeeded {
			continue
		}
		class := s.classifier.Classify(o)
		metrics.FailureClassificationsTotal.WithLabelValues(class.String()).Inc()
		s.logger.Info("通知の送信に失敗",
			zap.String("subscription_id", o.Subscription.ID),
			zap.String("class", class.String()),
			zap.Error(o.Err))
	}

	deleted := s.reconciler.Reconcile(batchCtx, outcomes)
	return BuildReport(outcomes, deleted), nil
}

// BuildReport は送信結果から集計結果を作成する。
// 失敗の詳細は各結果が保持するサブスクリプションから作るため、元の対応関係が保たれる。
func BuildReport(outcomes []Outcome, deleted int) Report {
	report := Report{
		Status:  StatusDispatched,
		Total:   len(outcomes),
		Deleted: deleted,
	}
	for _, o := range outcomes {
		if o.Succeeded {
			report.Sent++
			continue
		}
		report.Failed++
		report.Errors = append(report.Errors, FailureDetail{
			Endpoint:       o.Subscription.Endpoint,
			SubscriptionID: o.Subscription.ID,
			ErrorMessage:   o.ErrorMessage(),
		})
	}
	return report
}

// validateRequest は配信リクエストの必須項目を検証する。
func validateRequest(req Request) error {
	var missing []string
	if strings.TrimSpace(req.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "message")
	}
	if req.Target.Kind == "" {
		missing = append(missing, "target.type")
	}
	if strings.TrimSpace(req.Target.ID) == "" {
		missing = append(missing, "target.id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: 必須項目が不足しています: %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}
