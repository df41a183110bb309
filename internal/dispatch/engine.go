package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pushhub/pkg/metrics"
)

// tracer は配信処理のスパンを生成する。
var tracer = otel.Tracer("github.com/nao1215/pushhub/internal/dispatch")

// Sender は1件のエンドポイントへの送信を行うプッシュトランスポート。
// 成功時はnil、失敗時は分類可能なエラーを返す。
type Sender interface {
	Send(ctx context.Context, sub Subscription, message []byte) error
}

// Defaults はペイロードで省略された項目に適用する既定値。
type Defaults struct {
	// Icon は既定の通知アイコン。
	Icon string
	// Badge は既定のバッジ画像。
	Badge string
	// Vibrate は既定のバイブレーションパターン。
	Vibrate []int
	// Actions は既定のアクションボタン。
	Actions []Action
}

// DefaultDefaults はシステム共通の既定値を返す。
func DefaultDefaults() Defaults {
	return Defaults{
		Icon:    "/icons/icon-192x192.png",
		Badge:   "/icons/badge-72x72.png",
		Vibrate: []int{200, 100, 200},
		Actions: []Action{
			{Action: "open", Title: "開く"},
			{Action: "close", Title: "閉じる"},
		},
	}
}

const (
	// defaultConcurrency は同時送信数の既定値。
	defaultConcurrency = 16
	// defaultSendTimeout は1件あたりの送信タイムアウトの既定値。
	defaultSendTimeout = 10 * time.Second
)

// Engine はペイロードを全サブスクリプションへ並行に送信する。
// 全ての送信が完了するまで待ち、1件の失敗で他の送信を中断しない。
type Engine struct {
	// sender はプッシュトランスポート。
	sender Sender
	// concurrency は同時に実行する送信の上限。
	concurrency int
	// sendTimeout は1件あたりの送信タイムアウト。
	sendTimeout time.Duration
	// defaults は省略項目の既定値。
	defaults Defaults
	// now は現在時刻を返す。
	now func() time.Time
}

// EngineOption はEngineの設定を変更する。
type EngineOption func(*Engine)

// WithConcurrency は同時送信数の上限を設定する。
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithSendTimeout は1件あたりの送信タイムアウトを設定する。
func WithSendTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.sendTimeout = d
		}
	}
}

// WithDefaults はペイロードの既定値を設定する。
func WithDefaults(d Defaults) EngineOption {
	return func(e *Engine) {
		e.defaults = d
	}
}

// WithClock は現在時刻の取得関数を設定する。
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine は新しいEngineを生成する。
func NewEngine(sender Sender, opts ...EngineOption) *Engine {
	e := &Engine{
		sender:      sender,
		concurrency: defaultConcurrency,
		sendTimeout: defaultSendTimeout,
		defaults:    DefaultDefaults(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalize は既定値の補完と data.path / data.timestamp の設定を行ったペイロードを返す。
// 引数のペイロードは変更しない。
func (e *Engine) Normalize(p Payload) Payload {
	out := p
	if out.Icon == "" {
		out.Icon = e.defaults.Icon
	}
	if out.Badge == "" {
		out.Badge = e.defaults.Badge
	}
	if len(out.Vibrate) == 0 {
		out.Vibrate = slices.Clone(e.defaults.Vibrate)
	}
	if len(out.Actions) == 0 {
		out.Actions = slices.Clone(e.defaults.Actions)
	}

	data := make(map[string]any, len(p.Data)+2)
	maps.Copy(data, p.Data)
	if path, ok := data["path"].(string); !ok || path == "" {
		data["path"] = "/"
	}
	data["timestamp"] = e.now().UnixMilli()
	out.Data = data

	return out
}

// Dispatch はペイロードを正規化し、全サブスクリプションへ送信する。
// 戻り値の outcomes[i] は常に subs[i] に対応する。
// 鍵が欠けたサブスクリプションが含まれる場合は、送信を一切行わずErrInvalidPayloadを返す。
func (e *Engine) Dispatch(ctx context.Context, subs []Subscription, payload Payload) ([]Outcome, error) {
	for i, s := range subs {
		if s.Endpoint == "" || s.Keys.P256dh == "" || s.Keys.Auth == "" {
			return nil, fmt.Errorf("%w: subscriptions[%d] (id=%s) のエンドポイントまたは鍵が不足しています", ErrInvalidPayload, i, s.ID)
		}
	}

	message, err := json.Marshal(e.Normalize(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: ペイロードのシリアライズに失敗: %v", ErrInvalidPayload, err)
	}

	ctx, span := tracer.Start(ctx, "dispatch.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.Int("push.recipients", len(subs)))

	start := e.now()
	outcomes := make([]Outcome, len(subs))

	// errgroupのコンテキストは使わない。1件の失敗で他の送信をキャンセルしないため。
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range subs {
		g.Go(func() error {
			outcomes[i] = e.sendOne(ctx, subs[i], message)
			return nil
		})
	}
	_ = g.Wait()

	metrics.DispatchDuration.Observe(e.now().Sub(start).Seconds())
	return outcomes, nil
}

// sendOne は1件のサブスクリプションへ送信し、結果を返す。
// パニックも失敗として結果に変換する。
func (e *Engine) sendOne(ctx context.Context, sub Subscription, message []byte) (outcome Outcome) {
	outcome = Outcome{Subscription: sub}

	ctx, span := tracer.Start(ctx, "dispatch.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("push.subscription_id", sub.ID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			outcome.Succeeded = false
			outcome.Err = fmt.Errorf("送信処理でパニックが発生: %v", r)
		}
		if outcome.Succeeded {
			metrics.DeliveryAttemptsTotal.WithLabelValues("delivered").Inc()
			return
		}
		metrics.DeliveryAttemptsTotal.WithLabelValues("failed").Inc()
		span.SetStatus(codes.Error, outcome.ErrorMessage())
	}()

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()

	if err := e.sender.Send(sendCtx, sub, message); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Succeeded = true
	return outcome
}
