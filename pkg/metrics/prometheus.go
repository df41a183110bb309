// Package metrics はプッシュ配信サービスのPrometheusメトリクスを定義する。
package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryAttemptsTotal はエンドポイントへの送信試行数を結果別に数える。
var DeliveryAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_delivery_attempts_total",
		Help: "Total number of push delivery attempts per endpoint",
	},
	[]string{"result"},
)

// FailureClassificationsTotal は送信失敗の分類結果を数える。
var FailureClassificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_failure_classifications_total",
		Help: "Total number of classified delivery failures",
	},
	[]string{"class"},
)

// SubscriptionsPrunedTotal は恒久的失敗により削除されたサブスクリプション数。
var SubscriptionsPrunedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "push_subscriptions_pruned_total",
		Help: "Total number of subscriptions removed after permanent delivery failure",
	},
)

// DispatchDuration はバッチ全体の送信にかかった時間。
var DispatchDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "push_dispatch_duration_seconds",
		Help:    "Duration of a settle-all dispatch batch in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

// HTTPRequestsTotal はHTTPリクエスト数。
var HTTPRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

// HTTPRequestDuration はHTTPリクエストの処理時間。
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

// RateLimitRejectionsTotal はレート制限で拒否されたリクエスト数。
var RateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Total number of HTTP requests rejected due to rate limiting",
	},
)

// Register は全メトリクスを指定レジストリに登録する。
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		DeliveryAttemptsTotal,
		FailureClassificationsTotal,
		SubscriptionsPrunedTotal,
		DispatchDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimitRejectionsTotal,
	)
}
