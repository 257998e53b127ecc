// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordSwapCreated()
	RecordSwapTransition(status string)
	RecordSwapDeleted()
	RecordFeedbackSubmitted(rating int)
	RecordHTTPStatus(statusCode int)
	RecordRatingRecomputeLatency(duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	swapCreated     prometheus.Counter
	swapTransition  *prometheus.CounterVec
	swapDeleted     prometheus.Counter
	feedback        *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	recomputeDelay  prometheus.Histogram
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		swapCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillsync_swap_created_total",
			Help: "作成されたスワップリクエストの合計数",
		}),
		swapTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillsync_swap_transition_total",
			Help: "遷移先ステータス別のスワップ遷移数",
		}, []string{"status"}),
		swapDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillsync_swap_deleted_total",
			Help: "削除されたスワップリクエストの合計数",
		}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillsync_feedback_submitted_total",
			Help: "評価値別のフィードバック投稿数",
		}, []string{"rating"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillsync_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		recomputeDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillsync_rating_recompute_seconds",
			Help:    "評価集計の再計算レイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillsync_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.swapCreated,
		c.swapTransition,
		c.swapDeleted,
		c.feedback,
		c.httpStatus,
		c.recomputeDelay,
		c.sessionsCleaned,
	)

	return c
}

// RecordSwapCreated はスワップリクエスト作成を記録する。
func (c *Collector) RecordSwapCreated() {
	c.swapCreated.Inc()
}

// RecordSwapTransition は遷移先ステータス別にスワップ遷移を記録する。
func (c *Collector) RecordSwapTransition(status string) {
	c.swapTransition.WithLabelValues(status).Inc()
}

// RecordSwapDeleted はスワップリクエスト削除を記録する。
func (c *Collector) RecordSwapDeleted() {
	c.swapDeleted.Inc()
}

// RecordFeedbackSubmitted は評価値別にフィードバック投稿を記録する。
func (c *Collector) RecordFeedbackSubmitted(rating int) {
	c.feedback.WithLabelValues(strconv.Itoa(rating)).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRatingRecomputeLatency は評価集計の再計算レイテンシを記録する。
func (c *Collector) RecordRatingRecomputeLatency(duration time.Duration) {
	c.recomputeDelay.Observe(duration.Seconds())
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
