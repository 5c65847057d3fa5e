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
// サービス層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordGeneration(operation string, success bool, duration time.Duration)
	RecordLeadImport(outcome string)
	RecordDealershipImport(created bool)
}

// リードインポートの結果ラベル
const (
	LeadOutcomeImported = "imported"
	LeadOutcomeSkipped  = "skipped"
	LeadOutcomeFailed   = "failed"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	generationCalls   *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	leadImports       *prometheus.CounterVec
	dealershipImports *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimaflow_http_requests_total",
			Help: "HTTPリクエスト数（メソッド、ルート、ステータス別）",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optimaflow_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		generationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimaflow_generation_calls_total",
			Help: "LLM生成呼び出し数（操作、結果別）",
		}, []string{"operation", "outcome"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optimaflow_generation_latency_seconds",
			Help:    "LLM生成呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"operation"}),
		leadImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimaflow_lead_imports_total",
			Help: "リードインポートの処理件数（結果別）",
		}, []string{"outcome"}),
		dealershipImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimaflow_dealership_imports_total",
			Help: "外部カタログからの販売店取り込み数（新規作成か既存か）",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.generationCalls,
		c.generationLatency,
		c.leadImports,
		c.dealershipImports,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGeneration はLLM生成呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordGeneration(operation string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.generationCalls.WithLabelValues(operation, outcome).Inc()
	c.generationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLeadImport はリード1件の処理結果を記録する。
func (c *Collector) RecordLeadImport(outcome string) {
	c.leadImports.WithLabelValues(outcome).Inc()
}

// RecordDealershipImport は販売店取り込みの結果を記録する。
func (c *Collector) RecordDealershipImport(created bool) {
	outcome := "existing"
	if created {
		outcome = "created"
	}
	c.dealershipImports.WithLabelValues(outcome).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
