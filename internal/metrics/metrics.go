// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// appwrite.RequestRecorderを実装し、バックエンド呼び出しの計測に使われる。
type Collector struct {
	backendRequests *prometheus.CounterVec
	backendLatency  prometheus.Histogram
	noteOperations  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteman_backend_requests_total",
			Help: "バックエンド呼び出しの合計数（操作・ステータスコード別）",
		}, []string{"operation", "status_code"}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "noteman_backend_latency_seconds",
			Help:    "バックエンド呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		noteOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteman_note_operations_total",
			Help: "ノート操作の合計数（操作別）",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.backendRequests,
		c.backendLatency,
		c.noteOperations,
	)

	return c
}

// RecordBackendRequest はバックエンド呼び出しを記録する。
// トランスポートエラーはstatusCode 0として記録される。
func (c *Collector) RecordBackendRequest(operation string, statusCode int, duration time.Duration) {
	c.backendRequests.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	c.backendLatency.Observe(duration.Seconds())
}

// RecordNoteOperation はノート操作（list/create/delete）を記録する。
func (c *Collector) RecordNoteOperation(operation string) {
	c.noteOperations.WithLabelValues(operation).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
