// Package metrics exposes Prometheus collectors for the HTTP API, the pattern
// engine, AI answers and the realtime hub.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the service.
type Metrics struct {
	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Pattern engine
	OperationDuration   *prometheus.HistogramVec
	RecordsAnalyzed     *prometheus.HistogramVec
	SimilarMatchesFound prometheus.Histogram

	// AI answers
	AnswersTotal     *prometheus.CounterVec // result: generated, cached, failed, limited
	AnswerCacheHits  prometheus.Counter
	LearningCompiled prometheus.Counter

	// Realtime
	RealtimeClients *prometheus.GaugeVec
	EventsBroadcast prometheus.Counter
}

// New creates and registers the collectors once per process.
//
// Metrics:
//   - fxf_http_requests_total{route,method,status}
//   - fxf_http_request_duration_seconds{route}
//   - fxf_pattern_operation_duration_seconds{operation}
//   - fxf_pattern_records_analyzed{operation}
//   - fxf_similar_matches_found
//   - fxf_ai_answers_total{result}
//   - fxf_ai_answer_cache_hits_total
//   - fxf_learning_compilations_total
//   - fxf_realtime_clients{transport}
//   - fxf_realtime_events_total
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fxf_http_requests_total",
					Help: "Total HTTP requests handled",
				},
				[]string{"route", "method", "status"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fxf_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route"},
			),
			OperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fxf_pattern_operation_duration_seconds",
					Help:    "Duration of pattern operations including the record fetch",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
			RecordsAnalyzed: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fxf_pattern_records_analyzed",
					Help:    "Historical records fed into one pattern operation",
					Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
				},
				[]string{"operation"}, // analysis, similar, context, statistics
			),
			SimilarMatchesFound: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "fxf_similar_matches_found",
					Help:    "Matches returned by similarity search",
					Buckets: []float64{0, 1, 2, 3, 5, 10},
				},
			),
			AnswersTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fxf_ai_answers_total",
					Help: "AI answer attempts by result",
				},
				[]string{"result"},
			),
			AnswerCacheHits: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fxf_ai_answer_cache_hits_total",
					Help: "AI answers served from cache",
				},
			),
			LearningCompiled: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fxf_learning_compilations_total",
					Help: "Learning data compilations written to disk",
				},
			),
			RealtimeClients: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "fxf_realtime_clients",
					Help: "Connected realtime clients",
				},
				[]string{"transport"}, // sse, ws
			),
			EventsBroadcast: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fxf_realtime_events_total",
					Help: "Events broadcast to realtime clients",
				},
			),
		}
	})
	return globalMetrics
}
