package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry              *prometheus.Registry
	requests              *prometheus.CounterVec
	rateLimited           *prometheus.CounterVec
	decisions             *prometheus.CounterVec
	budgetExceeded        prometheus.Counter
	requestDuration       *prometheus.HistogramVec
	riskScoreDistribution prometheus.Histogram
	alertsStored          prometheus.Gauge
	alertPublishFailures  prometheus.Counter
	alertsDropped         prometheus.Counter
	logger                *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	return &MetricsCollector{
		registry: registry,
		requests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_requests_total",
			Help: "Handled requests by endpoint and response status",
		}, []string{"endpoint", "status"}),
		rateLimited: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}, []string{"endpoint"}),
		decisions: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_decisions_total",
			Help: "Scored transactions by decision",
		}, []string{"decision"}),
		budgetExceeded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fraud_latency_budget_exceeded_total",
			Help: "Requests whose handling time exceeded the latency budget",
		}),
		requestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraud_request_duration_seconds",
			Help:    "Time taken to handle a request",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		riskScoreDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_risk_score_distribution",
			Help:    "Distribution of transaction risk scores",
			Buckets: []float64{10, 40, 80, 110},
		}),
		alertsStored: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "fraud_alerts_stored",
			Help: "Alerts currently held in the alert store",
		}),
		alertPublishFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fraud_alert_publish_failures_total",
			Help: "Alerts that could not be delivered to the publisher",
		}),
		alertsDropped: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fraud_alerts_dropped_total",
			Help: "Alerts not queued for publishing because the queue was full",
		}),
		logger: logger,
	}
}

func (m *MetricsCollector) RecordRequest(endpoint string, status int, duration time.Duration, overBudget bool) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if overBudget {
		m.budgetExceeded.Inc()
	}
}

func (m *MetricsCollector) RecordRateLimited(endpoint string) {
	m.rateLimited.WithLabelValues(endpoint).Inc()
}

func (m *MetricsCollector) RecordDecision(decision string, score float64) {
	m.decisions.WithLabelValues(decision).Inc()
	m.riskScoreDistribution.Observe(score)
}

// RecordAlertStored counts one successful append to the alert store.
func (m *MetricsCollector) RecordAlertStored() {
	m.alertsStored.Inc()
}

func (m *MetricsCollector) RecordAlertPublishFailure() {
	m.alertPublishFailures.Inc()
}

func (m *MetricsCollector) RecordAlertDropped() {
	m.alertsDropped.Inc()
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MetricsServer returns an unstarted server exposing /metrics on addr.
func (m *MetricsCollector) MetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
