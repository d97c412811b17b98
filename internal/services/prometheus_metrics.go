package services

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names accepted by PrometheusMetrics
const (
	MetricLinkSessionStarted  = "link_session_started"
	MetricLinkOutcome         = "link_outcome"
	MetricLinkExchange        = "link_exchange"
	MetricLinkDuration        = "link_duration"
	MetricProviderRequest     = "provider_request"
	MetricProviderDuration    = "provider_duration"
	MetricCircuitBreaker      = "circuit_breaker_state"
	MetricWebhookReceived     = "webhook_received"
	MetricActiveLinkSessions  = "active_link_sessions"
	MetricAccountRefreshed    = "account_refreshed"
	MetricAccountDisconnected = "account_disconnected"
	MetricAuthenticationEvent = "authentication_event"
	MetricAPIError            = "api_error"
	MetricRetentionPurged     = "retention_purged"
	MetricTransactionsSynced  = "transactions_synced"
)

type PrometheusMetrics struct {
	linkSessionsStarted  *prometheus.CounterVec
	linkOutcomes         *prometheus.CounterVec
	linkExchanges        *prometheus.CounterVec
	linkDuration         prometheus.Histogram
	providerRequests     *prometheus.CounterVec
	providerDuration     *prometheus.HistogramVec
	circuitBreakerState  *prometheus.GaugeVec
	webhooksReceived     *prometheus.CounterVec
	activeLinkSessions   prometheus.Gauge
	accountRefreshes     *prometheus.CounterVec
	accountDisconnects   prometheus.Counter
	authenticationEvents *prometheus.CounterVec
	apiErrors            *prometheus.CounterVec
	retentionPurged      *prometheus.GaugeVec
	transactionsSynced   *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		linkSessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "link_sessions_started_total",
				Help: "Link attempts started, by branch",
			},
			[]string{"branch"},
		),
		linkOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "link_outcomes_total",
				Help: "Resolved link attempts, by outcome",
			},
			[]string{"outcome", "branch"},
		),
		linkExchanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "link_token_exchanges_total",
				Help: "Public token exchanges with the provider",
			},
			[]string{"status"},
		),
		linkDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "link_session_duration_seconds",
				Help:    "Time from start to resolution of a link attempt",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_requests_total",
				Help: "Requests made to the account provider",
			},
			[]string{"operation", "status"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_request_duration_milliseconds",
				Help:    "Account provider request duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(5, 2, 12),
			},
			[]string{"operation"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		webhooksReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_webhooks_total",
				Help: "Provider webhooks received",
			},
			[]string{"type", "code", "status"},
		),
		activeLinkSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "link_sessions_active",
				Help: "Users with a link controller in memory",
			},
		),
		accountRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linked_account_refreshes_total",
				Help: "Linked account refreshes, by source",
			},
			[]string{"source"},
		),
		accountDisconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "linked_account_disconnects_total",
				Help: "Linked accounts removed by their owner",
			},
		),
		authenticationEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Error responses returned by the API, by error code",
			},
			[]string{"code"},
		),
		retentionPurged: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "retention_last_purged_rows",
				Help: "Rows removed by the last retention sweep, by table",
			},
			[]string{"table"},
		),
		transactionsSynced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_synced_total",
				Help: "Transactions applied from provider syncs, by change",
			},
			[]string{"change"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case MetricLinkSessionStarted:
		m.linkSessionsStarted.WithLabelValues(tags["branch"]).Inc()
	case MetricLinkOutcome:
		m.linkOutcomes.WithLabelValues(tags["outcome"], tags["branch"]).Inc()
	case MetricLinkExchange:
		m.linkExchanges.WithLabelValues(tags["status"]).Inc()
	case MetricProviderRequest:
		m.providerRequests.WithLabelValues(tags["operation"], tags["status"]).Inc()
	case MetricWebhookReceived:
		m.webhooksReceived.WithLabelValues(tags["type"], tags["code"], tags["status"]).Inc()
	case MetricAccountRefreshed:
		m.accountRefreshes.WithLabelValues(tags["source"]).Inc()
	case MetricAccountDisconnected:
		m.accountDisconnects.Inc()
	case MetricAuthenticationEvent:
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEvents.WithLabelValues(eventType).Inc()
		}
	case MetricAPIError:
		if code := tags["code"]; code != "" {
			m.apiErrors.WithLabelValues(code).Inc()
		}
	}
}

// AddCounter adds n to a counter. Only counters that move in batches accept it.
func (m *PrometheusMetrics) AddCounter(name string, n float64, tags map[string]string) {
	if name == MetricTransactionsSynced && n > 0 {
		m.transactionsSynced.WithLabelValues(tags["change"]).Add(n)
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case MetricLinkDuration:
		m.linkDuration.Observe(duration.Seconds())
	default:
		// provider_duration.<operation>
		if op, ok := strings.CutPrefix(name, MetricProviderDuration+"."); ok && op != "" {
			m.providerDuration.WithLabelValues(op).Observe(float64(duration.Milliseconds()))
		}
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case MetricCircuitBreaker:
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(value)
	case MetricActiveLinkSessions:
		m.activeLinkSessions.Set(value)
	case MetricRetentionPurged:
		m.retentionPurged.WithLabelValues(tags["table"]).Set(value)
	}
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) IncrementCounter(string, map[string]string)     {}
func (NoopMetrics) AddCounter(string, float64, map[string]string)  {}
func (NoopMetrics) RecordProcessingTime(string, time.Duration)     {}
func (NoopMetrics) RecordGauge(string, float64, map[string]string) {}
