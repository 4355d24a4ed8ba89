package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eduline/billing-service/pkg/logger"
)

// Значения метки outcome
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncCheckoutSession(outcome string)
	IncPortalSession(outcome string)
	IncWebhookEvent(eventType, outcome string)
	ObserveWebhookDuration(eventType string, seconds float64)
	IncImportRun(outcome string)
}

type billingMetrics struct {
	log              *logger.Logger
	checkoutSessions *prometheus.CounterVec
	portalSessions   *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	webhookDuration  *prometheus.HistogramVec
	importRuns       *prometheus.CounterVec
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	checkoutSessions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_checkout_sessions_total",
			Help: "The total number of checkout session requests by outcome",
		},
		[]string{"outcome"},
	)

	portalSessions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_portal_sessions_total",
			Help: "The total number of billing portal session requests by outcome",
		},
		[]string{"outcome"},
	)

	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "The total number of processed webhook events by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	webhookDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_webhook_duration_seconds",
			Help:    "Webhook event processing duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	importRuns := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_import_runs_total",
			Help: "The total number of content import runs by outcome",
		},
		[]string{"outcome"},
	)

	return &billingMetrics{
		log:              log,
		checkoutSessions: checkoutSessions,
		portalSessions:   portalSessions,
		webhookEvents:    webhookEvents,
		webhookDuration:  webhookDuration,
		importRuns:       importRuns,
	}
}

// IncCheckoutSession увеличивает счетчик запросов сессий оплаты
func (m *billingMetrics) IncCheckoutSession(outcome string) {
	m.checkoutSessions.WithLabelValues(outcome).Inc()
}

// IncPortalSession увеличивает счетчик запросов портала
func (m *billingMetrics) IncPortalSession(outcome string) {
	m.portalSessions.WithLabelValues(outcome).Inc()
}

// IncWebhookEvent увеличивает счетчик обработанных вебхуков
func (m *billingMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ObserveWebhookDuration записывает длительность обработки вебхука
func (m *billingMetrics) ObserveWebhookDuration(eventType string, seconds float64) {
	m.webhookDuration.WithLabelValues(eventType).Observe(seconds)
}

// IncImportRun увеличивает счетчик запусков импорта контента
func (m *billingMetrics) IncImportRun(outcome string) {
	m.importRuns.WithLabelValues(outcome).Inc()
}
