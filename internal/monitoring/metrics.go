package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mailapi/backend/internal/domain"
)

// Metrics holds the counters updated by the repositories. A nil *Metrics
// discards every observation.
type Metrics struct {
	// Operation outcomes, labelled with domain.ErrorKind of the result
	OperationsTotal *prometheus.CounterVec

	// Entity lifecycle
	DomainsCreated   prometheus.Counter
	DomainsDeleted   prometheus.Counter
	MailboxesCreated prometheus.Counter
	MailboxesDeleted prometheus.Counter
	AliasesCreated   prometheus.Counter
	AliasesDeleted   prometheus.Counter

	// Operations HTTP surface
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the counters on reg. A nil reg falls back to the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailapi_operations_total",
				Help: "Total number of repository operations by outcome",
			},
			[]string{"operation", "outcome"},
		),

		DomainsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailapi_domains_created_total",
				Help: "Total number of domains created",
			},
		),

		DomainsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailapi_domains_deleted_total",
				Help: "Total number of domains deleted",
			},
		),

		MailboxesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailapi_mailboxes_created_total",
				Help: "Total number of mailboxes created",
			},
		),

		MailboxesDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailapi_mailboxes_deleted_total",
				Help: "Total number of mailboxes deleted, including domain cascades",
			},
		),

		AliasesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailapi_aliases_created_total",
				Help: "Total number of aliases created, including self aliases",
			},
		),

		AliasesDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailapi_aliases_deleted_total",
				Help: "Total number of aliases deleted, including cascades",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailapi_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailapi_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Observe counts one call of operation with the outcome derived from err.
func (m *Metrics) Observe(operation string, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, domain.ErrorKind(err)).Inc()
}

// RecordDomainCreated records one new domain.
func (m *Metrics) RecordDomainCreated() {
	if m == nil {
		return
	}
	m.DomainsCreated.Inc()
}

// RecordDomainDeleted records one removed domain row.
func (m *Metrics) RecordDomainDeleted() {
	if m == nil {
		return
	}
	m.DomainsDeleted.Inc()
}

// RecordMailboxCreated records one new mailbox.
func (m *Metrics) RecordMailboxCreated() {
	if m == nil {
		return
	}
	m.MailboxesCreated.Inc()
}

// RecordMailboxesDeleted adds n removed mailbox rows.
func (m *Metrics) RecordMailboxesDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.MailboxesDeleted.Add(float64(n))
}

// RecordAliasCreated records one new alias row.
func (m *Metrics) RecordAliasCreated() {
	if m == nil {
		return
	}
	m.AliasesCreated.Inc()
}

// RecordAliasesDeleted adds n removed alias rows.
func (m *Metrics) RecordAliasesDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.AliasesDeleted.Add(float64(n))
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
