package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsAppended  *prometheus.CounterVec
	TransactionsDuplicate *prometheus.CounterVec
	TransactionsCompleted prometheus.Counter
	TransactionsFailed    prometheus.Counter
	TransactionsReversed  prometheus.Counter
	TransactionAmount     *prometheus.HistogramVec
	LedgerDuration        *prometheus.HistogramVec
	LedgerErrors          *prometheus.CounterVec

	// Wallet metrics
	WalletsCreated  prometheus.Counter
	IntegrityChecks *prometheus.CounterVec
	WalletRebuilds  prometheus.Counter
	SourceRefCache  *prometheus.CounterVec

	// Payment metrics
	PaymentsRecorded   prometheus.Counter
	PaymentTransitions *prometheus.CounterVec

	// Producer metrics
	LeadConversions *prometheus.CounterVec

	// Outbox metrics
	EventsPublished    *prometheus.CounterVec
	EventPublishErrors *prometheus.CounterVec
	EventsPurged       prometheus.Counter
	OutboxBatchSize    prometheus.Gauge

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger metrics
		TransactionsAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_transactions_appended_total",
				Help: "Total number of transactions appended by category",
			},
			[]string{"category"},
		),
		TransactionsDuplicate: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_transactions_duplicate_total",
				Help: "Total number of appends resolved to an existing transaction",
			},
			[]string{"source"},
		),
		TransactionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_transactions_completed_total",
			Help: "Total number of transactions completed",
		}),
		TransactionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_transactions_failed_total",
			Help: "Total number of transactions failed",
		}),
		TransactionsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_transactions_reversed_total",
			Help: "Total number of transactions reversed",
		}),
		TransactionAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "partnerledger_transaction_amount_minor_units",
				Help:    "Appended transaction amounts in minor units",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"category"},
		),
		LedgerDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "partnerledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_operation_errors_total",
				Help: "Total number of ledger operation errors by type",
			},
			[]string{"operation", "error_type"},
		),

		// Wallet metrics
		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		IntegrityChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_integrity_checks_total",
				Help: "Total wallet integrity checks by result",
			},
			[]string{"result"},
		),
		WalletRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_wallet_rebuilds_total",
			Help: "Total number of wallet balance rebuilds",
		}),
		SourceRefCache: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_source_ref_cache_total",
				Help: "Source reference cache lookups by result",
			},
			[]string{"result"},
		),

		// Payment metrics
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_payments_recorded_total",
			Help: "Total number of client payments recorded",
		}),
		PaymentTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_payment_transitions_total",
				Help: "Total payment status transitions by target status",
			},
			[]string{"status"},
		),

		// Producer metrics
		LeadConversions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_lead_conversions_total",
				Help: "Lead conversion events handled by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		EventPublishErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_event_publish_errors_total",
				Help: "Total outbox publish failures by type",
			},
			[]string{"event_type"},
		),
		EventsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partnerledger_events_purge_runs_total",
			Help: "Total runs of the published event purge",
		}),
		OutboxBatchSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "partnerledger_outbox_batch_size",
			Help: "Number of unpublished events fetched in the last poll",
		}),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partnerledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}

// ObserveDuration records the duration of a ledger operation. It is safe on a
// nil receiver so callers can run without metrics.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.LedgerDuration.WithLabelValues(operation).Observe(seconds)
}

// CountError records a failed ledger operation.
func (m *Metrics) CountError(operation, errorType string) {
	if m == nil {
		return
	}
	m.LedgerErrors.WithLabelValues(operation, errorType).Inc()
}
