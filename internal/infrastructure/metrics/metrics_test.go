package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Replace global default registry to allow test inspection.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.TransactionsAppended == nil || m.IntegrityChecks == nil || m.LedgerDuration == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionsCompleted.Inc()
	m.IntegrityChecks.WithLabelValues("violation").Inc()
	m.CountError("append", "validation")

	if got := testutil.ToFloat64(m.TransactionsCompleted); got != 1 {
		t.Fatalf("expected completed counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.IntegrityChecks.WithLabelValues("violation")); got != 1 {
		t.Fatalf("expected violation counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.LedgerErrors.WithLabelValues("append", "validation")); got != 1 {
		t.Fatalf("expected error counter 1, got %v", got)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNilMetricsHelpers(t *testing.T) {
	var m *Metrics

	m.ObserveDuration("append", 0.1)
	m.CountError("append", "validation")
}
