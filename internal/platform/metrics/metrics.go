package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DistributionsCreated prometheus.Counter
	DistributionsVoided  prometheus.Counter
	LedgerEntries        *prometheus.CounterVec
	StockAdjustments     prometheus.Counter
	LowStockItems        prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DistributionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agapay_distributions_created_total",
			Help: "Total number of distributions recorded",
		}),
		DistributionsVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agapay_distributions_voided_total",
			Help: "Total number of distributions voided",
		}),
		LedgerEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agapay_ledger_entries_total",
			Help: "Total number of inventory ledger entries appended, by kind",
		}, []string{"kind"}),
		StockAdjustments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agapay_stock_adjustments_total",
			Help: "Total number of atomic inventory quantity adjustments",
		}),
		LowStockItems: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "agapay_low_stock_items",
			Help: "Number of inventory items at or below their low-stock threshold",
		}),
	}
}

// IncrementDistributionsCreated increments the created counter by 1.
func (m *Metrics) IncrementDistributionsCreated() {
	if m == nil {
		return
	}
	m.DistributionsCreated.Inc()
}

// IncrementDistributionsVoided increments the voided counter by 1.
func (m *Metrics) IncrementDistributionsVoided() {
	if m == nil {
		return
	}
	m.DistributionsVoided.Inc()
}

// IncrementLedgerEntries counts one appended ledger entry of the given kind.
func (m *Metrics) IncrementLedgerEntries(kind string) {
	if m == nil {
		return
	}
	m.LedgerEntries.WithLabelValues(kind).Inc()
}

// IncrementStockAdjustments counts one atomic quantity adjustment.
func (m *Metrics) IncrementStockAdjustments() {
	if m == nil {
		return
	}
	m.StockAdjustments.Inc()
}

// SetLowStockItems records the current low-stock item count.
func (m *Metrics) SetLowStockItems(n int) {
	if m == nil {
		return
	}
	m.LowStockItems.Set(float64(n))
}
