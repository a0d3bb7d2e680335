// Package metrics exposes ledger activity as Prometheus collectors on a
// private registry. Nothing listens on the network; snapshots are written
// in the text exposition format for a node exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "cardledger"

// Metrics implements repo.Recorder
type Metrics struct {
	Registry *prometheus.Registry

	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	salesTotal   prometheus.Counter
	salesDeleted prometheus.Counter
	unitsSold    prometheus.Counter
	unitsRestore prometheus.Counter
	revenue      prometheus.Counter
	rejections   prometheus.Counter

	Cards       prometheus.Gauge
	Suppliers   prometheus.Gauge
	Sales       prometheus.Gauge
	UnitsOnHand prometheus.Gauge
}

// New creates the ledger collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent in ledger operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		salesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_recorded_total",
			Help:      "Sales committed.",
		}),
		salesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_deleted_total",
			Help:      "Sales removed with their stock returned.",
		}),
		unitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_sold_total",
			Help:      "Card units taken out of stock by sales.",
		}),
		unitsRestore: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_returned_total",
			Help:      "Card units put back in stock by deleted sales.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_revenue_total",
			Help:      "Sum of quantity times sale price over recorded sales.",
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Sales refused for insufficient stock.",
		}),
		Cards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cards",
			Help:      "Cards in the catalog.",
		}),
		Suppliers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suppliers",
			Help:      "Known suppliers.",
		}),
		Sales: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sales",
			Help:      "Sales on record.",
		}),
		UnitsOnHand: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_on_hand",
			Help:      "Card units currently in stock.",
		}),
	}

	m.Registry.MustRegister(
		m.operations, m.duration,
		m.salesTotal, m.salesDeleted,
		m.unitsSold, m.unitsRestore,
		m.revenue, m.rejections,
		m.Cards, m.Suppliers, m.Sales, m.UnitsOnHand,
	)
	return m
}

// ObserveOperation counts an operation and records how long it took.
// An empty errKind means success.
func (m *Metrics) ObserveOperation(op, errKind string, elapsed time.Duration) {
	outcome := errKind
	if outcome == "" {
		outcome = "ok"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SaleRecorded counts a committed sale, its units and its revenue.
func (m *Metrics) SaleRecorded(quantity int, total decimal.Decimal) {
	m.salesTotal.Inc()
	m.unitsSold.Add(float64(quantity))
	f, _ := total.Float64()
	m.revenue.Add(f)
}

// SaleDeleted counts a reversed sale and the units returned to stock.
func (m *Metrics) SaleDeleted(quantity int) {
	m.salesDeleted.Inc()
	m.unitsRestore.Add(float64(quantity))
}

// StockRejected counts a sale refused for insufficient stock.
func (m *Metrics) StockRejected() {
	m.rejections.Inc()
}

// SetStats updates the ledger gauges
func (m *Metrics) SetStats(cards, suppliers, sales, units int64) {
	m.Cards.Set(float64(cards))
	m.Suppliers.Set(float64(suppliers))
	m.Sales.Set(float64(sales))
	m.UnitsOnHand.Set(float64(units))
}

// WriteTextfile writes the current state of every collector to path
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
