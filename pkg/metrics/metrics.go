package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RetailMetrics records checkout and order lifecycle outcomes.
type RetailMetrics struct {
	checkouts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	stockDenied prometheus.Counter
	lowStock    prometheus.Gauge
}

// NewRetailMetrics registers the retail metrics on the provided registerer.
func NewRetailMetrics(reg prometheus.Registerer) *RetailMetrics {
	if reg == nil {
		return &RetailMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts partitioned by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions partitioned by target status.",
	}, []string{"to"})
	stockDenied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrements_denied_total",
		Help: "Stock decrements refused due to insufficient quantity.",
	})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "low_stock_records",
		Help: "Inventory records at or below their low-stock threshold.",
	})
	reg.MustRegister(checkouts, transitions, stockDenied, lowStock)
	return &RetailMetrics{
		checkouts:   checkouts,
		transitions: transitions,
		stockDenied: stockDenied,
		lowStock:    lowStock,
	}
}

// IncCheckout increments the checkout counter for the given outcome.
func (m *RetailMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTransition increments the transitions counter for the target status.
func (m *RetailMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncStockDenied increments the denied-decrement counter.
func (m *RetailMetrics) IncStockDenied() {
	if m == nil || m.stockDenied == nil {
		return
	}
	m.stockDenied.Inc()
}

// SetLowStockRecords records the current number of low-stock records.
func (m *RetailMetrics) SetLowStockRecords(n int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(n))
}

// CronJobMetrics records metadata for scheduled jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
