package grouper

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tx-grouper/pkg/model"
)

// MetricsObserver exports grouping events as Prometheus collectors.
type MetricsObserver struct {
	transactions *prometheus.CounterVec
	failures     *prometheus.CounterVec
	groupCount   prometheus.Histogram
	groupSize    prometheus.Histogram
	rebalanced   *prometheus.HistogramVec
	fallbacks    prometheus.Counter
	violations   *prometheus.CounterVec
}

// NewMetricsObserver creates the collectors and registers them with reg.
func NewMetricsObserver(namespace string, reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "transactions_total",
			Help:      "Transactions submitted for grouping.",
		}, []string{"chain"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "detection_failures_total",
			Help:      "Transactions excluded because resource detection failed.",
		}, []string{"chain"}),
		groupCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "naive_groups",
			Help:      "Number of conflict groups per batch before rebalancing.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		groupSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "naive_group_size",
			Help:      "Transactions per conflict group before rebalancing.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		rebalanced: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "rebalanced_group_size",
			Help:      "Transactions per group after rebalancing.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"strategy"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "strategy_fallbacks_total",
			Help:      "Runs that fell back to naive groups for an unsupported strategy.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouper",
			Name:      "consistency_violations_total",
			Help:      "Rebalance results whose transaction count did not match the input.",
		}, []string{"strategy"}),
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsObserver) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.transactions, m.failures, m.groupCount, m.groupSize,
		m.rebalanced, m.fallbacks, m.violations,
	}
}

func (m *MetricsObserver) DetectionFailed(chainID string, _ *model.Transaction, _ error) {
	m.failures.WithLabelValues(chainID).Inc()
}

func (m *MetricsObserver) Grouped(chainID string, txCount int, sizes []int, _ int) {
	m.transactions.WithLabelValues(chainID).Add(float64(txCount))
	m.groupCount.Observe(float64(len(sizes)))
	for _, s := range sizes {
		m.groupSize.Observe(float64(s))
	}
}

func (m *MetricsObserver) Rebalanced(strategy Strategy, _ int, _, after []int) {
	h := m.rebalanced.WithLabelValues(strategy.String())
	for _, s := range after {
		h.Observe(float64(s))
	}
}

func (m *MetricsObserver) UnsupportedStrategy(Strategy) {
	m.fallbacks.Inc()
}

func (m *MetricsObserver) ConsistencyViolation(strategy Strategy, _, _ int) {
	m.violations.WithLabelValues(strategy.String()).Inc()
}
