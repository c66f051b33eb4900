// Package metrics holds the Prometheus collectors reported by the
// share-allocation core. Collectors are registered against a caller-supplied
// registry so that independent model runs never share counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prefix is prepended to every metric name.
const Prefix = "sector_clearing_"

// Kinds of consistency warnings.
const (
	WarningShareSum           = "share_sum"
	WarningCalibration        = "calibration"
	WarningSupplyDemand       = "supply_demand"
	WarningNegativeDemand     = "negative_demand"
	WarningShareWeights       = "share_weights"
	WarningIllegalSubsector   = "illegal_subsector"
	WarningInvalidOutput      = "invalid_output"
	InfeasibleNoSlack         = "no_slack"
	InfeasibleNotConverged    = "not_converged"
	defaultIterationBucketMax = 16
)

// Metrics records solver activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	capLimitIterations  prometheus.Histogram
	consistencyWarnings *prometheus.CounterVec
	infeasibilities     *prometheus.CounterVec
	periodDuration      prometheus.Histogram
	fixedOutputScaled   prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// the collectors unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		capLimitIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    Prefix + "capacity_limit_iterations",
			Help:    "Redistribution rounds needed to resolve capacity limits in one share calculation",
			Buckets: prometheus.LinearBuckets(0, 1, defaultIterationBucketMax),
		}),
		consistencyWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: Prefix + "consistency_warnings_total",
			Help: "Number of consistency warnings raised while clearing sectors",
		}, []string{"kind"}),
		infeasibilities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: Prefix + "capacity_infeasibilities_total",
			Help: "Number of capacity-limit resolutions that could not be satisfied",
		}, []string{"kind"}),
		periodDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    Prefix + "period_duration_seconds",
			Help:    "Wall time spent clearing all regions for one model period",
			Buckets: prometheus.DefBuckets,
		}),
		fixedOutputScaled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: Prefix + "fixed_output_scaled_total",
			Help: "Number of times fixed output exceeded demand and was scaled down",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.capLimitIterations,
			m.consistencyWarnings,
			m.infeasibilities,
			m.periodDuration,
			m.fixedOutputScaled,
		)
	}
	return m
}

func (m *Metrics) RecordCapacityLimitIterations(n int) {
	if m == nil {
		return
	}
	m.capLimitIterations.Observe(float64(n))
}

func (m *Metrics) RecordConsistencyWarning(kind string) {
	if m == nil {
		return
	}
	m.consistencyWarnings.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordInfeasibility(kind string) {
	if m == nil {
		return
	}
	m.infeasibilities.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordFixedOutputScaled() {
	if m == nil {
		return
	}
	m.fixedOutputScaled.Inc()
}

func (m *Metrics) ObservePeriod(d time.Duration) {
	if m == nil {
		return
	}
	m.periodDuration.Observe(d.Seconds())
}
