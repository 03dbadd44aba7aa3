package metrics

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/fairshare/internal/allocation/allocerrors"
	"github.com/armadaproject/fairshare/internal/allocation/solver"
)

var (
	problemLabels                 = []string{problemLabel}
	problemAndStrategyLabels      = []string{problemLabel, strategyLabel}
	problemAndConsumerLabels      = []string{problemLabel, consumerLabel}
	problemAndResourceLabels      = []string{problemLabel, resourceLabel}
	problemConsumerReasonLabels   = []string{problemLabel, consumerLabel, reasonLabel}
	problemConsumerResourceLabels = []string{problemLabel, consumerLabel, resourceLabel}
)

type runMetrics struct {
	mu sync.Mutex

	tasks              *prometheus.GaugeVec
	dominantShare      *prometheus.GaugeVec
	allocatedShare     *prometheus.GaugeVec
	weightedShare      *prometheus.GaugeVec
	consumerUsage      *prometheus.GaugeVec
	excludedConsumers  *prometheus.GaugeVec
	utilisation        *prometheus.GaugeVec
	capacity           *prometheus.GaugeVec
	totalTasks         *prometheus.GaugeVec
	fairnessSpread     *prometheus.GaugeVec
	solveTime          *prometheus.GaugeVec
	solveTimeHistogram prometheus.Histogram
	problemsSolved     prometheus.Counter
	problemsFailed     prometheus.Counter
	perProblemMetrics  []resettableMetric
}

type resettableMetric interface {
	prometheus.Collector
	Reset()
}

func newRunMetrics() *runMetrics {
	tasks := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "tasks",
			Help: "Number of tasks allocated to each consumer",
		},
		problemAndConsumerLabels,
	)

	dominantShare := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "dominant_share",
			Help: "Dominant share of a single task of each consumer",
		},
		problemAndConsumerLabels,
	)

	allocatedShare := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "allocated_share",
			Help: "Dominant share of all tasks allocated to each consumer",
		},
		problemAndConsumerLabels,
	)

	weightedShare := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "weighted_share",
			Help: "Allocated share of each consumer divided by its weight",
		},
		problemAndConsumerLabels,
	)

	consumerUsage := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "consumer_usage",
			Help: "Resources used by the tasks allocated to each consumer",
		},
		problemConsumerResourceLabels,
	)

	excludedConsumers := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "excluded_consumer",
			Help: "Set to 1 for each consumer excluded from the allocation",
		},
		problemConsumerReasonLabels,
	)

	utilisation := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "utilisation",
			Help: "Fraction of each resource allocated",
		},
		problemAndResourceLabels,
	)

	capacity := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "capacity",
			Help: "Total capacity of each resource",
		},
		problemAndResourceLabels,
	)

	totalTasks := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "total_tasks",
			Help: "Number of tasks allocated across all consumers",
		},
		problemAndStrategyLabels,
	)

	fairnessSpread := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "fairness_spread",
			Help: "Difference between the largest and smallest weighted share of participating consumers",
		},
		problemLabels,
	)

	solveTime := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "solve_time_seconds",
			Help: "Time taken to solve each problem",
		},
		problemAndStrategyLabels,
	)

	solveTimeHistogram := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "solve_duration_seconds",
			Help:    "Distribution of the time taken to solve a problem",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	problemsSolved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "problems_solved_total",
			Help: "Number of problems solved",
		},
	)

	problemsFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "problems_failed_total",
			Help: "Number of problems rejected as invalid",
		},
	)

	return &runMetrics{
		tasks:              tasks,
		dominantShare:      dominantShare,
		allocatedShare:     allocatedShare,
		weightedShare:      weightedShare,
		consumerUsage:      consumerUsage,
		excludedConsumers:  excludedConsumers,
		utilisation:        utilisation,
		capacity:           capacity,
		totalTasks:         totalTasks,
		fairnessSpread:     fairnessSpread,
		solveTime:          solveTime,
		solveTimeHistogram: solveTimeHistogram,
		problemsSolved:     problemsSolved,
		problemsFailed:     problemsFailed,
		perProblemMetrics: []resettableMetric{
			tasks,
			dominantShare,
			allocatedShare,
			weightedShare,
			consumerUsage,
			excludedConsumers,
			utilisation,
			capacity,
			totalTasks,
			fairnessSpread,
			solveTime,
		},
	}
}

func (m *runMetrics) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, metric := range m.perProblemMetrics {
		metric.Reset()
	}
}

func (m *runMetrics) ReportResult(problem string, result *solver.Result, solveTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategy := result.Strategy.String()
	resourceNames := result.Capacity.Factory().ResourceNames()
	for _, a := range result.Allocations {
		m.tasks.WithLabelValues(problem, a.Name).Set(float64(a.Tasks))
		m.dominantShare.WithLabelValues(problem, a.Name).Set(a.DominantShare.Share)
		m.allocatedShare.WithLabelValues(problem, a.Name).Set(a.AllocatedShare)
		m.weightedShare.WithLabelValues(problem, a.Name).Set(a.WeightedShare)
		for i, name := range resourceNames {
			q := a.Usage.QuantityAt(i)
			m.consumerUsage.WithLabelValues(problem, a.Name, name).Set(q.AsApproximateFloat64())
		}
	}
	for _, e := range result.Excluded {
		m.excludedConsumers.WithLabelValues(problem, e.Consumer, exclusionReason(e.Reason)).Set(1)
	}
	for i, name := range resourceNames {
		m.utilisation.WithLabelValues(problem, name).Set(result.Utilisation.At(i))
		q := result.Capacity.QuantityAt(i)
		m.capacity.WithLabelValues(problem, name).Set(q.AsApproximateFloat64())
	}
	m.totalTasks.WithLabelValues(problem, strategy).Set(float64(result.TotalTasks()))
	m.fairnessSpread.WithLabelValues(problem).Set(result.FairnessSpread())
	m.solveTime.WithLabelValues(problem, strategy).Set(solveTime.Seconds())
	m.solveTimeHistogram.Observe(solveTime.Seconds())
	m.problemsSolved.Inc()
}

func (m *runMetrics) ReportFailure() {
	m.problemsFailed.Inc()
}

func (m *runMetrics) describe(ch chan<- *prometheus.Desc) {
	for _, metric := range m.perProblemMetrics {
		metric.Describe(ch)
	}
	m.solveTimeHistogram.Describe(ch)
	m.problemsSolved.Describe(ch)
	m.problemsFailed.Describe(ch)
}

func (m *runMetrics) collect(ch chan<- prometheus.Metric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, metric := range m.perProblemMetrics {
		metric.Collect(ch)
	}
	m.solveTimeHistogram.Collect(ch)
	m.problemsSolved.Collect(ch)
	m.problemsFailed.Collect(ch)
}

func exclusionReason(err error) string {
	var degenerateErr *allocerrors.ErrDegenerateDemand
	var infeasibleErr *allocerrors.ErrInfeasibleCapacity
	switch {
	case errors.As(err, &degenerateErr):
		return degenerate
	case errors.As(err, &infeasibleErr):
		return infeasible
	default:
		return other
	}
}
