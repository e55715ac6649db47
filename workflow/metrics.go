package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for workflow runs. A nil *Metrics
// records nothing.
type Metrics struct {
	runs             *prometheus.CounterVec
	nodeExecutions   *prometheus.CounterVec
	nodeDuration     *prometheus.HistogramVec
	decisions        *prometheus.CounterVec
	malformedReviews prometheus.Counter
	retriesUsed      prometheus.Histogram
}

// NewMetrics creates the workflow collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resumeflow_runs_total",
				Help: "Total number of workflow runs by outcome",
			},
			[]string{"outcome"},
		),
		nodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resumeflow_node_executions_total",
				Help: "Total number of node executions",
			},
			[]string{"node", "status"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resumeflow_node_duration_seconds",
				Help:    "Duration of node executions",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"node"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resumeflow_review_decisions_total",
				Help: "Router decisions after review",
			},
			[]string{"decision", "reason"},
		),
		malformedReviews: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "resumeflow_review_malformed_total",
				Help: "Reviews whose output carried no recognised tag",
			},
		),
		retriesUsed: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resumeflow_retries_used",
				Help:    "Retry count at the end of completed runs",
				Buckets: prometheus.LinearBuckets(0, 1, MaxRetryLimit+1),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.runs,
			m.nodeExecutions,
			m.nodeDuration,
			m.decisions,
			m.malformedReviews,
			m.retriesUsed,
		)
	}
	return m
}

func (m *Metrics) observeNode(node NodeID, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodeExecutions.WithLabelValues(node.String(), status).Inc()
	m.nodeDuration.WithLabelValues(node.String()).Observe(d.Seconds())
}

func (m *Metrics) observeRoute(r Route) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(r.Decision.String(), string(r.Reason)).Inc()
	if r.Reason == ReasonMalformed {
		m.malformedReviews.Inc()
	}
}

func (m *Metrics) observeRun(outcome string, state State) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	if outcome != outcomeFailed {
		m.retriesUsed.Observe(float64(state.RetryCount))
	}
}
