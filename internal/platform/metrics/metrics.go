package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine. A nil *Metrics is
// valid everywhere; the observe helpers become no-ops.
type Metrics struct {
	EvaluationsTotal *prometheus.CounterVec
	CheckedPaths     prometheus.Histogram
	TreeBuildsTotal  *prometheus.CounterVec
	TimelineIssues   prometheus.Counter
	HTTPDuration     *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers metrics on the given registerer; tests use a private one.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stemma_succession_evaluations_total",
			Help: "Succession evaluations by rule type and verdict status.",
		}, []string{"rule_type", "status"}),
		CheckedPaths: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stemma_succession_checked_paths",
			Help:    "Number of candidate paths evaluated per succession call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		TreeBuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stemma_genealogy_tree_builds_total",
			Help: "Genealogy tree builds by direction.",
		}, []string{"direction"}),
		TimelineIssues: factory.NewCounter(prometheus.CounterOpts{
			Name: "stemma_genealogy_timeline_issues_total",
			Help: "Total issues found by timeline consistency checks.",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stemma_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveEvaluation(ruleType, status string, checkedPaths int) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(ruleType, status).Inc()
	m.CheckedPaths.Observe(float64(checkedPaths))
}

func (m *Metrics) ObserveTreeBuild(direction string) {
	if m == nil {
		return
	}
	m.TreeBuildsTotal.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObserveTimelineIssues(count int) {
	if m == nil {
		return
	}
	m.TimelineIssues.Add(float64(count))
}

func (m *Metrics) ObserveHTTPDuration(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, code).Observe(d.Seconds())
}
