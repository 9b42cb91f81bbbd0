package duecheck

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics es nil-safe: un *Metrics nil no registra nada.
type Metrics struct {
	runs     *prometheus.CounterVec
	created  prometheus.Counter
	failures prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics registra los colectores en reg. reg nil => nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duecheck_runs_total",
			Help: "Due-check runs by trigger.",
		}, []string{"trigger"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "duecheck_forms_created_total",
			Help: "Forms created by the due-check.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "duecheck_failures_total",
			Help: "Animals whose due-check failed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "duecheck_run_duration_seconds",
			Help:    "Duration of a full due-check run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.created, m.failures, m.duration)
	return m
}

func (m *Metrics) observe(trigger Trigger, res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(trigger)).Inc()
	m.created.Add(float64(res.Created))
	m.failures.Add(float64(res.Failed))
	m.duration.Observe(elapsed.Seconds())
}
