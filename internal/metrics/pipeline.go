// Package metrics holds the Prometheus collectors the pipeline reports to.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Pipeline counts stage runs and the storage stage's side paths. A nil *Pipeline is a no-op.
type Pipeline struct {
	stageRuns      *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	dedupHits      prometheus.Counter
	renameFailures prometheus.Counter
}

// NewPipeline registers the collectors on reg.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		stageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docassist",
				Name:      "stage_runs_total",
				Help:      "Workflow stage executions by stage and outcome.",
			},
			[]string{"stage", "outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "docassist",
				Name:      "stage_duration_seconds",
				Help:      "Workflow stage latency.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		dedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docassist",
			Name:      "dedup_hits_total",
			Help:      "Documents whose content hash was already stored.",
		}),
		renameFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docassist",
			Name:      "rename_failures_total",
			Help:      "Stored documents left at their original path because the move failed.",
		}),
	}
	for _, c := range []prometheus.Collector{p.stageRuns, p.stageDuration, p.dedupHits, p.renameFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ObserveStage records one run of stage. err decides the outcome label.
func (p *Pipeline) ObserveStage(stage string, start time.Time, err error) {
	if p == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	p.stageRuns.WithLabelValues(stage, outcome).Inc()
	p.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (p *Pipeline) DedupHit() {
	if p == nil {
		return
	}
	p.dedupHits.Inc()
}

func (p *Pipeline) RenameFailed() {
	if p == nil {
		return
	}
	p.renameFailures.Inc()
}
