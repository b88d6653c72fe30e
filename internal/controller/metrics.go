package controller

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kstepanov/bombardier/internal/stage"
)

// TestDuration records exactly one sample per completed test (spec.md
// §4.9, §6: "exactly one duration sample is recorded with outcome ∈
// {SUCCESS, FAIL, ERROR, RETRY, STOP, UNEXPECTED_FAIL}"). It is distinct
// from stage.StageDuration, which times individual stages.
var TestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "bombardier",
	Subsystem: "test",
	Name:      "duration_seconds",
	Help:      "Duration of one end-to-end test pipeline run, labeled by outcome.",
	Buckets:   prometheus.DefBuckets,
}, []string{"service", "outcome"})

// ActiveWorkers is the executor-pool gauge from spec.md §6 ("queue depth,
// active threads"): here, the number of live worker goroutines per
// service flow.
var ActiveWorkers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "bombardier",
	Subsystem: "controller",
	Name:      "active_workers",
	Help:      "Number of live worker goroutines per service testing flow.",
}, []string{"service"})

func init() {
	prometheus.MustRegister(TestDuration, ActiveWorkers)
}

// outcomeLabel maps a pipeline's terminal Continuation to the metric
// label vocabulary from spec.md §4.9. unexpected marks a panic that
// escaped every stage decorator (should not happen, but the worker loop
// recovers it as a last resort) as UNEXPECTED_FAIL rather than ERROR.
func outcomeLabel(c stage.Continuation, unexpected bool) string {
	if unexpected {
		return "UNEXPECTED_FAIL"
	}
	if c == stage.Continue {
		return "SUCCESS"
	}
	return c.String()
}
