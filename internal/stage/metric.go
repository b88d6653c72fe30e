package stage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
)

// StageDuration is the histogram backing MetricRecordableStage, labeled
// {service, stage, outcome} per spec.md §4.7. Declared here (rather than
// in the controller) so any stage, wrapped or bare, can record into the
// same series.
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "bombardier",
		Name:      "stage_duration_seconds",
		Help:      "Duration of one stage execution, labeled by outcome.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service", "stage", "outcome"},
)

func init() {
	prometheus.MustRegister(StageDuration)
}

// MetricRecordableStage times the wrapped stage's Run and records the
// duration under StageDuration with labels {service, stage, outcome}.
type MetricRecordableStage struct {
	Inner Stage
}

func (m *MetricRecordableStage) Name() string { return m.Inner.Name() }
func (m *MetricRecordableStage) Unwrap() Stage { return m.Inner }

func (m *MetricRecordableStage) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) Continuation {
	start := time.Now()
	result := m.Inner.Run(ctx, tc, api)
	elapsed := time.Since(start)

	StageDuration.WithLabelValues(tc.ServiceName, InnermostName(m.Inner), result.String()).
		Observe(elapsed.Seconds())

	return result
}
