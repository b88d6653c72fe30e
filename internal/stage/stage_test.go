package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
)

type fixedStage struct {
	name    string
	results []Continuation
	calls   int
	panicOn int // 1-indexed call to panic on, 0 disables
	panicWith any
}

func (f *fixedStage) Name() string { return f.name }

func (f *fixedStage) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) Continuation {
	f.calls++
	if f.panicOn != 0 && f.calls == f.panicOn {
		panic(f.panicWith)
	}
	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]
}

func TestInnermostName_UnwrapsChain(t *testing.T) {
	inner := &fixedStage{name: "OrderPayment", results: []Continuation{Continue}}
	wrapped := Decorate(inner, true)
	assert.Equal(t, "OrderPayment", InnermostName(wrapped))
}

func TestRetryableStage_PassesThroughNonRetry(t *testing.T) {
	inner := &fixedStage{name: "s", results: []Continuation{Fail}}
	r := &RetryableStage{Inner: inner}

	result := r.Run(context.Background(), models.NewTestContext("svc"), nil)
	assert.Equal(t, Fail, result)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryableStage_RetriesThenSucceeds(t *testing.T) {
	inner := &fixedStage{name: "s", results: []Continuation{Retry, Retry, Continue}}
	r := &RetryableStage{Inner: inner}

	result := r.Run(context.Background(), models.NewTestContext("svc"), nil)
	assert.Equal(t, Continue, result)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryableStage_ExhaustsAndReturnsRetry(t *testing.T) {
	inner := &fixedStage{name: "s", results: []Continuation{Retry}}
	r := &RetryableStage{Inner: inner}

	result := r.Run(context.Background(), models.NewTestContext("svc"), nil)
	assert.Equal(t, Retry, result)
	assert.Equal(t, MaxRetryAttempts, inner.calls)
}

func TestExceptionFreeStage_MapsDeclaredFailureToFail(t *testing.T) {
	inner := &fixedStage{
		name: "s", results: []Continuation{Continue},
		panicOn: 1, panicWith: NewFailure(CodeIllegalOrderTransition, "bad transition"),
	}
	e := &ExceptionFreeStage{Inner: inner}

	result := e.Run(context.Background(), models.NewTestContext("svc"), nil)
	assert.Equal(t, Fail, result)
}

func TestExceptionFreeStage_MapsUnexpectedPanicToError(t *testing.T) {
	inner := &fixedStage{
		name: "s", results: []Continuation{Continue},
		panicOn: 1, panicWith: "unexpected nil deref or similar",
	}
	e := &ExceptionFreeStage{Inner: inner}

	result := e.Run(context.Background(), models.NewTestContext("svc"), nil)
	assert.Equal(t, Error, result)
}

func TestMetricRecordableStage_PassesThroughResult(t *testing.T) {
	inner := &fixedStage{name: "s", results: []Continuation{Continue}}
	m := &MetricRecordableStage{Inner: inner}

	result := m.Run(context.Background(), models.NewTestContext("svc"), nil)
	assert.Equal(t, Continue, result)
}
