package models

import (
	"context"
	"sync/atomic"
)

// StartParams is the admin control surface's request body for
// startTestingForService, per spec.md §6.
type StartParams struct {
	ServiceName               string `json:"serviceName"`
	NumberOfUsers             int    `json:"numberOfUsers"`
	NumberOfTests             int    `json:"numberOfTests"`
	RatePerSecond             float64 `json:"ratePerSecond"`
	TestSuccessByThePaymentFact bool  `json:"testSuccessByThePaymentFact"`
	StopAfterOrderCreation    bool   `json:"stopAfterOrderCreation"`
	SlowStartOn               bool   `json:"slowStartOn"`
	Workers                   int    `json:"workers"`
}

// TestingFlow is the per-service shared state from spec.md §3: counters
// are atomic because every worker task increments them concurrently, and
// the cancellation handle is a context so cancellation composes with Go's
// standard suspension points (channel receives, context-aware sleeps).
type TestingFlow struct {
	Params       StartParams
	ctx          context.Context
	cancel       context.CancelFunc
	testsStarted atomic.Int64
	testsFinished atomic.Int64
}

func NewTestingFlow(params StartParams) *TestingFlow {
	ctx, cancel := context.WithCancel(context.Background())
	return &TestingFlow{Params: params, ctx: ctx, cancel: cancel}
}

func (f *TestingFlow) Context() context.Context { return f.ctx }

func (f *TestingFlow) Cancel() { f.cancel() }

func (f *TestingFlow) Cancelled() bool {
	select {
	case <-f.ctx.Done():
		return true
	default:
		return false
	}
}

// TryClaimTest atomically increments testsStarted and reports whether the
// caller's claim is within Params.NumberOfTests; the controller uses this
// to decide when to stop spawning new tests without a separate lock.
func (f *TestingFlow) TryClaimTest() bool {
	return f.testsStarted.Add(1) <= int64(f.Params.NumberOfTests)
}

func (f *TestingFlow) MarkTestFinished() {
	f.testsFinished.Add(1)
}

func (f *TestingFlow) TestsStarted() int64  { return f.testsStarted.Load() }
func (f *TestingFlow) TestsFinished() int64 { return f.testsFinished.Load() }

// Status is the read-only snapshot returned by getTestingFlowForService.
type Status struct {
	ServiceName   string `json:"serviceName"`
	TestsStarted  int64  `json:"testsStarted"`
	TestsFinished int64  `json:"testsFinished"`
	Cancelled     bool   `json:"cancelled"`
}

func (f *TestingFlow) Status() Status {
	return Status{
		ServiceName:   f.Params.ServiceName,
		TestsStarted:  f.TestsStarted(),
		TestsFinished: f.TestsFinished(),
		Cancelled:     f.Cancelled(),
	}
}
