// Package awaiter implements the Condition Awaiter (spec.md §4.2): a
// builder that polls a predicate until it is true or a deadline passes,
// in the same "poll on a ticker, respect ctx.Done()" idiom as the
// teacher's geturlWithRetries loop.
package awaiter

import (
	"context"
	"time"
)

// DefaultPollInterval is used when Awaiter.Poll is never called.
const DefaultPollInterval = 100 * time.Millisecond

// Predicate is evaluated repeatedly; it may suspend (it typically calls
// into the external service API) and must be safe to re-evaluate.
type Predicate func(ctx context.Context) (bool, error)

// OnFailure is invoked exactly once if the deadline expires before
// Predicate returns true. It is never invoked on cancellation.
type OnFailure func()

// Awaiter is the builder described in spec.md §4.2:
//
//	awaiter.New().AtMost(d).Condition(pred).OnFailure(h).StartWaiting(ctx)
type Awaiter struct {
	deadline  time.Duration
	pred      Predicate
	onFailure OnFailure
	poll      time.Duration
}

func New() *Awaiter {
	return &Awaiter{poll: DefaultPollInterval}
}

func (a *Awaiter) AtMost(d time.Duration) *Awaiter {
	a.deadline = d
	return a
}

func (a *Awaiter) Condition(p Predicate) *Awaiter {
	a.pred = p
	return a
}

func (a *Awaiter) OnFailure(h OnFailure) *Awaiter {
	a.onFailure = h
	return a
}

func (a *Awaiter) Poll(interval time.Duration) *Awaiter {
	a.poll = interval
	return a
}

// Result reports how StartWaiting ended.
type Result int

const (
	// Satisfied means the predicate returned true before the deadline.
	Satisfied Result = iota
	// TimedOut means the deadline elapsed and OnFailure has already run, or
	// Condition returned an error (returned alongside; OnFailure did not run).
	TimedOut
	// Cancelled means ctx (or a parent) was cancelled; OnFailure did not run.
	Cancelled
)

// StartWaiting repeatedly evaluates Condition at Poll intervals (default
// 100ms) until it returns true, the deadline set by AtMost elapses, or ctx
// is cancelled. On cancellation it returns immediately without invoking
// OnFailure, per spec.md §4.2 and §5 ("in-flight awaitAtMost returns
// promptly without running the on-failure handler"). If Condition returns
// an error, StartWaiting returns it at once, without invoking OnFailure.
func (a *Awaiter) StartWaiting(ctx context.Context) (Result, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		ok, err := a.pred(ctx)
		if err != nil {
			return TimedOut, err
		}
		if ok {
			return Satisfied, nil
		}

		select {
		case <-ctx.Done():
			return Cancelled, nil
		case <-deadlineCtx.Done():
			if ctx.Err() != nil {
				return Cancelled, nil
			}
			if a.onFailure != nil {
				a.onFailure()
			}
			return TimedOut, nil
		case <-ticker.C:
		}
	}
}
