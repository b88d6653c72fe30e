// Package ratelimiter implements the per-flow slow-start rate limiter
// from spec.md §4.3 on top of golang.org/x/time/rate: the ramp is a
// goroutine that raises the underlying token bucket's limit on a ticker,
// and TickBlocking is a straight Limiter.Wait.
package ratelimiter

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kstepanov/bombardier/internal/logger"
	"go.uber.org/zap"
)

// DefaultRampInterval is the cadence at which currentRate climbs toward
// targetRate when slow start is enabled.
const DefaultRampInterval = time.Second

// Limiter paces stage-pipeline launches for one flow at targetRate
// permits/sec, optionally ramping up from targetRate/10.
type Limiter struct {
	targetRate  float64
	rampOn      bool
	rampInterval time.Duration

	mu          sync.Mutex
	currentRate float64
	limiter     *rate.Limiter

	serviceName string
}

// New builds a Limiter for one flow. targetRate is permits/sec;
// slowStartOn enables the ramp policy from spec.md §4.3.
func New(serviceName string, targetRate float64, slowStartOn bool) *Limiter {
	l := &Limiter{
		targetRate:   targetRate,
		rampOn:       slowStartOn,
		rampInterval: DefaultRampInterval,
		serviceName:  serviceName,
	}

	initial := targetRate
	if slowStartOn {
		initial = math.Max(1, targetRate/10)
	}
	l.currentRate = initial
	l.limiter = rate.NewLimiter(rate.Limit(initial), burstFor(initial))
	return l
}

func burstFor(r float64) int {
	b := int(math.Ceil(r))
	if b < 1 {
		return 1
	}
	return b
}

// Run drives the ramp until currentRate reaches targetRate or ctx is
// cancelled. The Controller starts one of these per flow; it is a no-op
// loop (returns immediately) when slow start is disabled.
func (l *Limiter) Run(ctx context.Context) {
	if !l.rampOn {
		return
	}
	ticker := time.NewTicker(l.rampInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.step() {
				return
			}
		}
	}
}

// step advances currentRate by one ramp increment; it returns true once
// currentRate has reached targetRate, at which point the ramp halts per
// spec.md §4.3.
func (l *Limiter) step() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentRate >= l.targetRate {
		return true
	}
	increment := math.Ceil(l.targetRate / 10)
	l.currentRate = math.Min(l.targetRate, l.currentRate+increment)
	l.limiter.SetLimit(rate.Limit(l.currentRate))
	l.limiter.SetBurst(burstFor(l.currentRate))

	logger.Log.Debug("ratelimiter: ramped",
		zap.String("service", l.serviceName),
		zap.Float64("currentRate", l.currentRate),
		zap.Float64("targetRate", l.targetRate),
	)
	return l.currentRate >= l.targetRate
}

// TickBlocking suspends the caller until one permit is available, FIFO
// across concurrent callers (golang.org/x/time/rate.Limiter's own
// guarantee), or returns ctx.Err() on cancellation.
func (l *Limiter) TickBlocking(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// CurrentRate reports the ramp's current permits/sec, for tests and metrics.
func (l *Limiter) CurrentRate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentRate
}
