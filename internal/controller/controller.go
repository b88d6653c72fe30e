// Package controller implements the Test Controller (spec.md §4.9): it
// owns one TestingFlow per service, builds that flow's user pool and
// rate limiter, fans a fixed worker-goroutine pool out over it, and
// exposes the admin control-surface operations the HTTP layer calls.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kstepanov/bombardier/internal/logger"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/ordercache"
	"github.com/kstepanov/bombardier/internal/orderstate"
	"github.com/kstepanov/bombardier/internal/ratelimiter"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
	"github.com/kstepanov/bombardier/internal/stages"
	"github.com/kstepanov/bombardier/internal/userpool"
)

// DefaultWorkersPerFlow is W from spec.md §4.9/§5: the number of
// concurrent worker goroutines fanned out per service flow when
// StartParams.Workers is unset.
const DefaultWorkersPerFlow = 100

// DefaultExecutorPoolSize is the "fixed worker pool (default 16)" from
// spec.md §5: the cap on how many pipeline runs may be mid-flight across
// ALL flows at once. The W=100-per-flow goroutines above still exist (a
// worker claims a test the instant one is free) but block on this
// semaphore the moment more than DefaultExecutorPoolSize of them are
// actually exercising (F) concurrently — the two numbers model distinct
// spec concepts (fan-out vs. execution concurrency) rather than one.
const DefaultExecutorPoolSize = 16

// DefaultAccountAmount seeds every pool member's local credit mirror.
// spec.md §4.4 describes the source's usage as "MAX in current usage";
// this is a stand-in ceiling comfortably above any plausible order total.
const DefaultAccountAmount = 1_000_000_000

// runningFlow bundles one service's TestingFlow with the resources only
// the controller needs to track to stop it cleanly: the user pool, the
// rate limiter, and an errgroup covering every worker goroutine so
// StopTestByServiceName can await quiescence (spec.md §5). ctx is the
// errgroup's own derived context, the one workers actually select on.
type runningFlow struct {
	flow    *models.TestingFlow
	pool    *userpool.Pool
	limiter *ratelimiter.Limiter
	group   *errgroup.Group
	ctx     context.Context
}

// Controller is safe for concurrent use by the admin HTTP handlers.
type Controller struct {
	resolver ServiceResolver

	machine   *orderstate.Machine
	cache     *ordercache.Cache
	stageDeps stages.Deps
	execSem   *semaphore.Weighted

	mu    sync.RWMutex
	flows map[string]*runningFlow
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithStageDefaults overrides the per-stage tunables (item counts,
// probabilistic gates) every flow's Deps is seeded with; tests use this
// to make OrderAbandoned/OrderChangeItemsAfterFinalization deterministic.
func WithStageDefaults(deps stages.Deps) Option {
	return func(c *Controller) { c.stageDeps = deps }
}

// WithExecutorPoolSize overrides DefaultExecutorPoolSize.
func WithExecutorPoolSize(n int) Option {
	return func(c *Controller) { c.execSem = semaphore.NewWeighted(int64(n)) }
}

// New builds a Controller. The order cache and state machine are shared
// across every flow (they are per-service-keyed and immutable/lock-free
// respectively, per spec.md §4.1, §4.5); each flow gets its own user
// pool and rate limiter.
func New(resolver ServiceResolver, opts ...Option) *Controller {
	c := &Controller{
		resolver:  resolver,
		machine:   orderstate.New(),
		cache:     ordercache.New(),
		stageDeps: stages.DefaultDeps(),
		execSem:   semaphore.NewWeighted(DefaultExecutorPoolSize),
		flows:     make(map[string]*runningFlow),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartTestingForService admits a new flow (spec.md §4.9, invariant I4).
// A placeholder is reserved in the map before the blocking pool build so
// a concurrent second start for the same service fails fast with
// ErrAlreadyRunning rather than racing the first call's setup.
func (c *Controller) StartTestingForService(ctx context.Context, params models.StartParams) error {
	if params.ServiceName == "" {
		return fmt.Errorf("%w: serviceName is required", ErrBadRequest)
	}
	if params.NumberOfTests <= 0 {
		return fmt.Errorf("%w: numberOfTests must be positive", ErrBadRequest)
	}
	if params.NumberOfUsers <= 0 {
		return fmt.Errorf("%w: numberOfUsers must be positive", ErrBadRequest)
	}
	if params.RatePerSecond <= 0 {
		return fmt.Errorf("%w: ratePerSecond must be positive", ErrBadRequest)
	}

	c.mu.Lock()
	if _, exists := c.flows[params.ServiceName]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, params.ServiceName)
	}
	c.flows[params.ServiceName] = &runningFlow{}
	c.mu.Unlock()

	api, err := c.resolver.Resolve(params.ServiceName)
	if err != nil {
		c.abortReservation(params.ServiceName)
		return fmt.Errorf("controller: resolve service %s: %w", params.ServiceName, err)
	}

	pool, err := userpool.CreateUsersPool(ctx, api, params.ServiceName, params.NumberOfUsers, DefaultAccountAmount)
	if err != nil {
		logger.Log.Warn("controller: user pool build had failures",
			zap.String("service", params.ServiceName), zap.Error(err))
	}
	if pool.Size() == 0 {
		c.abortReservation(params.ServiceName)
		return fmt.Errorf("controller: no users could be created for service %s", params.ServiceName)
	}

	workers := params.Workers
	if workers <= 0 {
		workers = DefaultWorkersPerFlow
	}

	flow := models.NewTestingFlow(params)
	group, groupCtx := errgroup.WithContext(flow.Context())
	rf := &runningFlow{
		flow:    flow,
		pool:    pool,
		limiter: ratelimiter.New(params.ServiceName, params.RatePerSecond, params.SlowStartOn),
		group:   group,
		ctx:     groupCtx,
	}

	c.mu.Lock()
	c.flows[params.ServiceName] = rf
	c.mu.Unlock()

	go rf.limiter.Run(rf.ctx)

	deps := c.stageDeps
	deps.Pool = rf.pool
	deps.Cache = c.cache
	deps.Machine = c.machine

	for i := 0; i < workers; i++ {
		ActiveWorkers.WithLabelValues(params.ServiceName).Inc()
		rf.group.Go(func() error {
			return c.runWorker(rf, api, deps)
		})
	}

	logger.Log.Info("controller: started testing flow",
		zap.String("service", params.ServiceName),
		zap.Int("workers", workers), zap.Int("users", pool.Size()),
		zap.Int("numberOfTests", params.NumberOfTests))
	return nil
}

func (c *Controller) abortReservation(serviceName string) {
	c.mu.Lock()
	delete(c.flows, serviceName)
	c.mu.Unlock()
}

// GetTestingFlowForService returns a point-in-time counters snapshot
// (spec.md §4.9).
func (c *Controller) GetTestingFlowForService(name string) (models.Status, error) {
	c.mu.RLock()
	rf, ok := c.flows[name]
	c.mu.RUnlock()
	if !ok || rf.flow == nil {
		return models.Status{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return rf.flow.Status(), nil
}

// StopTestByServiceName cancels the flow and waits for every worker
// goroutine to unwind cooperatively before returning (spec.md §5: "awaits
// quiescence before returning"). The map entry is removed before the
// wait so a concurrent getTestingFlowForService sees it gone promptly,
// matching the scenario in spec.md §8 #5.
func (c *Controller) StopTestByServiceName(name string) error {
	c.mu.Lock()
	rf, ok := c.flows[name]
	if !ok || rf.flow == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(c.flows, name)
	c.mu.Unlock()

	rf.flow.Cancel()
	_ = rf.group.Wait()
	ActiveWorkers.DeleteLabelValues(name)

	logger.Log.Info("controller: stopped testing flow", zap.String("service", name))
	return nil
}

// StopAllTests stops every running flow (spec.md §4.9).
func (c *Controller) StopAllTests() {
	c.mu.RLock()
	names := make([]string, 0, len(c.flows))
	for name := range c.flows {
		names = append(names, name)
	}
	c.mu.RUnlock()

	for _, name := range names {
		if err := c.StopTestByServiceName(name); err != nil {
			logger.Log.Warn("controller: stop during stopAll failed",
				zap.String("service", name), zap.Error(err))
		}
	}
}

// runWorker loops claiming tests until the flow's budget is exhausted or
// it is cancelled, pacing each claim through the rate limiter (spec.md
// §2, §5) and bounding actual pipeline execution through the shared
// executor semaphore (DefaultExecutorPoolSize). It always returns nil;
// the errgroup is used for its Wait() semantics, not error propagation —
// a worker's own exit is never itself a failure.
func (c *Controller) runWorker(rf *runningFlow, api serviceapi.ExternalServiceAPI, deps stages.Deps) error {
	defer ActiveWorkers.WithLabelValues(rf.flow.Params.ServiceName).Dec()

	for {
		select {
		case <-rf.ctx.Done():
			return nil
		default:
		}

		if !rf.flow.TryClaimTest() {
			return nil
		}
		if err := rf.limiter.TickBlocking(rf.ctx); err != nil {
			return nil
		}
		if err := c.execSem.Acquire(rf.ctx, 1); err != nil {
			return nil
		}

		c.runOneTest(rf.ctx, rf, api, deps)
		c.execSem.Release(1)
		rf.flow.MarkTestFinished()
	}
}

// runOneTest executes one fresh TestContext through the pipeline and
// records exactly one duration sample (spec.md §4.9). The recover here is
// a last-resort safety net: every stage already runs under
// ExceptionFreeStage, so reaching this recover means the panic escaped
// the pipeline's own orchestration rather than a single stage, and is
// recorded as UNEXPECTED_FAIL rather than poisoning the worker loop.
func (c *Controller) runOneTest(ctx context.Context, rf *runningFlow, api serviceapi.ExternalServiceAPI, deps stages.Deps) {
	tc := models.NewTestContext(rf.flow.Params.ServiceName)
	start := time.Now()

	outcome := stage.Continue
	unexpected := false

	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("controller: panic escaped stage pipeline",
					zap.String("service", tc.ServiceName), zap.Any("recovered", r))
				outcome, unexpected = stage.Error, true
			}
		}()
		outcome = c.runPipeline(ctx, rf.flow.Params, tc, api, deps)
	}()

	TestDuration.WithLabelValues(tc.ServiceName, outcomeLabel(outcome, unexpected)).
		Observe(time.Since(start).Seconds())
}

// runPipeline runs the ordered stage sequence from spec.md §4.8,
// including the conditional refinalization loop-back from stage #7 and
// the two StartParams-driven early exits (stopAfterOrderCreation,
// testSuccessByThePaymentFact).
func (c *Controller) runPipeline(ctx context.Context, params models.StartParams, tc *models.TestContext, api serviceapi.ExternalServiceAPI, deps stages.Deps) stage.Continuation {
	chooseUser := stage.Decorate(stages.ChooseUserAccount{Deps: deps}, false)
	creation := stage.Decorate(stages.OrderCreation{Deps: deps}, false)
	collecting := stage.Decorate(stages.OrderCollecting{Deps: deps}, false)
	abandoned := stage.Decorate(stages.OrderAbandoned{Deps: deps}, false)
	finalizing := stage.Decorate(stages.OrderFinalizing{Deps: deps}, false)
	slots := stage.Decorate(stages.OrderSettingDeliverySlots{Deps: deps}, false)
	changeItems := stage.Decorate(stages.OrderChangeItemsAfterFinalization{Deps: deps}, false)
	payment := stage.Decorate(stages.OrderPayment{Deps: deps}, true)
	delivery := stage.Decorate(stages.OrderDelivery{Deps: deps}, false)

	run := func(s stage.Stage) (stage.Continuation, bool) {
		res := s.Run(ctx, tc, api)
		return res, res == stage.Continue
	}

	if res, ok := run(chooseUser); !ok {
		return res
	}
	if res, ok := run(creation); !ok {
		return res
	}
	if params.StopAfterOrderCreation {
		return stage.Stop
	}
	if res, ok := run(collecting); !ok {
		return res
	}
	if res, ok := run(abandoned); !ok {
		return res
	}
	if res, ok := run(finalizing); !ok {
		return res
	}
	if res, ok := run(slots); !ok {
		return res
	}
	if res, ok := run(changeItems); !ok {
		return res
	}

	if tc.FinalizationNeeded() {
		if res, ok := run(finalizing); !ok {
			return res
		}
		if res, ok := run(slots); !ok {
			return res
		}
	}

	if res, ok := run(payment); !ok {
		return res
	}
	if params.TestSuccessByThePaymentFact {
		return stage.Continue
	}

	res, _ := run(delivery)
	return res
}
