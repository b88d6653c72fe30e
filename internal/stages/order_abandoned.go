package stages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kstepanov/bombardier/internal/awaiter"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// AbandonedCartSleep, AbandonedBucketRefreshTimeout, and
// AbandonedDiscardTimeout are the fixed delays from spec.md §4.8 #4.
const (
	AbandonedCartSleep            = 120 * time.Second
	AbandonedBucketRefreshTimeout = 30 * time.Second
	AbandonedDiscardTimeout       = 15 * time.Second
)

// OrderAbandoned runs with probability Deps.AbandonProbability (spec.md
// §4.8 #4: "50%"). It records the latest bucket-log timestamp, sleeps,
// then awaits a fresher record; if the shopper "interacted"
// (userInteracted), the order must still be Collecting, otherwise it
// must transition to Discarded.
type OrderAbandoned struct {
	Deps Deps
}

func (OrderAbandoned) Name() string { return "OrderAbandoned" }

func (s OrderAbandoned) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	if !probTrue(s.Deps.AbandonProbability) {
		return stage.Continue
	}

	userID, ok := tc.UserID()
	if !ok {
		panic(errNoUserID)
	}
	orderID, ok := tc.OrderID()
	if !ok {
		panic(errNoOrderID)
	}

	baseline := latestBucketTimestamp(ctx, api, orderID)

	if err := sleepOrDone(ctx, AbandonedCartSleep); err != nil {
		panic(err)
	}

	pred := func(ctx context.Context) (bool, error) {
		ts := latestBucketTimestamp(ctx, api, orderID)
		return ts.After(baseline), nil
	}
	_, err := awaiter.New().
		AtMost(AbandonedBucketRefreshTimeout).
		Condition(pred).
		OnFailure(func() {
			failNow(stage.CodeTimeout, "no fresh bucket-log record for order %s within %s", orderID, AbandonedBucketRefreshTimeout)
		}).
		StartWaiting(ctx)
	if err != nil {
		panic(err)
	}

	records, err := api.AbandonedCartHistory(ctx, orderID)
	if err != nil {
		panic(err)
	}
	interacted := false
	if len(records) > 0 {
		interacted = records[len(records)-1].UserInteracted
	}

	if interacted {
		order, err := api.GetOrder(ctx, userID, orderID)
		if err != nil {
			panic(err)
		}
		s.Deps.observeOrder(tc.ServiceName, order)
		if order.Status.Variant != models.VariantCollecting {
			failNow(stage.CodeUnexpectedStatus, "order %s left Collecting after interacted abandon check: %s", orderID, order.Status.Variant)
		}
		return stage.Continue
	}

	discardPred := func(ctx context.Context) (bool, error) {
		order, err := api.GetOrder(ctx, userID, orderID)
		if err != nil {
			return false, err
		}
		s.Deps.observeOrder(tc.ServiceName, order)
		return order.Status.Variant == models.VariantDiscarded, nil
	}
	_, err = awaiter.New().
		AtMost(AbandonedDiscardTimeout).
		Condition(discardPred).
		OnFailure(func() {
			failNow(stage.CodeUnexpectedStatus, "order %s did not transition to Discarded within %s", orderID, AbandonedDiscardTimeout)
		}).
		StartWaiting(ctx)
	if err != nil {
		panic(err)
	}

	tc.MarkStageComplete("OrderAbandoned")
	return stage.Continue
}

func latestBucketTimestamp(ctx context.Context, api serviceapi.ExternalServiceAPI, orderID uuid.UUID) time.Time {
	records, err := api.AbandonedCartHistory(ctx, orderID)
	if err != nil {
		panic(err)
	}
	if len(records) == 0 {
		return time.Time{}
	}
	latest := records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	return latest
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
