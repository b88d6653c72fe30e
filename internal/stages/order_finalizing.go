package stages

import (
	"context"
	"time"

	"github.com/kstepanov/bombardier/internal/awaiter"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// FinalizationAwaitTimeout bounds how long OrderFinalizing waits for the
// order snapshot to reflect the finalization outcome.
const FinalizationAwaitTimeout = 5 * time.Second

// OrderFinalizing calls finalizeOrder synchronously and then awaits the
// order reaching Booked, unless BookingDto reports failed items, in which
// case the order must remain Collecting (spec.md §4.8 #5).
type OrderFinalizing struct {
	Deps Deps
}

func (OrderFinalizing) Name() string { return "OrderFinalizing" }

func (s OrderFinalizing) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	userID, ok := tc.UserID()
	if !ok {
		panic(errNoUserID)
	}
	orderID, ok := tc.OrderID()
	if !ok {
		panic(errNoOrderID)
	}

	booking, err := api.FinalizeOrder(ctx, orderID)
	if err != nil {
		panic(err)
	}

	wantVariant := models.VariantBooked
	if len(booking.FailedItems) > 0 {
		wantVariant = models.VariantCollecting
	}

	pred := func(ctx context.Context) (bool, error) {
		order, err := api.GetOrder(ctx, userID, orderID)
		if err != nil {
			return false, err
		}
		s.Deps.observeOrder(tc.ServiceName, order)
		return order.Status.Variant == wantVariant, nil
	}
	_, err = awaiter.New().
		AtMost(FinalizationAwaitTimeout).
		Condition(pred).
		OnFailure(func() {
			failNow(stage.CodeUnexpectedStatus, "order %s did not settle to %s after finalizeOrder", orderID, wantVariant)
		}).
		StartWaiting(ctx)
	if err != nil {
		panic(err)
	}

	tc.MarkStageComplete("OrderFinalizing")
	if tc.FinalizationNeeded() {
		tc.ClearFinalizationNeeded()
	}
	return stage.Continue
}
