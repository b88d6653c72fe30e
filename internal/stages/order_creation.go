package stages

import (
	"context"

	"github.com/google/uuid"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// OrderCreation calls createOrder and asserts the target returns a fresh
// order in Collecting (spec.md §4.8 #2).
type OrderCreation struct {
	Deps Deps
}

func (OrderCreation) Name() string { return "OrderCreation" }

func (s OrderCreation) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	userID, ok := tc.UserID()
	if !ok {
		panic(errNoUserID)
	}

	order, err := api.CreateOrder(ctx, userID)
	if err != nil {
		panic(err)
	}
	if order.ID == (uuid.UUID{}) {
		failNow(stage.CodeUnexpectedStatus, "createOrder returned no order id")
	}
	if order.Status.Variant != models.VariantCollecting {
		failNow(stage.CodeUnexpectedStatus, "createOrder returned status %s, want COLLECTING", order.Status.Variant)
	}

	if err := tc.SetOrderID(order.ID); err != nil {
		panic(err)
	}
	s.Deps.observeOrder(tc.ServiceName, order)
	tc.MarkStageComplete("OrderCreation")
	return stage.Continue
}
