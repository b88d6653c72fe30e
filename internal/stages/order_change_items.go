package stages

import (
	"context"
	"math/rand"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// OrderChangeItemsAfterFinalization runs with probability
// Deps.ChangeItemsProbability. When it runs, it re-enters collection by
// adding one more item after finalization and marks the context so the
// pipeline re-runs OrderFinalizing and OrderSettingDeliverySlots (spec.md
// §4.8 #7, §9 Open Question #4).
type OrderChangeItemsAfterFinalization struct {
	Deps Deps
}

func (OrderChangeItemsAfterFinalization) Name() string {
	return "OrderChangeItemsAfterFinalization"
}

func (s OrderChangeItemsAfterFinalization) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	if !probTrue(s.Deps.ChangeItemsProbability) {
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

	items, err := api.GetAvailableItems(ctx, userID)
	if err != nil {
		panic(err)
	}
	if len(items) == 0 {
		failNow(stage.CodeUnexpectedStatus, "getAvailableItems returned no items during post-finalization change")
	}
	item := items[rand.Intn(len(items))]
	amount := 1 + rand.Intn(2)

	accepted, err := api.PutItemToOrder(ctx, userID, orderID, item.ID, amount)
	if err != nil {
		panic(err)
	}
	if !accepted {
		failNow(stage.CodeUnexpectedStatus, "putItemToOrder rejected post-finalization change on order %s", orderID)
	}

	tc.MarkChangedAfterFinalization()
	tc.MarkStageComplete("OrderChangeItemsAfterFinalization")
	return stage.Continue
}
