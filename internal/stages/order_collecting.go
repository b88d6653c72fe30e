package stages

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kstepanov/bombardier/internal/awaiter"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// ItemVisibilityTimeout is the per-item deadline from spec.md §4.8 #3.
const ItemVisibilityTimeout = 3 * time.Second

// OrderCollecting adds a random 1..MaxItemsPerOrder items in random
// amounts, awaiting after each addition until the order snapshot reflects
// it with the exact amount and the order is still Collecting. A per-item
// timeout is a business Fail (spec.md §4.8 #3).
type OrderCollecting struct {
	Deps Deps
}

func (OrderCollecting) Name() string { return "OrderCollecting" }

func (s OrderCollecting) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
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
		failNow(stage.CodeUnexpectedStatus, "getAvailableItems returned no items")
	}

	count := 1 + rand.Intn(s.Deps.MaxItemsPerOrder)
	for i := 0; i < count; i++ {
		item := items[rand.Intn(len(items))]
		amount := 1 + rand.Intn(3)

		s.addAndAwait(ctx, tc, api, userID, orderID, item.ID, amount)
	}

	tc.MarkStageComplete("OrderCollecting")
	return stage.Continue
}

func (s OrderCollecting) addAndAwait(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI, userID, orderID, itemID uuid.UUID, amount int) {
	accepted, err := api.PutItemToOrder(ctx, userID, orderID, itemID, amount)
	if err != nil {
		panic(err)
	}
	if !accepted {
		failNow(stage.CodeUnexpectedStatus, "putItemToOrder rejected item %s", itemID)
	}

	pred := func(ctx context.Context) (bool, error) {
		order, err := api.GetOrder(ctx, userID, orderID)
		if err != nil {
			return false, err
		}
		s.Deps.observeOrder(tc.ServiceName, order)

		if order.Status.Variant != models.VariantCollecting {
			return false, nil
		}
		return order.ItemsMap[itemID] == amount, nil
	}

	_, err = awaiter.New().
		AtMost(ItemVisibilityTimeout).
		Condition(pred).
		OnFailure(func() {
			failNow(stage.CodeTimeout, "item %s not visible with amount %d within %s", itemID, amount, ItemVisibilityTimeout)
		}).
		StartWaiting(ctx)
	if err != nil {
		panic(err)
	}
}
