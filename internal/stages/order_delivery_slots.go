package stages

import (
	"context"
	"math/rand"
	"time"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// OrderSettingDeliverySlots reads the available delivery slots and sets a
// random one, asserting it is observable on re-read (spec.md §4.8 #6).
type OrderSettingDeliverySlots struct {
	Deps Deps
}

func (OrderSettingDeliverySlots) Name() string { return "OrderSettingDeliverySlots" }

func (s OrderSettingDeliverySlots) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	userID, ok := tc.UserID()
	if !ok {
		panic(errNoUserID)
	}
	orderID, ok := tc.OrderID()
	if !ok {
		panic(errNoOrderID)
	}

	slots, err := api.GetDeliverySlots(ctx, orderID)
	if err != nil {
		panic(err)
	}
	if len(slots) == 0 {
		failNow(stage.CodeUnexpectedStatus, "getDeliverySlots returned no slots for order %s", orderID)
	}
	chosen := slots[rand.Intn(len(slots))]

	if err := api.SetDeliveryTime(ctx, orderID, int64(chosen)); err != nil {
		panic(err)
	}

	order, err := api.GetOrder(ctx, userID, orderID)
	if err != nil {
		panic(err)
	}
	s.Deps.observeOrder(tc.ServiceName, order)

	if order.DeliveryDuration == nil || int64(*order.DeliveryDuration/time.Second) != int64(chosen) {
		failNow(stage.CodeUnexpectedStatus, "chosen delivery slot %ds not observable on order %s", chosen, orderID)
	}

	tc.MarkStageComplete("OrderSettingDeliverySlots")
	return stage.Continue
}
