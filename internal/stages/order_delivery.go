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

// DeliveryAwaitSlack is added to the order's chosen delivery duration to
// bound how long OrderDelivery waits for a terminal Delivered/Refund
// status (spec.md §4.8 #9: "deliveryDuration + 5s").
const DeliveryAwaitSlack = 5 * time.Second

// OrderDelivery is the last stage in the pipeline. It asserts the order
// is Payed with a set delivery duration, calls simulateDelivery, and
// awaits either Delivered or Refund. On Delivered it checks the delivery
// log outcome and enforces (I3); on Refund it enforces (I2) by summing
// the financial history. Any other terminal status is a business
// failure tagged E_ILLEGAL_ORDER_TRANSITION.
type OrderDelivery struct {
	Deps Deps
}

func (OrderDelivery) Name() string { return "OrderDelivery" }

func (s OrderDelivery) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	userID, ok := tc.UserID()
	if !ok {
		panic(errNoUserID)
	}
	orderID, ok := tc.OrderID()
	if !ok {
		panic(errNoOrderID)
	}

	order, err := api.GetOrder(ctx, userID, orderID)
	if err != nil {
		panic(err)
	}
	s.Deps.observeOrder(tc.ServiceName, order)

	if order.Status.Variant != models.VariantPayed {
		failNow(stage.CodeUnexpectedStatus, "order %s not Payed before simulateDelivery: %s", orderID, order.Status.Variant)
	}
	if order.DeliveryDuration == nil {
		failNow(stage.CodeInvariantViolation, "order %s has no deliveryDuration set before simulateDelivery", orderID)
	}
	deliveryDuration := *order.DeliveryDuration

	if err := api.SimulateDelivery(ctx, orderID); err != nil {
		panic(err)
	}

	var final models.Order
	pred := func(ctx context.Context) (bool, error) {
		o, err := api.GetOrder(ctx, userID, orderID)
		if err != nil {
			return false, err
		}
		s.Deps.observeOrder(tc.ServiceName, o)
		switch o.Status.Variant {
		case models.VariantDelivered, models.VariantRefund:
			final = o
			return true, nil
		default:
			return false, nil
		}
	}
	_, err = awaiter.New().
		AtMost(deliveryDuration + DeliveryAwaitSlack).
		Condition(pred).
		OnFailure(func() {
			failNow(stage.CodeTimeout, "order %s did not settle to Delivered or Refund within %s", orderID, deliveryDuration+DeliveryAwaitSlack)
		}).
		StartWaiting(ctx)
	if err != nil {
		panic(err)
	}

	switch final.Status.Variant {
	case models.VariantDelivered:
		s.checkDelivered(ctx, tc, api, orderID, final)
	case models.VariantRefund:
		s.checkRefund(ctx, api, userID, orderID, final)
	default:
		failNow(stage.CodeIllegalOrderTransition, "order %s settled to unexpected terminal status %s", orderID, final.Status.Variant)
	}

	tc.MarkStageComplete("OrderDelivery")
	return stage.Continue
}

// checkDelivered enforces (I3): deliveryFinishTime must not exceed the
// last payment's timestamp plus the chosen delivery duration.
func (s OrderDelivery) checkDelivered(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI, orderID uuid.UUID, order models.Order) {
	entry, err := api.DeliveryLog(ctx, orderID)
	if err != nil {
		panic(err)
	}
	if entry.Outcome != models.DeliverySuccess {
		failNow(stage.CodeUnexpectedStatus, "order %s delivered but delivery log outcome is %s", orderID, entry.Outcome)
	}

	if len(order.PaymentHistory) == 0 || order.DeliveryDuration == nil {
		failNow(stage.CodeInvariantViolation, "order %s missing payment history or delivery duration at delivery conclusion", orderID)
	}
	lastPayment := order.PaymentHistory[len(order.PaymentHistory)-1]
	deadline := lastPayment.Timestamp.Add(*order.DeliveryDuration)
	if order.Status.DeliveryFinishTime.After(deadline) {
		failNow(stage.CodeInvariantViolation,
			"order %s violates I3: deliveryFinishTime %s after lastPayment+duration %s",
			orderID, order.Status.DeliveryFinishTime, deadline)
	}
}

// checkRefund enforces (I2): total WITHDRAW must equal total REFUND over
// the order's financial history.
func (s OrderDelivery) checkRefund(ctx context.Context, api serviceapi.ExternalServiceAPI, userID, orderID uuid.UUID, order models.Order) {
	records, err := api.GetFinancialHistory(ctx, userID, orderID)
	if err != nil {
		panic(err)
	}
	var withdrawn, refunded int
	for _, r := range records {
		switch r.Type {
		case models.FinancialWithdraw:
			withdrawn += r.Amount
		case models.FinancialRefund:
			refunded += r.Amount
		}
	}
	if withdrawn != refunded {
		failNow(stage.CodeInvariantViolation,
			"order %s violates I2: withdrawn=%d refunded=%d", orderID, withdrawn, refunded)
	}
}
