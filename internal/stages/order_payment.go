package stages

import (
	"context"

	"github.com/kstepanov/bombardier/internal/logger"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
	"go.uber.org/zap"
)

// OrderPayment calls payOrder and classifies the outcome (spec.md §4.8
// #8): Payed is Continue; FAILED_NOT_ENOUGH_MONEY is Fail; a generic
// FAILED is Retry, letting the RetryableStage decorator re-run payment up
// to its attempt limit. A successful payment mirrors its amount into the
// local credit ledger via userpool.Spend.
type OrderPayment struct {
	Deps Deps
}

func (OrderPayment) Name() string { return "OrderPayment" }

func (s OrderPayment) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	userID, ok := tc.UserID()
	if !ok {
		panic(errNoUserID)
	}
	orderID, ok := tc.OrderID()
	if !ok {
		panic(errNoOrderID)
	}

	order, err := api.PayOrder(ctx, userID, orderID)
	if err != nil {
		panic(err)
	}
	s.Deps.observeOrder(tc.ServiceName, order)

	if len(order.PaymentHistory) == 0 {
		failNow(stage.CodeUnexpectedStatus, "payOrder returned no payment history for order %s", orderID)
	}
	latest := order.PaymentHistory[len(order.PaymentHistory)-1]

	switch latest.Status {
	case models.PaymentSuccess:
		if order.Status.Variant != models.VariantPayed {
			failNow(stage.CodeUnexpectedStatus, "payment recorded SUCCESS but order %s status is %s", orderID, order.Status.Variant)
		}
		if _, err := s.Deps.Pool.Spend(userID, latest.Amount); err != nil {
			logger.Log.Warn("stages: spend after payment failed",
				zap.String("order", orderID.String()), zap.Error(err))
		}
		tc.MarkStageComplete("OrderPayment")
		return stage.Continue

	case models.PaymentFailedNotEnoughMoney:
		failNow(stage.CodeUnexpectedStatus, "payment failed for order %s: not enough money", orderID)
		return stage.Fail // unreachable, kept for readability

	case models.PaymentFailed:
		return stage.Retry

	default:
		failNow(stage.CodeUnexpectedStatus, "unknown payment status %q for order %s", latest.Status, orderID)
		return stage.Error // unreachable
	}
}
