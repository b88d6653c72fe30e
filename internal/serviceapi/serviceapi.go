// Package serviceapi declares the narrow External Service API contract
// (spec.md §4.6, §6) that stages invoke. It is implemented by an HTTP
// adapter against the target microservice, which is out of scope per
// spec.md §1 — this package only declares the interface and its error
// taxonomy, in the same "interface-declares-only" idiom as the teacher's
// storage.Storager.
package serviceapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/kstepanov/bombardier/internal/models"
)

// ExternalServiceAPI is the set of operations the stages depend on. Every
// method is an async request-response against the target; failures
// surface as returned errors (the Go analogue of spec.md's "thrown
// exceptions") that the ExceptionFreeStage decorator classifies.
type ExternalServiceAPI interface {
	CreateUser(ctx context.Context, name string, accountAmount int) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetFinancialHistory(ctx context.Context, userID, orderID uuid.UUID) ([]models.FinancialLogRecord, error)

	CreateOrder(ctx context.Context, userID uuid.UUID) (models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error)
	GetAvailableItems(ctx context.Context, userID uuid.UUID) ([]models.Item, error)
	PutItemToOrder(ctx context.Context, userID, orderID, itemID uuid.UUID, amount int) (bool, error)

	FinalizeOrder(ctx context.Context, orderID uuid.UUID) (models.BookingDto, error)
	GetDeliverySlots(ctx context.Context, orderID uuid.UUID) ([]int, error)
	SetDeliveryTime(ctx context.Context, orderID uuid.UUID, timeSeconds int64) error

	PayOrder(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error)
	SimulateDelivery(ctx context.Context, orderID uuid.UUID) error
	DeliveryLog(ctx context.Context, orderID uuid.UUID) (models.DeliveryLogEntry, error)

	AbandonedCartHistory(ctx context.Context, orderID uuid.UUID) ([]models.BucketLogRecord, error)
	GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]models.BookingLogRecord, error)
}
