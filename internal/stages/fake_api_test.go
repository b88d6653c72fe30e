package stages

import (
	"context"

	"github.com/google/uuid"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/ordercache"
	"github.com/kstepanov/bombardier/internal/orderstate"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/userpool"
)

// fakeAPI is a function-field test double: each test wires only the
// methods its stage under test actually calls, leaving the rest nil so an
// unexpected call panics loudly instead of silently returning a zero
// value.
type fakeAPI struct {
	createUser            func(ctx context.Context, name string, accountAmount int) (models.User, error)
	getUser                func(ctx context.Context, id uuid.UUID) (models.User, error)
	getFinancialHistory    func(ctx context.Context, userID, orderID uuid.UUID) ([]models.FinancialLogRecord, error)
	createOrder            func(ctx context.Context, userID uuid.UUID) (models.Order, error)
	getOrder               func(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error)
	getAvailableItems      func(ctx context.Context, userID uuid.UUID) ([]models.Item, error)
	putItemToOrder         func(ctx context.Context, userID, orderID, itemID uuid.UUID, amount int) (bool, error)
	finalizeOrder          func(ctx context.Context, orderID uuid.UUID) (models.BookingDto, error)
	getDeliverySlots       func(ctx context.Context, orderID uuid.UUID) ([]int, error)
	setDeliveryTime        func(ctx context.Context, orderID uuid.UUID, timeSeconds int64) error
	payOrder               func(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error)
	simulateDelivery       func(ctx context.Context, orderID uuid.UUID) error
	deliveryLog            func(ctx context.Context, orderID uuid.UUID) (models.DeliveryLogEntry, error)
	abandonedCartHistory   func(ctx context.Context, orderID uuid.UUID) ([]models.BucketLogRecord, error)
	getBookingHistory      func(ctx context.Context, bookingID uuid.UUID) ([]models.BookingLogRecord, error)
}

func (f *fakeAPI) CreateUser(ctx context.Context, name string, accountAmount int) (models.User, error) {
	return f.createUser(ctx, name, accountAmount)
}
func (f *fakeAPI) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return f.getUser(ctx, id)
}
func (f *fakeAPI) GetFinancialHistory(ctx context.Context, userID, orderID uuid.UUID) ([]models.FinancialLogRecord, error) {
	return f.getFinancialHistory(ctx, userID, orderID)
}
func (f *fakeAPI) CreateOrder(ctx context.Context, userID uuid.UUID) (models.Order, error) {
	return f.createOrder(ctx, userID)
}
func (f *fakeAPI) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error) {
	return f.getOrder(ctx, userID, orderID)
}
func (f *fakeAPI) GetAvailableItems(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	return f.getAvailableItems(ctx, userID)
}
func (f *fakeAPI) PutItemToOrder(ctx context.Context, userID, orderID, itemID uuid.UUID, amount int) (bool, error) {
	return f.putItemToOrder(ctx, userID, orderID, itemID, amount)
}
func (f *fakeAPI) FinalizeOrder(ctx context.Context, orderID uuid.UUID) (models.BookingDto, error) {
	return f.finalizeOrder(ctx, orderID)
}
func (f *fakeAPI) GetDeliverySlots(ctx context.Context, orderID uuid.UUID) ([]int, error) {
	return f.getDeliverySlots(ctx, orderID)
}
func (f *fakeAPI) SetDeliveryTime(ctx context.Context, orderID uuid.UUID, timeSeconds int64) error {
	return f.setDeliveryTime(ctx, orderID, timeSeconds)
}
func (f *fakeAPI) PayOrder(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error) {
	return f.payOrder(ctx, userID, orderID)
}
func (f *fakeAPI) SimulateDelivery(ctx context.Context, orderID uuid.UUID) error {
	return f.simulateDelivery(ctx, orderID)
}
func (f *fakeAPI) DeliveryLog(ctx context.Context, orderID uuid.UUID) (models.DeliveryLogEntry, error) {
	return f.deliveryLog(ctx, orderID)
}
func (f *fakeAPI) AbandonedCartHistory(ctx context.Context, orderID uuid.UUID) ([]models.BucketLogRecord, error) {
	return f.abandonedCartHistory(ctx, orderID)
}
func (f *fakeAPI) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]models.BookingLogRecord, error) {
	return f.getBookingHistory(ctx, bookingID)
}

var _ serviceapi.ExternalServiceAPI = (*fakeAPI)(nil)

// newTestDeps returns a Deps wired to fresh, empty collaborators plus the
// deterministic probabilities the controller package's own tests use
// (no random abandon/change-items branching to chase in a unit test).
// Pool is left nil; tests that exercise ChooseUserAccount or OrderPayment
// build one with newTestPool.
func newTestDeps() Deps {
	d := DefaultDeps()
	d.Cache = ordercache.New()
	d.Machine = orderstate.New()
	d.AbandonProbability = 0
	d.ChangeItemsProbability = 0
	d.MaxItemsPerOrder = 1
	return d
}

// newTestPool builds a one-member userpool.Pool with the given starting
// balance, for stages that read or spend from the credit ledger.
func newTestPool(ctx context.Context, accountAmount int) *userpool.Pool {
	api := &fakeAPI{createUser: func(ctx context.Context, name string, amount int) (models.User, error) {
		return models.User{ID: uuid.New(), Name: name, AccountAmount: amount}, nil
	}}
	pool, err := userpool.CreateUsersPool(ctx, api, "svc", 1, accountAmount)
	if err != nil {
		panic(err)
	}
	return pool
}
