package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors spec.md §3: created once per pool member, never deleted.
type User struct {
	ID            uuid.UUID
	Name          string
	AccountAmount int
}

// Item is read-only from the target service.
type Item struct {
	ID     uuid.UUID
	Title  string
	Price  int
	Amount int
}

// PaymentStatus is the closed set of outcomes a payment attempt can
// record, per spec.md §3.
type PaymentStatus string

const (
	PaymentFailed             PaymentStatus = "FAILED"
	PaymentFailedNotEnoughMoney PaymentStatus = "FAILED_NOT_ENOUGH_MONEY"
	PaymentSuccess            PaymentStatus = "SUCCESS"
)

type PaymentLogRecord struct {
	Timestamp time.Time
	Status    PaymentStatus
	Amount    int
}

// FinancialRecordType is the closed set of ledger entry kinds the target
// exposes via getFinancialHistory.
type FinancialRecordType string

const (
	FinancialDeposit  FinancialRecordType = "DEPOSIT"
	FinancialWithdraw FinancialRecordType = "WITHDRAW"
	FinancialRefund   FinancialRecordType = "REFUND"
)

type FinancialLogRecord struct {
	Type      FinancialRecordType
	Amount    int
	OrderID   uuid.UUID
	Timestamp time.Time
}

// BucketLogRecord is the abandoned-cart audit trail consulted by
// OrderAbandoned.
type BucketLogRecord struct {
	TransactionID  uuid.UUID
	Timestamp      time.Time
	UserInteracted bool
}

type BookingStatus string

const (
	BookingSuccess BookingStatus = "SUCCESS"
	BookingFailed  BookingStatus = "FAILED"
)

// BookingDto is the synchronous result of finalizeOrder.
type BookingDto struct {
	BookingID   uuid.UUID
	FailedItems map[uuid.UUID]struct{}
}

type BookingLogRecord struct {
	BookingID uuid.UUID
	ItemID    uuid.UUID
	Status    BookingStatus
	Amount    int
	Timestamp time.Time
}

// DeliveryOutcome is the terminal outcome recorded in the delivery log.
type DeliveryOutcome string

const (
	DeliverySuccess DeliveryOutcome = "SUCCESS"
	DeliveryFailure DeliveryOutcome = "FAILURE"
)

type DeliveryLogEntry struct {
	Outcome DeliveryOutcome
}

// Order mirrors spec.md §3. ItemsMap maps an item id to the amount
// ordered; DeliveryDuration is nil until the delivery slot is set.
type Order struct {
	ID               uuid.UUID
	TimeCreated      time.Time
	Status           OrderStatus
	ItemsMap         map[uuid.UUID]int
	DeliveryDuration *time.Duration
	PaymentHistory   []PaymentLogRecord
}

// Total sums price*amount over the order's item snapshot against a
// catalog lookup; items missing from the catalog count as zero. No stage
// calls it: OrderPayment mirrors spend() from the payment record's amount.
func (o *Order) Total(catalog map[uuid.UUID]Item) int {
	total := 0
	for itemID, amount := range o.ItemsMap {
		if it, ok := catalog[itemID]; ok {
			total += it.Price * amount
		}
	}
	return total
}
