package models

import "time"

// Variant identifies an OrderStatus arm without its payload. The order
// state machine keys its transition table on Variant, never on a full
// OrderStatus instance, per spec.md §9 ("transition table keys on arm
// identity, not on instance").
type Variant string

const (
	VariantCollecting Variant = "COLLECTING"
	VariantDiscarded  Variant = "DISCARDED"
	VariantBooked     Variant = "BOOKED"
	VariantPayed      Variant = "PAYED"
	VariantInDelivery Variant = "IN_DELIVERY"
	VariantDelivered  Variant = "DELIVERED"
	VariantRefund     Variant = "REFUND"
	VariantFailed     Variant = "FAILED"
)

// OrderStatus is the closed sum type from spec.md §3. Only one of the
// payload fields is meaningful, selected by Variant; constructors below
// are the only sanctioned way to build one so a caller can't assemble an
// inconsistent Variant/payload pair.
type OrderStatus struct {
	Variant Variant

	PaymentTime        time.Time
	DeliveryStartTime  time.Time
	DeliveryFinishTime time.Time

	FailReason   string
	PreviousStatus *OrderStatus
}

func Collecting() OrderStatus { return OrderStatus{Variant: VariantCollecting} }
func Discarded() OrderStatus  { return OrderStatus{Variant: VariantDiscarded} }
func Booked() OrderStatus     { return OrderStatus{Variant: VariantBooked} }

func Payed(paymentTime time.Time) OrderStatus {
	return OrderStatus{Variant: VariantPayed, PaymentTime: paymentTime}
}

func InDelivery(deliveryStartTime time.Time) OrderStatus {
	return OrderStatus{Variant: VariantInDelivery, DeliveryStartTime: deliveryStartTime}
}

func Delivered(deliveryStartTime, deliveryFinishTime time.Time) OrderStatus {
	return OrderStatus{
		Variant:            VariantDelivered,
		DeliveryStartTime:  deliveryStartTime,
		DeliveryFinishTime: deliveryFinishTime,
	}
}

func Refund() OrderStatus { return OrderStatus{Variant: VariantRefund} }

func Failed(reason string, previous OrderStatus) OrderStatus {
	return OrderStatus{Variant: VariantFailed, FailReason: reason, PreviousStatus: &previous}
}
