// Package orderstate declares the legal OrderStatus transition graph
// (spec.md §4.1) and the one predicate stages consult before accepting a
// status observed from the target service.
package orderstate

import (
	"fmt"

	"github.com/kstepanov/bombardier/internal/models"
)

// ErrUnknownState is returned by IsTransitionAllowed when "from" has no
// entry in the table at all, distinguishing "state unknown" from
// "transition illegal" per spec.md §4.1.
type ErrUnknownState struct {
	From models.Variant
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("orderstate: unknown state %q", e.From)
}

// Machine is immutable after construction; its zero value is not usable,
// use New().
type Machine struct {
	allowed map[models.Variant]map[models.Variant]bool
}

// New builds the authoritative transition table from spec.md §4.1. Any
// variant can transition to Failed; that rule is applied on lookup rather
// than materialized into every row.
func New() *Machine {
	pairs := [][2]models.Variant{
		{models.VariantCollecting, models.VariantBooked},
		{models.VariantCollecting, models.VariantDiscarded},
		{models.VariantBooked, models.VariantCollecting},
		{models.VariantBooked, models.VariantBooked},
		{models.VariantBooked, models.VariantPayed},
		{models.VariantPayed, models.VariantInDelivery},
		{models.VariantInDelivery, models.VariantDelivered},
		{models.VariantInDelivery, models.VariantRefund},
	}

	m := &Machine{allowed: make(map[models.Variant]map[models.Variant]bool)}
	for _, v := range []models.Variant{
		models.VariantCollecting, models.VariantDiscarded, models.VariantBooked,
		models.VariantPayed, models.VariantInDelivery, models.VariantDelivered,
		models.VariantRefund, models.VariantFailed,
	} {
		m.allowed[v] = make(map[models.Variant]bool)
	}
	for _, p := range pairs {
		m.allowed[p[0]][p[1]] = true
	}
	return m
}

// IsTransitionAllowed reports whether from -> to is legal. Any -> Failed
// is always legal (spec.md §4.1, "Any state → Failed is permitted").
func (m *Machine) IsTransitionAllowed(from, to models.Variant) (bool, error) {
	if to == models.VariantFailed {
		return true, nil
	}
	tos, ok := m.allowed[from]
	if !ok {
		return false, &ErrUnknownState{From: from}
	}
	return tos[to], nil
}
