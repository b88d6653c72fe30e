package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TestContext is owned exclusively by the single worker running one test;
// it is passed explicitly into every stage call rather than stashed behind
// an ambient/task-local lookup, per spec.md §9's "neutral strategy" design
// note — this keeps the stage contract free of process-wide globals.
type TestContext struct {
	TestID          uuid.UUID
	ServiceName     string
	PaymentDetails  string
	TestStartTime   time.Time

	StagesComplete []string

	userID  *uuid.UUID
	orderID *uuid.UUID

	wasChangedAfterFinalization bool
	financeNeedsRefinalization  bool
}

func NewTestContext(serviceName string) *TestContext {
	return &TestContext{
		TestID:        uuid.New(),
		ServiceName:   serviceName,
		TestStartTime: time.Now(),
	}
}

// SetUserID assigns the context's user id exactly once, per invariant I5.
func (tc *TestContext) SetUserID(id uuid.UUID) error {
	if tc.userID != nil {
		return fmt.Errorf("testcontext: userID already assigned (%s)", tc.userID)
	}
	tc.userID = &id
	return nil
}

func (tc *TestContext) UserID() (uuid.UUID, bool) {
	if tc.userID == nil {
		return uuid.UUID{}, false
	}
	return *tc.userID, true
}

// SetOrderID assigns the context's order id exactly once, per invariant I5.
func (tc *TestContext) SetOrderID(id uuid.UUID) error {
	if tc.orderID != nil {
		return fmt.Errorf("testcontext: orderID already assigned (%s)", tc.orderID)
	}
	tc.orderID = &id
	return nil
}

func (tc *TestContext) OrderID() (uuid.UUID, bool) {
	if tc.orderID == nil {
		return uuid.UUID{}, false
	}
	return *tc.orderID, true
}

func (tc *TestContext) MarkStageComplete(name string) {
	tc.StagesComplete = append(tc.StagesComplete, name)
}

func (tc *TestContext) StageCompleted(name string) bool {
	for _, n := range tc.StagesComplete {
		if n == name {
			return true
		}
	}
	return false
}

// MarkChangedAfterFinalization records that OrderChangeItemsAfterFinalization
// re-entered collection; FinalizationNeeded then reports true until the
// pipeline re-runs finalization and clears it.
func (tc *TestContext) MarkChangedAfterFinalization() {
	tc.wasChangedAfterFinalization = true
	tc.financeNeedsRefinalization = true
}

func (tc *TestContext) WasChangedAfterFinalization() bool {
	return tc.wasChangedAfterFinalization
}

// FinalizationNeeded is the predicate from spec.md §9: true exactly when
// items changed after an earlier finalization and the pipeline has not yet
// re-run finalization to settle it.
func (tc *TestContext) FinalizationNeeded() bool {
	return tc.financeNeedsRefinalization
}

// ClearFinalizationNeeded is called by OrderFinalizing at the end of each
// run that settles, before OrderSettingDeliverySlots runs again.
func (tc *TestContext) ClearFinalizationNeeded() {
	tc.financeNeedsRefinalization = false
}
