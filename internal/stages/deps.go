// Package stages holds the concrete pipeline steps from spec.md §4.8, in
// the order the Test Controller runs them: ChooseUserAccount,
// OrderCreation, OrderCollecting, OrderAbandoned (probabilistic),
// OrderFinalizing, OrderSettingDeliverySlots,
// OrderChangeItemsAfterFinalization (probabilistic, loops back to
// finalizing+slots), OrderPayment, OrderDelivery.
package stages

import (
	"math/rand"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/ordercache"
	"github.com/kstepanov/bombardier/internal/orderstate"
	"github.com/kstepanov/bombardier/internal/stage"
	"github.com/kstepanov/bombardier/internal/userpool"
)

// Deps bundles the shared, concurrency-safe resources every stage reads
// or writes: the user pool/credit ledger (D), the order cache (E), and
// the order state machine (C). One Deps is built per service flow and
// handed to every worker's freshly built pipeline; stages themselves stay
// stateless with respect to any one test (spec.md §4.9).
type Deps struct {
	Pool    *userpool.Pool
	Cache   *ordercache.Cache
	Machine *orderstate.Machine

	// MaxItemsPerOrder bounds OrderCollecting's random item count
	// (spec.md §4.8 #3: "a random number (1-N)").
	MaxItemsPerOrder int
	// AbandonProbability is OrderAbandoned's chance of running at all
	// (spec.md §4.8 #4: "probabilistic, 50%").
	AbandonProbability float64
	// ChangeItemsProbability is OrderChangeItemsAfterFinalization's
	// chance of running (spec.md §4.8 #7: "probabilistic").
	ChangeItemsProbability float64
}

// DefaultDeps fills in the spec's stated defaults, leaving Pool/Cache/
// Machine for the caller to set.
func DefaultDeps() Deps {
	return Deps{
		MaxItemsPerOrder:       5,
		AbandonProbability:     0.5,
		ChangeItemsProbability: 0.2,
	}
}

func probTrue(p float64) bool {
	return rand.Float64() < p
}

// observeOrder is the single choke point every stage uses instead of a
// raw Cache.Put: it checks the freshly read status against whatever was
// last cached for the same order through the state machine (C), enforcing
// invariant I1 ("every sequence of status transitions observed for a
// single order is a path in the legal transition graph") as a byproduct
// of ordinary cache writes rather than as a separate audit pass. An
// illegal transition raises the business failure spec.md §4.1 names:
// E_ILLEGAL_ORDER_TRANSITION.
//
// A re-read that reports the same Variant as the last cached snapshot is
// not a transition at all (awaiter polling re-observes a stalled status
// constantly) and is never checked against the table, for any variant.
// Booked -> Booked is also a legal entry in the table (still awaiting
// payment within deadline), so for that state the skip gives the same
// answer a lookup would.
func (d Deps) observeOrder(serviceName string, order models.Order) {
	if prev, ok := d.Cache.Get(serviceName, order.ID); ok && prev.Status.Variant != order.Status.Variant {
		allowed, err := d.Machine.IsTransitionAllowed(prev.Status.Variant, order.Status.Variant)
		if err != nil {
			panic(err)
		}
		if !allowed {
			failNow(stage.CodeIllegalOrderTransition, "order %s: %s -> %s is not a legal transition",
				order.ID, prev.Status.Variant, order.Status.Variant)
		}
	}
	d.Cache.Put(serviceName, order)
}
