// Package userpool implements the User Pool & Credit Ledger (spec.md
// §4.4): best-effort pool construction against the target service, and a
// concurrency-safe local mirror of each user's credit balance.
package userpool

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	multierror "github.com/hashicorp/go-multierror"

	"github.com/kstepanov/bombardier/internal/logger"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"go.uber.org/zap"
)

// ErrNoUsersForService is returned by GetRandomUserID when the service's
// pool is empty (spec.md §4.4).
var ErrNoUsersForService = fmt.Errorf("userpool: no users for service")

// ErrUnknownUser is returned by Spend/Refund when the id has no ledger
// entry (spec.md §4.4).
var ErrUnknownUser = fmt.Errorf("userpool: unknown user")

type ledgerEntry struct {
	credit atomic.Int64
}

// Pool is the per-service user id list plus credit ledger. It is safe for
// concurrent use by many worker goroutines.
type Pool struct {
	serviceName string

	mu      sync.RWMutex
	userIDs []uuid.UUID
	ledger  map[uuid.UUID]*ledgerEntry
}

func newPool(serviceName string) *Pool {
	return &Pool{serviceName: serviceName, ledger: make(map[uuid.UUID]*ledgerEntry)}
}

// CreateUsersPool issues n createUser requests via api. Failures are
// logged and skipped — the pool is best-effort and returns whatever
// succeeded, aggregating the skipped failures into a *multierror.Error for
// the caller to log, never to fail the call outright (spec.md §4.4: "the
// pool is best-effort and returns what succeeded").
func CreateUsersPool(ctx context.Context, api serviceapi.ExternalServiceAPI, serviceName string, n int, accountAmount int) (*Pool, error) {
	p := newPool(serviceName)

	var errs *multierror.Error
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s-bombardier-%d", serviceName, i)
		user, err := api.CreateUser(ctx, name, accountAmount)
		if err != nil {
			logger.Log.Warn("userpool: create user failed, skipping",
				zap.String("service", serviceName), zap.Error(err))
			errs = multierror.Append(errs, err)
			continue
		}

		p.mu.Lock()
		p.userIDs = append(p.userIDs, user.ID)
		entry := &ledgerEntry{}
		entry.credit.Store(int64(user.AccountAmount))
		p.ledger[user.ID] = entry
		p.mu.Unlock()
	}

	if errs != nil {
		return p, errs.ErrorOrNil()
	}
	return p, nil
}

// GetRandomUserID uniformly selects one pool member.
func (p *Pool) GetRandomUserID() (uuid.UUID, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.userIDs) == 0 {
		return uuid.UUID{}, ErrNoUsersForService
	}
	return p.userIDs[rand.Intn(len(p.userIDs))], nil
}

// Spend atomically subtracts amount from userID's local credit mirror. It
// does not reject a resulting negative balance: over-withdrawal is a
// harness-visible assertion at the stage level, not a ledger error
// (spec.md §4.4, confirmed as Open Question #3 in DESIGN.md).
func (p *Pool) Spend(userID uuid.UUID, amount int) (int64, error) {
	return p.add(userID, -int64(amount))
}

// Refund atomically adds amount back to userID's local credit mirror.
func (p *Pool) Refund(userID uuid.UUID, amount int) (int64, error) {
	return p.add(userID, int64(amount))
}

func (p *Pool) add(userID uuid.UUID, delta int64) (int64, error) {
	p.mu.RLock()
	entry, ok := p.ledger[userID]
	p.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return entry.credit.Add(delta), nil
}

// Balance reads userID's local credit mirror.
func (p *Pool) Balance(userID uuid.UUID) (int64, error) {
	p.mu.RLock()
	entry, ok := p.ledger[userID]
	p.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return entry.credit.Load(), nil
}

// Size reports the number of successfully created pool members.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.userIDs)
}
