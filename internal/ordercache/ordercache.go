// Package ordercache implements the Order Cache (spec.md §4.5): a
// per-service mapping from order id to the last-seen Order snapshot.
// Writers are stages that just called the external service for that
// order; readers are other stages in the same test. Stale reads are
// acceptable per spec — the target service is always the source of
// truth — so this is backed by a bounded LRU rather than an unbounded
// map, trading a little staleness under memory pressure for a library
// the pack already supplies (github.com/hashicorp/golang-lru, a direct
// dependency of armadaproject-armada).
package ordercache

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/kstepanov/bombardier/internal/models"
)

// DefaultSize bounds each per-service cache; it comfortably covers the
// default worker-pool fan-out (100 concurrent in-flight orders per flow)
// with headroom for bursty reuse.
const DefaultSize = 4096

// Cache is a registry of one bounded LRU per service name.
type Cache struct {
	mu    sync.Mutex
	byService map[string]*lru.Cache
	size  int
}

func New() *Cache {
	return &Cache{byService: make(map[string]*lru.Cache), size: DefaultSize}
}

func (c *Cache) forService(serviceName string) *lru.Cache {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.byService[serviceName]
	if !ok {
		// lru.New only errors on a non-positive size, which DefaultSize
		// never is, so the error is safe to discard here.
		l, _ = lru.New(c.size)
		c.byService[serviceName] = l
	}
	return l
}

// Put records the last-seen snapshot for orderID under serviceName.
func (c *Cache) Put(serviceName string, order models.Order) {
	c.forService(serviceName).Add(order.ID, order)
}

// Get returns the last-seen snapshot for orderID, if any is cached.
// Cache misses are expected and fall through to the external service.
func (c *Cache) Get(serviceName string, orderID uuid.UUID) (models.Order, bool) {
	v, ok := c.forService(serviceName).Get(orderID)
	if !ok {
		return models.Order{}, false
	}
	return v.(models.Order), true
}
