package ordercache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kstepanov/bombardier/internal/models"
)

func TestPutAndGet(t *testing.T) {
	c := New()
	order := models.Order{ID: uuid.New(), Status: models.Collecting()}

	_, ok := c.Get("svc", order.ID)
	assert.False(t, ok)

	c.Put("svc", order)
	got, ok := c.Get("svc", order.ID)
	assert.True(t, ok)
	assert.Equal(t, order.ID, got.ID)
}

func TestIsolatedPerService(t *testing.T) {
	c := New()
	order := models.Order{ID: uuid.New(), Status: models.Collecting()}

	c.Put("svc-a", order)
	_, ok := c.Get("svc-b", order.ID)
	assert.False(t, ok)
}
