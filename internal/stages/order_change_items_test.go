package stages

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/stage"
)

func TestOrderChangeItemsAfterFinalization_SkippedByProbability(t *testing.T) {
	deps := newTestDeps()
	deps.ChangeItemsProbability = 0

	s := OrderChangeItemsAfterFinalization{Deps: deps}
	tc := models.NewTestContext("svc")
	result := s.Run(context.Background(), tc, &fakeAPI{})

	assert.Equal(t, stage.Continue, result)
	assert.False(t, tc.FinalizationNeeded())
}

func TestOrderChangeItemsAfterFinalization_MarksNeedsRefinalization(t *testing.T) {
	deps := newTestDeps()
	deps.ChangeItemsProbability = 1

	userID, orderID, itemID := uuid.New(), uuid.New(), uuid.New()

	api := &fakeAPI{
		getAvailableItems: func(ctx context.Context, u uuid.UUID) ([]models.Item, error) {
			return []models.Item{{ID: itemID, Title: "widget", Price: 1, Amount: 10}}, nil
		},
		putItemToOrder: func(ctx context.Context, u, o, i uuid.UUID, amount int) (bool, error) {
			return true, nil
		},
	}

	tc := models.NewTestContext("svc")
	require.NoError(t, tc.SetUserID(userID))
	require.NoError(t, tc.SetOrderID(orderID))

	s := OrderChangeItemsAfterFinalization{Deps: deps}
	result := s.Run(context.Background(), tc, api)

	assert.Equal(t, stage.Continue, result)
	assert.True(t, tc.WasChangedAfterFinalization())
	assert.True(t, tc.FinalizationNeeded())
	assert.True(t, tc.StageCompleted("OrderChangeItemsAfterFinalization"))
}
