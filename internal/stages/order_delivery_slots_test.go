package stages

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/stage"
)

func TestOrderSettingDeliverySlots_HappyPath(t *testing.T) {
	deps := newTestDeps()
	userID, orderID := uuid.New(), uuid.New()

	api := &fakeAPI{
		getDeliverySlots: func(ctx context.Context, o uuid.UUID) ([]int, error) {
			return []int{60}, nil
		},
		setDeliveryTime: func(ctx context.Context, o uuid.UUID, seconds int64) error {
			assert.Equal(t, int64(60), seconds)
			return nil
		},
		getOrder: func(ctx context.Context, u, o uuid.UUID) (models.Order, error) {
			d := 60 * time.Second
			return models.Order{ID: orderID, Status: models.Booked(), DeliveryDuration: &d}, nil
		},
	}

	tc := models.NewTestContext("svc")
	require.NoError(t, tc.SetUserID(userID))
	require.NoError(t, tc.SetOrderID(orderID))

	s := OrderSettingDeliverySlots{Deps: deps}
	result := s.Run(context.Background(), tc, api)

	assert.Equal(t, stage.Continue, result)
	assert.True(t, tc.StageCompleted("OrderSettingDeliverySlots"))
}

func TestOrderSettingDeliverySlots_NotObservablePanics(t *testing.T) {
	deps := newTestDeps()
	userID, orderID := uuid.New(), uuid.New()

	api := &fakeAPI{
		getDeliverySlots: func(ctx context.Context, o uuid.UUID) ([]int, error) {
			return []int{60}, nil
		},
		setDeliveryTime: func(ctx context.Context, o uuid.UUID, seconds int64) error {
			return nil
		},
		getOrder: func(ctx context.Context, u, o uuid.UUID) (models.Order, error) {
			return models.Order{ID: orderID, Status: models.Booked(), DeliveryDuration: nil}, nil
		},
	}

	tc := models.NewTestContext("svc")
	require.NoError(t, tc.SetUserID(userID))
	require.NoError(t, tc.SetOrderID(orderID))

	s := OrderSettingDeliverySlots{Deps: deps}
	assert.Panics(t, func() { s.Run(context.Background(), tc, api) })
}
