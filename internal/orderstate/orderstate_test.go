package orderstate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstepanov/bombardier/internal/models"
)

func TestIsTransitionAllowed_LegalPairs(t *testing.T) {
	m := New()

	tests := []struct {
		name string
		from models.Variant
		to   models.Variant
	}{
		{"collecting to booked", models.VariantCollecting, models.VariantBooked},
		{"collecting to discarded", models.VariantCollecting, models.VariantDiscarded},
		{"booked to collecting", models.VariantBooked, models.VariantCollecting},
		{"booked self loop", models.VariantBooked, models.VariantBooked},
		{"booked to payed", models.VariantBooked, models.VariantPayed},
		{"payed to in delivery", models.VariantPayed, models.VariantInDelivery},
		{"in delivery to delivered", models.VariantInDelivery, models.VariantDelivered},
		{"in delivery to refund", models.VariantInDelivery, models.VariantRefund},
		{"any to failed", models.VariantCollecting, models.VariantFailed},
		{"delivered to failed", models.VariantDelivered, models.VariantFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := m.IsTransitionAllowed(tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestIsTransitionAllowed_IllegalPairs(t *testing.T) {
	m := New()

	ok, err := m.IsTransitionAllowed(models.VariantCollecting, models.VariantDelivered)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.IsTransitionAllowed(models.VariantBooked, models.VariantDelivered)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsTransitionAllowed_UnknownState(t *testing.T) {
	m := New()

	_, err := m.IsTransitionAllowed(models.Variant("BOGUS"), models.VariantBooked)
	require.Error(t, err)
	var unknown *ErrUnknownState
	assert.True(t, errors.As(err, &unknown))
}
