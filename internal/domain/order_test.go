package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

func TestVenueStatusTranslationTable(t *testing.T) {
	cases := map[domain.VenueOrderStatus]domain.OrderState{
		domain.VenueStatusOpen:                domain.StateOpen,
		domain.VenueStatusCancelled:           domain.StateCanceled,
		domain.VenueStatusPartiallyFilled:     domain.StatePartiallyFilled,
		domain.VenueStatusFilled:              domain.StateFilled,
		domain.VenueStatusCreationPending:     domain.StatePendingCreate,
		domain.VenueStatusCancellationPending: domain.StatePendingCancel,
	}

	for status, want := range cases {
		got, err := status.ToOrderState()
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, want, got)
	}
}

func TestVenueStatusUnknownIsHardError(t *testing.T) {
	for _, status := range []domain.VenueOrderStatus{"", "EXPIRED", "open"} {
		_, err := status.ToOrderState()
		require.Error(t, err, "status %q", status)
		assert.ErrorIs(t, err, domain.ErrUnknownOrderStatus)
	}
}

func TestInFlightOrderIsTerminal(t *testing.T) {
	order := &domain.InFlightOrder{State: domain.StateOpen}
	assert.False(t, order.IsTerminal())

	order.State = domain.StatePendingCancel
	assert.False(t, order.IsTerminal())

	order.State = domain.StateFilled
	assert.True(t, order.IsTerminal())

	order.State = domain.StateCanceled
	assert.True(t, order.IsTerminal())
}
