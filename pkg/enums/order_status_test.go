package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusOpen, OrderStatusInProduction, true},
		{OrderStatusOpen, OrderStatusCancelled, true},
		{OrderStatusOpen, OrderStatusShipped, false},
		{OrderStatusInProduction, OrderStatusInvoiced, true},
		{OrderStatusInProduction, OrderStatusShipped, true},
		{OrderStatusInProduction, OrderStatusCancelled, true},
		{OrderStatusInvoiced, OrderStatusShipped, true},
		{OrderStatusInvoiced, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusClosed, false},
		{OrderStatusCancelled, OrderStatusOpen, false},
		{OrderStatusClosed, OrderStatusOpen, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusClosed, OrderStatusCancelled} {
		assert.True(t, s.IsTerminal(), s.String())
		assert.Empty(t, s.NextStatuses(), s.String())
	}
	for _, s := range []OrderStatus{OrderStatusOpen, OrderStatusInProduction, OrderStatusShipped, OrderStatusInvoiced} {
		assert.False(t, s.IsTerminal(), s.String())
		assert.True(t, s.CanTransitionTo(OrderStatusCancelled), s.String())
	}
}

func TestNextStatusesReturnsCopy(t *testing.T) {
	next := OrderStatusOpen.NextStatuses()
	require.Len(t, next, 2)
	next[0] = OrderStatusClosed
	assert.True(t, OrderStatusOpen.CanTransitionTo(OrderStatusInProduction))
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("2")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusInProduction, s)

	s, err = ParseOrderStatus("cancelado")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, s)

	_, err = ParseOrderStatus("9")
	assert.Error(t, err)
	_, err = ParseOrderStatus("2x")
	assert.Error(t, err)
	assert.False(t, OrderStatus(0).IsValid())
	assert.Equal(t, "OrderStatus(42)", OrderStatus(42).String())
}

func TestParseUserRole(t *testing.T) {
	r, err := ParseUserRole("branch")
	require.NoError(t, err)
	assert.Equal(t, UserRoleBranch, r)
	_, err = ParseUserRole("root")
	assert.Error(t, err)
}
