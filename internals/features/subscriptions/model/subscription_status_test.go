package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusTransitions(t *testing.T) {
	cases := []struct {
		from    SubscriptionStatus
		to      SubscriptionStatus
		allowed bool
	}{
		{SubscriptionStatusPending, SubscriptionStatusActive, true},
		{SubscriptionStatusPending, SubscriptionStatusCancelled, true},
		{SubscriptionStatusPending, SubscriptionStatusExpired, true},
		{SubscriptionStatusPending, SubscriptionStatusPaused, false},
		{SubscriptionStatusActive, SubscriptionStatusPaused, true},
		{SubscriptionStatusActive, SubscriptionStatusCancelled, true},
		{SubscriptionStatusActive, SubscriptionStatusRefunded, true},
		{SubscriptionStatusPaused, SubscriptionStatusActive, true},
		{SubscriptionStatusPaused, SubscriptionStatusCompleted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestSubscriptionStatusTerminalIsPermanent(t *testing.T) {
	terminals := []SubscriptionStatus{
		SubscriptionStatusCancelled,
		SubscriptionStatusCompleted,
		SubscriptionStatusExpired,
		SubscriptionStatusRefunded,
	}
	all := []SubscriptionStatus{
		SubscriptionStatusPending, SubscriptionStatusActive, SubscriptionStatusPaused,
		SubscriptionStatusCancelled, SubscriptionStatusCompleted,
		SubscriptionStatusExpired, SubscriptionStatusRefunded,
	}

	for _, terminal := range terminals {
		assert.True(t, terminal.IsTerminal())
		for _, target := range all {
			assert.False(t, terminal.CanTransitionTo(target),
				"terminal %s must not transition to %s", terminal, target)
		}
	}
}

func TestSubscriptionStatusCanAccess(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.CanAccess())
	assert.False(t, SubscriptionStatusPending.CanAccess())
	assert.False(t, SubscriptionStatusPaused.CanAccess())
	assert.False(t, SubscriptionStatusCancelled.CanAccess())
}

func TestBillingCycleAddPeriod(t *testing.T) {
	anchor := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC), BillingCycleMonthly.AddPeriod(anchor))
	assert.Equal(t, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC), BillingCycleQuarterly.AddPeriod(anchor))
	assert.Equal(t, time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC), BillingCycleYearly.AddPeriod(anchor))
	// lifetime tidak punya periode.
	assert.Equal(t, anchor, BillingCycleLifetime.AddPeriod(anchor))
}

func TestBillingCycleSupportsAutoRenewal(t *testing.T) {
	assert.True(t, BillingCycleMonthly.SupportsAutoRenewal())
	assert.True(t, BillingCycleQuarterly.SupportsAutoRenewal())
	assert.True(t, BillingCycleYearly.SupportsAutoRenewal())
	assert.False(t, BillingCycleLifetime.SupportsAutoRenewal())
}

func TestBillingCycleValid(t *testing.T) {
	assert.True(t, BillingCycleMonthly.Valid())
	assert.True(t, BillingCycleLifetime.Valid())
	assert.False(t, BillingCycle("weekly").Valid())
}
