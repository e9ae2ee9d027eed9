package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeMonthlySub(endsAt time.Time) *SubscriptionModel {
	ends := endsAt
	return &SubscriptionModel{
		SubscriptionType:              SubscriptionTypeQuran,
		SubscriptionCode:              "SUB-QUR-TEST",
		SubscriptionStatus:            SubscriptionStatusActive,
		SubscriptionPaymentStatus:     PaymentStatusPaid,
		SubscriptionBillingCycle:      BillingCycleMonthly,
		SubscriptionAutoRenew:         true,
		SubscriptionEndsAt:            &ends,
		SubscriptionNextBillingDate:   &ends,
		SubscriptionSessionsPerCycle:  8,
		SubscriptionSessionsTotal:     8,
		SubscriptionSessionsUsed:      3,
		SubscriptionSessionsRemaining: 5,
	}
}

func TestApplyRenewalSuccessPreservesBillingAnchor(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// renewal jalan terlambat 2 hari dari jadwal.
	now := anchor.Add(48 * time.Hour)

	sub := activeMonthlySub(anchor)
	require.NoError(t, sub.ApplyRenewalSuccess(now))

	expected := anchor.AddDate(0, 1, 0)
	require.NotNil(t, sub.SubscriptionEndsAt)
	assert.Equal(t, expected, *sub.SubscriptionEndsAt, "periode baru diukur dari ends_at lama, bukan dari now")
	assert.Equal(t, expected, *sub.SubscriptionNextBillingDate)

	assert.Equal(t, SubscriptionStatusActive, sub.SubscriptionStatus)
	assert.Equal(t, PaymentStatusPaid, sub.SubscriptionPaymentStatus)
	assert.Equal(t, now, *sub.SubscriptionLastPaymentDate)
	assert.Nil(t, sub.SubscriptionRenewalReminderSentAt)
}

func TestApplyRenewalSuccessExtendsSessionQuota(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := activeMonthlySub(anchor)

	require.NoError(t, sub.ApplyRenewalSuccess(anchor))

	assert.Equal(t, 16, sub.SubscriptionSessionsTotal)
	assert.Equal(t, 13, sub.SubscriptionSessionsRemaining)
	assert.Equal(t, 3, sub.SubscriptionSessionsUsed)
}

func TestApplyRenewalSuccessRejectsLifetime(t *testing.T) {
	sub := activeMonthlySub(time.Now())
	sub.SubscriptionBillingCycle = BillingCycleLifetime

	assert.Error(t, sub.ApplyRenewalSuccess(time.Now()))
}

func TestApplyRenewalSuccessClearsFailureMetadata(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := activeMonthlySub(anchor)
	sub.SetMetadataMap(map[string]interface{}{
		MetaLastRenewalFailureAt:    "2026-02-01T00:00:00Z",
		MetaLastRenewalFailureCause: "card declined",
		MetaGracePeriodEndsAt:       "2026-02-10T00:00:00Z",
	})

	require.NoError(t, sub.ApplyRenewalSuccess(anchor))

	meta := sub.MetadataMap()
	assert.NotContains(t, meta, MetaLastRenewalFailureAt)
	assert.NotContains(t, meta, MetaLastRenewalFailureCause)
	assert.NotContains(t, meta, MetaGracePeriodEndsAt)
}

func TestApplyRenewalFailureCancelsImmediately(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := anchor.Add(time.Hour)
	sub := activeMonthlySub(anchor)

	sub.ApplyRenewalFailure("card declined", now)

	// Satu kali gagal bayar → cancel permanen, tanpa grace period.
	assert.Equal(t, SubscriptionStatusCancelled, sub.SubscriptionStatus)
	assert.Equal(t, PaymentStatusFailed, sub.SubscriptionPaymentStatus)
	assert.False(t, sub.SubscriptionAutoRenew)
	assert.Equal(t, now, *sub.SubscriptionCancelledAt)

	require.NotNil(t, sub.SubscriptionCancellationReason)
	assert.Equal(t, "renewal payment failed: card declined", *sub.SubscriptionCancellationReason)

	meta := sub.MetadataMap()
	assert.Equal(t, "card declined", meta[MetaLastRenewalFailureCause])

	// Terminal: tidak bisa attempt renewal lagi.
	assert.False(t, sub.CanAttemptRenewal())
	assert.False(t, sub.SubscriptionStatus.CanTransitionTo(SubscriptionStatusActive))
}

func TestCanAttemptRenewal(t *testing.T) {
	anchor := time.Now()

	sub := activeMonthlySub(anchor)
	assert.True(t, sub.CanAttemptRenewal())

	off := activeMonthlySub(anchor)
	off.SubscriptionAutoRenew = false
	assert.False(t, off.CanAttemptRenewal())

	paused := activeMonthlySub(anchor)
	paused.SubscriptionStatus = SubscriptionStatusPaused
	assert.False(t, paused.CanAttemptRenewal())

	lifetime := activeMonthlySub(anchor)
	lifetime.SubscriptionBillingCycle = BillingCycleLifetime
	assert.False(t, lifetime.CanAttemptRenewal())
}

func TestUseOneSession(t *testing.T) {
	now := time.Now()
	sub := activeMonthlySub(now)
	sub.SubscriptionSessionsRemaining = 10
	sub.SubscriptionSessionsUsed = 0

	require.NoError(t, sub.UseOneSession(now))

	assert.Equal(t, 1, sub.SubscriptionSessionsUsed)
	assert.Equal(t, 9, sub.SubscriptionSessionsRemaining)
	assert.Equal(t, now, *sub.SubscriptionLastSessionAt)
	assert.Equal(t, SubscriptionStatusActive, sub.SubscriptionStatus)
}

func TestUseOneSessionExhaustionPauses(t *testing.T) {
	now := time.Now()
	sub := activeMonthlySub(now)
	sub.SubscriptionSessionsRemaining = 1
	sub.SubscriptionSessionsUsed = 7

	require.NoError(t, sub.UseOneSession(now))

	assert.Equal(t, 0, sub.SubscriptionSessionsRemaining)
	assert.Equal(t, SubscriptionStatusPaused, sub.SubscriptionStatus)
	require.NotNil(t, sub.SubscriptionPauseReason)
	assert.Equal(t, PauseReasonQuotaExhausted, *sub.SubscriptionPauseReason)

	// Kuota habis → konsumsi berikutnya ditolak.
	err := sub.UseOneSession(now)
	assert.ErrorIs(t, err, ErrNoSessionsRemaining)
	assert.Equal(t, 0, sub.SubscriptionSessionsRemaining)
	assert.Equal(t, 8, sub.SubscriptionSessionsUsed)
}

func TestReturnOneSessionReversesConsumptionAndUnpauses(t *testing.T) {
	now := time.Now()
	sub := activeMonthlySub(now)
	sub.SubscriptionSessionsRemaining = 1
	sub.SubscriptionSessionsUsed = 7
	require.NoError(t, sub.UseOneSession(now))
	require.Equal(t, SubscriptionStatusPaused, sub.SubscriptionStatus)

	sub.ReturnOneSession()

	assert.Equal(t, 1, sub.SubscriptionSessionsRemaining)
	assert.Equal(t, 7, sub.SubscriptionSessionsUsed)
	assert.Equal(t, SubscriptionStatusActive, sub.SubscriptionStatus)
	assert.Nil(t, sub.SubscriptionPauseReason)
}

func TestRenewalAfterQuotaExhaustionReactivates(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := activeMonthlySub(anchor)
	sub.SubscriptionSessionsRemaining = 1
	sub.SubscriptionSessionsUsed = 7
	require.NoError(t, sub.UseOneSession(anchor))
	require.Equal(t, SubscriptionStatusPaused, sub.SubscriptionStatus)

	require.NoError(t, sub.ApplyRenewalSuccess(anchor))

	assert.Equal(t, SubscriptionStatusActive, sub.SubscriptionStatus)
	assert.Equal(t, 8, sub.SubscriptionSessionsRemaining)
}

func TestExtendSessionsOnRenewalIgnoresCourse(t *testing.T) {
	sub := activeMonthlySub(time.Now())
	sub.SubscriptionType = SubscriptionTypeCourse

	sub.ExtendSessionsOnRenewal()

	assert.Equal(t, 8, sub.SubscriptionSessionsTotal)
	assert.Equal(t, 5, sub.SubscriptionSessionsRemaining)
}

func TestIsPendingAndExpired(t *testing.T) {
	now := time.Now()
	window := 48 * time.Hour

	fresh := &SubscriptionModel{
		SubscriptionStatus:    SubscriptionStatusPending,
		SubscriptionCreatedAt: now.Add(-1 * time.Hour),
	}
	assert.False(t, fresh.IsPendingAndExpired(window, now))

	stale := &SubscriptionModel{
		SubscriptionStatus:    SubscriptionStatusPending,
		SubscriptionCreatedAt: now.Add(-72 * time.Hour),
	}
	assert.True(t, stale.IsPendingAndExpired(window, now))

	// Grace marker dari admin mengecualikan row dari sweep.
	graced := &SubscriptionModel{
		SubscriptionStatus:    SubscriptionStatusPending,
		SubscriptionCreatedAt: now.Add(-72 * time.Hour),
	}
	graced.SetMetadataMap(map[string]interface{}{
		MetaGracePeriodEndsAt: now.Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.False(t, graced.IsPendingAndExpired(window, now))

	active := &SubscriptionModel{
		SubscriptionStatus:    SubscriptionStatusActive,
		SubscriptionCreatedAt: now.Add(-72 * time.Hour),
	}
	assert.False(t, active.IsPendingAndExpired(window, now))
}

func TestMetadataRoundTrip(t *testing.T) {
	sub := &SubscriptionModel{}
	assert.Empty(t, sub.MetadataMap())
	assert.False(t, sub.HasGracePeriodMarker())

	sub.SetMetadataMap(map[string]interface{}{MetaGracePeriodEndsAt: "2026-09-10T00:00:00Z"})
	assert.True(t, sub.HasGracePeriodMarker())

	sub.SetMetadataMap(nil)
	assert.False(t, sub.HasGracePeriodMarker())
}
