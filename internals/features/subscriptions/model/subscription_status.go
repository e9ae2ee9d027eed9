package model

import "time"

/* ===============================
   SubscriptionStatus
=================================*/

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusRefunded  SubscriptionStatus = "refunded"
)

func (s SubscriptionStatus) String() string { return string(s) }

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPending:   {SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired},
	SubscriptionStatusActive:    {SubscriptionStatusPaused, SubscriptionStatusCancelled, SubscriptionStatusCompleted, SubscriptionStatusExpired, SubscriptionStatusRefunded},
	SubscriptionStatusPaused:    {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusCancelled: {},
	SubscriptionStatusCompleted: {},
	SubscriptionStatusExpired:   {},
	SubscriptionStatusRefunded:  {},
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal: status terminal tidak pernah kembali aktif tanpa subscription baru.
func (s SubscriptionStatus) IsTerminal() bool {
	switch s {
	case SubscriptionStatusCancelled, SubscriptionStatusCompleted, SubscriptionStatusExpired, SubscriptionStatusRefunded:
		return true
	}
	return false
}

// CanAccess: student masih boleh memakai layanan di status ini.
func (s SubscriptionStatus) CanAccess() bool {
	return s == SubscriptionStatusActive
}

/* ===============================
   SubscriptionPaymentStatus
=================================*/

type SubscriptionPaymentStatus string

const (
	PaymentStatusPending  SubscriptionPaymentStatus = "pending"
	PaymentStatusPaid     SubscriptionPaymentStatus = "paid"
	PaymentStatusFailed   SubscriptionPaymentStatus = "failed"
	PaymentStatusRefunded SubscriptionPaymentStatus = "refunded"
)

func (p SubscriptionPaymentStatus) String() string { return string(p) }

/* ===============================
   BillingCycle
=================================*/

type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
	BillingCycleLifetime  BillingCycle = "lifetime"
)

func (b BillingCycle) String() string { return string(b) }

func (b BillingCycle) Valid() bool {
	switch b {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleYearly, BillingCycleLifetime:
		return true
	}
	return false
}

// SupportsAutoRenewal: lifetime tidak punya siklus recurring.
func (b BillingCycle) SupportsAutoRenewal() bool {
	switch b {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleYearly:
		return true
	}
	return false
}

// AddPeriod memajukan t satu periode billing. Dipakai dengan billing anchor
// (ends_at lama), BUKAN time.Now(), supaya tanggal tagihan tidak geser
// walaupun renewal jalan terlambat.
func (b BillingCycle) AddPeriod(t time.Time) time.Time {
	switch b {
	case BillingCycleMonthly:
		return t.AddDate(0, 1, 0)
	case BillingCycleQuarterly:
		return t.AddDate(0, 3, 0)
	case BillingCycleYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}
