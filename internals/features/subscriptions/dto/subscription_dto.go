package dto

import (
	"time"

	"github.com/google/uuid"

	"tilawa_backend/internals/features/subscriptions/model"
)

/* =========================================================
   REQUEST DTO
========================================================= */

type CreateSubscriptionRequest struct {
	SubscriptionType     string     `json:"subscription_type" validate:"required,oneof=quran academic course"`
	SubscriptionCircleID *uuid.UUID `json:"subscription_circle_id,omitempty"`
	SubscriptionCourseID *uuid.UUID `json:"subscription_course_id,omitempty"`

	SubscriptionBillingCycle model.BillingCycle `json:"subscription_billing_cycle" validate:"required,oneof=monthly quarterly yearly lifetime"`
	SubscriptionAutoRenew    bool               `json:"subscription_auto_renew"`

	SubscriptionPrice    float64 `json:"subscription_price" validate:"required,gt=0"`
	SubscriptionCurrency string  `json:"subscription_currency" validate:"omitempty,len=3"`

	SubscriptionSessionsPerCycle int `json:"subscription_sessions_per_cycle" validate:"omitempty,min=0,max=100"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type PauseSubscriptionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ToggleAutoRenewRequest struct {
	Enabled bool `json:"enabled"`
}

type ChangeBillingCycleRequest struct {
	BillingCycle model.BillingCycle `json:"billing_cycle" validate:"required,oneof=monthly quarterly yearly lifetime"`
}

type ManualRenewalRequest struct {
	Amount       float64             `json:"amount" validate:"required,gt=0"`
	BillingCycle *model.BillingCycle `json:"billing_cycle,omitempty" validate:"omitempty,oneof=monthly quarterly yearly"`
}

/* =========================================================
   RESPONSE DTO
========================================================= */

type SubscriptionResponse struct {
	SubscriptionID   uuid.UUID  `json:"subscription_id"`
	SubscriptionCode string     `json:"subscription_code"`
	SubscriptionType string     `json:"subscription_type"`
	CircleID         *uuid.UUID `json:"subscription_circle_id,omitempty"`
	CourseID         *uuid.UUID `json:"subscription_course_id,omitempty"`

	Status        model.SubscriptionStatus        `json:"subscription_status"`
	PaymentStatus model.SubscriptionPaymentStatus `json:"subscription_payment_status"`

	BillingCycle model.BillingCycle `json:"subscription_billing_cycle"`
	AutoRenew    bool               `json:"subscription_auto_renew"`
	Price        float64            `json:"subscription_price"`
	Currency     string             `json:"subscription_currency"`

	StartsAt        *time.Time `json:"subscription_starts_at,omitempty"`
	EndsAt          *time.Time `json:"subscription_ends_at,omitempty"`
	NextBillingDate *time.Time `json:"subscription_next_billing_date,omitempty"`

	SessionsPerCycle  int `json:"subscription_sessions_per_cycle"`
	SessionsTotal     int `json:"subscription_sessions_total"`
	SessionsUsed      int `json:"subscription_sessions_used"`
	SessionsRemaining int `json:"subscription_sessions_remaining"`

	PausedAt           *time.Time `json:"subscription_paused_at,omitempty"`
	PauseReason        *string    `json:"subscription_pause_reason,omitempty"`
	CancelledAt        *time.Time `json:"subscription_cancelled_at,omitempty"`
	CancellationReason *string    `json:"subscription_cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"subscription_created_at"`
}

// CheckoutResponse: subscription pending + Snap token untuk bayar.
type CheckoutResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	OrderID      string               `json:"order_id"`
	SnapToken    string               `json:"snap_token,omitempty"`
	RedirectURL  string               `json:"redirect_url,omitempty"`
}

func FromModel(s *model.SubscriptionModel) SubscriptionResponse {
	return SubscriptionResponse{
		SubscriptionID:     s.SubscriptionID,
		SubscriptionCode:   s.SubscriptionCode,
		SubscriptionType:   s.SubscriptionType,
		CircleID:           s.SubscriptionCircleID,
		CourseID:           s.SubscriptionCourseID,
		Status:             s.SubscriptionStatus,
		PaymentStatus:      s.SubscriptionPaymentStatus,
		BillingCycle:       s.SubscriptionBillingCycle,
		AutoRenew:          s.SubscriptionAutoRenew,
		Price:              s.SubscriptionPrice,
		Currency:           s.SubscriptionCurrency,
		StartsAt:           s.SubscriptionStartsAt,
		EndsAt:             s.SubscriptionEndsAt,
		NextBillingDate:    s.SubscriptionNextBillingDate,
		SessionsPerCycle:   s.SubscriptionSessionsPerCycle,
		SessionsTotal:      s.SubscriptionSessionsTotal,
		SessionsUsed:       s.SubscriptionSessionsUsed,
		SessionsRemaining:  s.SubscriptionSessionsRemaining,
		PausedAt:           s.SubscriptionPausedAt,
		PauseReason:        s.SubscriptionPauseReason,
		CancelledAt:        s.SubscriptionCancelledAt,
		CancellationReason: s.SubscriptionCancellationReason,
		CreatedAt:          s.SubscriptionCreatedAt,
	}
}

func FromModels(subs []model.SubscriptionModel) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, FromModel(&subs[i]))
	}
	return out
}
