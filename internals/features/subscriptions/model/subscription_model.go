package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SubscriptionTypeQuran    = "quran"
	SubscriptionTypeAcademic = "academic"
	SubscriptionTypeCourse   = "course"
)

// Metadata keys (JSONB). grace_period_ends_at diisi admin untuk mengecualikan
// pending row dari expiry sweep.
const (
	MetaGracePeriodEndsAt       = "grace_period_ends_at"
	MetaLastRenewalFailureAt    = "last_renewal_failure_at"
	MetaLastRenewalFailureCause = "last_renewal_failure_reason"
)

const PauseReasonQuotaExhausted = "session quota exhausted - awaiting renewal"

var ErrNoSessionsRemaining = errors.New("no sessions remaining in subscription")

// SubscriptionModel adalah akses berbayar seorang student ke satu offering
// (quran circle / academic lesson / course) di dalam satu academy.
//
// Invariant: per (academy, student, offering) maksimal satu row ACTIVE dan
// satu row PENDING yang belum kedaluwarsa — dijaga DuplicateGuard, bukan
// constraint DB, karena pending lama dibersihkan lewat sweep.
type SubscriptionModel struct {
	SubscriptionID uuid.UUID `gorm:"column:subscription_id;type:uuid;default:gen_random_uuid();primaryKey" json:"subscription_id"`

	SubscriptionAcademyID uuid.UUID `gorm:"column:subscription_academy_id;type:uuid;not null;index:idx_subscription_offering" json:"subscription_academy_id"`
	SubscriptionStudentID uuid.UUID `gorm:"column:subscription_student_id;type:uuid;not null;index:idx_subscription_offering" json:"subscription_student_id"`

	// Offering key: tepat satu yang terisi sesuai type.
	SubscriptionType     string     `gorm:"column:subscription_type;type:varchar(20);not null;default:'quran'" json:"subscription_type"`
	SubscriptionCircleID *uuid.UUID `gorm:"column:subscription_circle_id;type:uuid;index:idx_subscription_offering" json:"subscription_circle_id,omitempty"`
	SubscriptionCourseID *uuid.UUID `gorm:"column:subscription_course_id;type:uuid;index:idx_subscription_offering" json:"subscription_course_id,omitempty"`

	SubscriptionCode string `gorm:"column:subscription_code;type:text;not null;uniqueIndex" json:"subscription_code"`

	SubscriptionStatus        SubscriptionStatus        `gorm:"column:subscription_status;type:varchar(20);not null;default:'pending';index" json:"subscription_status"`
	SubscriptionPaymentStatus SubscriptionPaymentStatus `gorm:"column:subscription_payment_status;type:varchar(20);not null;default:'pending'" json:"subscription_payment_status"`

	SubscriptionBillingCycle BillingCycle `gorm:"column:subscription_billing_cycle;type:varchar(20);not null;default:'monthly'" json:"subscription_billing_cycle"`
	SubscriptionAutoRenew    bool         `gorm:"column:subscription_auto_renew;not null;default:false" json:"subscription_auto_renew"`

	SubscriptionPrice    float64 `gorm:"column:subscription_price;type:numeric(10,2);not null;default:0" json:"subscription_price"`
	SubscriptionCurrency string  `gorm:"column:subscription_currency;type:varchar(3);not null;default:'SAR'" json:"subscription_currency"`

	// Token payment method tersimpan (untuk charge renewal tanpa interaksi).
	SubscriptionPaymentToken *string `gorm:"column:subscription_payment_token;type:text" json:"-"`

	SubscriptionStartsAt        *time.Time `gorm:"column:subscription_starts_at" json:"subscription_starts_at,omitempty"`
	SubscriptionEndsAt          *time.Time `gorm:"column:subscription_ends_at;index" json:"subscription_ends_at,omitempty"`
	SubscriptionNextBillingDate *time.Time `gorm:"column:subscription_next_billing_date;index" json:"subscription_next_billing_date,omitempty"`
	SubscriptionLastPaymentDate *time.Time `gorm:"column:subscription_last_payment_date" json:"subscription_last_payment_date,omitempty"`

	SubscriptionRenewalReminderSentAt *time.Time `gorm:"column:subscription_renewal_reminder_sent_at" json:"subscription_renewal_reminder_sent_at,omitempty"`

	// Kuota session (offering berbasis session: quran/academic).
	SubscriptionSessionsPerCycle  int        `gorm:"column:subscription_sessions_per_cycle;not null;default:0" json:"subscription_sessions_per_cycle"`
	SubscriptionSessionsTotal     int        `gorm:"column:subscription_sessions_total;not null;default:0" json:"subscription_sessions_total"`
	SubscriptionSessionsUsed      int        `gorm:"column:subscription_sessions_used;not null;default:0" json:"subscription_sessions_used"`
	SubscriptionSessionsRemaining int        `gorm:"column:subscription_sessions_remaining;not null;default:0" json:"subscription_sessions_remaining"`
	SubscriptionLastSessionAt     *time.Time `gorm:"column:subscription_last_session_at" json:"subscription_last_session_at,omitempty"`

	// Pause / cancel bookkeeping
	SubscriptionPausedAt           *time.Time `gorm:"column:subscription_paused_at" json:"subscription_paused_at,omitempty"`
	SubscriptionPauseReason        *string    `gorm:"column:subscription_pause_reason;type:text" json:"subscription_pause_reason,omitempty"`
	SubscriptionCancelledAt        *time.Time `gorm:"column:subscription_cancelled_at" json:"subscription_cancelled_at,omitempty"`
	SubscriptionCancellationReason *string    `gorm:"column:subscription_cancellation_reason;type:text" json:"subscription_cancellation_reason,omitempty"`

	SubscriptionMetadata datatypes.JSON `gorm:"column:subscription_metadata;type:jsonb" json:"subscription_metadata,omitempty"`

	SubscriptionCreatedAt time.Time      `gorm:"column:subscription_created_at;autoCreateTime;index" json:"subscription_created_at"`
	SubscriptionUpdatedAt *time.Time     `gorm:"column:subscription_updated_at;autoUpdateTime" json:"subscription_updated_at,omitempty"`
	SubscriptionDeletedAt gorm.DeletedAt `gorm:"column:subscription_deleted_at;index" json:"subscription_deleted_at,omitempty"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

func (s *SubscriptionModel) IsSessionBased() bool {
	return s.SubscriptionType == SubscriptionTypeQuran || s.SubscriptionType == SubscriptionTypeAcademic
}

/* ===============================
   Metadata helpers (JSONB)
=================================*/

func (s *SubscriptionModel) MetadataMap() map[string]interface{} {
	m := map[string]interface{}{}
	if len(s.SubscriptionMetadata) > 0 {
		_ = json.Unmarshal(s.SubscriptionMetadata, &m)
	}
	return m
}

func (s *SubscriptionModel) SetMetadataMap(m map[string]interface{}) {
	if len(m) == 0 {
		s.SubscriptionMetadata = nil
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	s.SubscriptionMetadata = datatypes.JSON(raw)
}

// HasGracePeriodMarker: admin memberi tenggang manual → row pending
// dikecualikan dari expiry sweep.
func (s *SubscriptionModel) HasGracePeriodMarker() bool {
	v, ok := s.MetadataMap()[MetaGracePeriodEndsAt]
	if !ok {
		return false
	}
	str, ok := v.(string)
	return ok && str != ""
}

/* ===============================
   Renewal state machine (pure mutations —
   service layer yang membungkus tx + lock + persist)
=================================*/

// CanAttemptRenewal: auto-renew on, status active, cycle recurring.
func (s *SubscriptionModel) CanAttemptRenewal() bool {
	if !s.SubscriptionAutoRenew {
		return false
	}
	if s.SubscriptionStatus != SubscriptionStatusActive {
		return false
	}
	return s.SubscriptionBillingCycle.SupportsAutoRenewal()
}

// ApplyRenewalSuccess menulis hasil renewal sukses ke model.
// ends_at baru = ends_at LAMA + satu periode (billing anchor dipertahankan,
// renewal yang jalan terlambat tidak menggeser tanggal tagihan).
func (s *SubscriptionModel) ApplyRenewalSuccess(now time.Time) error {
	if !s.SubscriptionBillingCycle.SupportsAutoRenewal() {
		return errors.New("billing cycle does not support renewal")
	}

	base := now
	if s.SubscriptionEndsAt != nil {
		base = *s.SubscriptionEndsAt
	}
	newEnd := s.SubscriptionBillingCycle.AddPeriod(base)

	s.SubscriptionStatus = SubscriptionStatusActive
	s.SubscriptionPaymentStatus = PaymentStatusPaid
	s.SubscriptionLastPaymentDate = &now
	s.SubscriptionEndsAt = &newEnd
	s.SubscriptionNextBillingDate = &newEnd
	s.SubscriptionRenewalReminderSentAt = nil

	// Bersihkan jejak kegagalan / grace marker setelah pembayaran berhasil.
	meta := s.MetadataMap()
	delete(meta, MetaLastRenewalFailureAt)
	delete(meta, MetaLastRenewalFailureCause)
	delete(meta, MetaGracePeriodEndsAt)
	s.SetMetadataMap(meta)

	// Offering berbasis session dapat batch kuota baru.
	s.ExtendSessionsOnRenewal()

	return nil
}

// ExtendSessionsOnRenewal: default no-op untuk course; offering berbasis
// session mendapat sessions_per_cycle kredit baru.
func (s *SubscriptionModel) ExtendSessionsOnRenewal() {
	if !s.IsSessionBased() || s.SubscriptionSessionsPerCycle <= 0 {
		return
	}
	s.SubscriptionSessionsTotal += s.SubscriptionSessionsPerCycle
	s.SubscriptionSessionsRemaining += s.SubscriptionSessionsPerCycle

	// Kalau sebelumnya di-pause karena kuota habis, aktifkan lagi.
	if s.SubscriptionStatus == SubscriptionStatusPaused &&
		s.SubscriptionPauseReason != nil && *s.SubscriptionPauseReason == PauseReasonQuotaExhausted {
		s.SubscriptionStatus = SubscriptionStatusActive
		s.SubscriptionPausedAt = nil
		s.SubscriptionPauseReason = nil
	}
}

// ApplyRenewalFailure: kebijakan fail-closed TANPA grace period — satu kali
// gagal bayar langsung cancel permanen (student harus subscribe ulang manual).
// Ini aturan bisnis yang disengaja, bukan bug.
func (s *SubscriptionModel) ApplyRenewalFailure(reason string, now time.Time) {
	s.SubscriptionStatus = SubscriptionStatusCancelled
	s.SubscriptionPaymentStatus = PaymentStatusFailed
	s.SubscriptionAutoRenew = false
	s.SubscriptionCancelledAt = &now
	r := "renewal payment failed: " + reason
	s.SubscriptionCancellationReason = &r

	meta := s.MetadataMap()
	meta[MetaLastRenewalFailureAt] = now.Format(time.RFC3339)
	meta[MetaLastRenewalFailureCause] = reason
	s.SetMetadataMap(meta)
}

/* ===============================
   Quota consumption (pure mutations)
=================================*/

// UseOneSession mengonsumsi satu unit kuota. Error kalau kuota habis —
// caller (usage counter) akan rollback dan membiarkan session tetap uncounted.
func (s *SubscriptionModel) UseOneSession(now time.Time) error {
	if s.SubscriptionSessionsRemaining <= 0 {
		return ErrNoSessionsRemaining
	}

	s.SubscriptionSessionsUsed++
	s.SubscriptionSessionsRemaining--
	s.SubscriptionLastSessionAt = &now

	// Kuota habis → pause menunggu renewal.
	if s.SubscriptionSessionsRemaining <= 0 {
		reason := PauseReasonQuotaExhausted
		s.SubscriptionStatus = SubscriptionStatusPaused
		s.SubscriptionPausedAt = &now
		s.SubscriptionPauseReason = &reason
	}
	return nil
}

// ReturnOneSession mengembalikan satu unit (koreksi / un-cancel).
func (s *SubscriptionModel) ReturnOneSession() {
	if s.SubscriptionSessionsUsed > 0 {
		s.SubscriptionSessionsUsed--
	}
	s.SubscriptionSessionsRemaining++

	if s.SubscriptionStatus == SubscriptionStatusPaused &&
		s.SubscriptionPauseReason != nil && *s.SubscriptionPauseReason == PauseReasonQuotaExhausted {
		s.SubscriptionStatus = SubscriptionStatusActive
		s.SubscriptionPausedAt = nil
		s.SubscriptionPauseReason = nil
	}
}

/* ===============================
   Pending expiry (duplicate guard)
=================================*/

// IsPendingAndExpired: pending lebih tua dari window dianggap checkout yang
// ditinggalkan. Row dengan grace marker dari admin dikecualikan.
func (s *SubscriptionModel) IsPendingAndExpired(window time.Duration, now time.Time) bool {
	if s.SubscriptionStatus != SubscriptionStatusPending {
		return false
	}
	if s.HasGracePeriodMarker() {
		return false
	}
	return now.Sub(s.SubscriptionCreatedAt) > window
}
