package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	subModel "tilawa_backend/internals/features/subscriptions/model"
)

// SubscriptionService mengelola lifecycle subscription di luar renewal:
// checkout create (duplicate guard dikonsultasikan), aktivasi saat pembayaran
// terkonfirmasi, cancel/pause/resume, dan query untuk scheduler.
type SubscriptionService struct {
	DB       *gorm.DB
	Guard    *DuplicateGuard
	Notifier Notifier
}

func NewSubscriptionService(db *gorm.DB, guard *DuplicateGuard, notifier Notifier) *SubscriptionService {
	return &SubscriptionService{DB: db, Guard: guard, Notifier: notifier}
}

// OfferingKeyFor membangun key duplicate-guard dari sebuah row subscription.
func OfferingKeyFor(sub *subModel.SubscriptionModel) OfferingKey {
	return OfferingKey{
		AcademyID: sub.SubscriptionAcademyID,
		StudentID: sub.SubscriptionStudentID,
		CircleID:  sub.SubscriptionCircleID,
		CourseID:  sub.SubscriptionCourseID,
	}
}

// GenerateSubscriptionCode: SUB-<PREFIX>-<unix>-<4 char acak dari uuid>.
func GenerateSubscriptionCode(subType string) string {
	prefix := strings.ToUpper(subType)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return fmt.Sprintf("SUB-%s-%d-%s", prefix, time.Now().Unix(), suffix)
}

// Create membuat subscription pending baru (awal checkout).
//
// Guard dikonsultasikan dulu:
//   - ada ACTIVE ke offering sama → tolak;
//   - ada PENDING lain: kalau sudah kedaluwarsa → auto-cancel lalu lanjut,
//     kalau masih fresh → tolak (selesaikan checkout yang lama dulu).
func (ss *SubscriptionService) Create(ctx context.Context, sub *subModel.SubscriptionModel) error {
	key := OfferingKeyFor(sub)

	if dupActive, err := ss.Guard.FindDuplicateActive(ctx, key, uuid.Nil); err != nil {
		return err
	} else if dupActive != nil {
		return fmt.Errorf("student already has an active subscription %s for this offering", dupActive.SubscriptionCode)
	}

	if dupPending, err := ss.Guard.FindDuplicatePending(ctx, key, uuid.Nil); err != nil {
		return err
	} else if dupPending != nil {
		if dupPending.IsPendingAndExpired(ss.Guard.ExpiryWindow, time.Now()) {
			if err := ss.Guard.CancelAsDuplicateOrExpired(ctx, dupPending.SubscriptionID,
				"superseded by new checkout after pending expiry"); err != nil {
				return err
			}
			log.Printf("[SUBSCRIPTION] stale pending %s auto-cancelled before new checkout", dupPending.SubscriptionCode)
		} else {
			return fmt.Errorf("student already has a pending subscription %s for this offering", dupPending.SubscriptionCode)
		}
	}

	sub.SubscriptionStatus = subModel.SubscriptionStatusPending
	sub.SubscriptionPaymentStatus = subModel.PaymentStatusPending
	if sub.SubscriptionCode == "" {
		sub.SubscriptionCode = GenerateSubscriptionCode(sub.SubscriptionType)
	}

	if err := ss.DB.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	log.Printf("[SUBSCRIPTION] created pending subscription %s (academy=%s student=%s type=%s)",
		sub.SubscriptionCode, sub.SubscriptionAcademyID, sub.SubscriptionStudentID, sub.SubscriptionType)
	return nil
}

// Activate: pembayaran checkout terkonfirmasi → pending menjadi active,
// periode pertama + kuota batch pertama diberikan.
func (ss *SubscriptionService) Activate(ctx context.Context, subscriptionID uuid.UUID) error {
	var sub subModel.SubscriptionModel

	err := ss.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if !sub.SubscriptionStatus.CanTransitionTo(subModel.SubscriptionStatusActive) {
			return fmt.Errorf("subscription %s cannot be activated from status %s",
				sub.SubscriptionCode, sub.SubscriptionStatus)
		}

		now := time.Now()
		var endsAt time.Time
		if sub.SubscriptionBillingCycle == subModel.BillingCycleLifetime {
			// Lifetime: tidak ada ends_at / next billing.
			sub.SubscriptionEndsAt = nil
			sub.SubscriptionNextBillingDate = nil
		} else {
			endsAt = sub.SubscriptionBillingCycle.AddPeriod(now)
			sub.SubscriptionEndsAt = &endsAt
			sub.SubscriptionNextBillingDate = &endsAt
		}

		sub.SubscriptionStatus = subModel.SubscriptionStatusActive
		sub.SubscriptionPaymentStatus = subModel.PaymentStatusPaid
		sub.SubscriptionStartsAt = &now
		sub.SubscriptionLastPaymentDate = &now

		if sub.IsSessionBased() && sub.SubscriptionSessionsPerCycle > 0 && sub.SubscriptionSessionsTotal == 0 {
			sub.SubscriptionSessionsTotal = sub.SubscriptionSessionsPerCycle
			sub.SubscriptionSessionsRemaining = sub.SubscriptionSessionsPerCycle
		}

		return tx.Save(&sub).Error
	})
	if err != nil {
		return err
	}

	log.Printf("[SUBSCRIPTION] activated %s (ends_at=%v)", sub.SubscriptionCode, sub.SubscriptionEndsAt)
	return nil
}

// Cancel oleh student/admin: transisi ke cancelled dengan alasan tercatat.
func (ss *SubscriptionService) Cancel(ctx context.Context, subscriptionID uuid.UUID, reason string) error {
	return ss.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if !sub.SubscriptionStatus.CanTransitionTo(subModel.SubscriptionStatusCancelled) {
			return fmt.Errorf("subscription %s cannot be cancelled from status %s",
				sub.SubscriptionCode, sub.SubscriptionStatus)
		}

		now := time.Now()
		sub.SubscriptionStatus = subModel.SubscriptionStatusCancelled
		sub.SubscriptionAutoRenew = false
		sub.SubscriptionCancelledAt = &now
		if reason != "" {
			sub.SubscriptionCancellationReason = &reason
		}

		return tx.Save(&sub).Error
	})
}

// Pause menghentikan sementara subscription active.
func (ss *SubscriptionService) Pause(ctx context.Context, subscriptionID uuid.UUID, reason string) error {
	return ss.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if !sub.SubscriptionStatus.CanTransitionTo(subModel.SubscriptionStatusPaused) {
			return fmt.Errorf("subscription %s cannot be paused from status %s",
				sub.SubscriptionCode, sub.SubscriptionStatus)
		}

		now := time.Now()
		sub.SubscriptionStatus = subModel.SubscriptionStatusPaused
		sub.SubscriptionPausedAt = &now
		if reason != "" {
			sub.SubscriptionPauseReason = &reason
		}

		return tx.Save(&sub).Error
	})
}

// Resume mengaktifkan kembali subscription paused.
func (ss *SubscriptionService) Resume(ctx context.Context, subscriptionID uuid.UUID) error {
	return ss.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if !sub.SubscriptionStatus.CanTransitionTo(subModel.SubscriptionStatusActive) {
			return fmt.Errorf("subscription %s cannot be resumed from status %s",
				sub.SubscriptionCode, sub.SubscriptionStatus)
		}

		sub.SubscriptionStatus = subModel.SubscriptionStatusActive
		sub.SubscriptionPausedAt = nil
		sub.SubscriptionPauseReason = nil

		return tx.Save(&sub).Error
	})
}

// ToggleAutoRenew mengubah flag auto_renew (hanya untuk cycle recurring).
func (ss *SubscriptionService) ToggleAutoRenew(ctx context.Context, subscriptionID uuid.UUID, enabled bool) error {
	return ss.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if enabled && !sub.SubscriptionBillingCycle.SupportsAutoRenewal() {
			return fmt.Errorf("billing cycle %s does not support auto-renewal", sub.SubscriptionBillingCycle)
		}
		if enabled && sub.SubscriptionStatus.IsTerminal() {
			return fmt.Errorf("cannot enable auto-renewal on %s subscription", sub.SubscriptionStatus)
		}

		sub.SubscriptionAutoRenew = enabled
		return tx.Save(&sub).Error
	})
}

// ChangeBillingCycle mengganti cycle untuk periode berikutnya.
func (ss *SubscriptionService) ChangeBillingCycle(ctx context.Context, subscriptionID uuid.UUID, newCycle subModel.BillingCycle) error {
	if !newCycle.Valid() {
		return fmt.Errorf("invalid billing cycle %q", newCycle)
	}

	return ss.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if sub.SubscriptionStatus.IsTerminal() {
			return fmt.Errorf("cannot change billing cycle on %s subscription", sub.SubscriptionStatus)
		}

		sub.SubscriptionBillingCycle = newCycle
		if !newCycle.SupportsAutoRenewal() {
			sub.SubscriptionAutoRenew = false
		}
		return tx.Save(&sub).Error
	})
}

/* ===============================
   Query untuk scheduler
=================================*/

// FindDueForRenewal: active + auto_renew + next_billing_date sudah lewat.
func (ss *SubscriptionService) FindDueForRenewal(ctx context.Context, limit int) ([]subModel.SubscriptionModel, error) {
	var rows []subModel.SubscriptionModel
	err := ss.DB.WithContext(ctx).
		Where("subscription_status = ?", subModel.SubscriptionStatusActive).
		Where("subscription_auto_renew = ?", true).
		Where("subscription_next_billing_date IS NOT NULL AND subscription_next_billing_date <= ?", time.Now()).
		Order("subscription_next_billing_date ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindNeedingRenewalReminder: akan berakhir dalam N hari, reminder cycle ini
// belum terkirim (renewal_reminder_sent_at di-reset tiap renewal sukses).
func (ss *SubscriptionService) FindNeedingRenewalReminder(ctx context.Context, daysBefore, limit int) ([]subModel.SubscriptionModel, error) {
	horizon := time.Now().AddDate(0, 0, daysBefore)

	var rows []subModel.SubscriptionModel
	err := ss.DB.WithContext(ctx).
		Where("subscription_status = ?", subModel.SubscriptionStatusActive).
		Where("subscription_auto_renew = ?", true).
		Where("subscription_ends_at IS NOT NULL AND subscription_ends_at BETWEEN ? AND ?", time.Now(), horizon).
		Where("subscription_renewal_reminder_sent_at IS NULL").
		Order("subscription_ends_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
