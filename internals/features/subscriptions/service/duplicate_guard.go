package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	subModel "tilawa_backend/internals/features/subscriptions/model"
)

// DefaultPendingExpiryWindow: checkout pending yang ditinggalkan lebih lama
// dari ini dianggap kedaluwarsa (override via SUBSCRIPTION_PENDING_EXPIRY_HOURS).
const DefaultPendingExpiryWindow = 48 * time.Hour

// OfferingKey mengidentifikasi "offering yang sama" per (academy, student).
// Tiap offering type mengisi field key-nya sendiri (circle ATAU course).
type OfferingKey struct {
	AcademyID uuid.UUID
	StudentID uuid.UUID
	CircleID  *uuid.UUID
	CourseID  *uuid.UUID
}

// DuplicateGuard mencegah satu student menumpuk row subscription yang
// konflik untuk offering yang sama. Guard bersifat ADVISORY: dia menyodorkan
// kandidat, caller yang memutuskan reject atau auto-cancel — tidak pernah
// melempar error hanya karena menemukan duplikat.
type DuplicateGuard struct {
	DB           *gorm.DB
	ExpiryWindow time.Duration
}

func NewDuplicateGuard(db *gorm.DB, expiryWindow time.Duration) *DuplicateGuard {
	if expiryWindow <= 0 {
		expiryWindow = DefaultPendingExpiryWindow
	}
	return &DuplicateGuard{DB: db, ExpiryWindow: expiryWindow}
}

// ExpiryWindowFromEnv membaca SUBSCRIPTION_PENDING_EXPIRY_HOURS (jam).
// Kosong / tidak valid → default 48 jam.
func ExpiryWindowFromEnv() time.Duration {
	raw := os.Getenv("SUBSCRIPTION_PENDING_EXPIRY_HOURS")
	if raw == "" {
		return DefaultPendingExpiryWindow
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		log.Printf("[GUARD] SUBSCRIPTION_PENDING_EXPIRY_HOURS tidak valid (%q), pakai default", raw)
		return DefaultPendingExpiryWindow
	}
	return time.Duration(hours) * time.Hour
}

func (g *DuplicateGuard) keyedQuery(ctx context.Context, key OfferingKey, excludeID uuid.UUID) *gorm.DB {
	q := g.DB.WithContext(ctx).
		Model(&subModel.SubscriptionModel{}).
		Where("subscription_academy_id = ?", key.AcademyID).
		Where("subscription_student_id = ?", key.StudentID)

	if key.CircleID != nil {
		q = q.Where("subscription_circle_id = ?", *key.CircleID)
	}
	if key.CourseID != nil {
		q = q.Where("subscription_course_id = ?", *key.CourseID)
	}
	if excludeID != uuid.Nil {
		q = q.Where("subscription_id <> ?", excludeID)
	}
	return q
}

// FindDuplicatePending mencari row lain dengan key sama yang masih
// pending-dan-belum-dibayar. Dipakai sebelum membuat pending baru, atau untuk
// membersihkan yang basi.
func (g *DuplicateGuard) FindDuplicatePending(ctx context.Context, key OfferingKey, excludeID uuid.UUID) (*subModel.SubscriptionModel, error) {
	var dup subModel.SubscriptionModel
	err := g.keyedQuery(ctx, key, excludeID).
		Where("subscription_status = ?", subModel.SubscriptionStatusPending).
		Where("subscription_payment_status = ?", subModel.PaymentStatusPending).
		Order("subscription_created_at ASC").
		First(&dup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dup, nil
}

// FindDuplicateActive memblokir subscription ACTIVE kedua ke offering sama.
func (g *DuplicateGuard) FindDuplicateActive(ctx context.Context, key OfferingKey, excludeID uuid.UUID) (*subModel.SubscriptionModel, error) {
	var dup subModel.SubscriptionModel
	err := g.keyedQuery(ctx, key, excludeID).
		Where("subscription_status = ?", subModel.SubscriptionStatusActive).
		First(&dup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dup, nil
}

// FindExpiredPending mengambil batch pending yang sudah melewati window.
// Row dengan grace marker dari admin (metadata grace_period_ends_at)
// dikecualikan dari sweep.
func (g *DuplicateGuard) FindExpiredPending(ctx context.Context, limit int) ([]subModel.SubscriptionModel, error) {
	cutoff := time.Now().Add(-g.ExpiryWindow)

	var rows []subModel.SubscriptionModel
	err := g.DB.WithContext(ctx).
		Where("subscription_status = ?", subModel.SubscriptionStatusPending).
		Where("subscription_created_at < ?", cutoff).
		Where("(subscription_metadata IS NULL OR subscription_metadata->>? IS NULL)", subModel.MetaGracePeriodEndsAt).
		Order("subscription_created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CancelAsDuplicateOrExpired men-transisikan row ke cancelled dengan alasan
// tercatat + auto-renew off. Data tidak pernah dihapus.
func (g *DuplicateGuard) CancelAsDuplicateOrExpired(ctx context.Context, subscriptionID uuid.UUID, reason string) error {
	return g.cancelWithReason(ctx, subscriptionID, reason)
}

// CancelDueToPaymentFailure: idem, dipakai saat checkout payment gagal final.
func (g *DuplicateGuard) CancelDueToPaymentFailure(ctx context.Context, subscriptionID uuid.UUID, reason string) error {
	return g.cancelWithReason(ctx, subscriptionID, "payment failure: "+reason)
}

func (g *DuplicateGuard) cancelWithReason(ctx context.Context, subscriptionID uuid.UUID, reason string) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if sub.SubscriptionStatus.IsTerminal() {
			// Sudah terminal — biarkan (terminal state permanen).
			return nil
		}

		now := time.Now()
		sub.SubscriptionStatus = subModel.SubscriptionStatusCancelled
		sub.SubscriptionAutoRenew = false
		sub.SubscriptionCancelledAt = &now
		sub.SubscriptionCancellationReason = &reason

		if err := tx.Save(&sub).Error; err != nil {
			return fmt.Errorf("failed to cancel subscription %s: %w", subscriptionID, err)
		}

		log.Printf("[GUARD] subscription %s cancelled: %s", subscriptionID, reason)
		return nil
	})
}
