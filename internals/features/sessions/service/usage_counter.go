package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	circleModel "tilawa_backend/internals/features/circles/model"
	sessionModel "tilawa_backend/internals/features/sessions/model"
	subModel "tilawa_backend/internals/features/subscriptions/model"
)

// SubscriptionResolver me-resolve subscription yang menanggung sebuah session.
// Tiap offering type punya resolusinya sendiri (circle pointer, enrollment,
// atau link langsung) — di-compose ke UsageCounter, bukan di-hardcode.
type SubscriptionResolver interface {
	ResolveSubscriptionID(ctx context.Context, tx *gorm.DB, session *sessionModel.SessionModel) (uuid.UUID, bool, error)
}

// CircleSubscriptionResolver: pointer subscription aktif di circle dulu,
// fallback ke link langsung di session.
type CircleSubscriptionResolver struct{}

func (CircleSubscriptionResolver) ResolveSubscriptionID(ctx context.Context, tx *gorm.DB, session *sessionModel.SessionModel) (uuid.UUID, bool, error) {
	var circle circleModel.QuranCircleModel
	err := tx.WithContext(ctx).
		Where("circle_id = ?", session.SessionCircleID).
		First(&circle).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, err
	}
	if err == nil && circle.CircleActiveSubscriptionID != nil && *circle.CircleActiveSubscriptionID != uuid.Nil {
		return *circle.CircleActiveSubscriptionID, true, nil
	}

	if session.SessionSubscriptionID != nil && *session.SessionSubscriptionID != uuid.Nil {
		return *session.SessionSubscriptionID, true, nil
	}

	return uuid.Nil, false, nil
}

// UsageCounter menerapkan konsumsi kuota TEPAT SEKALI per session.
//
// Protokol (satu transaksi):
//  1. lock row session FOR UPDATE, re-read subscription_counted —
//     kalau sudah true, short-circuit (idempotent);
//  2. lock row subscription FOR UPDATE — dua session dari subscription yang
//     sama yang selesai "bersamaan" diserialisasi oleh lock INI;
//  3. konsumsi satu unit kuota; gagal (kuota habis) → rollback semua,
//     session tetap uncounted dan bisa di-retry;
//  4. set subscription_counted = true, commit.
type UsageCounter struct {
	DB       *gorm.DB
	Resolver SubscriptionResolver
}

func NewUsageCounter(db *gorm.DB, resolver SubscriptionResolver) *UsageCounter {
	if resolver == nil {
		resolver = CircleSubscriptionResolver{}
	}
	return &UsageCounter{DB: db, Resolver: resolver}
}

// ConsumeSession mengevaluasi eligibility lalu mengonsumsi kuota.
// Return (true, nil) hanya kalau konsumsi benar-benar terjadi di invocation ini.
func (uc *UsageCounter) ConsumeSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	consumed := false

	err := uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) Lock session + re-read flag di bawah lock.
		var session sessionModel.SessionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("session %s not found", sessionID)
			}
			return err
		}

		if session.SessionSubscriptionCounted {
			// Sudah dihitung oleh invocation lain — idempotent short-circuit.
			log.Printf("[USAGE] session %s already counted, skipping", sessionID)
			return nil
		}

		if !session.ShouldCountTowardsSubscription() {
			log.Printf("[USAGE] session %s not eligible for counting (status=%s cancellation_type=%s)",
				sessionID, session.SessionStatus, session.SessionCancellationType)
			return nil
		}

		// 2) Resolve subscription; tanpa subscription → no-op.
		subID, found, err := uc.Resolver.ResolveSubscriptionID(ctx, tx, &session)
		if err != nil {
			return err
		}
		if !found {
			log.Printf("[USAGE] session %s has no linked subscription, nothing to count", sessionID)
			return nil
		}

		// 3) Lock subscription + konsumsi satu unit.
		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subID).
			First(&sub).Error; err != nil {
			return fmt.Errorf("failed to load subscription %s for counting: %w", subID, err)
		}

		if err := sub.UseOneSession(time.Now()); err != nil {
			// Kuota habis / bukan state kuota — rollback, session tetap
			// uncounted supaya bisa direkonsiliasi belakangan.
			return fmt.Errorf("subscription %s cannot consume session: %w", sub.SubscriptionCode, err)
		}
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		// 4) Tandai counted di tx yang sama — flag dan decrement atomik.
		// Subscription yang menanggung IKUT dicatat di session: pointer aktif
		// circle bisa di-relink belakangan, pengembalian kuota harus ke
		// subscription yang benar-benar dipotong.
		if err := tx.Model(&sessionModel.SessionModel{}).
			Where("session_id = ?", session.SessionID).
			Updates(map[string]interface{}{
				"session_subscription_counted": true,
				"session_subscription_id":      subID,
			}).Error; err != nil {
			return err
		}

		consumed = true
		log.Printf("[USAGE] session %s counted against subscription %s (remaining=%d)",
			sessionID, sub.SubscriptionCode, sub.SubscriptionSessionsRemaining)
		return nil
	})
	if err != nil {
		log.Printf("[USAGE] consumption failed for session %s: %v", sessionID, err)
		return false, err
	}

	return consumed, nil
}

// ReturnSession membalikkan konsumsi (koreksi setelah session yang sudah
// terhitung dibatalkan/di-un-cancel). Kebalikan persis dari ConsumeSession.
func (uc *UsageCounter) ReturnSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	returned := false

	err := uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session sessionModel.SessionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).
			First(&session).Error; err != nil {
			return err
		}

		if !session.SessionSubscriptionCounted {
			return nil
		}

		// Kembalikan ke subscription yang tercatat saat konsumsi — BUKAN
		// hasil resolve ulang: pointer circle bisa sudah menunjuk
		// subscription lain.
		if session.SessionSubscriptionID == nil || *session.SessionSubscriptionID == uuid.Nil {
			return nil
		}
		subID := *session.SessionSubscriptionID

		var sub subModel.SubscriptionModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subID).
			First(&sub).Error; err != nil {
			return err
		}

		sub.ReturnOneSession()
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		if err := tx.Model(&sessionModel.SessionModel{}).
			Where("session_id = ?", session.SessionID).
			Update("session_subscription_counted", false).Error; err != nil {
			return err
		}

		returned = true
		log.Printf("[USAGE] session %s returned to subscription %s (remaining=%d)",
			sessionID, sub.SubscriptionCode, sub.SubscriptionSessionsRemaining)
		return nil
	})
	if err != nil {
		return false, err
	}

	return returned, nil
}
