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

	subModel "tilawa_backend/internals/features/subscriptions/model"
)

// RenewalService menjalankan auto-renewal subscription dalam tiga fase:
//
//  1. tx pendek: lock row + validasi eligibility + hitung harga
//  2. TANPA tx: panggil payment gateway (HTTP call tidak boleh memegang lock)
//  3. tx pendek: persist hasil (sukses → extend; gagal → cancel permanen)
//
// Kebijakan kegagalan: fail-closed tanpa grace period. Satu kali gagal bayar
// langsung cancel — aturan bisnis yang disengaja.
type RenewalService struct {
	DB        *gorm.DB
	Collector PaymentCollector
	Notifier  Notifier
	Pricing   PricingRule
}

func NewRenewalService(db *gorm.DB, collector PaymentCollector, notifier Notifier, pricing PricingRule) *RenewalService {
	if pricing == nil {
		pricing = SnapshotPricing{}
	}
	return &RenewalService{DB: db, Collector: collector, Notifier: notifier, Pricing: pricing}
}

// AttemptAutoRenewal mencoba menagih periode berikutnya.
// Return (false, nil) untuk outcome bisnis (ineligible / payment gagal);
// error hanya untuk kegagalan infrastruktur.
func (rs *RenewalService) AttemptAutoRenewal(ctx context.Context, subscriptionID uuid.UUID) (bool, error) {
	// ===== Fase 1: lock + validasi + harga (tx pendek) =====
	var sub subModel.SubscriptionModel
	var renewalPrice float64
	eligible := false

	err := rs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("subscription %s not found", subscriptionID)
			}
			return err
		}

		// Re-check di bawah lock: renewal/cancel paralel bisa sudah jalan duluan.
		if !sub.CanAttemptRenewal() {
			return nil
		}

		eligible = true
		renewalPrice = rs.Pricing.CalculateRenewalPrice(&sub)
		return nil
	})
	if err != nil {
		return false, err
	}

	if !eligible {
		log.Printf("[RENEWAL] subscription %s not eligible for auto-renewal (auto_renew=%v status=%s cycle=%s)",
			subscriptionID, sub.SubscriptionAutoRenew, sub.SubscriptionStatus, sub.SubscriptionBillingCycle)
		return false, nil
	}

	log.Printf("[RENEWAL] attempting auto-renewal: subscription=%s code=%s price=%.2f cycle=%s",
		sub.SubscriptionID, sub.SubscriptionCode, renewalPrice, sub.SubscriptionBillingCycle)

	// ===== Fase 2: tagih gateway di luar tx =====
	result, payErr := rs.Collector.ProcessRenewal(ctx, &sub, renewalPrice)
	if payErr != nil {
		// Exception gateway diperlakukan sama dengan pembayaran ditolak:
		// cancel permanen (lihat DESIGN.md — transient vs declined tidak dibedakan).
		log.Printf("[RENEWAL] payment exception for subscription %s: %v", sub.SubscriptionID, payErr)
		if err := rs.persistFailure(ctx, sub.SubscriptionID, payErr.Error()); err != nil {
			return false, err
		}
		return false, nil
	}

	// ===== Fase 3: persist hasil (tx pendek baru) =====
	if result.Success {
		if err := rs.persistSuccess(ctx, sub.SubscriptionID, renewalPrice); err != nil {
			return false, err
		}
		log.Printf("[RENEWAL] auto-renewal successful: subscription=%s", sub.SubscriptionID)
		return true, nil
	}

	reason := result.Error
	if reason == "" {
		reason = "payment failed"
	}
	if err := rs.persistFailure(ctx, sub.SubscriptionID, reason); err != nil {
		return false, err
	}
	log.Printf("[RENEWAL] auto-renewal failed: subscription=%s reason=%s", sub.SubscriptionID, reason)
	return false, nil
}

// persistSuccess menulis hasil sukses: ends_at lama + satu periode (anchor
// dipertahankan), kuota batch baru untuk offering berbasis session.
// Notifikasi dikirim SETELAH commit.
func (rs *RenewalService) persistSuccess(ctx context.Context, subscriptionID uuid.UUID, amount float64) error {
	var sub subModel.SubscriptionModel

	err := rs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if err := sub.ApplyRenewalSuccess(time.Now()); err != nil {
			return err
		}

		return tx.Save(&sub).Error
	})
	if err != nil {
		return fmt.Errorf("failed to persist renewal success: %w", err)
	}

	if rs.Notifier != nil {
		rs.Notifier.SendRenewalSuccess(sub.SubscriptionAcademyID, sub.SubscriptionStudentID, map[string]interface{}{
			"subscription_id":   sub.SubscriptionID.String(),
			"subscription_code": sub.SubscriptionCode,
			"amount":            amount,
			"currency":          sub.SubscriptionCurrency,
			"next_billing_date": formatDate(sub.SubscriptionNextBillingDate),
		})
	}
	return nil
}

// persistFailure menulis pembatalan permanen. Write ini adalah OUTCOME-nya
// sendiri — wajib commit, bukan rollback: gagal bayar harus tercatat durable.
func (rs *RenewalService) persistFailure(ctx context.Context, subscriptionID uuid.UUID, reason string) error {
	var sub subModel.SubscriptionModel

	err := rs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		sub.ApplyRenewalFailure(reason, time.Now())
		return tx.Save(&sub).Error
	})
	if err != nil {
		return fmt.Errorf("failed to persist renewal failure: %w", err)
	}

	if rs.Notifier != nil {
		rs.Notifier.SendPaymentFailed(sub.SubscriptionAcademyID, sub.SubscriptionStudentID, map[string]interface{}{
			"subscription_id":   sub.SubscriptionID.String(),
			"subscription_code": sub.SubscriptionCode,
			"reason":            reason,
			"currency":          sub.SubscriptionCurrency,
		})
	}
	return nil
}

// ManualRenewal: student bayar manual setelah expired/cancelled checkout flow.
// Pembayaran sudah diverifikasi caller (webhook); di sini tinggal extend.
func (rs *RenewalService) ManualRenewal(ctx context.Context, subscriptionID uuid.UUID, amount float64, newCycle *subModel.BillingCycle) error {
	var sub subModel.SubscriptionModel

	err := rs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subscription_id = ?", subscriptionID).
			First(&sub).Error; err != nil {
			return err
		}

		if newCycle != nil {
			if !newCycle.Valid() {
				return fmt.Errorf("invalid billing cycle %q", *newCycle)
			}
			sub.SubscriptionBillingCycle = *newCycle
		}

		if err := sub.ApplyRenewalSuccess(time.Now()); err != nil {
			return err
		}

		return tx.Save(&sub).Error
	})
	if err != nil {
		return fmt.Errorf("failed to persist manual renewal: %w", err)
	}

	if rs.Notifier != nil {
		rs.Notifier.SendRenewalSuccess(sub.SubscriptionAcademyID, sub.SubscriptionStudentID, map[string]interface{}{
			"subscription_id":   sub.SubscriptionID.String(),
			"subscription_code": sub.SubscriptionCode,
			"amount":            amount,
			"currency":          sub.SubscriptionCurrency,
			"next_billing_date": formatDate(sub.SubscriptionNextBillingDate),
		})
	}
	return nil
}

// SendRenewalReminder menandai reminder terkirim lalu dispatch notifikasi.
func (rs *RenewalService) SendRenewalReminder(ctx context.Context, sub *subModel.SubscriptionModel, daysUntilRenewal int) error {
	now := time.Now()
	if err := rs.DB.WithContext(ctx).Model(&subModel.SubscriptionModel{}).
		Where("subscription_id = ?", sub.SubscriptionID).
		Update("subscription_renewal_reminder_sent_at", now).Error; err != nil {
		return fmt.Errorf("failed to mark renewal reminder sent: %w", err)
	}

	if rs.Notifier != nil {
		rs.Notifier.SendRenewalReminder(sub.SubscriptionAcademyID, sub.SubscriptionStudentID, map[string]interface{}{
			"subscription_id":   sub.SubscriptionID.String(),
			"subscription_code": sub.SubscriptionCode,
			"ends_at":           formatDate(sub.SubscriptionEndsAt),
			"days_remaining":    daysUntilRenewal,
			"renewal_amount":    rs.Pricing.CalculateRenewalPrice(sub),
			"currency":          sub.SubscriptionCurrency,
		})
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
