// HandleSubscriptionPaymentWebhook dipanggil saat menerima notifikasi dari Midtrans
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	notifService "tilawa_backend/internals/features/notifications/service"
	paymentModel "tilawa_backend/internals/features/payments/model"
	subModel "tilawa_backend/internals/features/subscriptions/model"
	subService "tilawa_backend/internals/features/subscriptions/service"
)

// WebhookService memproses notifikasi status transaksi dari Midtrans.
// Checkout yang settle → subscription pending diaktifkan; checkout yang
// gagal final → pending di-cancel lewat guard (data tidak dihapus).
type WebhookService struct {
	DB            *gorm.DB
	Subscriptions *subService.SubscriptionService
	Guard         *subService.DuplicateGuard
	Notifier      *notifService.NotificationService
}

func NewWebhookService(db *gorm.DB, subscriptions *subService.SubscriptionService, guard *subService.DuplicateGuard, notifier *notifService.NotificationService) *WebhookService {
	return &WebhookService{DB: db, Subscriptions: subscriptions, Guard: guard, Notifier: notifier}
}

func (ws *WebhookService) HandleNotification(ctx context.Context, body map[string]interface{}) error {
	orderID, ok1 := body["order_id"].(string)
	status, ok2 := body["transaction_status"].(string)
	if !ok1 || !ok2 {
		log.Println("[ERROR] Payload webhook tidak lengkap:", body)
		return fmt.Errorf("invalid payload")
	}

	log.Printf("[WEBHOOK] order_id=%s transaction_status=%s", orderID, status)

	var payment paymentModel.PaymentModel
	if err := ws.DB.WithContext(ctx).
		Where("payment_order_id = ?", orderID).
		First(&payment).Error; err != nil {
		log.Println("[ERROR] Payment tidak ditemukan:", err)
		return fmt.Errorf("payment with order_id %s not found", orderID)
	}

	switch status {
	case "capture", "settlement":
		// fraud_status challenge tidak dianggap settle.
		if fraud, ok := body["fraud_status"].(string); ok && fraud != "" && fraud != "accept" {
			log.Printf("[WEBHOOK] fraud_status=%s, order %s tidak diproses", fraud, orderID)
			return nil
		}
		return ws.markPaid(ctx, &payment, body)

	case "deny", "cancel", "failure":
		return ws.markFailedFinal(ctx, &payment, "payment "+status)

	case "expire":
		return ws.markFailedFinal(ctx, &payment, "payment expired")

	case "pending":
		// Biarkan pending — student masih bisa menyelesaikan pembayaran.
		return nil

	default:
		log.Println("[INFO] Status tidak diproses:", status)
		return nil
	}
}

func (ws *WebhookService) markPaid(ctx context.Context, payment *paymentModel.PaymentModel, body map[string]interface{}) error {
	// Idempotent: notifikasi Midtrans bisa terkirim lebih dari sekali.
	if payment.PaymentStatus == paymentModel.PaymentStatusPaid {
		log.Printf("[WEBHOOK] payment %s sudah paid, skip", payment.PaymentOrderID)
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"payment_status":  paymentModel.PaymentStatusPaid,
		"payment_paid_at": now,
	}
	if txID, ok := body["transaction_id"].(string); ok && txID != "" {
		updates["payment_gateway_reference"] = txID
	}
	if err := ws.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
		Where("payment_id = ?", payment.PaymentID).
		Updates(updates).Error; err != nil {
		return err
	}

	if payment.PaymentPurpose != paymentModel.PaymentPurposeCheckout {
		// Renewal di-charge server-side; outcome sudah dipersist collector.
		return nil
	}

	if err := ws.Subscriptions.Activate(ctx, payment.PaymentSubscriptionID); err != nil {
		// Activate gagal (mis. sudah active dari notifikasi sebelumnya) —
		// catat tapi jangan bikin Midtrans retry terus.
		log.Printf("[WEBHOOK] activation skipped for subscription %s: %v", payment.PaymentSubscriptionID, err)
		return nil
	}

	if ws.Notifier != nil {
		var sub subModel.SubscriptionModel
		if err := ws.DB.WithContext(ctx).
			Where("subscription_id = ?", payment.PaymentSubscriptionID).
			First(&sub).Error; err == nil {
			ws.Notifier.SendSubscriptionActivated(sub.SubscriptionAcademyID, sub.SubscriptionStudentID, map[string]interface{}{
				"subscription_id":   sub.SubscriptionID.String(),
				"subscription_code": sub.SubscriptionCode,
				"amount":            payment.PaymentAmount,
				"currency":          payment.PaymentCurrency,
			})
		}
	}
	return nil
}

func (ws *WebhookService) markFailedFinal(ctx context.Context, payment *paymentModel.PaymentModel, reason string) error {
	status := paymentModel.PaymentStatusFailed
	if reason == "payment expired" {
		status = paymentModel.PaymentStatusExpired
	}

	if err := ws.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
		Where("payment_id = ?", payment.PaymentID).
		Updates(map[string]interface{}{
			"payment_status":         status,
			"payment_failure_reason": reason,
		}).Error; err != nil {
		return err
	}

	// Checkout yang gagal final → subscription pending di-cancel, student
	// mulai checkout baru kalau masih mau subscribe.
	if payment.PaymentPurpose == paymentModel.PaymentPurposeCheckout {
		if err := ws.Guard.CancelDueToPaymentFailure(ctx, payment.PaymentSubscriptionID, reason); err != nil {
			log.Printf("[WEBHOOK] failed to cancel subscription %s after %s: %v",
				payment.PaymentSubscriptionID, reason, err)
			return err
		}
	}
	return nil
}
