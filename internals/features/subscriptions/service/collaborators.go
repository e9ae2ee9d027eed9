package service

import (
	"context"

	"github.com/google/uuid"

	subModel "tilawa_backend/internals/features/subscriptions/model"
)

/* ===============================
   Collaborator eksternal (interface saja — implementasi di feature lain)
=================================*/

type PaymentResult struct {
	Success   bool
	Error     string
	Reference string
}

// PaymentCollector menagih renewal ke gateway. Dipanggil TANPA memegang
// lock/tx database (HTTP call tidak boleh menahan row lock).
type PaymentCollector interface {
	ProcessRenewal(ctx context.Context, sub *subModel.SubscriptionModel, amount float64) (PaymentResult, error)
}

// Notifier bersifat fire-and-forget: implementasi wajib menelan error sendiri.
type Notifier interface {
	SendRenewalSuccess(academyID, studentID uuid.UUID, data map[string]interface{})
	SendPaymentFailed(academyID, studentID uuid.UUID, data map[string]interface{})
	SendRenewalReminder(academyID, studentID uuid.UUID, data map[string]interface{})
}

// PricingRule menghitung harga renewal per offering type.
type PricingRule interface {
	CalculateRenewalPrice(sub *subModel.SubscriptionModel) float64
}

// SnapshotPricing: harga renewal = harga snapshot yang tersimpan di row
// subscription saat checkout (default untuk semua offering type).
type SnapshotPricing struct{}

func (SnapshotPricing) CalculateRenewalPrice(sub *subModel.SubscriptionModel) float64 {
	return sub.SubscriptionPrice
}
