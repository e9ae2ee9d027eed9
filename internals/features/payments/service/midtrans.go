package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	paymentModel "tilawa_backend/internals/features/payments/model"
	subModel "tilawa_backend/internals/features/subscriptions/model"
	subService "tilawa_backend/internals/features/subscriptions/service"
)

var (
	SnapClient snap.Client
	CoreClient coreapi.Client
)

// Panggil saat bootstrap app (sandbox).
func InitMidtrans(serverKey string) {
	SnapClient.New(serverKey, midtrans.Sandbox)
	CoreClient.New(serverKey, midtrans.Sandbox)
}

// GenerateSnapToken membuat Snap token + redirect_url untuk checkout awal.
func GenerateSnapToken(orderID string, amount float64, name, email string) (string, string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: name,
			Email: email,
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}

	return resp.Token, resp.RedirectURL, nil
}

/* ===============================
   Renewal collector (implements subscriptions/service.PaymentCollector)
=================================*/

// MidtransCollector menagih payment token tersimpan lewat CoreAPI dan
// mencatat setiap attempt sebagai row payments.
type MidtransCollector struct {
	DB *gorm.DB
}

func NewMidtransCollector(db *gorm.DB) *MidtransCollector {
	return &MidtransCollector{DB: db}
}

func (mc *MidtransCollector) ProcessRenewal(ctx context.Context, sub *subModel.SubscriptionModel, amount float64) (subService.PaymentResult, error) {
	orderID := fmt.Sprintf("RENEW-%s-%d", strings.ToUpper(sub.SubscriptionCode), time.Now().Unix())

	payment := paymentModel.PaymentModel{
		PaymentAcademyID:      sub.SubscriptionAcademyID,
		PaymentStudentID:      sub.SubscriptionStudentID,
		PaymentSubscriptionID: sub.SubscriptionID,
		PaymentOrderID:        orderID,
		PaymentPurpose:        paymentModel.PaymentPurposeRenewal,
		PaymentAmount:         amount,
		PaymentCurrency:       sub.SubscriptionCurrency,
		PaymentStatus:         paymentModel.PaymentStatusPending,
	}
	if err := mc.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		return subService.PaymentResult{}, fmt.Errorf("failed to record renewal payment attempt: %w", err)
	}

	// Tanpa token tersimpan tidak ada yang bisa ditagih.
	if sub.SubscriptionPaymentToken == nil || *sub.SubscriptionPaymentToken == "" {
		mc.markFailed(ctx, payment.PaymentID, "no saved payment method")
		return subService.PaymentResult{Success: false, Error: "no saved payment method"}, nil
	}

	chargeReq := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(amount),
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID: *sub.SubscriptionPaymentToken,
		},
	}

	resp, chargeErr := CoreClient.ChargeTransaction(chargeReq)
	if chargeErr != nil {
		mc.markFailed(ctx, payment.PaymentID, chargeErr.Message)
		return subService.PaymentResult{Success: false, Error: "gateway error: " + chargeErr.Message}, nil
	}

	switch resp.TransactionStatus {
	case "capture", "settlement":
		now := time.Now()
		if err := mc.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
			Where("payment_id = ?", payment.PaymentID).
			Updates(map[string]interface{}{
				"payment_status":            paymentModel.PaymentStatusPaid,
				"payment_gateway_reference": resp.TransactionID,
				"payment_paid_at":           now,
			}).Error; err != nil {
			log.Printf("[PAYMENT] failed to mark payment paid: order_id=%s err=%v", orderID, err)
		}
		return subService.PaymentResult{Success: true, Reference: resp.TransactionID}, nil
	default:
		reason := "payment declined: " + resp.TransactionStatus
		if resp.StatusMessage != "" {
			reason = resp.StatusMessage
		}
		mc.markFailed(ctx, payment.PaymentID, reason)
		return subService.PaymentResult{Success: false, Error: reason, Reference: resp.TransactionID}, nil
	}
}

func (mc *MidtransCollector) markFailed(ctx context.Context, paymentID uuid.UUID, reason string) {
	if err := mc.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
		Where("payment_id = ?", paymentID).
		Updates(map[string]interface{}{
			"payment_status":         paymentModel.PaymentStatusFailed,
			"payment_failure_reason": reason,
		}).Error; err != nil {
		log.Printf("[PAYMENT] failed to mark payment failed: payment_id=%s err=%v", paymentID, err)
	}
}
