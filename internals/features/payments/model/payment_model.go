package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusExpired  = "expired"
	PaymentStatusCanceled = "canceled"
	PaymentStatusRefunded = "refunded"
)

const (
	PaymentPurposeCheckout = "checkout"
	PaymentPurposeRenewal  = "renewal"
)

// PaymentModel mencatat SETIAP attempt pembayaran (checkout awal maupun
// renewal otomatis), sukses atau gagal — tidak pernah dihapus.
type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`

	PaymentAcademyID      uuid.UUID `gorm:"column:payment_academy_id;type:uuid;not null;index" json:"payment_academy_id"`
	PaymentStudentID      uuid.UUID `gorm:"column:payment_student_id;type:uuid;not null;index" json:"payment_student_id"`
	PaymentSubscriptionID uuid.UUID `gorm:"column:payment_subscription_id;type:uuid;not null;index" json:"payment_subscription_id"`

	// Order id yang dikirim ke gateway (dipakai webhook untuk lookup).
	PaymentOrderID string `gorm:"column:payment_order_id;type:text;not null;uniqueIndex" json:"payment_order_id"`

	// checkout | renewal
	PaymentPurpose string `gorm:"column:payment_purpose;type:varchar(20);not null;default:'checkout'" json:"payment_purpose"`

	PaymentAmount   float64 `gorm:"column:payment_amount;type:numeric(10,2);not null" json:"payment_amount"`
	PaymentCurrency string  `gorm:"column:payment_currency;type:varchar(3);not null;default:'SAR'" json:"payment_currency"`

	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index" json:"payment_status"`

	// Referensi transaksi dari gateway + catatan error kalau gagal.
	PaymentGatewayReference *string `gorm:"column:payment_gateway_reference;type:text" json:"payment_gateway_reference,omitempty"`
	PaymentFailureReason    *string `gorm:"column:payment_failure_reason;type:text" json:"payment_failure_reason,omitempty"`

	PaymentPaidAt *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`

	PaymentCreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt *time.Time     `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at,omitempty"`
	PaymentDeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }
