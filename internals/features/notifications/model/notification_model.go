package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationTypeRenewalSuccess        = "subscription_renewed"
	NotificationTypePaymentFailed         = "payment_failed"
	NotificationTypeRenewalReminder       = "subscription_expiring"
	NotificationTypeSubscriptionActivated = "subscription_activated"
)

type NotificationModel struct {
	NotificationID uuid.UUID `gorm:"column:notification_id;type:uuid;default:gen_random_uuid();primaryKey" json:"notification_id"`

	NotificationAcademyID uuid.UUID `gorm:"column:notification_academy_id;type:uuid;not null;index" json:"notification_academy_id"`
	NotificationUserID    uuid.UUID `gorm:"column:notification_user_id;type:uuid;not null;index" json:"notification_user_id"`

	NotificationType  string `gorm:"column:notification_type;type:varchar(40);not null" json:"notification_type"`
	NotificationTitle string `gorm:"column:notification_title;type:text;not null" json:"notification_title"`
	NotificationBody  string `gorm:"column:notification_body;type:text;not null" json:"notification_body"`

	NotificationData datatypes.JSON `gorm:"column:notification_data;type:jsonb" json:"notification_data,omitempty"`

	NotificationReadAt *time.Time `gorm:"column:notification_read_at" json:"notification_read_at,omitempty"`

	NotificationCreatedAt time.Time      `gorm:"column:notification_created_at;autoCreateTime;index" json:"notification_created_at"`
	NotificationDeletedAt gorm.DeletedAt `gorm:"column:notification_deleted_at;index" json:"notification_deleted_at,omitempty"`
}

func (NotificationModel) TableName() string { return "notifications" }
