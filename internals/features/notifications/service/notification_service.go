package service

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	notifModel "tilawa_backend/internals/features/notifications/model"
)

// NotificationService menyimpan notifikasi in-app + log. Fire-and-forget:
// kegagalan di sini hanya dicatat, TIDAK PERNAH membatalkan transaksi bisnis
// yang sudah commit.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

func (ns *NotificationService) SendRenewalSuccess(academyID, studentID uuid.UUID, data map[string]interface{}) {
	title := "Subscription renewed"
	body := fmt.Sprintf("Your subscription %v has been renewed successfully.", data["subscription_code"])
	ns.store(academyID, studentID, notifModel.NotificationTypeRenewalSuccess, title, body, data)
}

func (ns *NotificationService) SendPaymentFailed(academyID, studentID uuid.UUID, data map[string]interface{}) {
	title := "Payment failed"
	body := fmt.Sprintf("Payment for subscription %v failed. The subscription has been cancelled — please subscribe again.", data["subscription_code"])
	ns.store(academyID, studentID, notifModel.NotificationTypePaymentFailed, title, body, data)
}

func (ns *NotificationService) SendRenewalReminder(academyID, studentID uuid.UUID, data map[string]interface{}) {
	title := "Subscription expiring soon"
	body := fmt.Sprintf("Your subscription %v expires on %v.", data["subscription_code"], data["ends_at"])
	ns.store(academyID, studentID, notifModel.NotificationTypeRenewalReminder, title, body, data)
}

func (ns *NotificationService) SendSubscriptionActivated(academyID, studentID uuid.UUID, data map[string]interface{}) {
	title := "Subscription activated"
	body := fmt.Sprintf("Your subscription %v is now active.", data["subscription_code"])
	ns.store(academyID, studentID, notifModel.NotificationTypeSubscriptionActivated, title, body, data)
}

func (ns *NotificationService) store(academyID, userID uuid.UUID, notifType, title, body string, data map[string]interface{}) {
	var raw datatypes.JSON
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			raw = datatypes.JSON(b)
		}
	}

	notif := notifModel.NotificationModel{
		NotificationAcademyID: academyID,
		NotificationUserID:    userID,
		NotificationType:      notifType,
		NotificationTitle:     title,
		NotificationBody:      body,
		NotificationData:      raw,
	}

	if err := ns.DB.Create(&notif).Error; err != nil {
		// Notifikasi tidak boleh menggagalkan flow bisnis — cukup dicatat.
		log.Printf("[NOTIFY] failed to store %s notification for user=%s: %v", notifType, userID, err)
		return
	}

	log.Printf("[NOTIFY] %s sent to user=%s academy=%s", notifType, userID, academyID)
}
