package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentService "tilawa_backend/internals/features/payments/service"
	helper "tilawa_backend/internals/helpers"
)

type WebhookController struct {
	DB      *gorm.DB
	Service *paymentService.WebhookService
}

func NewWebhookController(db *gorm.DB, service *paymentService.WebhookService) *WebhookController {
	return &WebhookController{DB: db, Service: service}
}

// 🟢 POST /api/payments/midtrans/notification — endpoint publik untuk Midtrans.
// Selalu balas 200 untuk payload yang dikenal supaya Midtrans berhenti retry.
func (ctrl *WebhookController) HandleMidtransNotification(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("[WEBHOOK] invalid body: %v", err)
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid notification body")
	}

	if err := ctrl.Service.HandleNotification(c.UserContext(), body); err != nil {
		log.Printf("[WEBHOOK] processing failed: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to process notification")
	}

	return helper.JsonOK(c, "Notification processed", nil)
}
