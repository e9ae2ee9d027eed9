package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifService "tilawa_backend/internals/features/notifications/service"
	paymentController "tilawa_backend/internals/features/payments/controller"
	paymentService "tilawa_backend/internals/features/payments/service"
	subService "tilawa_backend/internals/features/subscriptions/service"
)

// PaymentRoutes mendaftarkan webhook Midtrans. Path ini masuk skipPaths
// auth middleware (Midtrans tidak membawa JWT).
func PaymentRoutes(api fiber.Router, db *gorm.DB) {
	guard := subService.NewDuplicateGuard(db, subService.ExpiryWindowFromEnv())
	notifier := notifService.NewNotificationService(db)
	subscriptions := subService.NewSubscriptionService(db, guard, notifier)
	webhook := paymentService.NewWebhookService(db, subscriptions, guard, notifier)
	ctrl := paymentController.NewWebhookController(db, webhook)

	payments := api.Group("/payments")
	payments.Post("/midtrans/notification", ctrl.HandleMidtransNotification)
}
