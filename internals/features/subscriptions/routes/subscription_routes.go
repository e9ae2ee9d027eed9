package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tilawa_backend/internals/constants"
	notifService "tilawa_backend/internals/features/notifications/service"
	paymentService "tilawa_backend/internals/features/payments/service"
	subController "tilawa_backend/internals/features/subscriptions/controller"
	subService "tilawa_backend/internals/features/subscriptions/service"
	authMW "tilawa_backend/internals/middlewares/auth"
)

// SubscriptionRoutes mendaftarkan endpoint subscription + billing.
func SubscriptionRoutes(api fiber.Router, db *gorm.DB) {
	guard := subService.NewDuplicateGuard(db, subService.ExpiryWindowFromEnv())
	notifier := notifService.NewNotificationService(db)
	service := subService.NewSubscriptionService(db, guard, notifier)
	renewal := subService.NewRenewalService(db, paymentService.NewMidtransCollector(db), notifier, nil)
	ctrl := subController.NewSubscriptionController(db, service, renewal)

	subs := api.Group("/subscriptions")
	subs.Post("/", ctrl.Checkout)
	subs.Get("/", ctrl.ListSubscriptions)
	subs.Get("/:id", ctrl.GetSubscription)

	subs.Post("/:id/cancel", ctrl.CancelSubscription)
	subs.Post("/:id/pause", ctrl.PauseSubscription)
	subs.Post("/:id/resume", ctrl.ResumeSubscription)
	subs.Post("/:id/auto-renew", ctrl.ToggleAutoRenew)
	subs.Post("/:id/billing-cycle", ctrl.ChangeBillingCycle)

	// Endpoint operasional billing — admin academy saja.
	adminOnly := authMW.OnlyRoles("Hanya admin yang boleh mengelola billing",
		constants.AdminRoles...)
	subs.Post("/:id/renew-now", adminOnly, ctrl.AttemptRenewalNow)
	subs.Post("/:id/manual-renew", adminOnly, ctrl.ManualRenewal)
}
