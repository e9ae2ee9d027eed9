// file: internals/route/index.go
package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	circleRoutes "tilawa_backend/internals/features/circles/routes"
	notificationRoutes "tilawa_backend/internals/features/notifications/routes"
	paymentRoutes "tilawa_backend/internals/features/payments/routes"
	sessionRoutes "tilawa_backend/internals/features/sessions/routes"
	subscriptionRoutes "tilawa_backend/internals/features/subscriptions/routes"
	authMW "tilawa_backend/internals/middlewares/auth"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	api := app.Group("/api", authMW.AuthMiddleware(db))

	// Webhook Midtrans publik — path-nya ada di skipPaths auth middleware.
	log.Println("[INFO] Mounting Payment routes...")
	paymentRoutes.PaymentRoutes(api, db)

	log.Println("[INFO] Mounting Circle routes...")
	circleRoutes.CircleRoutes(api, db)

	log.Println("[INFO] Mounting Session routes...")
	sessionRoutes.SessionRoutes(api, db)

	log.Println("[INFO] Mounting Subscription routes...")
	subscriptionRoutes.SubscriptionRoutes(api, db)

	log.Println("[INFO] Mounting Notification routes...")
	notificationRoutes.NotificationRoutes(api, db)
}
