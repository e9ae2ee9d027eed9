package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifController "tilawa_backend/internals/features/notifications/controller"
)

func NotificationRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := notifController.NewNotificationController(db)

	notifications := api.Group("/notifications")
	notifications.Get("/", ctrl.ListMyNotifications)
	notifications.Post("/:id/read", ctrl.MarkRead)
}
