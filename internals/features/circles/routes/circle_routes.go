package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	circleController "tilawa_backend/internals/features/circles/controller"
)

func CircleRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := circleController.NewCircleController(db)

	circles := api.Group("/circles")
	circles.Post("/", ctrl.CreateCircle)
	circles.Get("/", ctrl.ListCircles)
	circles.Put("/:id/active-subscription", ctrl.SetActiveSubscription)
}
