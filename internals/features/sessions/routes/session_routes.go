package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	sessionController "tilawa_backend/internals/features/sessions/controller"
	sessionService "tilawa_backend/internals/features/sessions/service"
)

// SessionRoutes mendaftarkan endpoint lifecycle session.
// Semua endpoint di-scope academy dari JWT (auth middleware sudah jalan).
func SessionRoutes(api fiber.Router, db *gorm.DB) {
	counter := sessionService.NewUsageCounter(db, nil)
	transitions := sessionService.NewTransitionService(db, counter)
	ctrl := sessionController.NewSessionController(db, transitions, counter)

	sessions := api.Group("/sessions")
	sessions.Post("/", ctrl.CreateSession)
	sessions.Get("/", ctrl.ListSessions)
	sessions.Get("/:id", ctrl.GetSession)

	sessions.Post("/:id/schedule", ctrl.ScheduleSession)
	sessions.Post("/:id/ready", ctrl.MarkReady)
	sessions.Post("/:id/start", ctrl.StartSession)
	sessions.Post("/:id/complete", ctrl.CompleteSession)
	sessions.Post("/:id/cancel", ctrl.CancelSession)
	sessions.Post("/:id/absent", ctrl.MarkAbsent)
	sessions.Post("/:id/missed", ctrl.MarkMissed)
	sessions.Post("/:id/reschedule", ctrl.RescheduleSession)
	sessions.Post("/:id/recount", ctrl.RecountSession)
	sessions.Post("/:id/return-quota", ctrl.ReturnQuota)
}
