package controller

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	sessionDTO "tilawa_backend/internals/features/sessions/dto"
	sessionModel "tilawa_backend/internals/features/sessions/model"
	sessionService "tilawa_backend/internals/features/sessions/service"
	helper "tilawa_backend/internals/helpers"
	authHelper "tilawa_backend/internals/helpers/auth"
)

type SessionController struct {
	DB          *gorm.DB
	Transitions *sessionService.TransitionService
	Counter     *sessionService.UsageCounter
	Validate    *validator.Validate
}

func NewSessionController(db *gorm.DB, transitions *sessionService.TransitionService, counter *sessionService.UsageCounter) *SessionController {
	return &SessionController{
		DB:          db,
		Transitions: transitions,
		Counter:     counter,
		Validate:    validator.New(),
	}
}

// 🟢 POST /api/sessions — buat session baru (status awal unscheduled/scheduled)
func (ctrl *SessionController) CreateSession(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req sessionDTO.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	status := sessionModel.SessionStatusUnscheduled
	if req.SessionScheduledAt != nil {
		status = sessionModel.SessionStatusScheduled
	}
	duration := req.SessionDurationMinutes
	if duration == 0 {
		duration = 30
	}

	session := sessionModel.SessionModel{
		SessionAcademyID:       academyID,
		SessionCircleID:        req.SessionCircleID,
		SessionTeacherID:       req.SessionTeacherID,
		SessionStudentID:       req.SessionStudentID,
		SessionSubscriptionID:  req.SessionSubscriptionID,
		SessionCode:            generateSessionCode(),
		SessionTitle:           req.SessionTitle,
		SessionStatus:          status,
		SessionScheduledAt:     req.SessionScheduledAt,
		SessionDurationMinutes: duration,
	}

	if err := ctrl.DB.WithContext(c.UserContext()).Create(&session).Error; err != nil {
		log.Printf("[SESSION] create failed: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create session")
	}

	log.Printf("[SESSION] created %s (circle=%s status=%s)", session.SessionCode, session.SessionCircleID, session.SessionStatus)
	return helper.JsonCreated(c, "Session created", sessionDTO.FromModel(&session))
}

// 🟢 GET /api/sessions/:id
func (ctrl *SessionController) GetSession(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid session ID")
	}

	var session sessionModel.SessionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("session_id = ? AND session_academy_id = ?", sessionID, academyID).
		First(&session).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Session not found")
	}

	return helper.JsonOK(c, "OK", sessionDTO.FromModel(&session))
}

// 🟢 GET /api/sessions?status=&circle_id=&page=&limit=
func (ctrl *SessionController) ListSessions(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	page, limit, offset := helper.ParsePagination(c)

	q := ctrl.DB.WithContext(c.UserContext()).
		Model(&sessionModel.SessionModel{}).
		Where("session_academy_id = ?", academyID)

	if status := c.Query("status"); status != "" {
		q = q.Where("session_status = ?", status)
	}
	if circleID := c.Query("circle_id"); circleID != "" {
		id, err := uuid.Parse(circleID)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid circle_id")
		}
		q = q.Where("session_circle_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count sessions")
	}

	var sessions []sessionModel.SessionModel
	if err := q.Order("session_scheduled_at DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&sessions).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list sessions")
	}

	return helper.JsonList(c, "OK", sessionDTO.FromModels(sessions), helper.BuildPagination(page, limit, total))
}

// 🟢 POST /api/sessions/:id/schedule
func (ctrl *SessionController) ScheduleSession(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req sessionDTO.ScheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.Transitions.Schedule(c.UserContext(), academyID, sessionID, req.ScheduledAt, req.DurationMinutes); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session scheduled")
}

// 🟢 POST /api/sessions/:id/ready — dipanggil menjelang jam mulai.
func (ctrl *SessionController) MarkReady(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}
	if err := ctrl.Transitions.MarkReady(c.UserContext(), academyID, sessionID); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session ready")
}

// 🟢 POST /api/sessions/:id/missed — session terjadwal lewat tanpa dimulai.
// Missed tidak memakan kuota.
func (ctrl *SessionController) MarkMissed(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}
	if err := ctrl.Transitions.MarkMissed(c.UserContext(), academyID, sessionID); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session marked missed")
}

// 🟢 POST /api/sessions/:id/start
func (ctrl *SessionController) StartSession(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}
	if err := ctrl.Transitions.Start(c.UserContext(), academyID, sessionID); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session started")
}

// 🟢 POST /api/sessions/:id/complete — transisi terminal, kuota terpakai
func (ctrl *SessionController) CompleteSession(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}
	if err := ctrl.Transitions.Complete(c.UserContext(), academyID, sessionID); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session completed")
}

// 🟢 POST /api/sessions/:id/cancel — atribusi menentukan konsumsi kuota
func (ctrl *SessionController) CancelSession(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req sessionDTO.CancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	var cancelledBy *uuid.UUID
	if userID, err := authHelper.GetUserID(c); err == nil {
		cancelledBy = &userID
	}

	attribution := sessionModel.CancellationType(req.CancelledBy)
	if err := ctrl.Transitions.Cancel(c.UserContext(), academyID, sessionID, req.Reason, cancelledBy, attribution); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session cancelled")
}

// 🟢 POST /api/sessions/:id/absent
func (ctrl *SessionController) MarkAbsent(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req sessionDTO.MarkAbsentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := ctrl.Transitions.MarkAbsent(c.UserContext(), academyID, sessionID, req.Note); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session marked absent")
}

// 🟢 POST /api/sessions/:id/reschedule
func (ctrl *SessionController) RescheduleSession(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req sessionDTO.RescheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.Transitions.Reschedule(c.UserContext(), academyID, sessionID, req.NewScheduledAt, req.Reason); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSession(c, academyID, sessionID, "Session rescheduled")
}

// 🟢 POST /api/sessions/:id/recount — rekonsiliasi manual konsumsi kuota.
// Aman dipanggil berulang: session yang sudah counted tinggal di-skip.
func (ctrl *SessionController) RecountSession(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	// Pastikan session milik academy pemanggil dulu.
	var session sessionModel.SessionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("session_id = ? AND session_academy_id = ?", sessionID, academyID).
		First(&session).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Session not found")
	}

	consumed, err := ctrl.Counter.ConsumeSession(c.UserContext(), sessionID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}

	return helper.JsonOK(c, "Recount evaluated", fiber.Map{
		"session_id": sessionID,
		"consumed":   consumed,
	})
}

// 🟢 POST /api/sessions/:id/return-quota — kebalikan recount: kembalikan
// kuota session yang sudah terhitung (koreksi admin).
func (ctrl *SessionController) ReturnQuota(c *fiber.Ctx) error {
	academyID, sessionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var session sessionModel.SessionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("session_id = ? AND session_academy_id = ?", sessionID, academyID).
		First(&session).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Session not found")
	}

	returned, err := ctrl.Counter.ReturnSession(c.UserContext(), sessionID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}

	return helper.JsonOK(c, "Quota return evaluated", fiber.Map{
		"session_id": sessionID,
		"returned":   returned,
	})
}

func (ctrl *SessionController) scopedIDs(c *fiber.Ctx) (academyID, sessionID uuid.UUID, err error) {
	academyID, err = authHelper.GetAcademyID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	sessionID, err = uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session ID")
	}
	return academyID, sessionID, nil
}

func (ctrl *SessionController) respondWithSession(c *fiber.Ctx, academyID, sessionID uuid.UUID, message string) error {
	var session sessionModel.SessionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("session_id = ? AND session_academy_id = ?", sessionID, academyID).
		First(&session).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Session not found")
	}
	return helper.JsonOK(c, message, sessionDTO.FromModel(&session))
}

func generateSessionCode() string {
	return fmt.Sprintf("SES-%d-%s", time.Now().Unix(), uuid.NewString()[:4])
}
