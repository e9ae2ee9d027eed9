package dto

import (
	"time"

	"github.com/google/uuid"

	"tilawa_backend/internals/features/sessions/model"
)

/* =========================================================
   REQUEST DTO
========================================================= */

type CreateSessionRequest struct {
	SessionCircleID        uuid.UUID  `json:"session_circle_id" validate:"required"`
	SessionTeacherID       uuid.UUID  `json:"session_teacher_id" validate:"required"`
	SessionStudentID       *uuid.UUID `json:"session_student_id,omitempty"`
	SessionSubscriptionID  *uuid.UUID `json:"session_subscription_id,omitempty"`
	SessionTitle           string     `json:"session_title" validate:"required,max=200"`
	SessionScheduledAt     *time.Time `json:"session_scheduled_at,omitempty"`
	SessionDurationMinutes int        `json:"session_duration_minutes" validate:"omitempty,min=10,max=240"`
}

type ScheduleSessionRequest struct {
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=10,max=240"`
}

type CancelSessionRequest struct {
	Reason      string `json:"reason" validate:"omitempty,max=500"`
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=teacher student system"`
}

type MarkAbsentRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}

type RescheduleSessionRequest struct {
	NewScheduledAt time.Time `json:"new_scheduled_at" validate:"required"`
	Reason         string    `json:"reason" validate:"omitempty,max=500"`
}

/* =========================================================
   RESPONSE DTO
========================================================= */

type SessionResponse struct {
	SessionID        uuid.UUID  `json:"session_id"`
	SessionCode      string     `json:"session_code"`
	SessionTitle     string     `json:"session_title"`
	SessionCircleID  uuid.UUID  `json:"session_circle_id"`
	SessionTeacherID uuid.UUID  `json:"session_teacher_id"`
	SessionStudentID *uuid.UUID `json:"session_student_id,omitempty"`

	SessionStatus          model.SessionStatus `json:"session_status"`
	SessionScheduledAt     *time.Time          `json:"session_scheduled_at,omitempty"`
	SessionDurationMinutes int                 `json:"session_duration_minutes"`
	SessionStartedAt       *time.Time          `json:"session_started_at,omitempty"`
	SessionEndedAt         *time.Time          `json:"session_ended_at,omitempty"`

	SessionCancellationType   model.CancellationType `json:"session_cancellation_type,omitempty"`
	SessionCancellationReason *string                `json:"session_cancellation_reason,omitempty"`
	SessionRescheduledFrom    *time.Time             `json:"session_rescheduled_from,omitempty"`

	SessionSubscriptionCounted bool `json:"session_subscription_counted"`

	SessionCreatedAt time.Time `json:"session_created_at"`
}

func FromModel(s *model.SessionModel) SessionResponse {
	return SessionResponse{
		SessionID:                  s.SessionID,
		SessionCode:                s.SessionCode,
		SessionTitle:               s.SessionTitle,
		SessionCircleID:            s.SessionCircleID,
		SessionTeacherID:           s.SessionTeacherID,
		SessionStudentID:           s.SessionStudentID,
		SessionStatus:              s.SessionStatus,
		SessionScheduledAt:         s.SessionScheduledAt,
		SessionDurationMinutes:     s.SessionDurationMinutes,
		SessionStartedAt:           s.SessionStartedAt,
		SessionEndedAt:             s.SessionEndedAt,
		SessionCancellationType:    s.SessionCancellationType,
		SessionCancellationReason:  s.SessionCancellationReason,
		SessionRescheduledFrom:     s.SessionRescheduledFrom,
		SessionSubscriptionCounted: s.SessionSubscriptionCounted,
		SessionCreatedAt:           s.SessionCreatedAt,
	}
}

func FromModels(sessions []model.SessionModel) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, FromModel(&sessions[i]))
	}
	return out
}
