package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionModel merepresentasikan satu unit mengajar terjadwal (individual/group).
// Session tidak pernah di-hard-delete; status terminal bersifat permanen.
type SessionModel struct {
	SessionID uuid.UUID `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey" json:"session_id"`

	SessionAcademyID uuid.UUID `gorm:"column:session_academy_id;type:uuid;not null;index" json:"session_academy_id"`

	SessionCircleID  uuid.UUID  `gorm:"column:session_circle_id;type:uuid;not null;index" json:"session_circle_id"`
	SessionTeacherID uuid.UUID  `gorm:"column:session_teacher_id;type:uuid;not null;index" json:"session_teacher_id"`
	SessionStudentID *uuid.UUID `gorm:"column:session_student_id;type:uuid;index" json:"session_student_id,omitempty"`

	// Link langsung ke subscription (fallback bila circle tidak punya pointer aktif).
	SessionSubscriptionID *uuid.UUID `gorm:"column:session_subscription_id;type:uuid;index" json:"session_subscription_id,omitempty"`

	SessionCode  string `gorm:"column:session_code;type:text;not null;uniqueIndex" json:"session_code"`
	SessionTitle string `gorm:"column:session_title;type:text;not null" json:"session_title"`

	SessionStatus          SessionStatus `gorm:"column:session_status;type:varchar(20);not null;default:'unscheduled';index" json:"session_status"`
	SessionScheduledAt     *time.Time    `gorm:"column:session_scheduled_at;index" json:"session_scheduled_at,omitempty"`
	SessionDurationMinutes int           `gorm:"column:session_duration_minutes;not null;default:30" json:"session_duration_minutes"`

	SessionStartedAt *time.Time `gorm:"column:session_started_at" json:"session_started_at,omitempty"`
	SessionEndedAt   *time.Time `gorm:"column:session_ended_at" json:"session_ended_at,omitempty"`

	// Pembatalan
	SessionCancellationType   CancellationType `gorm:"column:session_cancellation_type;type:varchar(20);not null;default:''" json:"session_cancellation_type,omitempty"`
	SessionCancellationReason *string          `gorm:"column:session_cancellation_reason;type:text" json:"session_cancellation_reason,omitempty"`
	SessionCancelledBy        *uuid.UUID       `gorm:"column:session_cancelled_by;type:uuid" json:"session_cancelled_by,omitempty"`
	SessionCancelledAt        *time.Time       `gorm:"column:session_cancelled_at" json:"session_cancelled_at,omitempty"`

	// Reschedule bookkeeping
	SessionRescheduledFrom  *time.Time `gorm:"column:session_rescheduled_from" json:"session_rescheduled_from,omitempty"`
	SessionRescheduleReason *string    `gorm:"column:session_reschedule_reason;type:text" json:"session_reschedule_reason,omitempty"`

	// Guard supaya satu session maksimal dihitung sekali ke kuota subscription.
	SessionSubscriptionCounted bool `gorm:"column:session_subscription_counted;not null;default:false" json:"session_subscription_counted"`

	// Meeting link bookkeeping (room provisioning itu urusan service eksternal).
	SessionMeetingURL       *string    `gorm:"column:session_meeting_url;type:text" json:"session_meeting_url,omitempty"`
	SessionMeetingRoomName  *string    `gorm:"column:session_meeting_room_name;type:text" json:"session_meeting_room_name,omitempty"`
	SessionMeetingCreatedAt *time.Time `gorm:"column:session_meeting_created_at" json:"session_meeting_created_at,omitempty"`

	SessionCreatedAt time.Time      `gorm:"column:session_created_at;autoCreateTime" json:"session_created_at"`
	SessionUpdatedAt *time.Time     `gorm:"column:session_updated_at;autoUpdateTime" json:"session_updated_at,omitempty"`
	SessionDeletedAt gorm.DeletedAt `gorm:"column:session_deleted_at;index" json:"session_deleted_at,omitempty"`
}

func (SessionModel) TableName() string { return "quran_sessions" }

// ShouldCountTowardsSubscription memutuskan eligibility konsumsi kuota
// untuk session yang sudah terminal (urutan prioritas sesuai aturan bisnis):
//  1. completed / absent → dihitung
//  2. cancelled → ikut atribusi (student ya, teacher/system/unknown tidak)
//  3. status lain → tidak dihitung
func (s *SessionModel) ShouldCountTowardsSubscription() bool {
	if s.SessionStatus == SessionStatusCancelled {
		return s.SessionCancellationType.CountsTowardsSubscription()
	}
	return s.SessionStatus.CountsTowardsSubscription()
}
