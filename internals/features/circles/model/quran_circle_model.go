package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CircleTypeIndividual = "individual"
	CircleTypeGroup      = "group"
)

// QuranCircleModel adalah teaching unit (offering) tempat session digantung.
// Individual circle menyimpan pointer ke subscription aktif; lewat pointer ini
// usage counter me-resolve subscription milik sebuah session.
type QuranCircleModel struct {
	CircleID uuid.UUID `gorm:"column:circle_id;type:uuid;default:gen_random_uuid();primaryKey" json:"circle_id"`

	CircleAcademyID uuid.UUID `gorm:"column:circle_academy_id;type:uuid;not null;index" json:"circle_academy_id"`

	CircleTeacherID uuid.UUID  `gorm:"column:circle_teacher_id;type:uuid;not null;index" json:"circle_teacher_id"`
	CircleStudentID *uuid.UUID `gorm:"column:circle_student_id;type:uuid;index" json:"circle_student_id,omitempty"` // individual saja

	CircleName string `gorm:"column:circle_name;type:text;not null" json:"circle_name"`

	// individual | group
	CircleType string `gorm:"column:circle_type;type:varchar(20);not null;default:'individual'" json:"circle_type"`

	// Subscription aktif yang membayar circle ini (individual).
	CircleActiveSubscriptionID *uuid.UUID `gorm:"column:circle_active_subscription_id;type:uuid;index" json:"circle_active_subscription_id,omitempty"`

	CircleSessionsCompleted int `gorm:"column:circle_sessions_completed;not null;default:0" json:"circle_sessions_completed"`

	CircleIsActive bool `gorm:"column:circle_is_active;not null;default:true" json:"circle_is_active"`

	CircleCreatedAt time.Time      `gorm:"column:circle_created_at;autoCreateTime" json:"circle_created_at"`
	CircleUpdatedAt *time.Time     `gorm:"column:circle_updated_at;autoUpdateTime" json:"circle_updated_at,omitempty"`
	CircleDeletedAt gorm.DeletedAt `gorm:"column:circle_deleted_at;index" json:"circle_deleted_at,omitempty"`
}

func (QuranCircleModel) TableName() string { return "quran_circles" }
