package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AcademyModel adalah tenant utama: semua data bisnis digantung ke academy_id.
type AcademyModel struct {
	AcademyID uuid.UUID `gorm:"column:academy_id;type:uuid;default:gen_random_uuid();primaryKey" json:"academy_id"`

	AcademyName string `gorm:"column:academy_name;type:text;not null" json:"academy_name"`
	AcademySlug string `gorm:"column:academy_slug;type:text;not null;uniqueIndex" json:"academy_slug"`

	AcademyTimezone string `gorm:"column:academy_timezone;type:text;not null;default:'Asia/Riyadh'" json:"academy_timezone"`
	AcademyCurrency string `gorm:"column:academy_currency;type:varchar(3);not null;default:'SAR'" json:"academy_currency"`

	AcademyIsActive bool `gorm:"column:academy_is_active;not null;default:true" json:"academy_is_active"`

	AcademyCreatedAt time.Time      `gorm:"column:academy_created_at;autoCreateTime" json:"academy_created_at"`
	AcademyUpdatedAt *time.Time     `gorm:"column:academy_updated_at;autoUpdateTime" json:"academy_updated_at,omitempty"`
	AcademyDeletedAt gorm.DeletedAt `gorm:"column:academy_deleted_at;index" json:"academy_deleted_at,omitempty"`
}

func (AcademyModel) TableName() string { return "academies" }
