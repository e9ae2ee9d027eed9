package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserModel struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey" json:"user_id"`

	UserAcademyID *uuid.UUID `gorm:"column:user_academy_id;type:uuid;index" json:"user_academy_id,omitempty"`

	UserName     string `gorm:"column:user_name;type:text;not null" json:"user_name"`
	UserEmail    string `gorm:"column:user_email;type:text;not null;uniqueIndex" json:"user_email"`
	UserPassword string `gorm:"column:user_password;type:text;not null" json:"-"`

	// student | teacher | supervisor | admin (lihat internals/constants)
	UserRole string `gorm:"column:user_role;type:varchar(20);not null;default:'student'" json:"user_role"`

	UserPhone *string `gorm:"column:user_phone;type:text" json:"user_phone,omitempty"`

	UserIsActive bool `gorm:"column:user_is_active;not null;default:true" json:"user_is_active"`

	UserCreatedAt time.Time      `gorm:"column:user_created_at;autoCreateTime" json:"user_created_at"`
	UserUpdatedAt *time.Time     `gorm:"column:user_updated_at;autoUpdateTime" json:"user_updated_at,omitempty"`
	UserDeletedAt gorm.DeletedAt `gorm:"column:user_deleted_at;index" json:"user_deleted_at,omitempty"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.UserPassword = string(hashed)
	return nil
}

func (u *UserModel) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.UserPassword), []byte(plain)) == nil
}
