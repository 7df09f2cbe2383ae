package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an identity record. A user becomes usable for login only after
// e-mail verification; the link to an organization lives on Profile.
type User struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string         `gorm:"type:varchar(255);not null;unique" json:"email" validate:"required,email"`
	PasswordHash string         `gorm:"type:varchar(255)" json:"-"`
	FullName     string         `gorm:"type:varchar(255)" json:"full_name"`
	IsVerified   bool           `gorm:"default:false" json:"is_verified"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *User) TableName() string {
	return "users"
}
