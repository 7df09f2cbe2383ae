package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	ABN       string         `gorm:"type:varchar(14)" json:"abn,omitempty"`
	Phone     string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Profiles []Profile `gorm:"foreignKey:OrganizationID" json:"profiles,omitempty"`
	Clients  []Client  `gorm:"foreignKey:OrganizationID" json:"clients,omitempty"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

func (o *Organization) TableName() string {
	return "organizations"
}
