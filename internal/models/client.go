package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
)

// Client is a care recipient. Details holds the intake-form answers keyed
// by form-configuration field names.
type Client struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrganizationID string         `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	FirstName      string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string         `gorm:"type:varchar(100);not null" json:"last_name"`
	DateOfBirth    *time.Time     `json:"date_of_birth"`
	Status         string         `gorm:"type:varchar(50);default:active" json:"status"`
	Details        JSON           `gorm:"type:jsonb" json:"details"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Buckets []FundingBucket `gorm:"foreignKey:ClientID" json:"buckets,omitempty"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (c *Client) TableName() string {
	return "clients"
}
