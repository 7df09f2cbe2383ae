package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// TrialPeriod is the subscription trial window granted at provisioning time.
const TrialPeriod = 14 * 24 * time.Hour

// Profile links a User to exactly one Organization. Its primary key equals
// the user's id; the uniqueness of that key is what makes provisioning safe
// to invoke more than once for the same user.
type Profile struct {
	ID                 string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrganizationID     string         `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	FullName           string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Email              string         `gorm:"type:varchar(255)" json:"email"`
	Phone              string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Role               string         `gorm:"type:varchar(50);default:staff" json:"role"`
	SubscriptionStatus string         `gorm:"type:varchar(50);default:trial" json:"subscription_status"`
	TrialEndsAt        *time.Time     `json:"trial_ends_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// IsComplete reports whether the profile is usable. A profile without an
// organization must be routed back into provisioning.
func (p *Profile) IsComplete() bool {
	return p.OrganizationID != ""
}

func (p *Profile) TableName() string {
	return "profiles"
}
