package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FundingBucket tracks a contract spending limit for one client. Drawdowns
// accumulate into SpentAmount and may never exceed TotalAmount.
type FundingBucket struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrganizationID string         `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	ClientID       string         `gorm:"type:varchar(36);not null;index" json:"client_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	TotalAmount    float64        `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	SpentAmount    float64        `gorm:"type:numeric(12,2);default:0" json:"spent_amount"`
	StartDate      *time.Time     `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Transactions []BucketTransaction `gorm:"foreignKey:BucketID" json:"transactions,omitempty"`
}

func (b *FundingBucket) Remaining() float64 {
	return b.TotalAmount - b.SpentAmount
}

func (b *FundingBucket) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

func (b *FundingBucket) TableName() string {
	return "funding_buckets"
}

type BucketTransaction struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BucketID  string    `gorm:"type:varchar(36);not null;index" json:"bucket_id"`
	Amount    float64   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *BucketTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (t *BucketTransaction) TableName() string {
	return "bucket_transactions"
}
