package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
)

// BucketService tracks contract funding limits per client. Drawdowns are
// serialized by a row lock inside one transaction so concurrent spends
// cannot push a bucket past its total.
type BucketService struct {
	db database.Database
}

type BucketInput struct {
	Name        string
	TotalAmount float64
	StartDate   *time.Time
	EndDate     *time.Time
}

func NewBucketService(db database.Database) *BucketService {
	return &BucketService{db: db}
}

func (s *BucketService) CreateBucket(ctx context.Context, orgID, clientID string, input BucketInput) (*models.FundingBucket, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, missingField("name")
	}
	if input.TotalAmount <= 0 {
		return nil, &FieldError{Field: "totalAmount", Err: errors.New("must be positive")}
	}

	// The client must exist inside the caller's organization.
	var count int64
	if err := s.db.DB().WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ? AND organization_id = ?", clientID, orgID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrClientNotFound
	}

	bucket := &models.FundingBucket{
		OrganizationID: orgID,
		ClientID:       clientID,
		Name:           strings.TrimSpace(input.Name),
		TotalAmount:    input.TotalAmount,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
	}

	if err := s.db.DB().WithContext(ctx).Create(bucket).Error; err != nil {
		return nil, err
	}
	return bucket, nil
}

func (s *BucketService) GetBucket(ctx context.Context, orgID, bucketID string) (*models.FundingBucket, error) {
	var bucket models.FundingBucket
	err := s.db.DB().WithContext(ctx).
		Preload("Transactions").
		Where("id = ? AND organization_id = ?", bucketID, orgID).
		First(&bucket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBucketNotFound
		}
		return nil, err
	}
	return &bucket, nil
}

func (s *BucketService) ListBuckets(ctx context.Context, orgID, clientID string) ([]models.FundingBucket, error) {
	var buckets []models.FundingBucket
	err := s.db.DB().WithContext(ctx).
		Where("organization_id = ? AND client_id = ?", orgID, clientID).
		Order("created_at").
		Find(&buckets).Error
	return buckets, err
}

// RecordTransaction applies a drawdown against a bucket, rejecting any that
// would exceed the contract limit.
func (s *BucketService) RecordTransaction(ctx context.Context, orgID, bucketID string, amount float64, note string) (*models.BucketTransaction, error) {
	if amount <= 0 {
		return nil, &FieldError{Field: "amount", Err: errors.New("must be positive")}
	}

	var txn *models.BucketTransaction
	err := s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ? AND organization_id = ?", bucketID, orgID)
		if tx.Dialector.Name() == "postgres" {
			// Row lock serializes concurrent drawdowns against the same
			// bucket. SQLite transactions are already serialized.
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var bucket models.FundingBucket
		err := q.First(&bucket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBucketNotFound
			}
			return err
		}

		if bucket.SpentAmount+amount > bucket.TotalAmount {
			return fmt.Errorf("%w: %.2f remaining, %.2f requested", ErrBucketExceeded, bucket.Remaining(), amount)
		}

		txn = &models.BucketTransaction{
			BucketID: bucket.ID,
			Amount:   amount,
			Note:     note,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		return tx.Model(&bucket).
			Update("spent_amount", gorm.Expr("spent_amount + ?", amount)).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}
