package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

type OrganizationService struct {
	db database.Database
}

func NewOrganizationService(db database.Database) *OrganizationService {
	return &OrganizationService{db: db}
}

// GetOrganization loads an organization and opportunistically checks for the
// orphan condition (no referencing profiles) the fallback provisioning path
// can leave behind. Orphans are logged, not deleted.
func (s *OrganizationService) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.DB().WithContext(ctx).Where("id = ?", orgID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOrganization
		}
		return nil, err
	}

	var count int64
	if err := s.db.DB().WithContext(ctx).
		Model(&models.Profile{}).
		Where("organization_id = ?", org.ID).
		Count(&count).Error; err == nil && count == 0 {
		utils.GetLogger().Warn("Organization has no referencing profiles", utils.LogFields{
			"organization_id": org.ID,
			"name":            org.Name,
		})
	}

	return &org, nil
}

func (s *OrganizationService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.DB().WithContext(ctx).
		Preload("Organization").
		Where("id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return &profile, nil
}

// UserHasAccessToOrganization reports whether the user's profile belongs to
// the organization.
func (s *OrganizationService) UserHasAccessToOrganization(ctx context.Context, userID, orgID string) (bool, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			return false, nil
		}
		return false, err
	}
	return profile.OrganizationID == orgID, nil
}

func (s *OrganizationService) ListOrganizations(ctx context.Context, limit, offset int) ([]models.Organization, int64, error) {
	var orgs []models.Organization
	var total int64

	db := s.db.DB().WithContext(ctx).Model(&models.Organization{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orgs).Error
	return orgs, total, err
}

func (s *OrganizationService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	db := s.db.DB().WithContext(ctx).Model(&models.User{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// FindOrphanOrganizations lists organizations with zero referencing
// profiles, the detection sweep for the fallback path's known inconsistency
// window. Cleanup is a manual administrative decision.
func (s *OrganizationService) FindOrphanOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.db.DB().WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM profiles WHERE profiles.organization_id = organizations.id AND profiles.deleted_at IS NULL)").
		Find(&orgs).Error
	return orgs, err
}
