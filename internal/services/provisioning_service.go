package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

// ProvisionInput carries directly-entered setup values, used when no staged
// PendingOrganizationRequest exists for the user.
type ProvisionInput struct {
	OrganizationName string
	ABN              string
	Phone            string
	FullName         string
	Plan             string
}

type ProvisionResult struct {
	Organization *models.Organization
	Profile      *models.Profile
	// AlreadyExisted marks the idempotent no-op outcome: the user had a
	// complete profile before this invocation and nothing was written.
	AlreadyExisted bool
}

// ProvisioningService associates a verified user with exactly one
// organization and an admin profile. The primary path is a single atomic
// server-side operation; a manual two-step fallback runs only after the
// primary path's failure has been observed. The profile primary key equals
// the user id, so under racing invocations the storage layer's uniqueness
// constraint makes the second writer fail, and that failure is folded back
// into the idempotent-success outcome.
type ProvisioningService struct {
	db      database.Database
	staging PendingRequestStore

	// atomic is the primary creation path, swappable in tests to exercise
	// the fallback sequence.
	atomic func(ctx context.Context, userID string, vals provisionValues) (string, error)
}

type provisionValues struct {
	OrganizationName string
	ABN              string
	Phone            string
	FullName         string
	Plan             string
	Email            string
}

func NewProvisioningService(db database.Database, staging PendingRequestStore) *ProvisioningService {
	s := &ProvisioningService{db: db, staging: staging}
	s.atomic = s.createAtomic
	return s
}

// Provision runs the full protocol. It may be invoked repeatedly for the
// same user (duplicate redirects, retries); any invocation after the first
// success is a no-op reported via ProvisionResult.AlreadyExisted.
func (s *ProvisioningService) Provision(ctx context.Context, userID, email string, input *ProvisionInput) (*ProvisionResult, error) {
	logger := utils.GetLogger().WithFields(utils.LogFields{"user_id": userID})

	// Idempotency check always runs first, keyed on the immutable user id.
	if result, err := s.existing(ctx, userID); err != nil {
		return nil, err
	} else if result != nil {
		return result, nil
	}

	vals, consumedStaged, err := s.resolveInput(ctx, userID, email, input)
	if err != nil {
		return nil, err
	}

	orgID, primaryErr := s.atomic(ctx, userID, vals)
	if primaryErr != nil {
		if result, dupErr := s.recoverDuplicate(ctx, userID, primaryErr); dupErr != nil {
			return nil, dupErr
		} else if result != nil {
			return result, nil
		}

		logger.Warn("Atomic provisioning failed, attempting manual fallback", utils.LogFields{
			"error": primaryErr.Error(),
		})

		orgID, err = s.createManual(ctx, userID, vals)
		if err != nil {
			if result, dupErr := s.recoverDuplicate(ctx, userID, err); dupErr != nil {
				return nil, dupErr
			} else if result != nil {
				return result, nil
			}
			return nil, err
		}
	}

	if consumedStaged {
		if err := s.staging.Delete(ctx, userID); err != nil {
			logger.Warn("Failed to clear pending organization request", utils.LogFields{
				"error": err.Error(),
			})
		}
	}

	return s.load(ctx, userID, orgID)
}

// existing returns a populated result when the user already has a complete
// profile, nil when provisioning should proceed.
func (s *ProvisioningService) existing(ctx context.Context, userID string) (*ProvisionResult, error) {
	var profile models.Profile
	err := s.db.DB().WithContext(ctx).Where("id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !profile.IsComplete() {
		// Incomplete profile rows route back into provisioning.
		return nil, nil
	}

	var org models.Organization
	if err := s.db.DB().WithContext(ctx).Where("id = ?", profile.OrganizationID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOrganization
		}
		return nil, err
	}

	return &ProvisionResult{Organization: &org, Profile: &profile, AlreadyExisted: true}, nil
}

func (s *ProvisioningService) resolveInput(ctx context.Context, userID, email string, input *ProvisionInput) (provisionValues, bool, error) {
	staged, err := s.staging.Get(ctx, userID)
	if err != nil {
		utils.GetLogger().Warn("Pending request lookup failed, requiring manual input", utils.LogFields{
			"user_id": userID,
			"error":   err.Error(),
		})
		staged = nil
	}

	var vals provisionValues
	consumed := false

	switch {
	case staged != nil:
		vals = provisionValues{
			OrganizationName: staged.OrganizationName,
			ABN:              staged.ABN,
			Phone:            staged.Phone,
			FullName:         staged.FullName,
			Plan:             staged.Plan,
			Email:            staged.Email,
		}
		consumed = true
	case input != nil:
		vals = provisionValues{
			OrganizationName: input.OrganizationName,
			ABN:              input.ABN,
			Phone:            input.Phone,
			FullName:         input.FullName,
			Plan:             input.Plan,
			Email:            email,
		}
	default:
		return vals, false, missingField("organizationName")
	}

	vals.OrganizationName = strings.TrimSpace(vals.OrganizationName)
	vals.FullName = strings.TrimSpace(vals.FullName)
	vals.ABN = strings.TrimSpace(vals.ABN)
	vals.Phone = strings.TrimSpace(vals.Phone)
	if vals.Email == "" {
		vals.Email = email
	}

	if vals.OrganizationName == "" {
		return vals, false, missingField("organizationName")
	}
	if vals.FullName == "" {
		return vals, false, missingField("fullName")
	}

	return vals, consumed, nil
}

// createAtomic is the primary path: one server-side unit of work creating
// the organization and the admin profile together.
func (s *ProvisioningService) createAtomic(ctx context.Context, userID string, vals provisionValues) (string, error) {
	db := s.db.DB().WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		var orgID string
		err := db.Raw(
			"SELECT create_organization_with_admin(?, ?, ?, ?, ?, ?, ?)",
			userID, vals.OrganizationName, vals.ABN, vals.Phone, vals.FullName, vals.Email, vals.Phone,
		).Scan(&orgID).Error
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBackendFunctionFailed, err)
		}
		return orgID, nil
	}

	// Non-postgres backends get the same all-or-nothing guarantee from a
	// database transaction.
	orgID := uuid.New().String()
	err := db.Transaction(func(tx *gorm.DB) error {
		org := &models.Organization{
			ID:    orgID,
			Name:  vals.OrganizationName,
			ABN:   vals.ABN,
			Phone: vals.Phone,
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Create(s.newAdminProfile(userID, orgID, vals)).Error
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendFunctionFailed, err)
	}
	return orgID, nil
}

// createManual is the fallback: organization first, then the profile
// referencing it. A step-2 failure after step-1 success leaves the
// organization orphaned; no cross-operation transaction exists here, so the
// orphan is logged and picked up by the detection sweep instead of rolled
// back.
func (s *ProvisioningService) createManual(ctx context.Context, userID string, vals provisionValues) (string, error) {
	db := s.db.DB().WithContext(ctx)

	org := &models.Organization{
		Name:  vals.OrganizationName,
		ABN:   vals.ABN,
		Phone: vals.Phone,
	}
	if err := db.Create(org).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendWriteFailed, err)
	}

	if err := db.Create(s.newAdminProfile(userID, org.ID, vals)).Error; err != nil {
		if !isDuplicateKey(err) {
			utils.GetLogger().Error("Profile creation failed after organization insert, organization orphaned", err, utils.LogFields{
				"user_id":         userID,
				"organization_id": org.ID,
			})
		}
		return "", fmt.Errorf("%w: %v", ErrBackendWriteFailed, err)
	}

	return org.ID, nil
}

func (s *ProvisioningService) newAdminProfile(userID, orgID string, vals provisionValues) *models.Profile {
	trialEnd := time.Now().UTC().Add(models.TrialPeriod)
	return &models.Profile{
		ID:                 userID,
		OrganizationID:     orgID,
		FullName:           vals.FullName,
		Email:              vals.Email,
		Phone:              vals.Phone,
		Role:               models.RoleAdmin,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnd,
	}
}

// recoverDuplicate maps a "profile already exists" uniqueness violation back
// to the idempotent-success outcome: a racing invocation won, so re-read and
// report the pair it created.
func (s *ProvisioningService) recoverDuplicate(ctx context.Context, userID string, cause error) (*ProvisionResult, error) {
	if !isDuplicateKey(cause) {
		return nil, nil
	}
	return s.existing(ctx, userID)
}

func (s *ProvisioningService) load(ctx context.Context, userID, orgID string) (*ProvisionResult, error) {
	var org models.Organization
	if err := s.db.DB().WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := s.db.DB().WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}

	return &ProvisionResult{Organization: &org, Profile: &profile}, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
