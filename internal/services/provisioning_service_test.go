package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swivelcare/swivel-api/internal/models"
)

func newProvisioningFixture(t *testing.T) (*ProvisioningService, PendingRequestStore, *models.User) {
	t.Helper()

	db := newTestDB(t)
	staging := newMemoryPendingStore(time.Hour)
	svc := NewProvisioningService(db, staging)
	user := createTestUser(t, db, "owner@acmecare.example", true)
	return svc, staging, user
}

func acmeInput() *ProvisionInput {
	return &ProvisionInput{
		OrganizationName: "Acme Care Services",
		ABN:              "51824753556",
		Phone:            "+61 2 9000 0000",
		FullName:         "Alice Admin",
	}
}

func TestProvisionCreatesOrganizationAndAdminProfile(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	result, err := svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.AlreadyExisted)
	assert.Equal(t, "Acme Care Services", result.Organization.Name)
	assert.Equal(t, "51824753556", result.Organization.ABN)

	profile := result.Profile
	require.NotNil(t, profile)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, result.Organization.ID, profile.OrganizationID)
	assert.Equal(t, models.RoleAdmin, profile.Role)
	assert.Equal(t, models.SubscriptionTrial, profile.SubscriptionStatus)
	assert.Equal(t, user.Email, profile.Email)

	require.NotNil(t, profile.TrialEndsAt)
	expected := time.Now().UTC().Add(models.TrialPeriod)
	assert.WithinDuration(t, expected, *profile.TrialEndsAt, time.Minute)
}

func TestProvisionIsIdempotent(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	first, err := svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.NoError(t, err)

	second, err := svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Organization.ID, second.Organization.ID)

	assert.Equal(t, int64(1), countRows(t, svc.db, &models.Organization{}))
	assert.Equal(t, int64(1), countRows(t, svc.db, &models.Profile{}))
}

func TestProvisionRejectsBlankOrganizationName(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	input := acmeInput()
	input.OrganizationName = "   "

	_, err := svc.Provision(testCtx, user.ID, user.Email, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "organizationName", fieldErr.Field)

	// Nothing may be written when input resolution fails.
	assert.Equal(t, int64(0), countRows(t, svc.db, &models.Organization{}))
	assert.Equal(t, int64(0), countRows(t, svc.db, &models.Profile{}))
}

func TestProvisionRejectsBlankFullName(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	input := acmeInput()
	input.FullName = ""

	_, err := svc.Provision(testCtx, user.ID, user.Email, input)
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "fullName", fieldErr.Field)
}

func TestProvisionWithNoInputAndNoStagedRequest(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	_, err := svc.Provision(testCtx, user.ID, user.Email, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestProvisionPrefersStagedRequestOverInput(t *testing.T) {
	svc, staging, user := newProvisioningFixture(t)

	require.NoError(t, staging.Put(testCtx, &models.PendingOrganizationRequest{
		UserID:           user.ID,
		Email:            user.Email,
		OrganizationName: "Staged Care Co",
		FullName:         "Staged Name",
		CreatedAt:        time.Now().UTC(),
	}))

	result, err := svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.NoError(t, err)

	assert.Equal(t, "Staged Care Co", result.Organization.Name)
	assert.Equal(t, "Staged Name", result.Profile.FullName)
}

func TestProvisionClearsStagedRequestOnSuccess(t *testing.T) {
	svc, staging, user := newProvisioningFixture(t)

	require.NoError(t, staging.Put(testCtx, &models.PendingOrganizationRequest{
		UserID:           user.ID,
		Email:            user.Email,
		OrganizationName: "Staged Care Co",
		FullName:         "Staged Name",
		CreatedAt:        time.Now().UTC(),
	}))

	_, err := svc.Provision(testCtx, user.ID, user.Email, nil)
	require.NoError(t, err)

	staged, err := staging.Get(testCtx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, staged)
}

func TestProvisionFallsBackWhenPrimaryPathFails(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	calls := 0
	svc.atomic = func(ctx context.Context, userID string, vals provisionValues) (string, error) {
		calls++
		return "", errors.New("function create_organization_with_admin does not exist")
	}

	result, err := svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.False(t, result.AlreadyExisted)
	assert.Equal(t, "Acme Care Services", result.Organization.Name)
	assert.Equal(t, models.RoleAdmin, result.Profile.Role)
}

func TestProvisionReportsFailureWhenBothPathsFail(t *testing.T) {
	db := newTestDB(t)
	staging := newMemoryPendingStore(time.Hour)
	svc := NewProvisioningService(db, staging)
	user := createTestUser(t, db, "owner@acmecare.example", true)

	svc.atomic = func(ctx context.Context, userID string, vals provisionValues) (string, error) {
		return "", errors.New("primary path down")
	}

	// Closing the connection makes the manual fallback fail as well.
	sqlDB, err := db.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.Error(t, err)
}

func TestProvisionRecoversFromDuplicateProfileRace(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	// Simulate a racing invocation that already won: its organization and
	// profile exist, and the primary path reports the uniqueness violation.
	org := createTestOrganization(t, svc.db, "Winner Care")
	createTestProfile(t, svc.db, user.ID, org.ID)
	require.NoError(t, svc.db.DB().Model(&models.Profile{}).Where("id = ?", user.ID).Update("organization_id", "").Error)

	svc.atomic = func(ctx context.Context, userID string, vals provisionValues) (string, error) {
		// Re-point the profile at the winner's organization, then fail the
		// way a second writer does.
		if err := svc.db.DB().Model(&models.Profile{}).Where("id = ?", userID).Update("organization_id", org.ID).Error; err != nil {
			return "", err
		}
		return "", errors.New("UNIQUE constraint failed: profiles.id")
	}

	result, err := svc.Provision(testCtx, user.ID, user.Email, acmeInput())
	require.NoError(t, err)

	assert.True(t, result.AlreadyExisted)
	assert.Equal(t, org.ID, result.Organization.ID)
}

func TestProvisionTrimsInputValues(t *testing.T) {
	svc, _, user := newProvisioningFixture(t)

	result, err := svc.Provision(testCtx, user.ID, user.Email, &ProvisionInput{
		OrganizationName: "  Acme Care Services  ",
		FullName:         "  Alice Admin  ",
		ABN:              " 51824753556 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Care Services", result.Organization.Name)
	assert.Equal(t, "Alice Admin", result.Profile.FullName)
	assert.Equal(t, "51824753556", result.Organization.ABN)
}
