package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
)

// newTestDB opens a fresh in-memory database per test. The shared-cache DSN
// keeps every pooled connection on the same database.
func newTestDB(t *testing.T) database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return database.Wrap(db)
}

func newTestJWTService() *JWTService {
	return NewJWTService("test-jwt-secret-key-long-enough-for-hs256", time.Hour, 24*time.Hour, 48*time.Hour)
}

func createTestUser(t *testing.T, db database.Database, email string, verified bool) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "$2a$10$unusable.hash.for.tests",
		FullName:     "Test User",
		IsVerified:   verified,
	}
	require.NoError(t, db.DB().Create(user).Error)
	return user
}

func createTestOrganization(t *testing.T, db database.Database, name string) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: name}
	require.NoError(t, db.DB().Create(org).Error)
	return org
}

func createTestProfile(t *testing.T, db database.Database, userID, orgID string) *models.Profile {
	t.Helper()

	trialEnd := time.Now().UTC().Add(models.TrialPeriod)
	profile := &models.Profile{
		ID:                 userID,
		OrganizationID:     orgID,
		FullName:           "Test User",
		Email:              "profile@example.com",
		Role:               models.RoleAdmin,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnd,
	}
	require.NoError(t, db.DB().Create(profile).Error)
	return profile
}

func createTestClient(t *testing.T, db database.Database, orgID string) *models.Client {
	t.Helper()

	client := &models.Client{
		OrganizationID: orgID,
		FirstName:      "Jordan",
		LastName:       "Reeves",
		Status:         models.ClientStatusActive,
	}
	require.NoError(t, db.DB().Create(client).Error)
	return client
}

func countRows(t *testing.T, db database.Database, model interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.DB().Model(model).Count(&n).Error)
	return n
}

var testCtx = context.Background()
