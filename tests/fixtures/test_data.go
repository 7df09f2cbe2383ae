package fixtures

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/swivelcare/swivel-api/internal/models"
)

const (
	// ValidABN is the published checksum example from the ATO specification.
	ValidABN = "51824753556"

	DefaultPassword = "Sup3rSecret"
)

// PasswordHash returns a bcrypt hash of DefaultPassword at minimum cost.
func PasswordHash() string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	return string(hash)
}

// VerifiedUser returns a user fixture ready for login.
func VerifiedUser(email string) *models.User {
	return &models.User{
		Email:        email,
		PasswordHash: PasswordHash(),
		FullName:     "Fixture User",
		IsVerified:   true,
	}
}

// Organization returns an organization fixture.
func Organization(name string) *models.Organization {
	return &models.Organization{
		Name:  name,
		ABN:   ValidABN,
		Phone: "+61 2 9000 0000",
	}
}

// AdminProfile returns an admin profile fixture linking a user to an
// organization, mid-trial.
func AdminProfile(userID, orgID string) *models.Profile {
	trialEnds := time.Now().UTC().Add(models.TrialPeriod)
	return &models.Profile{
		ID:                 userID,
		OrganizationID:     orgID,
		FullName:           "Fixture User",
		Email:              "fixture@example.com",
		Role:               models.RoleAdmin,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
	}
}

// Client returns a care-recipient fixture.
func Client(orgID string) *models.Client {
	dob := time.Date(1954, time.March, 12, 0, 0, 0, 0, time.UTC)
	return &models.Client{
		OrganizationID: orgID,
		FirstName:      "Jordan",
		LastName:       "Reeves",
		DateOfBirth:    &dob,
		Status:         models.ClientStatusActive,
		Details: models.JSON{
			"funding_type": "NDIS",
			"ndis_number":  "430000001",
		},
	}
}
