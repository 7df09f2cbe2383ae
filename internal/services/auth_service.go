package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

type AuthService struct {
	db         database.Database
	staging    PendingRequestStore
	jwt        *JWTService
	bcryptCost int
}

type SignUpInput struct {
	Email            string
	Password         string
	FullName         string
	OrganizationName string
	ABN              string
	Phone            string
	Plan             string
}

func NewAuthService(db database.Database, staging PendingRequestStore, jwt *JWTService, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, staging: staging, jwt: jwt, bcryptCost: bcryptCost}
}

// SignUp creates an unverified user, stages the provisioning intent, and
// returns the signed verification token. Delivering the token is the e-mail
// provider's job.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	orgName := strings.TrimSpace(input.OrganizationName)

	if email == "" || !utils.ValidateEmail(email) {
		return nil, "", missingField("email")
	}
	if fullName == "" {
		return nil, "", missingField("fullName")
	}
	if orgName == "" {
		return nil, "", missingField("organizationName")
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		return nil, "", &FieldError{Field: "password", Err: err}
	}
	if input.ABN != "" && !utils.ValidateABN(input.ABN) {
		return nil, "", &FieldError{Field: "abn", Err: errors.New("invalid ABN")}
	}

	var existing models.User
	err := s.db.DB().WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, "", ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	}
	if err := s.db.DB().WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	req := &models.PendingOrganizationRequest{
		UserID:           user.ID,
		Email:            email,
		OrganizationName: orgName,
		ABN:              strings.TrimSpace(input.ABN),
		Phone:            strings.TrimSpace(input.Phone),
		FullName:         fullName,
		Plan:             input.Plan,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.staging.Put(ctx, req); err != nil {
		// The user can still complete setup manually; losing the staged
		// request is not fatal to sign-up.
		utils.GetLogger().Warn("Failed to stage pending organization request", utils.LogFields{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	token, err := s.jwt.GenerateVerificationToken(user.ID, email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// VerifyEmail validates the token and marks the user verified. Provisioning
// is the caller's next step; verification itself is idempotent.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwt.ValidateVerificationToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.DB().WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.IsVerified {
		if err := s.db.DB().WithContext(ctx).
			Model(&user).
			Update("is_verified", true).Error; err != nil {
			return nil, err
		}
		user.IsVerified = true
	}

	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.DB().WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	now := time.Now().UTC()
	if err := s.db.DB().WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		utils.GetLogger().Warn("Failed to record last login", utils.LogFields{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
	user.LastLoginAt = &now

	return &user, nil
}

// ResendVerification re-issues the verification token for an unverified
// account. Callers must not reveal whether the address exists.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.DB().WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if user.IsVerified {
		return "", ErrAlreadyVerified
	}

	return s.jwt.GenerateVerificationToken(user.ID, user.Email)
}
