package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "swivel-api"

// purposeEmailVerify marks single-purpose verification tokens so a session
// token can never be replayed as a verification link and vice versa.
const purposeEmailVerify = "email_verify"

type JWTService struct {
	secret        []byte
	expiry        time.Duration
	refreshExpiry time.Duration
	verifyExpiry  time.Duration
}

type Claims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

type VerificationClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewJWTService(secret string, expiry, refreshExpiry, verifyExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:        []byte(secret),
		expiry:        expiry,
		refreshExpiry: refreshExpiry,
		verifyExpiry:  verifyExpiry,
	}
}

func (s *JWTService) GenerateAccessToken(userID, orgID, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         userID,
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) GenerateRefreshToken(userID, orgID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID:         userID,
		OrganizationID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GenerateVerificationToken issues the signed, short-lived token sent in the
// confirmation e-mail. It doubles as the typed "provisioning intent" carrier
// across the redirect boundary.
func (s *JWTService) GenerateVerificationToken(userID, email string) (string, error) {
	now := time.Now()
	claims := VerificationClaims{
		UserID:  userID,
		Email:   email,
		Purpose: purposeEmailVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.verifyExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func (s *JWTService) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, s.keyFunc)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*RefreshClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid refresh token")
}

func (s *JWTService) ValidateVerificationToken(tokenString string) (*VerificationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &VerificationClaims{}, s.keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*VerificationClaims)
	if !ok || !token.Valid || claims.Purpose != purposeEmailVerify {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RefreshTokenPair rotates a refresh token into a new access/refresh pair.
// Refresh tokens only carry user and organization ids, so the caller
// supplies email and role from current profile state; an empty orgID keeps
// the organization from the presented token.
func (s *JWTService) RefreshTokenPair(refreshToken, orgID, email, role string) (accessToken, newRefreshToken string, err error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", "", err
	}

	if orgID == "" {
		orgID = claims.OrganizationID
	}

	accessToken, err = s.GenerateAccessToken(claims.UserID, orgID, email, role)
	if err != nil {
		return "", "", err
	}

	newRefreshToken, err = s.GenerateRefreshToken(claims.UserID, orgID)
	if err != nil {
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

func (s *JWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
