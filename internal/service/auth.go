package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates residents and issues session tokens.
type AuthService struct {
	residentRepo repository.ResidentRepository
	jwtSecret    []byte
	jwtExpiry    time.Duration
}

// NewAuthService creates an AuthService. jwtSecretKey must come from
// configuration; jwtExpiryHours falls back to 24 when non-positive.
func NewAuthService(residentRepo repository.ResidentRepository, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if residentRepo == nil {
		panic("ResidentRepository cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	return &AuthService{
		residentRepo: residentRepo,
		jwtSecret:    []byte(jwtSecretKey),
		jwtExpiry:    time.Duration(jwtExpiryHours) * time.Hour,
	}, nil
}

// Login checks a resident's credentials and returns a signed token plus the
// resident. Lookup failures and bad passwords both come back as
// ErrAuthenticationFailed so callers cannot distinguish them.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Resident, error) {
	logCtx := logrus.WithField("email", email)

	resident, err := s.residentRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrResidentNotFound) {
			logCtx.Warn("Login attempt failed: resident not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding resident")
		}
		return "", nil, ErrAuthenticationFailed
	}
	if resident == nil {
		logCtx.Warn("Login attempt failed: repository returned nil resident without error")
		return "", nil, ErrAuthenticationFailed
	}
	if !resident.Active {
		logCtx.WithField("resident_id", resident.ID).Warn("Login attempt failed: resident inactive")
		return "", nil, ErrAuthenticationFailed
	}

	if bcrypt.CompareHashAndPassword([]byte(resident.PasswordDigest), []byte(password)) != nil {
		logCtx.Warn("Login attempt failed: invalid password")
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(resident)
	if err != nil {
		logCtx.WithError(err).Error("Failed to sign token during login")
		return "", nil, ErrInternalServer
	}

	logCtx.WithField("resident_id", resident.ID).Info("Resident logged in")
	return token, resident, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

func (s *AuthService) generateJWT(resident *domain.Resident) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"resident_id":  resident.ID,
		"community_id": resident.CommunityID,
		"exp":          time.Now().Add(s.jwtExpiry).Unix(),
		"iat":          time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
