package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/repository/mocks"
	"github.com/oosca/comeals-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResident(t *testing.T, password string) *domain.Resident {
	t.Helper()
	digest, err := service.HashPassword(password)
	require.NoError(t, err)
	return &domain.Resident{
		ID:             7,
		Name:           "Ada",
		Email:          "ada@example.com",
		CommunityID:    1,
		Active:         true,
		PasswordDigest: digest,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	mockResidentRepo := new(mocks.ResidentRepository)
	authService, err := service.NewAuthService(mockResidentRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	resident := newTestResident(t, "StrongPass123")

	mockResidentRepo.On("FindByEmail", ctx, "ada@example.com").
		Return(resident, nil).
		Once()

	token, got, err := authService.Login(ctx, "ada@example.com", "StrongPass123")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, got)
	assert.Equal(t, uint(7), got.ID)

	mockResidentRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockResidentRepo := new(mocks.ResidentRepository)
	authService, err := service.NewAuthService(mockResidentRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	mockResidentRepo.On("FindByEmail", ctx, "ada@example.com").
		Return(newTestResident(t, "StrongPass123"), nil).
		Once()

	token, _, err := authService.Login(ctx, "ada@example.com", "wrong")

	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	assert.Empty(t, token)
	mockResidentRepo.AssertExpectations(t)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mockResidentRepo := new(mocks.ResidentRepository)
	authService, err := service.NewAuthService(mockResidentRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	mockResidentRepo.On("FindByEmail", ctx, "nobody@example.com").
		Return(nil, repository.ErrResidentNotFound).
		Once()

	token, _, err := authService.Login(ctx, "nobody@example.com", "whatever")

	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	assert.Empty(t, token)
	mockResidentRepo.AssertExpectations(t)
}

func TestAuthService_Login_RepositoryErrorHidden(t *testing.T) {
	mockResidentRepo := new(mocks.ResidentRepository)
	authService, err := service.NewAuthService(mockResidentRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	mockResidentRepo.On("FindByEmail", ctx, "ada@example.com").
		Return(nil, errors.New("connection reset")).
		Once()

	// Database trouble looks the same as bad credentials from outside.
	_, _, err = authService.Login(ctx, "ada@example.com", "StrongPass123")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	mockResidentRepo.AssertExpectations(t)
}

func TestAuthService_Login_InactiveResident(t *testing.T) {
	mockResidentRepo := new(mocks.ResidentRepository)
	authService, err := service.NewAuthService(mockResidentRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	resident := newTestResident(t, "StrongPass123")
	resident.Active = false
	mockResidentRepo.On("FindByEmail", ctx, "ada@example.com").
		Return(resident, nil).
		Once()

	_, _, err = authService.Login(ctx, "ada@example.com", "StrongPass123")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	mockResidentRepo.AssertExpectations(t)
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	mockResidentRepo := new(mocks.ResidentRepository)
	_, err := service.NewAuthService(mockResidentRepo, "", 1)
	assert.Error(t, err)
}
