package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/repository/mocks"
	"github.com/oosca/comeals-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mealServiceMocks struct {
	mealRepo       *mocks.MealRepository
	residentRepo   *mocks.ResidentRepository
	attendanceRepo *mocks.AttendanceRepository
	guestRepo      *mocks.GuestRepository
	stateRepo      *mocks.StateRepository
}

func newMealService(t *testing.T) (*service.MealService, *mealServiceMocks) {
	t.Helper()
	m := &mealServiceMocks{
		mealRepo:       new(mocks.MealRepository),
		residentRepo:   new(mocks.ResidentRepository),
		attendanceRepo: new(mocks.AttendanceRepository),
		guestRepo:      new(mocks.GuestRepository),
		stateRepo:      new(mocks.StateRepository),
	}
	svc := service.NewMealService(m.mealRepo, m.residentRepo, m.attendanceRepo, m.guestRepo, m.stateRepo, service.NoQueue)
	return svc, m
}

func intPtr(v int) *int { return &v }

func TestMealService_SetMax_Success(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	closedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	meal := &domain.Meal{ID: 42, CommunityID: 1, Closed: true, ClosedAt: &closedAt, MealResidentsCount: 2, GuestsCount: 1}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.mealRepo.On("UpdateMax", ctx, uint(42), intPtr(5)).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, repository.MealUpdate{
		MealID:    42,
		Type:      "update",
		SessionID: "sess-1",
	}).Return(nil).Once()

	err := svc.SetMax(ctx, 42, intPtr(5), "sess-1")

	assert.NoError(t, err)
	m.mealRepo.AssertExpectations(t)
	m.stateRepo.AssertExpectations(t)
}

func TestMealService_SetMax_BelowAttendees(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42, Closed: true, MealResidentsCount: 3, GuestsCount: 1}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()

	err := svc.SetMax(ctx, 42, intPtr(3), "sess-1")

	var rejected *service.ValidationError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Max can't be less than current number of attendees.", rejected.Message)
	m.mealRepo.AssertNotCalled(t, "UpdateMax", mock.Anything, mock.Anything, mock.Anything)
	m.stateRepo.AssertNotCalled(t, "PublishUpdate", mock.Anything, mock.Anything)
}

func TestMealService_SetMax_EqualToAttendeesAllowed(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42, Closed: true, MealResidentsCount: 3, GuestsCount: 1}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.mealRepo.On("UpdateMax", ctx, uint(42), intPtr(4)).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	assert.NoError(t, svc.SetMax(ctx, 42, intPtr(4), "sess-1"))
	m.mealRepo.AssertExpectations(t)
}

func TestMealService_SetMax_OpenMealStoresNil(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42, Closed: false, MealResidentsCount: 2}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.mealRepo.On("UpdateMax", ctx, uint(42), (*int)(nil)).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	assert.NoError(t, svc.SetMax(ctx, 42, intPtr(8), "sess-1"))

	// Whatever ceiling was asked for, an open meal keeps none.
	m.mealRepo.AssertExpectations(t)
	m.mealRepo.AssertNotCalled(t, "UpdateMax", ctx, uint(42), intPtr(8))
}

func TestMealService_SetMax_ReconciledMealRefuses(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	recID := uint(9)
	meal := &domain.Meal{ID: 42, ReconciliationID: &recID}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()

	err := svc.SetMax(ctx, 42, nil, "sess-1")

	var rejected *service.ValidationError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Meal is already reconciled.", rejected.Message)
}

func TestMealService_ToggleClosed_ClosingStampsClosedAt(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42, Closed: false}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.mealRepo.On("UpdateClosed", ctx, uint(42), true, mock.MatchedBy(func(at *time.Time) bool {
		return at != nil && time.Since(*at) < time.Minute
	}), (*int)(nil)).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	closed, err := svc.ToggleClosed(ctx, 42, "sess-1")

	assert.NoError(t, err)
	assert.True(t, closed)
	m.mealRepo.AssertExpectations(t)
}

func TestMealService_ToggleClosed_ReopeningClearsCeiling(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	closedAt := time.Now().Add(-time.Hour)
	meal := &domain.Meal{ID: 42, Closed: true, ClosedAt: &closedAt, Max: intPtr(6)}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.mealRepo.On("UpdateClosed", ctx, uint(42), false, (*time.Time)(nil), (*int)(nil)).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	closed, err := svc.ToggleClosed(ctx, 42, "sess-1")

	assert.NoError(t, err)
	assert.False(t, closed)
	m.mealRepo.AssertExpectations(t)
}

func TestMealService_Reconcile_StampsAllMeals(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	meals := []domain.Meal{
		{ID: 1, Cost: 3000},
		{ID: 2, Cost: 4500},
	}
	m.mealRepo.On("FindUnreconciled", ctx, uint(1), cutoff).Return(meals, nil).Once()
	m.mealRepo.On("CreateReconciliation", ctx, mock.MatchedBy(func(rec *domain.Reconciliation) bool {
		return rec.CommunityID == 1 && rec.MealsCount == 2 && rec.TotalCost == 7500
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Reconciliation).ID = 11
	}).Return(nil).Once()
	m.mealRepo.On("MarkReconciled", ctx, []uint{1, 2}, uint(11)).Return(nil).Once()

	rec, err := svc.Reconcile(ctx, 1, cutoff)

	assert.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint(11), rec.ID)
	m.mealRepo.AssertExpectations(t)
}

func TestMealService_Reconcile_NothingToDo(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	m.mealRepo.On("FindUnreconciled", ctx, uint(1), cutoff).Return([]domain.Meal{}, nil).Once()

	rec, err := svc.Reconcile(ctx, 1, cutoff)

	assert.NoError(t, err)
	assert.Nil(t, rec)
	m.mealRepo.AssertNotCalled(t, "CreateReconciliation", mock.Anything, mock.Anything)
}

func TestMealService_Snapshot_MergesAttendance(t *testing.T) {
	svc, m := newMealService(t)
	ctx := context.Background()

	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	attendingAt := closedAt.Add(-time.Hour)
	meal := &domain.Meal{ID: 42, CommunityID: 1, Closed: true, ClosedAt: &closedAt, Max: intPtr(4)}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.residentRepo.On("FindActiveByCommunity", ctx, uint(1)).Return([]domain.Resident{
		{ID: 1, Name: "Ada", Active: true, CanCook: true},
		{ID: 2, Name: "Grace", Active: true},
	}, nil).Once()
	m.attendanceRepo.On("FindByMeal", ctx, uint(42)).Return([]domain.MealResident{
		{MealID: 42, ResidentID: 1, Late: true, AttendingAt: attendingAt},
	}, nil).Once()
	m.guestRepo.On("FindByMeal", ctx, uint(42)).Return([]domain.Guest{
		{ID: 10, MealID: 42, ResidentID: 1, CreatedAt: attendingAt},
	}, nil).Once()

	snap, err := svc.Snapshot(ctx, 42)

	require.NoError(t, err)
	require.Len(t, snap.Residents, 2)
	assert.True(t, snap.Residents[0].Attending)
	assert.True(t, snap.Residents[0].Late)
	require.NotNil(t, snap.Residents[0].AttendingAt)
	assert.Equal(t, attendingAt, *snap.Residents[0].AttendingAt)
	assert.False(t, snap.Residents[1].Attending)
	require.Len(t, snap.Guests, 1)
	assert.Equal(t, uint(10), snap.Guests[0].ID)
	assert.Equal(t, intPtr(4), snap.Max)
}
