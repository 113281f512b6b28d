package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository/mocks"
	"github.com/oosca/comeals-backend/internal/tasks"
	"github.com/oosca/comeals-backend/internal/worker"
)

type sweepMocks struct {
	mealRepo      *mocks.MealRepository
	billRepo      *mocks.BillRepository
	communityRepo *mocks.CommunityRepository
	stateRepo     *mocks.StateRepository
}

func newSweepHandler() (*worker.ReconciliationSweepHandler, sweepMocks) {
	m := sweepMocks{
		mealRepo:      new(mocks.MealRepository),
		billRepo:      new(mocks.BillRepository),
		communityRepo: new(mocks.CommunityRepository),
		stateRepo:     new(mocks.StateRepository),
	}
	h := worker.NewReconciliationSweepHandler(m.mealRepo, m.billRepo, m.communityRepo, m.stateRepo)
	return h, m
}

func sweepTask(t *testing.T, communityID uint) *asynq.Task {
	t.Helper()
	payload, err := tasks.NewReconciliationSweepTask(tasks.ReconciliationSweepPayload{CommunityID: communityID})
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeReconciliationSweep, payload)
}

func TestSweep_ChecksEveryUnreconciledMeal(t *testing.T) {
	h, m := newSweepHandler()

	meals := []domain.Meal{
		{ID: 1, CommunityID: 7, Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
		{ID: 2, CommunityID: 7, Date: time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)},
	}

	m.stateRepo.On("GetLastSweepTime", mock.Anything, uint(7)).Return(time.Time{}, nil)
	m.mealRepo.On("FindUnreconciled", mock.Anything, uint(7), mock.AnythingOfType("time.Time")).Return(meals, nil)
	m.billRepo.On("FindByMeal", mock.Anything, uint(1)).Return([]domain.Bill{}, nil)
	m.billRepo.On("FindByMeal", mock.Anything, uint(2)).Return([]domain.Bill{}, nil)
	m.stateRepo.On("SetLastSweepTime", mock.Anything, uint(7), mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Duration")).Return(nil)

	err := h.ProcessTask(context.Background(), sweepTask(t, 7))
	require.NoError(t, err)

	m.mealRepo.AssertExpectations(t)
	m.billRepo.AssertExpectations(t)
	m.stateRepo.AssertExpectations(t)
	m.communityRepo.AssertNotCalled(t, "FindAll", mock.Anything)
}

func TestSweep_ZeroCommunitySweepsAll(t *testing.T) {
	h, m := newSweepHandler()

	communities := []domain.Community{{ID: 1, Name: "North"}, {ID: 2, Name: "South"}}
	m.communityRepo.On("FindAll", mock.Anything).Return(communities, nil)
	for _, id := range []uint{1, 2} {
		m.stateRepo.On("GetLastSweepTime", mock.Anything, id).Return(time.Time{}, nil)
		m.mealRepo.On("FindUnreconciled", mock.Anything, id, mock.AnythingOfType("time.Time")).Return([]domain.Meal{}, nil)
		m.stateRepo.On("SetLastSweepTime", mock.Anything, id, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Duration")).Return(nil)
	}

	err := h.ProcessTask(context.Background(), sweepTask(t, 0))
	require.NoError(t, err)

	m.communityRepo.AssertExpectations(t)
	m.mealRepo.AssertExpectations(t)
	m.stateRepo.AssertExpectations(t)
}

func TestSweep_SkipsRecentlySweptCommunity(t *testing.T) {
	h, m := newSweepHandler()

	m.stateRepo.On("GetLastSweepTime", mock.Anything, uint(7)).Return(time.Now().Add(-time.Minute), nil)

	err := h.ProcessTask(context.Background(), sweepTask(t, 7))
	require.NoError(t, err)

	m.mealRepo.AssertNotCalled(t, "FindUnreconciled", mock.Anything, mock.Anything, mock.Anything)
	m.stateRepo.AssertNotCalled(t, "SetLastSweepTime", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
