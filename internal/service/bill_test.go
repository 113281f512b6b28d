package service_test

import (
	"context"
	"testing"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/repository/mocks"
	"github.com/oosca/comeals-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type billServiceMocks struct {
	mealRepo  *mocks.MealRepository
	billRepo  *mocks.BillRepository
	stateRepo *mocks.StateRepository
}

func newBillService(t *testing.T) (*service.BillService, *billServiceMocks) {
	t.Helper()
	m := &billServiceMocks{
		mealRepo:  new(mocks.MealRepository),
		billRepo:  new(mocks.BillRepository),
		stateRepo: new(mocks.StateRepository),
	}
	svc := service.NewBillService(m.mealRepo, m.billRepo, m.stateRepo, service.NoQueue)
	return svc, m
}

func TestBillService_Save_CreatesNewBill(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42, CommunityID: 3}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.billRepo.On("Find", ctx, uint(42), uint(7)).Return(nil, repository.ErrNotFound).Once()
	m.billRepo.On("Save", ctx, mock.MatchedBy(func(b *domain.Bill) bool {
		return b.MealID == 42 && b.ResidentID == 7 && b.CommunityID == 3 && b.AmountCents == 1250
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Bill).ID = 9
	}).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	bill, err := svc.Save(ctx, 42, 7, 1250, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, uint(9), bill.ID)
	assert.Equal(t, 1250, bill.AmountCents)
	m.billRepo.AssertExpectations(t)
}

func TestBillService_Save_OverwritesExistingBill(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42, CommunityID: 3}
	existing := &domain.Bill{ID: 9, MealID: 42, ResidentID: 7, CommunityID: 3, AmountCents: 500}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.billRepo.On("Find", ctx, uint(42), uint(7)).Return(existing, nil).Once()
	m.billRepo.On("Save", ctx, mock.MatchedBy(func(b *domain.Bill) bool {
		return b.ID == 9 && b.AmountCents == 2000
	})).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	bill, err := svc.Save(ctx, 42, 7, 2000, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, uint(9), bill.ID)
	m.billRepo.AssertExpectations(t)
}

func TestBillService_Save_ReconciledMealRejected(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	reconciliationID := uint(4)
	meal := &domain.Meal{ID: 42, ReconciliationID: &reconciliationID}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()

	_, err := svc.Save(ctx, 42, 7, 1000, "sess-1")

	var rejected *service.ValidationError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, service.MsgMealReconciled, rejected.Message)
	m.billRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBillService_Save_NegativeAmountRejected(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()

	_, err := svc.Save(ctx, 42, 7, -100, "sess-1")

	var rejected *service.ValidationError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, service.MsgBillNegative, rejected.Message)
	m.billRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBillService_Remove_DeletesBill(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42}
	bill := &domain.Bill{ID: 9, MealID: 42, ResidentID: 7}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.billRepo.On("Find", ctx, uint(42), uint(7)).Return(bill, nil).Once()
	m.billRepo.On("Delete", ctx, bill).Return(nil).Once()
	m.stateRepo.On("PublishUpdate", ctx, mock.Anything).Return(nil).Once()

	err := svc.Remove(ctx, 42, 7, "sess-1")

	require.NoError(t, err)
	m.billRepo.AssertExpectations(t)
}

func TestBillService_Remove_MissingBill(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	meal := &domain.Meal{ID: 42}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()
	m.billRepo.On("Find", ctx, uint(42), uint(7)).Return(nil, repository.ErrNotFound).Once()

	err := svc.Remove(ctx, 42, 7, "sess-1")

	assert.ErrorIs(t, err, service.ErrBillNotFound)
	m.billRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestBillService_Remove_ReconciledMealRejected(t *testing.T) {
	svc, m := newBillService(t)
	ctx := context.Background()

	reconciliationID := uint(4)
	meal := &domain.Meal{ID: 42, ReconciliationID: &reconciliationID}
	m.mealRepo.On("FindByID", ctx, uint(42)).Return(meal, nil).Once()

	err := svc.Remove(ctx, 42, 7, "sess-1")

	var rejected *service.ValidationError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, service.MsgMealReconciled, rejected.Message)
	m.billRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
