package service

import (
	"context"
	"errors"
	"time"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/tasks"

	"github.com/sirupsen/logrus"
)

// BillService manages cook bills. A bill is a resident's claim on a meal's
// cost; saving one recomputes the meal's cost cache through the repository.
type BillService struct {
	mealRepo  repository.MealRepository
	billRepo  repository.BillRepository
	stateRepo repository.StateRepository
	queue     TaskQueue
}

func NewBillService(
	mealRepo repository.MealRepository,
	billRepo repository.BillRepository,
	stateRepo repository.StateRepository,
	queue TaskQueue,
) *BillService {
	if mealRepo == nil {
		panic("MealRepository cannot be nil for BillService")
	}
	if billRepo == nil {
		panic("BillRepository cannot be nil for BillService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for BillService")
	}
	if queue == nil {
		queue = NoQueue
	}
	return &BillService{
		mealRepo:  mealRepo,
		billRepo:  billRepo,
		stateRepo: stateRepo,
		queue:     queue,
	}
}

// Save creates or updates the resident's bill for a meal. A resident holds
// at most one bill per meal, so a second save overwrites the amount rather
// than adding a row. Returns the saved bill so the client can commit its
// optimistic state.
func (s *BillService) Save(ctx context.Context, mealID, residentID uint, amountCents int, sessionID string) (*domain.Bill, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":      mealID,
		"resident_id":  residentID,
		"amount_cents": amountCents,
		"session_id":   sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.Reconciled() {
		return nil, reject(MsgMealReconciled)
	}
	if amountCents < 0 {
		logCtx.Warn("Rejected bill: negative amount")
		return nil, reject(MsgBillNegative)
	}

	bill, err := s.billRepo.Find(ctx, mealID, residentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logCtx.WithError(err).Error("Failed to load bill")
			return nil, ErrInternalServer
		}
		bill = &domain.Bill{
			MealID:      mealID,
			ResidentID:  residentID,
			CommunityID: meal.CommunityID,
		}
	}
	bill.AmountCents = amountCents

	if err := s.billRepo.Save(ctx, bill); err != nil {
		logCtx.WithError(err).Error("Failed to save bill")
		return nil, ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: residentID,
		Change:     "bill_saved",
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.WithField("bill_id", bill.ID).Info("Bill saved")
	return bill, nil
}

// Remove deletes the resident's bill for a meal and drops its share of the
// meal's cost cache.
func (s *BillService) Remove(ctx context.Context, mealID, residentID uint, sessionID string) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"session_id":  sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return err
	}
	if meal.Reconciled() {
		return reject(MsgMealReconciled)
	}

	bill, err := s.billRepo.Find(ctx, mealID, residentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBillNotFound
		}
		logCtx.WithError(err).Error("Failed to load bill")
		return ErrInternalServer
	}

	if err := s.billRepo.Delete(ctx, bill); err != nil {
		logCtx.WithError(err).Error("Failed to delete bill")
		return ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: residentID,
		Change:     "bill_removed",
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.Info("Bill removed")
	return nil
}

func (s *BillService) findMeal(ctx context.Context, mealID uint) (*domain.Meal, error) {
	meal, err := s.mealRepo.FindByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			return nil, ErrMealNotFound
		}
		logrus.WithError(err).WithField("meal_id", mealID).Error("Failed to load meal")
		return nil, ErrInternalServer
	}
	return meal, nil
}

func (s *BillService) fanOut(ctx context.Context, mealID uint, sessionID string) {
	err := s.stateRepo.PublishUpdate(ctx, repository.MealUpdate{
		MealID:    mealID,
		Type:      "update",
		SessionID: sessionID,
	})
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Warn("Failed to publish meal update")
	}
}

func (s *BillService) audit(ctx context.Context, p tasks.MealAuditPayload) {
	payload, err := tasks.NewMealAuditTask(p)
	if err != nil {
		logrus.WithError(err).Warn("Failed to serialize audit task")
		return
	}
	if err := s.queue.Enqueue(ctx, tasks.TypeMealAudit, payload); err != nil {
		logrus.WithError(err).WithField("meal_id", p.MealID).Warn("Failed to enqueue audit task")
	}
}
