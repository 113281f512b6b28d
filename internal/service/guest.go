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

// GuestService is the authoritative side of the guest ledger.
type GuestService struct {
	mealRepo  repository.MealRepository
	guestRepo repository.GuestRepository
	stateRepo repository.StateRepository
	queue     TaskQueue
}

func NewGuestService(
	mealRepo repository.MealRepository,
	guestRepo repository.GuestRepository,
	stateRepo repository.StateRepository,
	queue TaskQueue,
) *GuestService {
	if mealRepo == nil {
		panic("MealRepository cannot be nil for GuestService")
	}
	if guestRepo == nil {
		panic("GuestRepository cannot be nil for GuestService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for GuestService")
	}
	if queue == nil {
		queue = NoQueue
	}
	return &GuestService{
		mealRepo:  mealRepo,
		guestRepo: guestRepo,
		stateRepo: stateRepo,
		queue:     queue,
	}
}

// Add reserves a guest slot hosted by the resident and returns the created
// row; the client needs its id and creation time to commit its optimistic
// state. Capacity is enforced the same way as a resident join.
func (s *GuestService) Add(ctx context.Context, mealID, hostID uint, vegetarian bool, sessionID string) (*domain.Guest, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": hostID,
		"session_id":  sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.Reconciled() {
		return nil, reject(MsgMealReconciled)
	}
	if meal.Closed && meal.Max != nil && meal.AttendeesCount() >= *meal.Max {
		logCtx.Warn("Rejected guest: meal full")
		return nil, reject(MsgMealFull)
	}
	if meal.Closed && meal.Max == nil {
		logCtx.Warn("Rejected guest: meal closed without ceiling")
		return nil, reject(MsgMealClosed)
	}

	guest := &domain.Guest{
		MealID:      mealID,
		ResidentID:  hostID,
		CommunityID: meal.CommunityID,
		Vegetarian:  vegetarian,
		Multiplier:  1,
	}
	if err := s.guestRepo.Create(ctx, guest); err != nil {
		logCtx.WithError(err).Error("Failed to create guest")
		return nil, ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: hostID,
		Change:     "guest_added",
		SessionID:  sessionID,
		OccurredAt: guest.CreatedAt,
	})
	logCtx.WithField("guest_id", guest.ID).Info("Guest added")
	return guest, nil
}

// Remove deletes a guest from the ledger. The host owns the row, and once
// the meal has closed only guests added after the closing instant may go.
func (s *GuestService) Remove(ctx context.Context, mealID, hostID, guestID uint, sessionID string) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": hostID,
		"guest_id":    guestID,
		"session_id":  sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return err
	}
	if meal.Reconciled() {
		return reject(MsgMealReconciled)
	}

	guest, err := s.guestRepo.FindByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, repository.ErrGuestNotFound) {
			return ErrGuestNotFound
		}
		logCtx.WithError(err).Error("Failed to load guest")
		return ErrInternalServer
	}
	if guest.MealID != mealID || guest.ResidentID != hostID {
		// Hosts delete their own guests only.
		return ErrGuestNotFound
	}

	if !guest.Removable(meal) {
		logCtx.Warn("Rejected guest removal: frozen by closed window")
		return reject(MsgGuestFrozen)
	}

	if err := s.guestRepo.Delete(ctx, guest); err != nil {
		logCtx.WithError(err).Error("Failed to delete guest")
		return ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: hostID,
		Change:     "guest_removed",
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.Info("Guest removed")
	return nil
}

// Rename fills in or changes a guest's name. Names arrive after the
// reservation, sometimes much later, so this skips the capacity checks.
func (s *GuestService) Rename(ctx context.Context, mealID, hostID, guestID uint, name *string, sessionID string) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":  mealID,
		"guest_id": guestID,
	})

	guest, err := s.guestRepo.FindByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, repository.ErrGuestNotFound) {
			return ErrGuestNotFound
		}
		logCtx.WithError(err).Error("Failed to load guest")
		return ErrInternalServer
	}
	if guest.MealID != mealID || guest.ResidentID != hostID {
		return ErrGuestNotFound
	}

	if err := s.guestRepo.UpdateName(ctx, guestID, name); err != nil {
		logCtx.WithError(err).Error("Failed to rename guest")
		return ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	return nil
}

func (s *GuestService) findMeal(ctx context.Context, mealID uint) (*domain.Meal, error) {
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

func (s *GuestService) fanOut(ctx context.Context, mealID uint, sessionID string) {
	err := s.stateRepo.PublishUpdate(ctx, repository.MealUpdate{
		MealID:    mealID,
		Type:      "update",
		SessionID: sessionID,
	})
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Warn("Failed to publish meal update")
	}
}

func (s *GuestService) audit(ctx context.Context, p tasks.MealAuditPayload) {
	payload, err := tasks.NewMealAuditTask(p)
	if err != nil {
		logrus.WithError(err).Warn("Failed to serialize audit task")
		return
	}
	if err := s.queue.Enqueue(ctx, tasks.TypeMealAudit, payload); err != nil {
		logrus.WithError(err).WithField("meal_id", p.MealID).Warn("Failed to enqueue audit task")
	}
}
