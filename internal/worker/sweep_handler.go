package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/oosca/comeals-backend/internal/billing"
	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/tasks"
)

const (
	// Minimum gap between sweeps of the same community. With several
	// server instances all running the periodic task, the shared
	// last-sweep timestamp keeps them from stampeding.
	sweepMinInterval = 5 * time.Minute

	// How long the last-sweep record lives in Redis.
	sweepRecordTTL = 24 * time.Hour
)

// ReconciliationSweepHandler walks unreconciled past meals and logs the
// ones whose bills do not balance against what attendance collected, so
// an administrator can fix them before closing the books.
type ReconciliationSweepHandler struct {
	mealRepo      repository.MealRepository
	billRepo      repository.BillRepository
	communityRepo repository.CommunityRepository
	stateRepo     repository.StateRepository
}

// NewReconciliationSweepHandler creates a ReconciliationSweepHandler.
func NewReconciliationSweepHandler(
	mealRepo repository.MealRepository,
	billRepo repository.BillRepository,
	communityRepo repository.CommunityRepository,
	stateRepo repository.StateRepository,
) *ReconciliationSweepHandler {
	if mealRepo == nil {
		panic("MealRepository cannot be nil for ReconciliationSweepHandler")
	}
	if billRepo == nil {
		panic("BillRepository cannot be nil for ReconciliationSweepHandler")
	}
	if communityRepo == nil {
		panic("CommunityRepository cannot be nil for ReconciliationSweepHandler")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for ReconciliationSweepHandler")
	}
	return &ReconciliationSweepHandler{
		mealRepo:      mealRepo,
		billRepo:      billRepo,
		communityRepo: communityRepo,
		stateRepo:     stateRepo,
	}
}

// ProcessTask implements asynq.Handler.
func (h *ReconciliationSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})
	logCtx.Info("Processing reconciliation sweep task...")

	var payload tasks.ReconciliationSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logCtx.WithError(err).Error("Failed to unmarshal sweep task payload")
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	communityIDs, err := h.resolveCommunities(ctx, payload.CommunityID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list communities for sweep")
		return fmt.Errorf("list communities: %w", err)
	}

	swept := 0
	for _, communityID := range communityIDs {
		if err := h.sweepCommunity(ctx, communityID); err != nil {
			// One broken community must not block the others.
			logCtx.WithError(err).WithField("community_id", communityID).
				Error("Sweep failed for community")
			continue
		}
		swept++
	}

	logCtx.WithFields(logrus.Fields{
		"communities": len(communityIDs),
		"swept":       swept,
	}).Info("Reconciliation sweep task completed")
	return nil
}

func (h *ReconciliationSweepHandler) resolveCommunities(ctx context.Context, communityID uint) ([]uint, error) {
	if communityID != 0 {
		return []uint{communityID}, nil
	}
	communities, err := h.communityRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(communities))
	for _, c := range communities {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (h *ReconciliationSweepHandler) sweepCommunity(ctx context.Context, communityID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"community_id": communityID,
		"operation":    "sweepCommunity",
	})

	lastSweep, err := h.stateRepo.GetLastSweepTime(ctx, communityID)
	if err != nil {
		return fmt.Errorf("get last sweep time: %w", err)
	}
	now := time.Now()
	if !lastSweep.IsZero() && now.Sub(lastSweep) < sweepMinInterval {
		logCtx.Debug("Community swept recently, skipping")
		return nil
	}

	meals, err := h.mealRepo.FindUnreconciled(ctx, communityID, now)
	if err != nil {
		return fmt.Errorf("find unreconciled meals: %w", err)
	}

	unbalanced := 0
	for i := range meals {
		meal := &meals[i]
		ok, err := h.checkMeal(ctx, meal)
		if err != nil {
			logCtx.WithError(err).WithField("meal_id", meal.ID).Warn("Could not check meal balance")
			continue
		}
		if !ok {
			unbalanced++
		}
	}

	if err := h.stateRepo.SetLastSweepTime(ctx, communityID, now, sweepRecordTTL); err != nil {
		logCtx.WithError(err).Warn("Failed to record sweep time")
	}

	logCtx.WithFields(logrus.Fields{
		"meals":      len(meals),
		"unbalanced": unbalanced,
	}).Info("Community sweep complete")
	return nil
}

// checkMeal reports whether the meal's bills balance against what its
// attendance collected.
func (h *ReconciliationSweepHandler) checkMeal(ctx context.Context, meal *domain.Meal) (bool, error) {
	bills, err := h.billRepo.FindByMeal(ctx, meal.ID)
	if err != nil {
		return false, fmt.Errorf("load bills: %w", err)
	}

	checker := billing.NewChecker(meal, bills)
	if checker.Balanced() {
		return true, nil
	}

	logrus.WithFields(logrus.Fields{
		"meal_id":     meal.ID,
		"date":        meal.Date.Format("2006-01-02"),
		"diff":        checker.Diff(),
		"whats_wrong": checker.WhatsWrong(),
		"subsidized":  checker.Subsidized(),
	}).Warn("Meal does not balance")
	return false, nil
}
