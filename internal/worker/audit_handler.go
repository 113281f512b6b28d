package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/tasks"
)

// MealAuditHandler persists meal change-log rows enqueued by the
// services after each committed mutation.
type MealAuditHandler struct {
	auditRepo repository.AuditRepository
}

// NewMealAuditHandler creates a MealAuditHandler.
func NewMealAuditHandler(auditRepo repository.AuditRepository) *MealAuditHandler {
	if auditRepo == nil {
		panic("AuditRepository cannot be nil for MealAuditHandler")
	}
	return &MealAuditHandler{auditRepo: auditRepo}
}

// ProcessTask implements asynq.Handler.
func (h *MealAuditHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	var payload tasks.MealAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal audit task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	entry := domain.MealAudit{
		MealID:     payload.MealID,
		ResidentID: payload.ResidentID,
		Change:     payload.Change,
		Detail:     payload.Detail,
		SessionID:  payload.SessionID,
		OccurredAt: payload.OccurredAt,
	}
	if err := h.auditRepo.SaveBatch(ctx, []domain.MealAudit{entry}); err != nil {
		logCtx.WithError(err).Errorf("Failed to save audit entry for meal %d", payload.MealID)
		return fmt.Errorf("failed to save audit entry for meal %d: %w", payload.MealID, err)
	}

	logCtx.WithFields(logrus.Fields{
		"meal_id": payload.MealID,
		"change":  payload.Change,
	}).Info("Audit task processed successfully")
	return nil
}
