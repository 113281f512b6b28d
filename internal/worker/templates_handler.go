package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/oosca/comeals-backend/internal/service"
	"github.com/oosca/comeals-backend/internal/tasks"
)

// MealTemplatesHandler generates meal templates over a calendar range.
// Template runs cover months at a time, so they happen off the request
// path.
type MealTemplatesHandler struct {
	scheduleService *service.ScheduleService
}

// NewMealTemplatesHandler creates a MealTemplatesHandler.
func NewMealTemplatesHandler(scheduleService *service.ScheduleService) *MealTemplatesHandler {
	if scheduleService == nil {
		panic("ScheduleService cannot be nil for MealTemplatesHandler")
	}
	return &MealTemplatesHandler{scheduleService: scheduleService}
}

// ProcessTask implements asynq.Handler.
func (h *MealTemplatesHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	var payload tasks.MealTemplatesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal templates task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{
		"community_id": payload.CommunityID,
		"start":        payload.Start.Format("2006-01-02"),
		"end":          payload.End.Format("2006-01-02"),
	})
	logCtx.Info("Processing meal templates task...")

	created, err := h.scheduleService.CreateTemplates(ctx, payload.CommunityID, payload.Start, payload.End)
	if err != nil {
		logCtx.WithError(err).Error("Template generation failed")
		return fmt.Errorf("generate templates for community %d: %w", payload.CommunityID, err)
	}

	logCtx.WithField("created", created).Info("Meal templates task processed successfully")
	return nil
}
