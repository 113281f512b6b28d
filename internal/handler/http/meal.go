package http

import (
	"net/http"
	"time"

	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MealHandler serves meal snapshots and the capacity and lifecycle
// mutations on a single meal.
type MealHandler struct {
	mealService *service.MealService
}

// NewMealHandler creates a MealHandler.
func NewMealHandler(mealService *service.MealService) *MealHandler {
	if mealService == nil {
		panic("MealService cannot be nil for MealHandler")
	}
	return &MealHandler{mealService: mealService}
}

// Get returns the authoritative snapshot of one meal. Viewers call this
// on first load and again after every invalidation message.
func (h *MealHandler) Get(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.mealService.Snapshot(c.Request.Context(), mealID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, snapshot)
}

// SetMaxRequest carries the new attendee ceiling. A null max removes the
// ceiling entirely.
type SetMaxRequest struct {
	Max       *int   `json:"max"`
	SessionID string `json:"session_id"`
}

// SetMax updates the meal's attendee ceiling.
func (h *MealHandler) SetMax(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SetMaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SetMax: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := h.mealService.SetMax(c.Request.Context(), mealID, req.Max, req.SessionID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("meal_id", mealID).Info("Handler.SetMax: Meal max updated")
	SuccessResponse(c, http.StatusOK, gin.H{"max": req.Max})
}

// ToggleClosedRequest identifies the session flipping the meal.
type ToggleClosedRequest struct {
	SessionID string `json:"session_id"`
}

// ToggleClosed flips the meal between open and closed.
func (h *MealHandler) ToggleClosed(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req ToggleClosedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.ToggleClosed: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	closed, err := h.mealService.ToggleClosed(c.Request.Context(), mealID, req.SessionID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"meal_id": mealID, "closed": closed}).
		Info("Handler.ToggleClosed: Meal lifecycle flipped")
	SuccessResponse(c, http.StatusOK, gin.H{"closed": closed})
}

// ReconcileRequest sets the cutoff date for closing a community's books.
type ReconcileRequest struct {
	Cutoff time.Time `json:"cutoff" binding:"required"`
}

// Reconcile stamps every unreconciled meal before the cutoff and returns
// the settlement summary.
func (h *MealHandler) Reconcile(c *gin.Context) {
	communityID, ok := uintParam(c, "community_id")
	if !ok {
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Reconcile: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: cutoff is required")
		return
	}

	rec, err := h.mealService.Reconcile(c.Request.Context(), communityID, req.Cutoff)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if rec == nil {
		// Nothing to settle before the cutoff.
		SuccessResponse(c, http.StatusOK, gin.H{"meals_count": 0})
		return
	}

	logrus.WithFields(logrus.Fields{
		"community_id": communityID,
		"meals_count":  rec.MealsCount,
	}).Info("Handler.Reconcile: Community books closed")
	SuccessResponse(c, http.StatusOK, rec)
}
