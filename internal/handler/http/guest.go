package http

import (
	"net/http"

	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GuestHandler serves the guest ledger under one resident's attendance.
type GuestHandler struct {
	guestService *service.GuestService
}

// NewGuestHandler creates a GuestHandler.
func NewGuestHandler(guestService *service.GuestService) *GuestHandler {
	if guestService == nil {
		panic("GuestService cannot be nil for GuestHandler")
	}
	return &GuestHandler{guestService: guestService}
}

// AddGuestRequest carries the new guest's flags and the acting session.
type AddGuestRequest struct {
	Vegetarian bool   `json:"vegetarian"`
	SessionID  string `json:"session_id"`
}

// Add creates a guest reservation under the host resident. The response
// echoes the server-assigned id and creation time; the client needs both
// for later removal ordering.
func (h *GuestHandler) Add(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}

	var req AddGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.AddGuest: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	guest, err := h.guestService.Add(c.Request.Context(), mealID, residentID, req.Vegetarian, req.SessionID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"guest_id":    guest.ID,
	}).Info("Handler.AddGuest: Guest added")
	SuccessResponse(c, http.StatusOK, gin.H{
		"id":         guest.ID,
		"vegetarian": guest.Vegetarian,
		"created_at": guest.CreatedAt,
	})
}

// RemoveGuestRequest identifies the acting session.
type RemoveGuestRequest struct {
	SessionID string `json:"session_id"`
}

// Remove deletes one guest reservation.
func (h *GuestHandler) Remove(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}
	guestID, ok := uintParam(c, "guest_id")
	if !ok {
		return
	}

	var req RemoveGuestRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.guestService.Remove(c.Request.Context(), mealID, residentID, guestID, req.SessionID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"guest_id":    guestID,
	}).Info("Handler.RemoveGuest: Guest removed")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Guest removed"})
}

// RenameGuestRequest carries the guest's display name. A null name
// clears it back to the anonymous placeholder.
type RenameGuestRequest struct {
	Name      *string `json:"name"`
	SessionID string  `json:"session_id"`
}

// Rename sets or clears a guest's display name.
func (h *GuestHandler) Rename(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}
	guestID, ok := uintParam(c, "guest_id")
	if !ok {
		return
	}

	var req RenameGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.RenameGuest: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := h.guestService.Rename(c.Request.Context(), mealID, residentID, guestID, req.Name, req.SessionID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"meal_id": mealID, "guest_id": guestID}).
		Info("Handler.RenameGuest: Guest renamed")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Guest renamed"})
}
