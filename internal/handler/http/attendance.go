package http

import (
	"net/http"

	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AttendanceHandler serves the join/leave/flags operations on one
// resident's attendance at one meal.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates an AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	if attendanceService == nil {
		panic("AttendanceService cannot be nil for AttendanceHandler")
	}
	return &AttendanceHandler{attendanceService: attendanceService}
}

// JoinRequest carries the initial diner flags and the acting session.
type JoinRequest struct {
	Late       bool   `json:"late"`
	Vegetarian bool   `json:"vegetarian"`
	SessionID  string `json:"session_id"`
}

// Join adds the resident to the meal and returns the server commit time,
// which the client stores for the closed-window freeze check.
func (h *AttendanceHandler) Join(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Join: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	record, err := h.attendanceService.Join(c.Request.Context(), mealID, residentID, req.Late, req.Vegetarian, req.SessionID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"meal_id": mealID, "resident_id": residentID}).
		Info("Handler.Join: Resident joined meal")
	SuccessResponse(c, http.StatusOK, gin.H{"attending_at": record.AttendingAt})
}

// LeaveRequest identifies the acting session.
type LeaveRequest struct {
	SessionID string `json:"session_id"`
}

// Leave removes the resident from the meal.
func (h *AttendanceHandler) Leave(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}

	var req LeaveRequest
	// DELETE bodies are optional; a missing session id just means the
	// change echoes back to its originator.
	_ = c.ShouldBindJSON(&req)

	if err := h.attendanceService.Leave(c.Request.Context(), mealID, residentID, req.SessionID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"meal_id": mealID, "resident_id": residentID}).
		Info("Handler.Leave: Resident left meal")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Attendance removed"})
}

// UpdateFlagsRequest carries partial flag changes. Absent fields keep
// their current value.
type UpdateFlagsRequest struct {
	Late       *bool  `json:"late"`
	Vegetarian *bool  `json:"vegetarian"`
	SessionID  string `json:"session_id"`
}

// UpdateFlags changes the late or vegetarian flag on an existing
// attendance record.
func (h *AttendanceHandler) UpdateFlags(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}

	var req UpdateFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateFlags: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := h.attendanceService.UpdateFlags(c.Request.Context(), mealID, residentID, req.Late, req.Vegetarian, req.SessionID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"meal_id": mealID, "resident_id": residentID}).
		Info("Handler.UpdateFlags: Attendance flags updated")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Flags updated"})
}
