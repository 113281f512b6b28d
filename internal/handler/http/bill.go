package http

import (
	"net/http"

	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BillHandler serves a cook's bill under one resident's attendance.
type BillHandler struct {
	billService *service.BillService
}

// NewBillHandler creates a BillHandler.
func NewBillHandler(billService *service.BillService) *BillHandler {
	if billService == nil {
		panic("BillService cannot be nil for BillHandler")
	}
	return &BillHandler{billService: billService}
}

// SaveBillRequest carries the bill amount and the acting session.
type SaveBillRequest struct {
	AmountCents int    `json:"amount_cents"`
	SessionID   string `json:"session_id"`
}

// Save creates or replaces the resident's bill for a meal. One bill per
// resident per meal; a second save overwrites the amount.
func (h *BillHandler) Save(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}

	var req SaveBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SaveBill: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	bill, err := h.billService.Save(c.Request.Context(), mealID, residentID, req.AmountCents, req.SessionID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"bill_id":     bill.ID,
	}).Info("Handler.SaveBill: Bill saved")
	SuccessResponse(c, http.StatusOK, gin.H{
		"id":           bill.ID,
		"amount_cents": bill.AmountCents,
	})
}

// RemoveBillRequest identifies the acting session.
type RemoveBillRequest struct {
	SessionID string `json:"session_id"`
}

// Remove deletes the resident's bill for a meal.
func (h *BillHandler) Remove(c *gin.Context) {
	mealID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	residentID, ok := uintParam(c, "resident_id")
	if !ok {
		return
	}

	var req RemoveBillRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.billService.Remove(c.Request.Context(), mealID, residentID, req.SessionID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
	}).Info("Handler.RemoveBill: Bill removed")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Bill removed"})
}
