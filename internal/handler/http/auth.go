package http

import (
	"errors"
	"net/http"

	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler owns the login endpoint.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed token and the resident it belongs to.
type LoginResponse struct {
	Token       string `json:"token"`
	ResidentID  uint   `json:"resident_id"`
	CommunityID uint   `json:"community_id"`
	Name        string `json:"name"`
}

// Login authenticates a resident and hands back a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Login: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: email and password required")
		return
	}

	token, resident, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logCtx := logrus.WithField("email", req.Email)
		if errors.Is(err, service.ErrAuthenticationFailed) {
			logCtx.WithError(err).Warn("Handler.Login: Authentication failed")
			ErrorResponse(c, http.StatusUnauthorized, err.Error())
		} else {
			logCtx.WithError(err).Error("Handler.Login: Internal error during login")
			ErrorResponse(c, http.StatusInternalServerError, "Login failed due to server error")
		}
		return
	}

	logrus.WithField("resident_id", resident.ID).Info("Handler.Login: Resident logged in successfully")
	SuccessResponse(c, http.StatusOK, LoginResponse{
		Token:       token,
		ResidentID:  resident.ID,
		CommunityID: resident.CommunityID,
		Name:        resident.Name,
	})
}
