package http

import (
	"errors"
	"net/http"

	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError maps service errors onto HTTP statuses. Policy
// refusals keep their exact message; the clients surface it verbatim and
// roll their optimistic state back.
func HandleServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ErrorResponse(c, http.StatusUnprocessableEntity, validationErr.Message)
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrMealNotFound),
		errors.Is(err, service.ErrResidentNotFound),
		errors.Is(err, service.ErrGuestNotFound),
		errors.Is(err, service.ErrBillNotFound),
		errors.Is(err, service.ErrCommunityNotFound),
		errors.Is(err, service.ErrNotAttending):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyAttending):
		ErrorResponse(c, http.StatusConflict, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
