package websocket

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/oosca/comeals-backend/internal/hub"
	"github.com/oosca/comeals-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades viewers onto the invalidation channel of a
// meal and registers them with the Hub.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	mealService *service.MealService
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(h *hub.Hub, mealService *service.MealService) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if mealService == nil {
		panic("MealService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict to the web client's origin in production.
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		hub:         h,
		mealService: mealService,
	}
}

// HandleConnection serves GET /ws/meals/:id. The session_id query
// parameter names the viewer's tab so its own mutations are not echoed
// back to it.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	residentIDAny, exists := c.Get("resident_id")
	if !exists {
		logrus.Warn("WS Handler: Resident ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	residentID, ok := residentIDAny.(uint)
	if !ok {
		logrus.Error("WS Handler: Resident ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("resident_id", residentID)

	mealIDStr := c.Param("id")
	mealID64, err := strconv.ParseUint(mealIDStr, 10, 32)
	if err != nil {
		logCtx.WithError(err).Warnf("WS Handler: Invalid meal ID format: %s", mealIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid meal ID format"})
		return
	}
	mealID := uint(mealID64)
	logCtx = logCtx.WithField("meal_id", mealID)

	sessionID := c.Query("session_id")
	if sessionID == "" {
		logCtx.Warn("WS Handler: Missing session_id query parameter")
		c.JSON(http.StatusBadRequest, gin.H{"message": "session_id is required"})
		return
	}

	if _, err := h.mealService.Find(c.Request.Context(), mealID); err != nil {
		if errors.Is(err, service.ErrMealNotFound) {
			logCtx.Warn("WS Handler: Meal not found")
			c.JSON(http.StatusNotFound, gin.H{"message": "Meal not found"})
		} else {
			logCtx.WithError(err).Error("WS Handler: Error checking meal existence")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to validate meal"})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own HTTP error response.
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := hub.NewClient(h.hub, conn, mealID, residentID, sessionID)

	registerMsg := hub.HubMessage{Type: "register", Client: client}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	go client.Run()
	logCtx.Info("WS Handler: Client registered, read/write pumps started")
}
