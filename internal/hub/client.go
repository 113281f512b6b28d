package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one WebSocket viewer of a meal. It only ever receives
// invalidation messages; anything it sends besides control frames is
// discarded.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	mealID     uint
	residentID uint
	sessionID  string
	send       chan []byte
}

// NewClient wraps an upgraded connection watching one meal. sessionID
// identifies the browser tab so its own changes are not echoed back.
func NewClient(hub *Hub, conn *websocket.Conn, mealID, residentID uint, sessionID string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		mealID:     mealID,
		residentID: residentID,
		sessionID:  sessionID,
		send:       make(chan []byte, 256),
	}
}

// Run starts the client's read and write goroutines.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump services control frames and detects disconnects. Incoming
// text messages are read and dropped.
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := HubMessage{Type: "unregister", Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logrus.WithFields(logrus.Fields{"resident_id": c.residentID, "meal_id": c.mealID}).
				Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"resident_id": c.residentID, "meal_id": c.mealID}).
			Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"resident_id": c.residentID, "meal_id": c.mealID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}
		// Viewers have nothing to say over the socket.
	}
}

// WritePump pumps messages from the send channel to the connection and
// keeps it alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"resident_id": c.residentID, "meal_id": c.mealID}).
			Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel during unregister.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"resident_id": c.residentID, "meal_id": c.mealID}).
					WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithFields(logrus.Fields{"resident_id": c.residentID, "meal_id": c.mealID}).
					WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}

func (c *Client) MealID() uint      { return c.mealID }
func (c *Client) ResidentID() uint  { return c.residentID }
func (c *Client) SessionID() string { return c.sessionID }
func (c *Client) CloseConn()        { c.conn.Close() }
