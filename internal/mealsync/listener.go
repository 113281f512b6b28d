package mealsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	listenerWriteWait = 10 * time.Second
	listenerPongWait  = 60 * time.Second
	listenerPingEvery = (listenerPongWait * 9) / 10
)

// Listener keeps a websocket connection open to the meal's invalidation
// channel and feeds every received update into the Form. It stops when the
// context is cancelled or the connection drops; reconnection is the
// caller's decision.
type Listener struct {
	form  *Form
	url   string
	token string
	log   *logrus.Entry
}

// NewListener creates a listener for the given Form. wsURL is the channel
// endpoint, for example "ws://host/ws/meals/42"; the form's session id is
// appended when dialing.
func NewListener(form *Form, wsURL, token string) *Listener {
	if form == nil {
		panic("mealsync: NewListener requires a form")
	}
	return &Listener{
		form:  form,
		url:   wsURL,
		token: token,
		log:   logrus.WithField("session_id", form.SessionID()),
	}
}

// dialURL is the channel endpoint with the form's session id attached.
// The server refuses connections without one, and broadcast exclusion
// keys on it: updates caused by this session are not echoed back.
func (l *Listener) dialURL() (string, error) {
	u, err := url.Parse(l.url)
	if err != nil {
		return "", fmt.Errorf("parse channel url: %w", err)
	}
	q := u.Query()
	q.Set("session_id", l.form.SessionID())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run dials the channel and blocks reading updates until the context is
// cancelled or the connection fails.
func (l *Listener) Run(ctx context.Context) error {
	endpoint, err := l.dialURL()
	if err != nil {
		return err
	}
	header := http.Header{}
	if l.token != "" {
		header.Set("Authorization", "Bearer "+l.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("dial invalidation channel: %w", err)
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(listenerWriteWait))
			conn.Close()
		case <-done:
		}
	}()

	go l.pingLoop(ctx, conn)

	_ = conn.SetReadDeadline(time.Now().Add(listenerPongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(listenerPongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.log.WithError(err).Warn("Invalidation channel closed unexpectedly")
			}
			return err
		}

		var update Update
		if err := json.Unmarshal(message, &update); err != nil {
			l.log.WithError(err).Warn("Dropping malformed invalidation message")
			continue
		}
		if applied, err := l.form.HandleUpdate(ctx, update); err != nil {
			l.log.WithError(err).Warn("Failed to reload after invalidation")
		} else if applied {
			l.log.WithField("meal_id", update.MealID).Debug("Reloaded after remote change")
		}
	}
}

func (l *Listener) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(listenerPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(listenerWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
