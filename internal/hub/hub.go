package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oosca/comeals-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// WebSocket timing constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Viewers never send
	// application messages, so this only has to fit control frames.
	maxMessageSize = 512
)

// HubMessage is the envelope passed on the Hub's internal channel.
type HubMessage struct {
	Type   string // "register" or "unregister"
	Client *Client
}

// Hub tracks which clients are watching which meal and relays
// invalidation messages from the shared Redis channel to them.
// Mutations never travel over the socket; clients hear that a meal
// changed and re-fetch it over HTTP.
type Hub struct {
	messageChan chan HubMessage

	// Watching clients, keyed by meal ID.
	meals   map[uint]map[*Client]bool
	mealsMu sync.RWMutex

	// One Redis subscription per meal with at least one watcher.
	subs map[uint]context.CancelFunc

	stateRepo repository.StateRepository
}

// NewHub creates a Hub relaying updates from stateRepo.
func NewHub(stateRepo repository.StateRepository) *Hub {
	if stateRepo == nil {
		panic("StateRepository cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		meals:       make(map[uint]map[*Client]bool),
		subs:        make(map[uint]context.CancelFunc),
		stateRepo:   stateRepo,
	}
}

// Run drives the Hub's event loop. It should run in its own goroutine
// for the lifetime of the process.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		default:
			log.Warnf("Hub: Received unknown message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down...")
}

// Stop cancels every meal subscription and disconnects the clients.
// The event loop keeps draining messageChan so late unregister messages
// from exiting read pumps land safely.
func (h *Hub) Stop() {
	h.mealsMu.Lock()
	for mealID, cancel := range h.subs {
		cancel()
		delete(h.subs, mealID)
	}
	for _, clients := range h.meals {
		for client := range clients {
			client.CloseConn()
		}
	}
	h.mealsMu.Unlock()
	logrus.WithField("component", "hub").Info("Hub subscriptions stopped, clients disconnected")
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	mealID := client.MealID()
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": client.ResidentID(),
		"action":      "registerClient",
	})

	h.mealsMu.Lock()
	if _, ok := h.meals[mealID]; !ok {
		h.meals[mealID] = make(map[*Client]bool)
		// First watcher for this meal: open its Redis subscription.
		ctx, cancel := context.WithCancel(context.Background())
		h.subs[mealID] = cancel
		go h.relayUpdates(ctx, mealID)
		logCtx.Info("Client list created for new meal, subscription started")
	}
	h.meals[mealID][client] = true
	h.mealsMu.Unlock()
	logCtx.Info("Client registered to Hub")
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	mealID := client.MealID()
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": client.ResidentID(),
		"action":      "unregisterClient",
	})

	h.mealsMu.Lock()
	if mealClients, ok := h.meals[mealID]; ok {
		if _, exists := mealClients[client]; exists {
			delete(mealClients, client)

			// Closing send makes the client's WritePump exit. Guard
			// against a second close during Stop.
			select {
			case <-client.send:
				logCtx.Warn("Client send channel already closed during unregister")
			default:
				close(client.send)
			}

			if len(mealClients) == 0 {
				delete(h.meals, mealID)
				if cancel, subOK := h.subs[mealID]; subOK {
					cancel()
					delete(h.subs, mealID)
				}
				logCtx.Info("Meal has no watchers left, subscription stopped")
			}
		} else {
			logCtx.Warn("Client not found in meal set during unregister")
		}
	} else {
		logCtx.Warn("Meal not found during client unregister")
	}
	h.mealsMu.Unlock()
	logCtx.Info("Client unregistered from Hub")
}

// relayUpdates forwards every invalidation for one meal to its watchers
// until the subscription context is cancelled.
func (h *Hub) relayUpdates(ctx context.Context, mealID uint) {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":   mealID,
		"operation": "relayUpdates",
	})

	updates, err := h.stateRepo.SubscribeUpdates(ctx, mealID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to subscribe to meal updates")
		return
	}

	for update := range updates {
		payload, err := json.Marshal(update)
		if err != nil {
			logCtx.WithError(err).Error("Failed to marshal meal update for broadcast")
			continue
		}
		h.broadcast(mealID, payload, update.SessionID)
	}
	logCtx.Debug("Meal update relay stopped")
}

// broadcast sends message to every watcher of the meal except clients
// whose session produced the change. Those already applied it locally.
func (h *Hub) broadcast(mealID uint, message []byte, originSessionID string) {
	h.mealsMu.RLock()
	mealClients, ok := h.meals[mealID]
	clientsToSend := make([]*Client, 0, len(mealClients))
	if ok {
		for client := range mealClients {
			if originSessionID == "" || client.SessionID() != originSessionID {
				clientsToSend = append(clientsToSend, client)
			}
		}
	}
	h.mealsMu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":         mealID,
		"recipient_count": len(clientsToSend),
	})
	logCtx.Debug("Broadcasting meal update to clients")

	for _, client := range clientsToSend {
		// Non-blocking send so one slow client cannot stall the relay.
		select {
		case client.send <- message:
		default:
			logCtx.WithField("resident_id", client.ResidentID()).
				Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// QueueMessage puts msg on the Hub's processing queue without blocking.
// Returns false when the queue is full and the message was dropped.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).
			Warn("Hub message channel full, dropping message")
		return false
	}
}
