// Package realtime pushes people snapshots and failures to connected browsers
// over WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/notification"
)

const (
	pingInterval = 30
	pongWait     = 60
	sendBuffer   = 64
)

// MessageHandler receives every message a client sends. It runs on the client's read loop.
type MessageHandler func(ctx context.Context, userID string, msg WSMessage)

// Hub maintains user_id -> set of connections.
type Hub struct {
	users     map[string]map[string]*Client
	mu        sync.RWMutex
	logger    zerolog.Logger
	onMessage MessageHandler
}

var _ notification.Notifier = (*Hub)(nil)

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		users:  make(map[string]map[string]*Client),
		logger: logger.With().Str("component", "realtime_hub").Logger(),
	}
}

func (h *Hub) SetMessageHandler(fn MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = fn
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("client connected")
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.users, c.UserID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("client disconnected")
}

// SendToUser delivers to every connection of userID. Slow clients whose
// buffer is full miss the message; the next snapshot supersedes it.
func (h *Hub) SendToUser(userID, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.users[userID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug().Str("client_id", c.ID).Str("event", event).Msg("send buffer full, dropping message")
		}
	}
	return nil
}

// Notify implements notification.Notifier.
func (h *Hub) Notify(_ context.Context, evt notification.Event) error {
	if !h.Connected(evt.UserID) {
		return nil
	}
	if evt.Event == notification.EventPeopleChanged {
		return h.SendToUser(evt.UserID, string(evt.Event), evt.Payload)
	}
	return h.SendToUser(evt.UserID, string(evt.Event), map[string]interface{}{
		"severity": evt.Severity,
		"title":    evt.Title,
		"message":  evt.Message,
		"metadata": evt.Metadata,
	})
}

func (h *Hub) String() string { return "websocket" }

func (h *Hub) Connected(userID string) bool {
	return h.ClientCount(userID) > 0
}

func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) handle(ctx context.Context, c *Client, msg WSMessage) {
	h.mu.RLock()
	fn := h.onMessage
	h.mu.RUnlock()
	if fn != nil {
		fn(ctx, c.UserID, msg)
	}
}
