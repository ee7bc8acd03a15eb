package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/authz"
	"github.com/stanstork/people-api/internal/people"
	"github.com/stanstork/people-api/internal/realtime"
)

// Client message events understood on the people stream.
const (
	clientEventSearch      = "search"
	clientEventSearchNow   = "search_now"
	clientEventClearSearch = "clear_search"
	clientEventRefresh     = "refresh"
	clientEventLoadMore    = "load_more"
)

// EventsHandler streams people.changed and people.failed events to the
// caller over WebSocket and accepts search and refresh commands back.
type EventsHandler struct {
	sessions *people.Sessions
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewEventsHandler(sessions *people.Sessions, hub *realtime.Hub, allowedOrigins []string, logger zerolog.Logger) *EventsHandler {
	h := &EventsHandler{
		sessions: sessions,
		hub:      hub,
		upgrader: realtime.Upgrader(allowedOrigins),
		logger:   logger.With().Str("handler", "events").Logger(),
	}
	hub.SetMessageHandler(h.handleMessage)
	return h
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	realtime.Serve(h.hub, h.upgrader, w, r, userID)
}

func (h *EventsHandler) handleMessage(ctx context.Context, userID string, msg realtime.WSMessage) {
	reg := h.sessions.Get(userID).Registry
	var payload struct {
		Query string `json:"query"`
		Kind  string `json:"kind"`
	}
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.logger.Debug().Err(err).Str("event", msg.Event).Msg("ignoring malformed client message")
			return
		}
	}

	// Failures reach the client as people.failed events through the registry.
	switch msg.Event {
	case clientEventSearch:
		reg.SetSearchQuery(payload.Query)
	case clientEventSearchNow:
		go func() { _ = reg.SearchNow(ctx) }()
	case clientEventClearSearch:
		reg.ClearSearch()
	case clientEventRefresh:
		go func() {
			if kind, ok := people.ParseKind(payload.Kind); ok {
				_ = reg.Refresh(ctx, kind)
				return
			}
			_ = reg.RefreshAll(ctx)
		}()
	case clientEventLoadMore:
		if kind, ok := people.ParseKind(payload.Kind); ok {
			go func() { _ = reg.LoadMore(ctx, kind) }()
		}
	default:
		h.logger.Debug().Str("event", msg.Event).Msg("ignoring unknown client event")
	}
}
