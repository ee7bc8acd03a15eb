package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/people"
)

type FriendHandler struct {
	sessions *people.Sessions
	logger   zerolog.Logger
}

func NewFriendHandler(sessions *people.Sessions, logger zerolog.Logger) *FriendHandler {
	return &FriendHandler{
		sessions: sessions,
		logger:   logger.With().Str("handler", "friend").Logger(),
	}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	var payload struct {
		TargetUserID string `json:"target_user_id"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := s.Coordinator.FriendStart(r.Context(), strings.TrimSpace(payload.TargetUserID))
	if err != nil {
		writeError(w, err, &res.Snapshot)
		return
	}
	h.logger.Info().Str("target_user_id", payload.TargetUserID).Msg("friend request sent")
	writeJSON(w, http.StatusCreated, res)
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "requestID", func(c *people.Coordinator, id string) (people.Result, error) {
		return c.FriendAccept(r.Context(), id)
	})
}

func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "requestID", func(c *people.Coordinator, id string) (people.Result, error) {
		return c.FriendDecline(r.Context(), id)
	})
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "requestID", func(c *people.Coordinator, id string) (people.Result, error) {
		return c.FriendCancel(r.Context(), id)
	})
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "friendID", func(c *people.Coordinator, id string) (people.Result, error) {
		return c.RemoveFriendConnection(r.Context(), id)
	})
}

func (h *FriendHandler) apply(w http.ResponseWriter, r *http.Request, param string, op func(*people.Coordinator, string) (people.Result, error)) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	res, err := op(s.Coordinator, strings.TrimSpace(mux.Vars(r)[param]))
	if err != nil {
		writeError(w, err, &res.Snapshot)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
