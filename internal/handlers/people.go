package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/authz"
	"github.com/stanstork/people-api/internal/people"
)

// PeopleHandler exposes the caller's collections, search and refresh operations.
type PeopleHandler struct {
	sessions *people.Sessions
	logger   zerolog.Logger
}

func NewPeopleHandler(sessions *people.Sessions, logger zerolog.Logger) *PeopleHandler {
	return &PeopleHandler{
		sessions: sessions,
		logger:   logger.With().Str("handler", "people").Logger(),
	}
}

// session resolves the caller's session or writes 401.
func session(sessions *people.Sessions, w http.ResponseWriter, r *http.Request) (*people.Session, bool) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return nil, false
	}
	return sessions.Get(userID), true
}

func (h *PeopleHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Registry.Snapshot())
}

func (h *PeopleHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	err := s.Registry.RefreshAll(r.Context())
	h.respond(w, s, err)
}

func (h *PeopleHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	kind, ok := people.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	h.respond(w, s, s.Registry.Refresh(r.Context(), kind))
}

func (h *PeopleHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	kind, ok := people.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	h.respond(w, s, s.Registry.LoadMore(r.Context(), kind))
}

// SetSearchQuery schedules a debounced search; results arrive on the events stream.
func (h *PeopleHandler) SetSearchQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	s.Registry.SetSearchQuery(req.Query)
	writeJSON(w, http.StatusAccepted, s.Registry.Snapshot())
}

func (h *PeopleHandler) SearchNow(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		s.Registry.SetSearchQuery(q)
	}
	h.respond(w, s, s.Registry.SearchNow(r.Context()))
}

func (h *PeopleHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	s.Registry.ClearSearch()
	writeJSON(w, http.StatusOK, s.Registry.Snapshot())
}

func (h *PeopleHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	s.Registry.ClearError()
	writeJSON(w, http.StatusOK, s.Registry.Snapshot())
}

func (h *PeopleHandler) respond(w http.ResponseWriter, s *people.Session, err error) {
	snap := s.Registry.Snapshot()
	if err != nil {
		h.logger.Debug().Err(err).Str("viewer_id", snap.ViewerID).Msg("people request failed")
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
