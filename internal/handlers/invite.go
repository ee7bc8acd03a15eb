package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/people"
)

type InviteHandler struct {
	sessions *people.Sessions
	backend  *directory.Backend
	logger   zerolog.Logger
}

type inviteRequest struct {
	OrgID         string      `json:"org_id"`
	InviteeUserID string      `json:"invitee_user_id"`
	Role          models.Role `json:"role"`
}

// NewInviteHandler builds the invitation endpoints. backend may be nil when
// token previews are not served.
func NewInviteHandler(sessions *people.Sessions, backend *directory.Backend, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		sessions: sessions,
		backend:  backend,
		logger:   logger.With().Str("handler", "invite").Logger(),
	}
}

func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	var payload inviteRequest
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Role == "" {
		payload.Role = models.RoleMember
	}

	res, err := s.Coordinator.InviteStart(r.Context(), strings.TrimSpace(payload.OrgID), strings.TrimSpace(payload.InviteeUserID), payload.Role)
	if err != nil {
		writeError(w, err, &res.Snapshot)
		return
	}
	h.logger.Info().Str("org_id", payload.OrgID).Str("invitation_id", res.Ticket.ID).Msg("invitation sent")
	writeJSON(w, http.StatusCreated, res)
}

func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(c *people.Coordinator, id string) (people.Result, error) {
		return c.InviteAccept(r.Context(), id)
	})
}

func (h *InviteHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(c *people.Coordinator, id string) (people.Result, error) {
		return c.InviteDecline(r.Context(), id)
	})
}

func (h *InviteHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(c *people.Coordinator, id string) (people.Result, error) {
		return c.InviteRevoke(r.Context(), id)
	})
}

func (h *InviteHandler) ResendInvite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(c *people.Coordinator, id string) (people.Result, error) {
		return c.InviteResend(r.Context(), id)
	})
}

func (h *InviteHandler) transition(w http.ResponseWriter, r *http.Request, op func(*people.Coordinator, string) (people.Result, error)) {
	s, ok := session(h.sessions, w, r)
	if !ok {
		return
	}
	res, err := op(s.Coordinator, strings.TrimSpace(mux.Vars(r)["invitationID"]))
	if err != nil {
		writeError(w, err, &res.Snapshot)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PreviewInvite shows who is inviting the token holder to which organization. It is public.
func (h *InviteHandler) PreviewInvite(w http.ResponseWriter, r *http.Request) {
	if h.backend == nil {
		http.Error(w, "invite previews are not available", http.StatusNotFound)
		return
	}
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	invite, org, err := h.backend.InvitationByToken(token)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	response := struct {
		InvitationID string      `json:"invitation_id"`
		OrgID        string      `json:"org_id"`
		OrgName      string      `json:"org_name"`
		Role         models.Role `json:"role"`
		ExpiresAt    time.Time   `json:"expires_at"`
	}{
		InvitationID: invite.ID,
		OrgID:        org.ID,
		OrgName:      org.Name,
		Role:         invite.Role,
		ExpiresAt:    time.UnixMilli(invite.ExpiresAt).UTC(),
	}
	writeJSON(w, http.StatusOK, response)
}
