package handlers

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/authz"
	"github.com/stanstork/people-api/internal/people"
	"github.com/stanstork/people-api/internal/repository"
)

// AuthHandler signs users of the reference directory in by username. The
// directory keeps no credentials, so this is for development setups only.
type AuthHandler struct {
	users    repository.UserRepository
	auth     *authz.Authenticator
	sessions *people.Sessions
	logger   zerolog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
}

func NewAuthHandler(users repository.UserRepository, auth *authz.Authenticator, sessions *people.Sessions, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		auth:     auth,
		sessions: sessions,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if !user.IsActive {
		http.Error(w, "user is inactive", http.StatusForbidden)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "user_id": user.ID})
}

// Logout drops the caller's people session. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	h.sessions.Close(userID)
	w.WriteHeader(http.StatusNoContent)
}
