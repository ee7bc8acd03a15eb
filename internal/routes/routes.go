package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stanstork/people-api/internal/authz"
	"github.com/stanstork/people-api/internal/handlers"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	People  *handlers.PeopleHandler
	Invites *handlers.InviteHandler
	Friends *handlers.FriendHandler
	Events  *handlers.EventsHandler
}

// NewRouter sets up the API routes
func NewRouter(authenticator *authz.Authenticator, h Handlers) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public endpoints
	router.HandleFunc("/api/login", h.Auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/invitations/preview/{token}", h.Invites.PreviewInvite).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authenticator.Middleware)

	api.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodPost)

	api.HandleFunc("/people", h.People.Snapshot).Methods(http.MethodGet)
	api.HandleFunc("/people/events", h.Events.Stream).Methods(http.MethodGet)
	api.HandleFunc("/people/refresh", h.People.RefreshAll).Methods(http.MethodPost)
	api.HandleFunc("/people/search", h.People.SetSearchQuery).Methods(http.MethodPut)
	api.HandleFunc("/people/search", h.People.SearchNow).Methods(http.MethodPost)
	api.HandleFunc("/people/search", h.People.ClearSearch).Methods(http.MethodDelete)
	api.HandleFunc("/people/error", h.People.ClearError).Methods(http.MethodDelete)
	api.HandleFunc("/people/{kind}/refresh", h.People.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/people/{kind}/more", h.People.LoadMore).Methods(http.MethodPost)

	api.HandleFunc("/invitations", h.Invites.CreateInvite).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{invitationID}/accept", h.Invites.AcceptInvite).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{invitationID}/decline", h.Invites.DeclineInvite).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{invitationID}/revoke", h.Invites.RevokeInvite).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{invitationID}/resend", h.Invites.ResendInvite).Methods(http.MethodPost)

	api.HandleFunc("/friends/requests", h.Friends.SendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests/{requestID}/accept", h.Friends.AcceptRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests/{requestID}/decline", h.Friends.DeclineRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests/{requestID}/cancel", h.Friends.CancelRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/{friendID}", h.Friends.RemoveFriend).Methods(http.MethodDelete)

	return router
}
