package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/people-api/internal/authz"
	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/handlers"
	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/notification"
	"github.com/stanstork/people-api/internal/people"
	"github.com/stanstork/people-api/internal/realtime"
)

type testServer struct {
	t       *testing.T
	router  http.Handler
	backend *directory.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	backend := directory.NewBackend()
	hub := realtime.NewHub(logger)
	events := notification.NewService(logger, hub)
	sessions := people.NewSessions(backend.For, people.DefaultConfig(), logger, events)
	t.Cleanup(sessions.CloseAll)
	authenticator := authz.NewAuthenticator("test-secret")

	router := NewRouter(authenticator, Handlers{
		Auth:    handlers.NewAuthHandler(backend.Users, authenticator, sessions, logger),
		People:  handlers.NewPeopleHandler(sessions, logger),
		Invites: handlers.NewInviteHandler(sessions, backend, logger),
		Friends: handlers.NewFriendHandler(sessions, logger),
		Events:  handlers.NewEventsHandler(sessions, hub, []string{"*"}, logger),
	})
	return &testServer{t: t, router: router, backend: backend}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/login", "", map[string]string{"username": username})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["token"]
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_HealthAndAuth(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/people", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "nobody"}).Code)
}

func TestRouter_InvitationFlow(t *testing.T) {
	s := newTestServer(t)
	owner, err := s.backend.Users.CreateUser("olivia", "olivia@example.com")
	require.NoError(t, err)
	invitee, err := s.backend.Users.CreateUser("ivan", "ivan@example.com")
	require.NoError(t, err)
	org, err := s.backend.Organizations.CreateOrganization("Acme", "acme")
	require.NoError(t, err)
	require.NoError(t, s.backend.Organizations.AddMember(org.ID, owner.ID, models.RoleOwner))

	ownerToken := s.login("olivia")
	inviteeToken := s.login("ivan")

	rec := s.do(http.MethodPost, "/api/people/refresh", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[people.Snapshot](t, rec)
	require.Len(t, snap.InvitableOrganizations, 1)

	rec = s.do(http.MethodPost, "/api/invitations", ownerToken, map[string]string{
		"org_id":          org.ID,
		"invitee_user_id": invitee.ID,
		"role":            "superuser",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	failed := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "domain", failed["kind"])

	rec = s.do(http.MethodPost, "/api/invitations", ownerToken, map[string]string{
		"org_id":          org.ID,
		"invitee_user_id": invitee.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[people.Result](t, rec)
	require.NotNil(t, created.Ticket)
	assert.Equal(t, 1, created.Snapshot.Counts.PendingSentInvitations)

	rec = s.do(http.MethodGet, "/api/invitations/preview/"+created.Ticket.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Acme", decode[map[string]interface{}](t, rec)["org_name"])

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/people/refresh", inviteeToken, nil).Code)
	rec = s.do(http.MethodPost, "/api/invitations/"+created.Ticket.ID+"/accept", inviteeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[people.Result](t, rec)
	require.Len(t, accepted.Snapshot.Organizations.Items, 1)

	rec = s.do(http.MethodPost, "/api/invitations/"+created.Ticket.ID+"/decline", inviteeToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/invitations/missing/accept", inviteeToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_FriendFlowAndSearch(t *testing.T) {
	s := newTestServer(t)
	_, err := s.backend.Users.CreateUser("alice", "alice@example.com")
	require.NoError(t, err)
	bob, err := s.backend.Users.CreateUser("bob", "bob@example.com")
	require.NoError(t, err)
	aliceToken := s.login("alice")
	bobToken := s.login("bob")

	rec := s.do(http.MethodPost, "/api/people/search?q=bo", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[people.Snapshot](t, rec)
	require.Len(t, snap.Search.Results, 1)
	assert.Equal(t, bob.ID, snap.Search.Results[0].ID)

	rec = s.do(http.MethodPost, "/api/friends/requests", aliceToken, map[string]string{"target_user_id": bob.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[people.Result](t, rec)
	assert.Empty(t, sent.Snapshot.Search.Results, "search cleared after sending a request")
	require.Len(t, sent.Snapshot.FriendRequestsSent.Items, 1)
	requestID := sent.Snapshot.FriendRequestsSent.Items[0].ID

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/people/refresh", bobToken, nil).Code)
	rec = s.do(http.MethodPost, "/api/friends/requests/"+requestID+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[people.Result](t, rec).Snapshot.Friends.Items, 1)

	rec = s.do(http.MethodDelete, "/api/friends/"+bob.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[people.Result](t, rec).Snapshot.Friends.Items)
}

func TestRouter_CollectionEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, err := s.backend.Users.CreateUser("carol", "carol@example.com")
	require.NoError(t, err)
	token := s.login("carol")

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/people/friends/refresh", token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/people/invitations_sent/more", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/people/bogus/refresh", token, nil).Code)
	assert.Equal(t, http.StatusAccepted, s.do(http.MethodPut, "/api/people/search", token, map[string]string{"query": "x"}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/people/search", token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/people/error", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/api/logout", token, nil).Code)
}
