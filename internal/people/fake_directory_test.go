package people

import (
	"context"
	"sync"

	"github.com/stanstork/people-api/internal/models"
)

// fakeDirectory serves fixed lists as single pages and counts every call.
type fakeDirectory struct {
	mu sync.Mutex

	sent         []models.Invitation
	received     []models.Invitation
	requestsSent []models.FriendRequest
	requestsRecv []models.FriendRequest
	friends      []models.FriendConnection
	orgs         []models.OrganizationSummary
	users        []models.UserSummary

	failOn map[string]error
	calls  map[string]int
	ticket models.InviteTicket
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		failOn: make(map[string]error),
		calls:  make(map[string]int),
		ticket: models.InviteTicket{ID: "inv-new", Token: "tok"},
	}
}

func (f *fakeDirectory) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.failOn[name]
}

func (f *fakeDirectory) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeDirectory) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

func (f *fakeDirectory) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[name] = err
}

func page[T any](items []T) models.Page[T] {
	return models.Page[T]{Items: append([]T(nil), items...)}
}

func (f *fakeDirectory) InvitationsSent(ctx context.Context, cursor string, limit int) (models.Page[models.Invitation], error) {
	if err := f.record("InvitationsSent"); err != nil {
		return models.Page[models.Invitation]{}, err
	}
	return page(f.sent), nil
}

func (f *fakeDirectory) InvitationsReceived(ctx context.Context, cursor string, limit int) (models.Page[models.Invitation], error) {
	if err := f.record("InvitationsReceived"); err != nil {
		return models.Page[models.Invitation]{}, err
	}
	return page(f.received), nil
}

func (f *fakeDirectory) FriendRequestsSent(ctx context.Context, cursor string, limit int) (models.Page[models.FriendRequest], error) {
	if err := f.record("FriendRequestsSent"); err != nil {
		return models.Page[models.FriendRequest]{}, err
	}
	return page(f.requestsSent), nil
}

func (f *fakeDirectory) FriendRequestsReceived(ctx context.Context, cursor string, limit int) (models.Page[models.FriendRequest], error) {
	if err := f.record("FriendRequestsReceived"); err != nil {
		return models.Page[models.FriendRequest]{}, err
	}
	return page(f.requestsRecv), nil
}

func (f *fakeDirectory) Organizations(ctx context.Context) ([]models.OrganizationSummary, error) {
	if err := f.record("Organizations"); err != nil {
		return nil, err
	}
	return append([]models.OrganizationSummary(nil), f.orgs...), nil
}

func (f *fakeDirectory) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	if err := f.record("SearchUsers"); err != nil {
		return nil, err
	}
	return append([]models.UserSummary(nil), f.users...), nil
}

func (f *fakeDirectory) InviteStart(ctx context.Context, orgID, inviteeUserID string, role models.Role) (models.InviteTicket, error) {
	if err := f.record("InviteStart"); err != nil {
		return models.InviteTicket{}, err
	}
	return f.ticket, nil
}

func (f *fakeDirectory) InviteAccept(ctx context.Context, invitationID string) error {
	return f.record("InviteAccept")
}

func (f *fakeDirectory) InviteDecline(ctx context.Context, invitationID string) error {
	return f.record("InviteDecline")
}

func (f *fakeDirectory) InviteRevoke(ctx context.Context, invitationID string) error {
	return f.record("InviteRevoke")
}

func (f *fakeDirectory) InviteResend(ctx context.Context, invitationID string) (string, error) {
	if err := f.record("InviteResend"); err != nil {
		return "", err
	}
	return "resent-token", nil
}

func (f *fakeDirectory) FriendStart(ctx context.Context, targetUserID string) error {
	return f.record("FriendStart")
}

func (f *fakeDirectory) FriendAccept(ctx context.Context, requestID string) error {
	return f.record("FriendAccept")
}

func (f *fakeDirectory) FriendDecline(ctx context.Context, requestID string) error {
	return f.record("FriendDecline")
}

func (f *fakeDirectory) FriendCancel(ctx context.Context, requestID string) error {
	return f.record("FriendCancel")
}

func (f *fakeDirectory) FriendConnections(ctx context.Context) ([]models.FriendConnection, error) {
	if err := f.record("FriendConnections"); err != nil {
		return nil, err
	}
	return append([]models.FriendConnection(nil), f.friends...), nil
}

func (f *fakeDirectory) RemoveFriendConnection(ctx context.Context, friendID string) error {
	return f.record("RemoveFriendConnection")
}

var listCalls = []string{
	"InvitationsSent",
	"InvitationsReceived",
	"FriendRequestsSent",
	"FriendRequestsReceived",
	"FriendConnections",
	"Organizations",
}
