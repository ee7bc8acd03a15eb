package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/people-api/internal/models"
)

type fixture struct {
	backend *Backend
	now     time.Time
	owner   models.User
	admin   models.User
	member  models.User
	org     models.Organization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.backend = NewBackend(WithClock(func() time.Time { return f.now }))

	var err error
	f.owner, err = f.backend.Users.CreateUser("olivia", "olivia@example.com")
	require.NoError(t, err)
	f.admin, err = f.backend.Users.CreateUser("adam", "adam@example.com")
	require.NoError(t, err)
	f.member, err = f.backend.Users.CreateUser("mia", "mia@example.com")
	require.NoError(t, err)
	f.org, err = f.backend.Organizations.CreateOrganization("Acme", "acme")
	require.NoError(t, err)
	require.NoError(t, f.backend.Organizations.AddMember(f.org.ID, f.owner.ID, models.RoleOwner))
	require.NoError(t, f.backend.Organizations.AddMember(f.org.ID, f.admin.ID, models.RoleAdmin))
	return f
}

func TestLocal_UnknownViewerIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	_, err := f.backend.For("ghost").Organizations(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, KindUnauthorized, Classify(err))
}

func TestLocal_CanceledContextIsNetworkError(t *testing.T) {
	f := newFixture(t)
	f.backend = NewBackend(WithLatency(time.Hour))
	user, err := f.backend.Users.CreateUser("slow", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.backend.For(user.ID).FriendConnections(ctx)
	assert.Equal(t, KindNetwork, Classify(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocal_InvitationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.backend.For(f.owner.ID)
	member := f.backend.For(f.member.ID)

	ticket, err := owner.InviteStart(ctx, f.org.ID, f.member.ID, models.RoleMember)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Token)

	_, err = owner.InviteStart(ctx, f.org.ID, f.member.ID, models.RoleMember)
	assert.Equal(t, KindDomain, Classify(err), "one pending invite per org and invitee")

	page, err := member.InvitationsReceived(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	inv := page.Items[0]
	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.Equal(t, f.now.Add(defaultInviteTTL).UnixMilli(), inv.ExpiresAt)
	require.NotNil(t, inv.CreatedBy)
	assert.Equal(t, f.owner.ID, *inv.CreatedBy)

	assert.ErrorIs(t, owner.InviteAccept(ctx, ticket.ID), ErrNotFound, "only the invitee may accept")
	require.NoError(t, member.InviteAccept(ctx, ticket.ID))

	orgs, err := member.Organizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "member", orgs[0].Role)
	require.NotNil(t, orgs[0].MemberCount)
	assert.Equal(t, 3, *orgs[0].MemberCount)

	err = owner.InviteRevoke(ctx, ticket.ID)
	assert.Equal(t, KindDomain, Classify(err))
	assert.Equal(t, "invitation is accepted", Message(err))
}

func TestLocal_InviteStartPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.backend.For(f.member.ID).InviteStart(ctx, f.org.ID, f.admin.ID, models.RoleMember)
	assert.Equal(t, "insufficient permissions for organization", Message(err))

	_, err = f.backend.For(f.admin.ID).InviteStart(ctx, f.org.ID, f.member.ID, models.RoleOwner)
	assert.Equal(t, "only owners can invite owners", Message(err))

	_, err = f.backend.For(f.owner.ID).InviteStart(ctx, f.org.ID, f.admin.ID, models.RoleMember)
	assert.Equal(t, KindDomain, Classify(err), "already a member")

	_, err = f.backend.For(f.owner.ID).InviteStart(ctx, f.org.ID, f.member.ID, models.Role("guest"))
	assert.Equal(t, KindDomain, Classify(err))

	_, err = f.backend.For(f.owner.ID).InviteStart(ctx, "missing", f.member.ID, models.RoleMember)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_ExpiredInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.backend.For(f.owner.ID)
	member := f.backend.For(f.member.ID)

	ticket, err := owner.InviteStart(ctx, f.org.ID, f.member.ID, models.RoleAdmin)
	require.NoError(t, err)

	f.now = f.now.Add(defaultInviteTTL + time.Minute)
	err = member.InviteAccept(ctx, ticket.ID)
	assert.Equal(t, "invitation expired", Message(err))

	page, err := owner.InvitationsSent(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationExpired, page.Items[0].Status)

	// Resend revives it with a fresh token and expiry.
	token, err := owner.InviteResend(ctx, ticket.ID)
	require.NoError(t, err)
	assert.NotEqual(t, ticket.Token, token)
	require.NoError(t, member.InviteAccept(ctx, ticket.ID))
}

func TestLocal_FriendLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.backend.For(f.owner.ID)
	member := f.backend.For(f.member.ID)

	require.NoError(t, owner.FriendStart(ctx, f.member.ID))
	err := member.FriendStart(ctx, f.owner.ID)
	assert.Equal(t, "a pending request already exists", Message(err))

	received, err := member.FriendRequestsReceived(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, received.Items, 1)
	reqID := received.Items[0].ID

	assert.ErrorIs(t, owner.FriendAccept(ctx, reqID), ErrNotFound, "sender cannot accept")
	require.NoError(t, member.FriendAccept(ctx, reqID))
	assert.Equal(t, KindDomain, Classify(owner.FriendCancel(ctx, reqID)))

	friends, err := owner.FriendConnections(ctx)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, f.member.ID, friends[0].ID)
	require.NotNil(t, friends[0].Username)
	assert.Equal(t, "mia", *friends[0].Username)

	require.NoError(t, member.RemoveFriendConnection(ctx, f.owner.ID))
	assert.ErrorIs(t, owner.RemoveFriendConnection(ctx, f.member.ID), ErrNotFound)
}

func TestLocal_SearchExcludesViewer(t *testing.T) {
	f := newFixture(t)
	hits, err := f.backend.For(f.admin.ID).SearchUsers(context.Background(), "a")
	require.NoError(t, err)

	var ids []string
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	assert.NotContains(t, ids, f.admin.ID)
	assert.Contains(t, ids, f.member.ID)
}

func TestLocal_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.backend.For(f.owner.ID)
	for i := 0; i < 5; i++ {
		u, err := f.backend.Users.CreateUser("", "user"+string(rune('a'+i))+"@example.com")
		require.NoError(t, err)
		_, err = owner.InviteStart(ctx, f.org.ID, u.ID, models.RoleMember)
		require.NoError(t, err)
	}

	var all []models.Invitation
	cursor := ""
	for {
		page, err := owner.InvitationsSent(ctx, cursor, 2)
		require.NoError(t, err)
		all = append(all, page.Items...)
		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}
	assert.Len(t, all, 5)

	first, err := owner.InvitationsSent(ctx, "", 2)
	require.NoError(t, err)
	_, err = owner.FriendRequestsSent(ctx, first.NextCursor, 2)
	assert.Equal(t, "page token does not belong to this list", Message(err))
	_, err = owner.InvitationsSent(ctx, "%%%", 2)
	assert.Equal(t, KindDomain, Classify(err))
}

func TestClassifyAndMessage(t *testing.T) {
	assert.Equal(t, Kind(""), Classify(nil))
	assert.Equal(t, KindNetwork, Classify(context.Canceled))
	assert.Equal(t, KindSearch, Classify(&SearchError{Message: "x"}))
	assert.Equal(t, KindUnknown, Classify(assert.AnError))
	assert.Equal(t, "You are signed out. Sign in again to continue.", Message(ErrUnauthorized))
	assert.Equal(t, "Network error: the request did not complete", Message(context.DeadlineExceeded))
	assert.Equal(t, "Network error: offline", Message(&NetworkError{Message: "offline"}))
}

func TestBackend_InvitationByToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.backend.For(f.owner.ID)

	ticket, err := owner.InviteStart(ctx, f.org.ID, f.member.ID, models.RoleMember)
	require.NoError(t, err)

	inv, org, err := f.backend.InvitationByToken(ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, inv.ID)
	assert.Equal(t, "Acme", org.Name)

	_, _, err = f.backend.InvitationByToken("bogus")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, owner.InviteRevoke(ctx, ticket.ID))
	_, _, err = f.backend.InvitationByToken(ticket.Token)
	assert.Equal(t, "invitation is revoked", Message(err))
}
