package directory

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/repository"
)

const defaultInviteTTL = 7 * 24 * time.Hour

const searchResultLimit = 20

// Backend holds the shared in-memory state behind every viewer's Local directory.
type Backend struct {
	Users         repository.UserRepository
	Organizations repository.OrganizationRepository
	Invites       repository.InviteRepository
	Friends       repository.FriendRepository

	inviteTTL time.Duration
	latency   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

type BackendOption func(*Backend)

func WithInviteTTL(ttl time.Duration) BackendOption {
	return func(b *Backend) {
		if ttl > 0 {
			b.inviteTTL = ttl
		}
	}
}

// WithLatency delays every call, simulating a remote round trip.
func WithLatency(d time.Duration) BackendOption {
	return func(b *Backend) { b.latency = d }
}

func WithClock(now func() time.Time) BackendOption {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

func WithLogger(logger zerolog.Logger) BackendOption {
	return func(b *Backend) { b.logger = logger }
}

func NewBackend(opts ...BackendOption) *Backend {
	b := &Backend{
		Users:         repository.NewUserRepository(),
		Organizations: repository.NewOrganizationRepository(),
		Invites:       repository.NewInviteRepository(),
		Friends:       repository.NewFriendRepository(),
		inviteTTL:     defaultInviteTTL,
		now:           time.Now,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With().Str("component", "local_directory").Logger()
	return b
}

// For returns the Directory as seen by viewerID.
func (b *Backend) For(viewerID string) Directory {
	return &Local{backend: b, viewerID: viewerID}
}

// InvitationByToken looks up the invitation an emailed token refers to, with
// its organization. Only pending, unexpired invitations are returned.
func (b *Backend) InvitationByToken(token string) (models.Invitation, models.Organization, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Invitation{}, models.Organization{}, notFound("invitation")
	}
	invite, err := b.Invites.GetInviteByTokenHash(hashInviteToken(token))
	if err != nil {
		return models.Invitation{}, models.Organization{}, translate(err, "invitation")
	}
	if invite.IsTerminal() {
		return models.Invitation{}, models.Organization{}, Domainf("invitation is %s", invite.Status)
	}
	if invite.IsExpired(b.now()) {
		return models.Invitation{}, models.Organization{}, Domainf("invitation expired")
	}
	org, err := b.Organizations.GetOrganizationByID(invite.OrgID)
	if err != nil {
		return models.Invitation{}, models.Organization{}, translate(err, "organization")
	}
	return invite, org, nil
}

// Local implements Directory over a Backend for one viewer.
type Local struct {
	backend  *Backend
	viewerID string
}

var _ Directory = (*Local)(nil)

func (l *Local) begin(ctx context.Context) error {
	if l.viewerID == "" {
		return ErrUnauthorized
	}
	if _, err := l.backend.Users.GetUserByID(l.viewerID); err != nil {
		return ErrUnauthorized
	}
	if l.backend.latency > 0 {
		timer := time.NewTimer(l.backend.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return &NetworkError{Message: "request aborted", Err: ctx.Err()}
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return &NetworkError{Message: "request aborted", Err: err}
	}
	return nil
}

func (l *Local) InvitationsSent(ctx context.Context, cursor string, limit int) (models.Page[models.Invitation], error) {
	if err := l.begin(ctx); err != nil {
		return models.Page[models.Invitation]{}, err
	}
	all, err := l.backend.Invites.ListInvitesCreatedBy(l.viewerID)
	if err != nil {
		return models.Page[models.Invitation]{}, &UnknownError{Err: err}
	}
	return invitationPage("invitations_sent", all, cursor, limit)
}

func (l *Local) InvitationsReceived(ctx context.Context, cursor string, limit int) (models.Page[models.Invitation], error) {
	if err := l.begin(ctx); err != nil {
		return models.Page[models.Invitation]{}, err
	}
	all, err := l.backend.Invites.ListInvitesForInvitee(l.viewerID)
	if err != nil {
		return models.Page[models.Invitation]{}, &UnknownError{Err: err}
	}
	return invitationPage("invitations_received", all, cursor, limit)
}

func invitationPage(scope string, all []models.Invitation, cursor string, limit int) (models.Page[models.Invitation], error) {
	items, next, hasMore, err := paginate(scope, all, cursor, limit)
	if err != nil {
		return models.Page[models.Invitation]{}, err
	}
	return models.Page[models.Invitation]{Items: items, NextCursor: next, HasMore: hasMore}, nil
}

func (l *Local) FriendRequestsSent(ctx context.Context, cursor string, limit int) (models.Page[models.FriendRequest], error) {
	if err := l.begin(ctx); err != nil {
		return models.Page[models.FriendRequest]{}, err
	}
	all, err := l.backend.Friends.ListRequestsSentBy(l.viewerID)
	if err != nil {
		return models.Page[models.FriendRequest]{}, &UnknownError{Err: err}
	}
	return friendRequestPage("friend_requests_sent", all, cursor, limit)
}

func (l *Local) FriendRequestsReceived(ctx context.Context, cursor string, limit int) (models.Page[models.FriendRequest], error) {
	if err := l.begin(ctx); err != nil {
		return models.Page[models.FriendRequest]{}, err
	}
	all, err := l.backend.Friends.ListRequestsReceivedBy(l.viewerID)
	if err != nil {
		return models.Page[models.FriendRequest]{}, &UnknownError{Err: err}
	}
	return friendRequestPage("friend_requests_received", all, cursor, limit)
}

func friendRequestPage(scope string, all []models.FriendRequest, cursor string, limit int) (models.Page[models.FriendRequest], error) {
	items, next, hasMore, err := paginate(scope, all, cursor, limit)
	if err != nil {
		return models.Page[models.FriendRequest]{}, err
	}
	return models.Page[models.FriendRequest]{Items: items, NextCursor: next, HasMore: hasMore}, nil
}

func (l *Local) Organizations(ctx context.Context) ([]models.OrganizationSummary, error) {
	if err := l.begin(ctx); err != nil {
		return nil, err
	}
	memberships, err := l.backend.Organizations.ListMembershipsByUser(l.viewerID)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}
	out := make([]models.OrganizationSummary, 0, len(memberships))
	for _, m := range memberships {
		org, err := l.backend.Organizations.GetOrganizationByID(m.OrgID)
		if err != nil {
			l.backend.logger.Warn().Err(err).Str("org_id", m.OrgID).Msg("membership references missing organization")
			continue
		}
		count := l.backend.Organizations.CountMembers(org.ID)
		summary := models.OrganizationSummary{
			OrgID:       org.ID,
			Name:        stringPtr(org.Name),
			Slug:        stringPtr(org.Slug),
			Role:        string(m.Role),
			MemberCount: &count,
		}
		out = append(out, summary)
	}
	return out, nil
}

func (l *Local) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	if err := l.begin(ctx); err != nil {
		return nil, err
	}
	users, err := l.backend.Users.SearchUsers(query, l.viewerID, searchResultLimit)
	if err != nil {
		return nil, &SearchError{Message: "user lookup failed", Err: err}
	}
	out := make([]models.UserSummary, len(users))
	for i, u := range users {
		out[i] = models.UserSummary{ID: u.ID, Username: stringPtr(u.Username), Email: stringPtr(u.Email)}
	}
	return out, nil
}

func (l *Local) InviteStart(ctx context.Context, orgID, inviteeUserID string, role models.Role) (models.InviteTicket, error) {
	if err := l.begin(ctx); err != nil {
		return models.InviteTicket{}, err
	}
	if !models.IsValidRole(role) {
		return models.InviteTicket{}, Domainf("invalid role %q", role)
	}
	if err := l.requireManager(orgID); err != nil {
		return models.InviteTicket{}, err
	}
	if role == models.RoleOwner {
		m, _ := l.backend.Organizations.GetMembership(orgID, l.viewerID)
		if m.Role != models.RoleOwner {
			return models.InviteTicket{}, Domainf("only owners can invite owners")
		}
	}
	if _, err := l.backend.Users.GetUserByID(inviteeUserID); err != nil {
		return models.InviteTicket{}, notFound("user")
	}
	if _, err := l.backend.Organizations.GetMembership(orgID, inviteeUserID); err == nil {
		return models.InviteTicket{}, Domainf("user is already a member of this organization")
	}
	if l.backend.Invites.HasPendingInvite(orgID, inviteeUserID) {
		return models.InviteTicket{}, Domainf("user already has a pending invitation")
	}

	token, err := generateInviteToken()
	if err != nil {
		return models.InviteTicket{}, &UnknownError{Message: "failed to generate invite token", Err: err}
	}
	createdBy := l.viewerID
	invite, err := l.backend.Invites.CreateInvite(models.Invitation{
		OrgID:         orgID,
		InviteeUserID: inviteeUserID,
		Role:          role,
		ExpiresAt:     l.backend.now().Add(l.backend.inviteTTL).UnixMilli(),
		CreatedBy:     &createdBy,
	}, hashInviteToken(token))
	if err != nil {
		return models.InviteTicket{}, &UnknownError{Message: "failed to create invite", Err: err}
	}

	l.backend.logger.Info().
		Str("invitation_id", invite.ID).
		Str("org_id", orgID).
		Str("invitee_user_id", inviteeUserID).
		Msg("invitation created")
	return models.InviteTicket{ID: invite.ID, Token: token}, nil
}

func (l *Local) InviteAccept(ctx context.Context, invitationID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	invite, err := l.inviteForInvitee(invitationID)
	if err != nil {
		return err
	}
	if invite.Status == models.InvitationPending && invite.IsExpired(l.backend.now()) {
		if _, err := l.backend.Invites.TransitionInvite(invite.ID, models.InvitationExpired); err != nil {
			return translate(err, "invitation")
		}
		return Domainf("invitation expired")
	}
	if _, err := l.backend.Invites.TransitionInvite(invite.ID, models.InvitationAccepted); err != nil {
		return translate(err, "invitation")
	}
	if err := l.backend.Organizations.AddMember(invite.OrgID, l.viewerID, invite.Role); err != nil {
		return &UnknownError{Message: "failed to add membership", Err: err}
	}
	return nil
}

func (l *Local) InviteDecline(ctx context.Context, invitationID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	invite, err := l.inviteForInvitee(invitationID)
	if err != nil {
		return err
	}
	_, err = l.backend.Invites.TransitionInvite(invite.ID, models.InvitationDeclined)
	return translate(err, "invitation")
}

func (l *Local) InviteRevoke(ctx context.Context, invitationID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	invite, err := l.inviteForSender(invitationID)
	if err != nil {
		return err
	}
	_, err = l.backend.Invites.TransitionInvite(invite.ID, models.InvitationRevoked)
	return translate(err, "invitation")
}

// InviteResend rotates the token and extends the expiry of a pending or expired invitation.
func (l *Local) InviteResend(ctx context.Context, invitationID string) (string, error) {
	if err := l.begin(ctx); err != nil {
		return "", err
	}
	invite, err := l.inviteForSender(invitationID)
	if err != nil {
		return "", err
	}
	token, err := generateInviteToken()
	if err != nil {
		return "", &UnknownError{Message: "failed to generate invite token", Err: err}
	}
	expiresAt := l.backend.now().Add(l.backend.inviteTTL).UnixMilli()
	if _, err := l.backend.Invites.RenewInvite(invite.ID, expiresAt, hashInviteToken(token)); err != nil {
		return "", translate(err, "invitation")
	}
	return token, nil
}

func (l *Local) FriendStart(ctx context.Context, targetUserID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	if _, err := l.backend.Users.GetUserByID(targetUserID); err != nil {
		return notFound("user")
	}
	_, err := l.backend.Friends.CreateRequest(l.viewerID, targetUserID)
	return translate(err, "friend request")
}

func (l *Local) FriendAccept(ctx context.Context, requestID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	req, err := l.backend.Friends.GetRequest(requestID)
	if err != nil || req.TargetUserID != l.viewerID {
		return notFound("friend request")
	}
	if _, err := l.backend.Friends.TransitionRequest(req.ID, models.FriendRequestAccepted); err != nil {
		return translate(err, "friend request")
	}
	if err := l.backend.Friends.AddConnection(req.RequesterID, req.TargetUserID); err != nil {
		return &UnknownError{Message: "failed to record friendship", Err: err}
	}
	return nil
}

func (l *Local) FriendDecline(ctx context.Context, requestID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	req, err := l.backend.Friends.GetRequest(requestID)
	if err != nil || req.TargetUserID != l.viewerID {
		return notFound("friend request")
	}
	_, err = l.backend.Friends.TransitionRequest(req.ID, models.FriendRequestDeclined)
	return translate(err, "friend request")
}

func (l *Local) FriendCancel(ctx context.Context, requestID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	req, err := l.backend.Friends.GetRequest(requestID)
	if err != nil || req.RequesterID != l.viewerID {
		return notFound("friend request")
	}
	_, err = l.backend.Friends.TransitionRequest(req.ID, models.FriendRequestCanceled)
	return translate(err, "friend request")
}

func (l *Local) FriendConnections(ctx context.Context) ([]models.FriendConnection, error) {
	if err := l.begin(ctx); err != nil {
		return nil, err
	}
	ids, err := l.backend.Friends.ListConnections(l.viewerID)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}
	out := make([]models.FriendConnection, 0, len(ids))
	for _, id := range ids {
		conn := models.FriendConnection{ID: id}
		if user, err := l.backend.Users.GetUserByID(id); err == nil {
			conn.Username = stringPtr(user.Username)
			conn.Email = stringPtr(user.Email)
		}
		out = append(out, conn)
	}
	return out, nil
}

func (l *Local) RemoveFriendConnection(ctx context.Context, friendID string) error {
	if err := l.begin(ctx); err != nil {
		return err
	}
	return translate(l.backend.Friends.RemoveConnection(l.viewerID, friendID), "friend connection")
}

func (l *Local) requireManager(orgID string) error {
	if _, err := l.backend.Organizations.GetOrganizationByID(orgID); err != nil {
		return notFound("organization")
	}
	m, err := l.backend.Organizations.GetMembership(orgID, l.viewerID)
	if err != nil || (m.Role != models.RoleOwner && m.Role != models.RoleAdmin) {
		return Domainf("insufficient permissions for organization")
	}
	return nil
}

func (l *Local) inviteForInvitee(invitationID string) (models.Invitation, error) {
	invite, err := l.backend.Invites.GetInvite(invitationID)
	if err != nil || invite.InviteeUserID != l.viewerID {
		return models.Invitation{}, notFound("invitation")
	}
	return invite, nil
}

// inviteForSender allows the creator or any manager of the invitation's org.
func (l *Local) inviteForSender(invitationID string) (models.Invitation, error) {
	invite, err := l.backend.Invites.GetInvite(invitationID)
	if err != nil {
		return models.Invitation{}, notFound("invitation")
	}
	if invite.CreatedBy != nil && *invite.CreatedBy == l.viewerID {
		return invite, nil
	}
	if err := l.requireManager(invite.OrgID); err != nil {
		return models.Invitation{}, notFound("invitation")
	}
	return invite, nil
}

// translate maps repository errors onto the directory taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrConflict):
		return &DomainError{Message: conflictDetail(err)}
	}
	return &UnknownError{Message: what + " operation failed", Err: err}
}

// conflictDetail keeps the repository's wrap message, e.g. "invitation is revoked".
func conflictDetail(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+repository.ErrConflict.Error())
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
