package people

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/models"
)

// Result is what every mutation hands back to the caller: the registry state
// after the follow-up refresh, plus any value the backend returned.
type Result struct {
	Snapshot Snapshot             `json:"snapshot"`
	Ticket   *models.InviteTicket `json:"ticket,omitempty"`
	Token    string               `json:"token,omitempty"`
}

// Coordinator runs state-changing directory calls and refreshes the registry
// after each success. Mutations are not serialized against each other.
type Coordinator struct {
	reg    *Registry
	dir    directory.Directory
	logger zerolog.Logger
}

func NewCoordinator(reg *Registry) *Coordinator {
	return &Coordinator{
		reg:    reg,
		dir:    reg.dir,
		logger: reg.logger.With().Str("component", "people_coordinator").Logger(),
	}
}

type mutation struct {
	name        string
	validate    func() error
	call        func(ctx context.Context) error
	clearSearch bool
}

// run is not canceled by ctx: once a mutation starts, the directory call and
// the refresh after it complete or fail on their own.
func (c *Coordinator) run(ctx context.Context, m mutation) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	c.reg.ClearError()

	if m.validate != nil {
		if err := m.validate(); err != nil {
			c.reg.fail(m.name, err)
			return Result{Snapshot: c.reg.Snapshot()}, err
		}
	}
	if err := m.call(ctx); err != nil {
		c.reg.fail(m.name, err)
		return Result{Snapshot: c.reg.Snapshot()}, err
	}
	c.logger.Info().Str("operation", m.name).Msg("mutation applied")

	// A failed refresh is surfaced through the registry error; the mutation itself succeeded.
	_ = c.reg.RefreshAll(ctx)
	if m.clearSearch {
		c.reg.ClearSearch()
	}
	return Result{Snapshot: c.reg.Snapshot()}, nil
}

func (c *Coordinator) InviteStart(ctx context.Context, orgID, inviteeUserID string, role models.Role) (Result, error) {
	var ticket models.InviteTicket
	res, err := c.run(ctx, mutation{
		name: "invite_start",
		validate: func() error {
			if strings.TrimSpace(orgID) == "" || strings.TrimSpace(inviteeUserID) == "" {
				return directory.Domainf("choose an organization and a person to invite")
			}
			if !models.IsValidRole(role) {
				return directory.Domainf("invalid role %q", role)
			}
			for _, org := range c.reg.InvitableOrganizations() {
				if org.OrgID == orgID {
					return nil
				}
			}
			return directory.Domainf("you cannot invite people into this organization")
		},
		call: func(ctx context.Context) error {
			var err error
			ticket, err = c.dir.InviteStart(ctx, orgID, inviteeUserID, role)
			return err
		},
		clearSearch: true,
	})
	if err == nil {
		res.Ticket = &ticket
	}
	return res, err
}

func (c *Coordinator) InviteAccept(ctx context.Context, invitationID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "invite_accept",
		validate: func() error { return c.checkInvitationRespondable(invitationID) },
		call:     func(ctx context.Context) error { return c.dir.InviteAccept(ctx, invitationID) },
	})
}

func (c *Coordinator) InviteDecline(ctx context.Context, invitationID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "invite_decline",
		validate: func() error { return c.checkInvitationRespondable(invitationID) },
		call:     func(ctx context.Context) error { return c.dir.InviteDecline(ctx, invitationID) },
	})
}

func (c *Coordinator) InviteRevoke(ctx context.Context, invitationID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "invite_revoke",
		validate: func() error { return c.checkInvitationPending(invitationID) },
		call:     func(ctx context.Context) error { return c.dir.InviteRevoke(ctx, invitationID) },
	})
}

// InviteResend is allowed for any status the backend accepts, expired included.
func (c *Coordinator) InviteResend(ctx context.Context, invitationID string) (Result, error) {
	var token string
	res, err := c.run(ctx, mutation{
		name:     "invite_resend",
		validate: func() error { return requireID(invitationID, "invitation") },
		call: func(ctx context.Context) error {
			var err error
			token, err = c.dir.InviteResend(ctx, invitationID)
			return err
		},
	})
	res.Token = token
	return res, err
}

// FriendStart does not check for an existing request; the backend enforces pair uniqueness.
func (c *Coordinator) FriendStart(ctx context.Context, targetUserID string) (Result, error) {
	return c.run(ctx, mutation{
		name:        "friend_start",
		validate:    func() error { return requireID(targetUserID, "person") },
		call:        func(ctx context.Context) error { return c.dir.FriendStart(ctx, targetUserID) },
		clearSearch: true,
	})
}

func (c *Coordinator) FriendAccept(ctx context.Context, requestID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "friend_accept",
		validate: func() error { return c.checkFriendRequestPending(requestID) },
		call:     func(ctx context.Context) error { return c.dir.FriendAccept(ctx, requestID) },
	})
}

func (c *Coordinator) FriendDecline(ctx context.Context, requestID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "friend_decline",
		validate: func() error { return c.checkFriendRequestPending(requestID) },
		call:     func(ctx context.Context) error { return c.dir.FriendDecline(ctx, requestID) },
	})
}

func (c *Coordinator) FriendCancel(ctx context.Context, requestID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "friend_cancel",
		validate: func() error { return c.checkFriendRequestPending(requestID) },
		call:     func(ctx context.Context) error { return c.dir.FriendCancel(ctx, requestID) },
	})
}

func (c *Coordinator) RemoveFriendConnection(ctx context.Context, friendID string) (Result, error) {
	return c.run(ctx, mutation{
		name:     "friend_remove",
		validate: func() error { return requireID(friendID, "friend") },
		call:     func(ctx context.Context) error { return c.dir.RemoveFriendConnection(ctx, friendID) },
	})
}

// Local checks only reject what the loaded pages already prove invalid;
// unknown ids are passed through for the backend to decide.

func (c *Coordinator) checkInvitationPending(id string) error {
	if err := requireID(id, "invitation"); err != nil {
		return err
	}
	if inv, ok := c.reg.findInvitation(id); ok && inv.IsTerminal() {
		return directory.Domainf("invitation is %s", inv.Status)
	}
	return nil
}

func (c *Coordinator) checkInvitationRespondable(id string) error {
	if err := c.checkInvitationPending(id); err != nil {
		return err
	}
	if inv, ok := c.reg.findInvitation(id); ok && inv.IsExpired(c.reg.now()) {
		return directory.Domainf("invitation expired")
	}
	return nil
}

func (c *Coordinator) checkFriendRequestPending(id string) error {
	if err := requireID(id, "friend request"); err != nil {
		return err
	}
	if req, ok := c.reg.findFriendRequest(id); ok && req.IsTerminal() {
		return directory.Domainf("friend request is %s", req.Status)
	}
	return nil
}

func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return directory.Domainf("%s id is required", what)
	}
	return nil
}
