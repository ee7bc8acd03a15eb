// Package directory defines the backend facade the people orchestrator consumes,
// its error taxonomy, and an in-process reference implementation.
package directory

import (
	"context"

	"github.com/stanstork/people-api/internal/models"
)

// Directory is the remote authentication/organization backend as seen by one
// signed-in user. Every call may block on the network.
type Directory interface {
	InvitationsSent(ctx context.Context, cursor string, limit int) (models.Page[models.Invitation], error)
	InvitationsReceived(ctx context.Context, cursor string, limit int) (models.Page[models.Invitation], error)
	FriendRequestsSent(ctx context.Context, cursor string, limit int) (models.Page[models.FriendRequest], error)
	FriendRequestsReceived(ctx context.Context, cursor string, limit int) (models.Page[models.FriendRequest], error)
	Organizations(ctx context.Context) ([]models.OrganizationSummary, error)
	SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error)

	InviteStart(ctx context.Context, orgID, inviteeUserID string, role models.Role) (models.InviteTicket, error)
	InviteAccept(ctx context.Context, invitationID string) error
	InviteDecline(ctx context.Context, invitationID string) error
	InviteRevoke(ctx context.Context, invitationID string) error
	InviteResend(ctx context.Context, invitationID string) (string, error)

	FriendStart(ctx context.Context, targetUserID string) error
	FriendAccept(ctx context.Context, requestID string) error
	FriendDecline(ctx context.Context, requestID string) error
	FriendCancel(ctx context.Context, requestID string) error
	FriendConnections(ctx context.Context) ([]models.FriendConnection, error)
	RemoveFriendConnection(ctx context.Context, friendID string) error
}
