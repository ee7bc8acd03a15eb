package people

import (
	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/paging"
	"github.com/stanstork/people-api/internal/search"
)

// Counts are badge values derived from the loaded pages only.
type Counts struct {
	PendingSentInvitations        int `json:"pending_sent_invitations"`
	PendingReceivedInvitations    int `json:"pending_received_invitations"`
	PendingSentFriendRequests     int `json:"pending_sent_friend_requests"`
	PendingReceivedFriendRequests int `json:"pending_received_friend_requests"`
}

// Snapshot is a read-only copy of the registry, safe to hand to views.
// Version grows with every state change. Snapshots taken concurrently can
// carry equal versions and arrive out of order, so a consumer may drop a
// snapshot strictly older than one it already rendered but must accept equal ones.
type Snapshot struct {
	Version                uint64                                   `json:"version"`
	ViewerID               string                                   `json:"viewer_id"`
	InvitationsSent        paging.State[models.Invitation]          `json:"invitations_sent"`
	InvitationsReceived    paging.State[models.Invitation]          `json:"invitations_received"`
	FriendRequestsSent     paging.State[models.FriendRequest]       `json:"friend_requests_sent"`
	FriendRequestsReceived paging.State[models.FriendRequest]       `json:"friend_requests_received"`
	Friends                paging.State[models.FriendConnection]    `json:"friends"`
	Organizations          paging.State[models.OrganizationSummary] `json:"organizations"`
	InvitableOrganizations []models.OrganizationSummary             `json:"invitable_organizations"`
	Search                 search.State                             `json:"search"`
	Counts                 Counts                                   `json:"counts"`
	Loading                bool                                     `json:"loading"`
	Error                  string                                   `json:"error,omitempty"`
	ErrorKind              directory.Kind                           `json:"error_kind,omitempty"`
}

func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{
		Version:                r.version.Load(),
		ViewerID:               r.viewerID,
		InvitationsSent:        r.invitationsSent.State(),
		InvitationsReceived:    r.invitationsReceived.State(),
		FriendRequestsSent:     r.friendRequestsSent.State(),
		FriendRequestsReceived: r.friendRequestsReceived.State(),
		Friends:                r.friends.State(),
		Organizations:          r.organizations.State(),
		Search:                 r.search.State(),
		Loading:                r.IsLoading(),
	}
	snap.InvitableOrganizations = models.InvitableOrganizations(snap.Organizations.Items)
	snap.Counts = Counts{
		PendingSentInvitations:        countPendingInvitations(snap.InvitationsSent.Items),
		PendingReceivedInvitations:    countPendingInvitations(snap.InvitationsReceived.Items),
		PendingSentFriendRequests:     countPendingFriendRequests(snap.FriendRequestsSent.Items),
		PendingReceivedFriendRequests: countPendingFriendRequests(snap.FriendRequestsReceived.Items),
	}
	if err := r.Err(); err != nil {
		snap.Error = directory.Message(err)
		snap.ErrorKind = directory.Classify(err)
	}
	return snap
}

// Counts computes the pending badges from the current pages.
func (r *Registry) Counts() Counts {
	return Counts{
		PendingSentInvitations:        countPendingInvitations(r.invitationsSent.Items()),
		PendingReceivedInvitations:    countPendingInvitations(r.invitationsReceived.Items()),
		PendingSentFriendRequests:     countPendingFriendRequests(r.friendRequestsSent.Items()),
		PendingReceivedFriendRequests: countPendingFriendRequests(r.friendRequestsReceived.Items()),
	}
}

func countPendingInvitations(items []models.Invitation) int {
	n := 0
	for _, inv := range items {
		if inv.Status == models.InvitationPending {
			n++
		}
	}
	return n
}

func countPendingFriendRequests(items []models.FriendRequest) int {
	n := 0
	for _, req := range items {
		if req.Status == models.FriendRequestPending {
			n++
		}
	}
	return n
}
