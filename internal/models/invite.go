package models

import "time"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

func IsValidRole(role Role) bool {
	switch role {
	case RoleMember, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation represents an invitation for a user to join an organization.
type Invitation struct {
	ID            string           `json:"id"`
	OrgID         string           `json:"org_id"`
	InviteeUserID string           `json:"invitee_user_id"`
	Role          Role             `json:"role"`
	Status        InvitationStatus `json:"status"`
	ExpiresAt     int64            `json:"expires_at"` // epoch millis
	CreatedBy     *string          `json:"created_by,omitempty"`
}

// IsExpired reports whether the advisory expiry has passed, regardless of Status.
func (i Invitation) IsExpired(now time.Time) bool {
	return now.UnixMilli() > i.ExpiresAt
}

// IsTerminal reports whether the invitation can no longer transition.
func (i Invitation) IsTerminal() bool {
	return i.Status != InvitationPending
}

// InviteTicket is returned when an invitation is created.
type InviteTicket struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}
