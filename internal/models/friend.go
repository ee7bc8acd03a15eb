package models

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
	FriendRequestCanceled FriendRequestStatus = "canceled"
)

// FriendRequest is directional: the requester sent it, the target received it.
type FriendRequest struct {
	ID           string              `json:"id"`
	RequesterID  string              `json:"requester_id"`
	TargetUserID string              `json:"target_user_id"`
	Status       FriendRequestStatus `json:"status"`
}

func (f FriendRequest) IsTerminal() bool {
	return f.Status != FriendRequestPending
}

// FriendConnection is a resolved friendship, seen from the local user.
type FriendConnection struct {
	ID       string  `json:"id"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}
