package models

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// UserSummary is a user search hit as returned by the directory.
type UserSummary struct {
	ID       string  `json:"id"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// PersonSearchResult is an ephemeral search row regenerated per query.
type PersonSearchResult struct {
	ID             string  `json:"id"`
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	AlreadyFriends bool    `json:"already_friends"`
}
