package models

// Page is one server page of a cursor-paginated collection.
// An empty NextCursor means there is no cursor.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}
