package entities

// User represents an author of events and timelines.
type User struct {
	ID          int64   `json:"id"`
	Nickname    string  `json:"nickname"`
	Description *string `json:"description"`
}

// UserUpdate carries the optional fields of a user update.
// Only non-nil fields are applied.
type UserUpdate struct {
	Nickname    *string `json:"nickname"`
	Description *string `json:"description"`
}
