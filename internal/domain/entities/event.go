package entities

// Event represents a piece of lore that can be placed on timelines.
// Image and Thumbnail are URLs or paths and may be absent.
type Event struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Reference   string  `json:"reference"`
	Image       *string `json:"image"`
	Thumbnail   *string `json:"thumbnail"`
	AuthorID    int64   `json:"author_id"`
}

// EventUpdate carries the optional fields of an event update.
// Only non-nil fields are applied. AuthorID scopes the update to the
// event's author and is always required.
type EventUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Reference   *string `json:"reference"`
	Image       *string `json:"image"`
	Thumbnail   *string `json:"thumbnail"`
	AuthorID    int64   `json:"author_id"`
}
