package entities

// Timeline represents a sequence of events on a time axis within a universe.
// Start and End bound the axis; Unit names the axis unit (e.g. "seconds",
// "days", "years").
type Timeline struct {
	ID           int64  `json:"id"`
	AuthorID     int64  `json:"author_id"`
	Description  string `json:"description"`
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
	Unit         string `json:"unit"`
	UniverseName string `json:"universe_name"`
}

// TimelineUpdate carries the optional fields of a timeline update.
// Only non-nil fields are applied. AuthorID scopes the update to the
// timeline's author and is always required.
type TimelineUpdate struct {
	Description  *string `json:"description"`
	Start        *int64  `json:"start"`
	End          *int64  `json:"end"`
	Unit         *string `json:"unit"`
	UniverseName *string `json:"universe_name"`
	AuthorID     int64   `json:"author_id"`
}
