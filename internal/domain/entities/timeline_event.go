package entities

// TimelineEvent links an event to a timeline at a position on the axis.
// The pair (TimelineID, EventID) is the link's key; a timeline holds at
// most one link per event.
type TimelineEvent struct {
	TimelineID int64 `json:"timeline_id"`
	EventID    int64 `json:"event_id"`
	Position   int64 `json:"position"`
}

// TimelineEventUpdate carries the optional fields of a link update.
type TimelineEventUpdate struct {
	Position *int64 `json:"position"`
}
