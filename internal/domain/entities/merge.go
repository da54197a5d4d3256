package entities

import "time"

// TimelineMerge records a completed merge of one timeline into another.
// Exactly one record exists per successful merge; ID and MergedAt are
// assigned by the store at commit time and the record is immutable after
// creation.
type TimelineMerge struct {
	ID               int64     `json:"id"`
	SourceTimelineID int64     `json:"source_timeline_id"`
	TargetTimelineID int64     `json:"target_timeline_id"`
	MergedAt         time.Time `json:"merged_at"`
}
