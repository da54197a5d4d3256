package entities

// Universe represents a fictional universe that timelines belong to.
// The name is the primary key.
type Universe struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
