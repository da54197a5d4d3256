package ports

import (
	"context"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

// RelationalDB defines the interface for the persistent store. It is the
// only shared mutable state in the system: one handle is constructed at
// startup and passed to every component, and no resource or token content
// is cached across requests. Multi-step mutations (the timeline merge) run
// inside one store-level transaction; everything else is one or two
// unconditioned statements, except the conditional updates below which are
// single-statement compare-and-swaps.
type RelationalDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// User operations

	// ListUsers lists all users ordered by id.
	ListUsers(ctx context.Context) ([]entities.User, error)

	// CreateUser inserts a user and returns it with its assigned id.
	CreateUser(ctx context.Context, nickname string, description *string) (*entities.User, error)

	// FindUserByID finds a user by id. Returns nil if not found.
	FindUserByID(ctx context.Context, id int64) (*entities.User, error)

	// UpdateUser applies the non-nil fields of upd to the user.
	// Returns entities.ErrNoFields when upd is empty and
	// entities.ErrNotFound when no row matched.
	UpdateUser(ctx context.Context, id int64, upd entities.UserUpdate) error

	// DeleteUser deletes a user by id. Returns entities.ErrNotFound when
	// no row matched.
	DeleteUser(ctx context.Context, id int64) error

	// CountUsers returns the total number of users.
	CountUsers(ctx context.Context) (int, error)

	// Universe operations

	// ListUniverses lists all universes ordered by name.
	ListUniverses(ctx context.Context) ([]entities.Universe, error)

	// CreateUniverse inserts a universe.
	CreateUniverse(ctx context.Context, universe *entities.Universe) error

	// CountUniverses returns the total number of universes.
	CountUniverses(ctx context.Context) (int, error)

	// Event operations

	// ListEvents lists events ordered by id with pagination.
	ListEvents(ctx context.Context, limit, offset int) ([]entities.Event, error)

	// CreateEvent inserts an event and returns it with its assigned id.
	CreateEvent(ctx context.Context, event *entities.Event) (*entities.Event, error)

	// FindEventByID finds an event by id. Returns nil if not found.
	FindEventByID(ctx context.Context, id int64) (*entities.Event, error)

	// UpdateEvent applies the non-nil fields of upd to the event,
	// committing only if the row still matches prev field for field (a
	// compare-and-swap against the state that was read before the write).
	// Returns entities.ErrNoFields when upd is empty, entities.ErrNotFound
	// when the event no longer exists, and entities.ErrStale when the row
	// exists but changed since prev was read.
	UpdateEvent(ctx context.Context, prev *entities.Event, upd entities.EventUpdate) error

	// DeleteEvent deletes an event by id. Returns entities.ErrNotFound
	// when no row matched.
	DeleteEvent(ctx context.Context, id int64) error

	// Timeline operations

	// ListTimelines lists all timelines ordered by id.
	ListTimelines(ctx context.Context) ([]entities.Timeline, error)

	// CreateTimeline inserts a timeline and returns it with its assigned id.
	CreateTimeline(ctx context.Context, timeline *entities.Timeline) (*entities.Timeline, error)

	// FindTimelineByID finds a timeline by id. Returns nil if not found.
	FindTimelineByID(ctx context.Context, id int64) (*entities.Timeline, error)

	// UpdateTimeline applies the non-nil fields of upd to the timeline,
	// scoped to upd.AuthorID. Returns entities.ErrNoFields when upd is
	// empty and entities.ErrNotFound when no row matched.
	UpdateTimeline(ctx context.Context, id int64, upd entities.TimelineUpdate) error

	// DeleteTimeline deletes a timeline by id. Returns entities.ErrNotFound
	// when no row matched.
	DeleteTimeline(ctx context.Context, id int64) error

	// Timeline-event link operations

	// ListEventsForTimeline lists a timeline's links ordered by position.
	ListEventsForTimeline(ctx context.Context, timelineID int64) ([]entities.TimelineEvent, error)

	// ListTimelinesForEvent lists an event's links ordered by position.
	ListTimelinesForEvent(ctx context.Context, eventID int64) ([]entities.TimelineEvent, error)

	// FindTimelineEvent finds a link by its (timeline, event) key.
	// Returns nil if not found.
	FindTimelineEvent(ctx context.Context, timelineID, eventID int64) (*entities.TimelineEvent, error)

	// CreateTimelineEvent inserts a link, or returns the existing link
	// unchanged when the (timeline, event) key is already present.
	CreateTimelineEvent(ctx context.Context, link *entities.TimelineEvent) (*entities.TimelineEvent, error)

	// UpdateTimelineEvent applies the non-nil fields of upd to the link.
	// Returns entities.ErrNoFields when upd is empty and
	// entities.ErrNotFound when no row matched.
	UpdateTimelineEvent(ctx context.Context, timelineID, eventID int64, upd entities.TimelineEventUpdate) error

	// DeleteTimelineEvent deletes a link by its key. Returns
	// entities.ErrNotFound when no row matched.
	DeleteTimelineEvent(ctx context.Context, timelineID, eventID int64) error

	// Merge operations

	// ListMerges lists all merge records ordered by merge time.
	ListMerges(ctx context.Context) ([]entities.TimelineMerge, error)

	// FindMergeByID finds a merge record by id. Returns nil if not found.
	FindMergeByID(ctx context.Context, id int64) (*entities.TimelineMerge, error)

	// MergeTimelines merges the source timeline into the target as one
	// all-or-nothing transaction: copy links (existing target links win),
	// delete the source's links, delete the source timeline, record the
	// merge. Returns entities.ErrNotFound when the source timeline does
	// not exist; in that case, and on any other failure, the store is
	// observably unchanged.
	MergeTimelines(ctx context.Context, sourceID, targetID int64) (*entities.TimelineMerge, error)

	// DeleteMerge deletes a merge record by id. Returns
	// entities.ErrNotFound when no row matched.
	DeleteMerge(ctx context.Context, id int64) error

	// One-time token operations

	// InsertToken records a freshly issued token as unused with no cached
	// response.
	InsertToken(ctx context.Context, token string) error

	// FindToken finds a token record. Returns nil if not found.
	FindToken(ctx context.Context, token string) (*entities.OneTimeToken, error)

	// MarkTokenUsed atomically flips the token from unused to used,
	// conditioned on it still being unused. Reports whether this call won
	// the transition; false means another caller already claimed it.
	MarkTokenUsed(ctx context.Context, token string) (bool, error)

	// SaveTokenResponse stores the final response of the mutation the
	// token guarded, so later claims can replay it.
	SaveTokenResponse(ctx context.Context, token string, status int, headers entities.HeaderBag, body []byte) error
}
