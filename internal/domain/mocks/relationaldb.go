// Package mocks provides in-memory mock implementations of the domain ports.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

// RelationalDB is a mock implementation of ports.RelationalDB backed by
// maps. Setting Err makes every call fail with it.
type RelationalDB struct {
	mu sync.Mutex

	Users     map[int64]*entities.User
	Universes map[string]*entities.Universe
	Events    map[int64]*entities.Event
	Timelines map[int64]*entities.Timeline
	Links     map[[2]int64]*entities.TimelineEvent
	Merges    map[int64]*entities.TimelineMerge
	Tokens    map[string]*entities.OneTimeToken

	Err    error
	nextID int64
}

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Users:     make(map[int64]*entities.User),
		Universes: make(map[string]*entities.Universe),
		Events:    make(map[int64]*entities.Event),
		Timelines: make(map[int64]*entities.Timeline),
		Links:     make(map[[2]int64]*entities.TimelineEvent),
		Merges:    make(map[int64]*entities.TimelineMerge),
		Tokens:    make(map[string]*entities.OneTimeToken),
	}
}

func (m *RelationalDB) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// User methods.

// ListUsers lists all users ordered by id.
func (m *RelationalDB) ListUsers(_ context.Context) ([]entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.User, 0, len(m.Users))
	for _, u := range m.Users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CreateUser inserts a user and returns it with its assigned id.
func (m *RelationalDB) CreateUser(_ context.Context, nickname string, description *string) (*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &entities.User{ID: m.nextIDLocked(), Nickname: nickname, Description: description}
	m.Users[user.ID] = user
	copied := *user
	return &copied, nil
}

// FindUserByID finds a user by id.
func (m *RelationalDB) FindUserByID(_ context.Context, id int64) (*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// UpdateUser applies the non-nil fields of upd to the user.
func (m *RelationalDB) UpdateUser(_ context.Context, id int64, upd entities.UserUpdate) error {
	if m.Err != nil {
		return m.Err
	}
	if upd.Nickname == nil && upd.Description == nil {
		return entities.ErrNoFields
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return entities.ErrNotFound
	}
	if upd.Nickname != nil {
		user.Nickname = *upd.Nickname
	}
	if upd.Description != nil {
		user.Description = upd.Description
	}
	return nil
}

// DeleteUser deletes a user by id.
func (m *RelationalDB) DeleteUser(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[id]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Users, id)
	return nil
}

// CountUsers returns the total number of users.
func (m *RelationalDB) CountUsers(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users), nil
}

// Universe methods.

// ListUniverses lists all universes ordered by name.
func (m *RelationalDB) ListUniverses(_ context.Context) ([]entities.Universe, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Universe, 0, len(m.Universes))
	for _, u := range m.Universes {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CreateUniverse inserts a universe.
func (m *RelationalDB) CreateUniverse(_ context.Context, universe *entities.Universe) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *universe
	m.Universes[universe.Name] = &copied
	return nil
}

// CountUniverses returns the total number of universes.
func (m *RelationalDB) CountUniverses(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Universes), nil
}

// Event methods.

// ListEvents lists events ordered by id with pagination.
func (m *RelationalDB) ListEvents(_ context.Context, limit, offset int) ([]entities.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]entities.Event, 0, len(m.Events))
	for _, e := range m.Events {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []entities.Event{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// CreateEvent inserts an event and returns it with its assigned id.
func (m *RelationalDB) CreateEvent(_ context.Context, event *entities.Event) (*entities.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *event
	copied.ID = m.nextIDLocked()
	m.Events[copied.ID] = &copied
	result := copied
	return &result, nil
}

// FindEventByID finds an event by id.
func (m *RelationalDB) FindEventByID(_ context.Context, id int64) (*entities.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.Events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

// UpdateEvent applies upd to the event only if the stored row still
// matches prev, mirroring the compare-and-swap of the real store.
func (m *RelationalDB) UpdateEvent(_ context.Context, prev *entities.Event, upd entities.EventUpdate) error {
	if m.Err != nil {
		return m.Err
	}
	if upd.Name == nil && upd.Description == nil && upd.Reference == nil && upd.Image == nil && upd.Thumbnail == nil {
		return entities.ErrNoFields
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.Events[prev.ID]
	if !ok {
		return entities.ErrNotFound
	}
	if current.AuthorID != upd.AuthorID ||
		current.Name != prev.Name ||
		current.Description != prev.Description ||
		current.Reference != prev.Reference ||
		!ptrEq(current.Image, prev.Image) ||
		!ptrEq(current.Thumbnail, prev.Thumbnail) {
		return entities.ErrStale
	}
	if upd.Name != nil {
		current.Name = *upd.Name
	}
	if upd.Description != nil {
		current.Description = *upd.Description
	}
	if upd.Reference != nil {
		current.Reference = *upd.Reference
	}
	if upd.Image != nil {
		current.Image = upd.Image
	}
	if upd.Thumbnail != nil {
		current.Thumbnail = upd.Thumbnail
	}
	return nil
}

// DeleteEvent deletes an event by id.
func (m *RelationalDB) DeleteEvent(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Events[id]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Events, id)
	for key := range m.Links {
		if key[1] == id {
			delete(m.Links, key)
		}
	}
	return nil
}

// Timeline methods.

// ListTimelines lists all timelines ordered by id.
func (m *RelationalDB) ListTimelines(_ context.Context) ([]entities.Timeline, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Timeline, 0, len(m.Timelines))
	for _, tl := range m.Timelines {
		result = append(result, *tl)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CreateTimeline inserts a timeline and returns it with its assigned id.
func (m *RelationalDB) CreateTimeline(_ context.Context, timeline *entities.Timeline) (*entities.Timeline, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *timeline
	copied.ID = m.nextIDLocked()
	m.Timelines[copied.ID] = &copied
	result := copied
	return &result, nil
}

// FindTimelineByID finds a timeline by id.
func (m *RelationalDB) FindTimelineByID(_ context.Context, id int64) (*entities.Timeline, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	timeline, ok := m.Timelines[id]
	if !ok {
		return nil, nil
	}
	copied := *timeline
	return &copied, nil
}

// UpdateTimeline applies the non-nil fields of upd to the timeline.
func (m *RelationalDB) UpdateTimeline(_ context.Context, id int64, upd entities.TimelineUpdate) error {
	if m.Err != nil {
		return m.Err
	}
	if upd.Description == nil && upd.Start == nil && upd.End == nil && upd.Unit == nil && upd.UniverseName == nil {
		return entities.ErrNoFields
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	timeline, ok := m.Timelines[id]
	if !ok || timeline.AuthorID != upd.AuthorID {
		return entities.ErrNotFound
	}
	if upd.Description != nil {
		timeline.Description = *upd.Description
	}
	if upd.Start != nil {
		timeline.Start = *upd.Start
	}
	if upd.End != nil {
		timeline.End = *upd.End
	}
	if upd.Unit != nil {
		timeline.Unit = *upd.Unit
	}
	if upd.UniverseName != nil {
		timeline.UniverseName = *upd.UniverseName
	}
	return nil
}

// DeleteTimeline deletes a timeline by id.
func (m *RelationalDB) DeleteTimeline(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Timelines[id]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Timelines, id)
	for key := range m.Links {
		if key[0] == id {
			delete(m.Links, key)
		}
	}
	return nil
}

// Timeline-event link methods.

// ListEventsForTimeline lists a timeline's links ordered by position.
func (m *RelationalDB) ListEventsForTimeline(_ context.Context, timelineID int64) ([]entities.TimelineEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectLinksLocked(func(l *entities.TimelineEvent) bool { return l.TimelineID == timelineID }), nil
}

// ListTimelinesForEvent lists an event's links ordered by position.
func (m *RelationalDB) ListTimelinesForEvent(_ context.Context, eventID int64) ([]entities.TimelineEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectLinksLocked(func(l *entities.TimelineEvent) bool { return l.EventID == eventID }), nil
}

func (m *RelationalDB) collectLinksLocked(match func(*entities.TimelineEvent) bool) []entities.TimelineEvent {
	result := make([]entities.TimelineEvent, 0, len(m.Links))
	for _, l := range m.Links {
		if match(l) {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result
}

// FindTimelineEvent finds a link by its key.
func (m *RelationalDB) FindTimelineEvent(_ context.Context, timelineID, eventID int64) (*entities.TimelineEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.Links[[2]int64{timelineID, eventID}]
	if !ok {
		return nil, nil
	}
	copied := *link
	return &copied, nil
}

// CreateTimelineEvent inserts a link, or returns the existing one.
func (m *RelationalDB) CreateTimelineEvent(_ context.Context, link *entities.TimelineEvent) (*entities.TimelineEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{link.TimelineID, link.EventID}
	if existing, ok := m.Links[key]; ok {
		copied := *existing
		return &copied, nil
	}
	copied := *link
	m.Links[key] = &copied
	result := copied
	return &result, nil
}

// UpdateTimelineEvent applies the non-nil fields of upd to the link.
func (m *RelationalDB) UpdateTimelineEvent(_ context.Context, timelineID, eventID int64, upd entities.TimelineEventUpdate) error {
	if m.Err != nil {
		return m.Err
	}
	if upd.Position == nil {
		return entities.ErrNoFields
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.Links[[2]int64{timelineID, eventID}]
	if !ok {
		return entities.ErrNotFound
	}
	link.Position = *upd.Position
	return nil
}

// DeleteTimelineEvent deletes a link by its key.
func (m *RelationalDB) DeleteTimelineEvent(_ context.Context, timelineID, eventID int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{timelineID, eventID}
	if _, ok := m.Links[key]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Links, key)
	return nil
}

// Merge methods.

// ListMerges lists all merge records ordered by merge time.
func (m *RelationalDB) ListMerges(_ context.Context) ([]entities.TimelineMerge, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.TimelineMerge, 0, len(m.Merges))
	for _, merge := range m.Merges {
		result = append(result, *merge)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MergedAt.Before(result[j].MergedAt) })
	return result, nil
}

// FindMergeByID finds a merge record by id.
func (m *RelationalDB) FindMergeByID(_ context.Context, id int64) (*entities.TimelineMerge, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	merge, ok := m.Merges[id]
	if !ok {
		return nil, nil
	}
	copied := *merge
	return &copied, nil
}

// MergeTimelines merges the source timeline into the target, keeping
// target links on conflict.
func (m *RelationalDB) MergeTimelines(_ context.Context, sourceID, targetID int64) (*entities.TimelineMerge, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Timelines[sourceID]; !ok {
		return nil, entities.ErrNotFound
	}
	for key, link := range m.Links {
		if key[0] != sourceID {
			continue
		}
		targetKey := [2]int64{targetID, key[1]}
		if _, exists := m.Links[targetKey]; !exists {
			m.Links[targetKey] = &entities.TimelineEvent{
				TimelineID: targetID,
				EventID:    key[1],
				Position:   link.Position,
			}
		}
		delete(m.Links, key)
	}
	delete(m.Timelines, sourceID)

	merge := &entities.TimelineMerge{
		ID:               m.nextIDLocked(),
		SourceTimelineID: sourceID,
		TargetTimelineID: targetID,
		MergedAt:         time.Now().UTC(),
	}
	m.Merges[merge.ID] = merge
	copied := *merge
	return &copied, nil
}

// DeleteMerge deletes a merge record by id.
func (m *RelationalDB) DeleteMerge(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Merges[id]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Merges, id)
	return nil
}

// One-time token methods.

// InsertToken records a freshly issued token as unused.
func (m *RelationalDB) InsertToken(_ context.Context, token string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens[token] = &entities.OneTimeToken{Token: token}
	return nil
}

// FindToken finds a token record.
func (m *RelationalDB) FindToken(_ context.Context, token string) (*entities.OneTimeToken, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Tokens[token]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

// MarkTokenUsed atomically flips the token from unused to used.
func (m *RelationalDB) MarkTokenUsed(_ context.Context, token string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Tokens[token]
	if !ok || rec.Used {
		return false, nil
	}
	rec.Used = true
	return true, nil
}

// SaveTokenResponse stores the response of the mutation the token guarded.
func (m *RelationalDB) SaveTokenResponse(_ context.Context, token string, status int, headers entities.HeaderBag, body []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Tokens[token]
	if !ok {
		return entities.ErrUnknownToken
	}
	rec.StatusCode = &status
	rec.ResponseBody = body
	rec.ResponseHeaders = headers
	return nil
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
