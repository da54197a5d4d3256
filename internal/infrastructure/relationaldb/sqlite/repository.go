// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	// Pragmas go in the DSN so they apply to every connection the pool
	// opens, not just the one a PRAGMA statement happens to run on.
	// foreign_keys makes ON DELETE CASCADE fire, WAL allows concurrent
	// readers during writes, busy_timeout makes contending writers wait
	// instead of failing with SQLITE_BUSY.
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Authors of events and timelines
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nickname TEXT NOT NULL,
		description TEXT
	);

	-- Fictional universes, keyed by name
	CREATE TABLE IF NOT EXISTS universes (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL
	);

	-- Lore events
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		reference TEXT NOT NULL,
		image TEXT,
		thumbnail TEXT,
		author_id INTEGER NOT NULL REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_events_author ON events(author_id);

	-- Timelines within a universe
	CREATE TABLE IF NOT EXISTS timelines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL REFERENCES users(id),
		description TEXT NOT NULL,
		start INTEGER NOT NULL,
		"end" INTEGER NOT NULL,
		unit TEXT NOT NULL,
		universe_name TEXT NOT NULL REFERENCES universes(name)
	);
	CREATE INDEX IF NOT EXISTS idx_timelines_author ON timelines(author_id);

	-- Event placements, one per (timeline, event) pair
	CREATE TABLE IF NOT EXISTS timeline_events (
		timeline_id INTEGER NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
		event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (timeline_id, event_id)
	);
	CREATE INDEX IF NOT EXISTS idx_timeline_events_event ON timeline_events(event_id);

	-- Merge log, one row per completed merge
	CREATE TABLE IF NOT EXISTS timeline_merges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_timeline_id INTEGER NOT NULL,
		target_timeline_id INTEGER NOT NULL,
		merged_at TIMESTAMP NOT NULL
	);

	-- One-time token ledger; rows are never deleted
	CREATE TABLE IF NOT EXISTS one_time_tokens (
		token TEXT PRIMARY KEY,
		used INTEGER NOT NULL DEFAULT 0,
		status_code INTEGER,
		response_body BLOB,
		response_headers TEXT
	);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// User operations

// ListUsers lists all users ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	query := `
		SELECT id, nickname, description
		FROM users
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0, 16)
	for rows.Next() {
		var user entities.User
		var description sql.NullString
		if err := rows.Scan(&user.ID, &user.Nickname, &description); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if description.Valid {
			user.Description = &description.String
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateUser inserts a user and returns it with its assigned id.
func (r *Repository) CreateUser(ctx context.Context, nickname string, description *string) (*entities.User, error) {
	query := `INSERT INTO users (nickname, description) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, nickname, description)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}
	return &entities.User{ID: id, Nickname: nickname, Description: description}, nil
}

// FindUserByID finds a user by id. Returns nil if not found.
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT id, nickname, description FROM users WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var user entities.User
	var description sql.NullString
	err := row.Scan(&user.ID, &user.Nickname, &description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if description.Valid {
		user.Description = &description.String
	}
	return &user, nil
}

// UpdateUser applies the non-nil fields of upd to the user.
func (r *Repository) UpdateUser(ctx context.Context, id int64, upd entities.UserUpdate) error {
	b := newUpdateBuilder("users")
	b.setString("nickname", upd.Nickname)
	b.setString("description", upd.Description)
	if b.empty() {
		return entities.ErrNoFields
	}

	query, args := b.build("id = ?", id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// DeleteUser deletes a user by id.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// Universe operations

// ListUniverses lists all universes ordered by name.
func (r *Repository) ListUniverses(ctx context.Context) ([]entities.Universe, error) {
	query := `SELECT name, description FROM universes ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying universes: %w", err)
	}
	defer rows.Close()

	universes := make([]entities.Universe, 0, 16)
	for rows.Next() {
		var universe entities.Universe
		if err := rows.Scan(&universe.Name, &universe.Description); err != nil {
			return nil, fmt.Errorf("scanning universe: %w", err)
		}
		universes = append(universes, universe)
	}
	return universes, rows.Err()
}

// CreateUniverse inserts a universe.
func (r *Repository) CreateUniverse(ctx context.Context, universe *entities.Universe) error {
	query := `INSERT INTO universes (name, description) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, universe.Name, universe.Description); err != nil {
		return fmt.Errorf("inserting universe: %w", err)
	}
	return nil
}

// CountUniverses returns the total number of universes.
func (r *Repository) CountUniverses(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM universes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting universes: %w", err)
	}
	return count, nil
}

// Event operations

// ListEvents lists events ordered by id with pagination.
func (r *Repository) ListEvents(ctx context.Context, limit, offset int) ([]entities.Event, error) {
	query := `
		SELECT id, name, description, reference, image, thumbnail, author_id
		FROM events
		ORDER BY id
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := make([]entities.Event, 0, limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// CreateEvent inserts an event and returns it with its assigned id.
func (r *Repository) CreateEvent(ctx context.Context, event *entities.Event) (*entities.Event, error) {
	query := `
		INSERT INTO events (name, description, reference, image, thumbnail, author_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.Reference,
		event.Image,
		event.Thumbnail,
		event.AuthorID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading event id: %w", err)
	}

	created := *event
	created.ID = id
	return &created, nil
}

// FindEventByID finds an event by id. Returns nil if not found.
func (r *Repository) FindEventByID(ctx context.Context, id int64) (*entities.Event, error) {
	query := `
		SELECT id, name, description, reference, image, thumbnail, author_id
		FROM events
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent applies the non-nil fields of upd to the event as a
// compare-and-swap: the statement commits only when the row still matches
// prev on every column, so a writer that interleaved between the
// precondition check and this write makes the update match zero rows
// instead of silently clobbering the newer state.
func (r *Repository) UpdateEvent(ctx context.Context, prev *entities.Event, upd entities.EventUpdate) error {
	b := newUpdateBuilder("events")
	b.setString("name", upd.Name)
	b.setString("description", upd.Description)
	b.setString("reference", upd.Reference)
	b.setString("image", upd.Image)
	b.setString("thumbnail", upd.Thumbnail)
	if b.empty() {
		return entities.ErrNoFields
	}

	// IS instead of = for the nullable columns, so NULL compares equal.
	where := `id = ? AND author_id = ?
		AND name = ? AND description = ? AND reference = ?
		AND image IS ? AND thumbnail IS ?`
	query, args := b.build(where,
		prev.ID,
		upd.AuthorID,
		prev.Name,
		prev.Description,
		prev.Reference,
		prev.Image,
		prev.Thumbnail,
	)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		return nil
	}

	// Zero rows: either the event is gone or it changed under us.
	current, err := r.FindEventByID(ctx, prev.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return entities.ErrNotFound
	}
	return entities.ErrStale
}

// DeleteEvent deletes an event by id.
func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// Timeline operations

// ListTimelines lists all timelines ordered by id.
func (r *Repository) ListTimelines(ctx context.Context) ([]entities.Timeline, error) {
	query := `
		SELECT id, author_id, description, start, "end", unit, universe_name
		FROM timelines
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying timelines: %w", err)
	}
	defer rows.Close()

	timelines := make([]entities.Timeline, 0, 16)
	for rows.Next() {
		var timeline entities.Timeline
		if err := rows.Scan(
			&timeline.ID,
			&timeline.AuthorID,
			&timeline.Description,
			&timeline.Start,
			&timeline.End,
			&timeline.Unit,
			&timeline.UniverseName,
		); err != nil {
			return nil, fmt.Errorf("scanning timeline: %w", err)
		}
		timelines = append(timelines, timeline)
	}
	return timelines, rows.Err()
}

// CreateTimeline inserts a timeline and returns it with its assigned id.
func (r *Repository) CreateTimeline(ctx context.Context, timeline *entities.Timeline) (*entities.Timeline, error) {
	query := `
		INSERT INTO timelines (author_id, description, start, "end", unit, universe_name)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		timeline.AuthorID,
		timeline.Description,
		timeline.Start,
		timeline.End,
		timeline.Unit,
		timeline.UniverseName,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting timeline: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading timeline id: %w", err)
	}

	created := *timeline
	created.ID = id
	return &created, nil
}

// FindTimelineByID finds a timeline by id. Returns nil if not found.
func (r *Repository) FindTimelineByID(ctx context.Context, id int64) (*entities.Timeline, error) {
	query := `
		SELECT id, author_id, description, start, "end", unit, universe_name
		FROM timelines
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var timeline entities.Timeline
	err := row.Scan(
		&timeline.ID,
		&timeline.AuthorID,
		&timeline.Description,
		&timeline.Start,
		&timeline.End,
		&timeline.Unit,
		&timeline.UniverseName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning timeline: %w", err)
	}
	return &timeline, nil
}

// UpdateTimeline applies the non-nil fields of upd to the timeline,
// scoped to upd.AuthorID.
func (r *Repository) UpdateTimeline(ctx context.Context, id int64, upd entities.TimelineUpdate) error {
	b := newUpdateBuilder("timelines")
	b.setString("description", upd.Description)
	b.setInt64("start", upd.Start)
	b.setInt64(`"end"`, upd.End)
	b.setString("unit", upd.Unit)
	b.setString("universe_name", upd.UniverseName)
	if b.empty() {
		return entities.ErrNoFields
	}

	query, args := b.build("id = ? AND author_id = ?", id, upd.AuthorID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating timeline: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// DeleteTimeline deletes a timeline by id.
func (r *Repository) DeleteTimeline(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting timeline: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// Timeline-event link operations

// ListEventsForTimeline lists a timeline's links ordered by position.
func (r *Repository) ListEventsForTimeline(ctx context.Context, timelineID int64) ([]entities.TimelineEvent, error) {
	query := `
		SELECT timeline_id, event_id, position
		FROM timeline_events
		WHERE timeline_id = ?
		ORDER BY position
	`
	return r.queryTimelineEvents(ctx, query, timelineID)
}

// ListTimelinesForEvent lists an event's links ordered by position.
func (r *Repository) ListTimelinesForEvent(ctx context.Context, eventID int64) ([]entities.TimelineEvent, error) {
	query := `
		SELECT timeline_id, event_id, position
		FROM timeline_events
		WHERE event_id = ?
		ORDER BY position
	`
	return r.queryTimelineEvents(ctx, query, eventID)
}

// FindTimelineEvent finds a link by its (timeline, event) key.
func (r *Repository) FindTimelineEvent(ctx context.Context, timelineID, eventID int64) (*entities.TimelineEvent, error) {
	query := `
		SELECT timeline_id, event_id, position
		FROM timeline_events
		WHERE timeline_id = ? AND event_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, timelineID, eventID)

	var link entities.TimelineEvent
	err := row.Scan(&link.TimelineID, &link.EventID, &link.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning timeline event: %w", err)
	}
	return &link, nil
}

// CreateTimelineEvent inserts a link, or returns the existing link
// unchanged when the key is already present.
func (r *Repository) CreateTimelineEvent(ctx context.Context, link *entities.TimelineEvent) (*entities.TimelineEvent, error) {
	insertQuery := `
		INSERT OR IGNORE INTO timeline_events (timeline_id, event_id, position)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, insertQuery, link.TimelineID, link.EventID, link.Position); err != nil {
		return nil, fmt.Errorf("inserting timeline event: %w", err)
	}

	// Always fetch the link (either newly inserted or pre-existing)
	return r.FindTimelineEvent(ctx, link.TimelineID, link.EventID)
}

// UpdateTimelineEvent applies the non-nil fields of upd to the link.
func (r *Repository) UpdateTimelineEvent(ctx context.Context, timelineID, eventID int64, upd entities.TimelineEventUpdate) error {
	b := newUpdateBuilder("timeline_events")
	b.setInt64("position", upd.Position)
	if b.empty() {
		return entities.ErrNoFields
	}

	query, args := b.build("timeline_id = ? AND event_id = ?", timelineID, eventID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating timeline event: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// DeleteTimelineEvent deletes a link by its key.
func (r *Repository) DeleteTimelineEvent(ctx context.Context, timelineID, eventID int64) error {
	query := `DELETE FROM timeline_events WHERE timeline_id = ? AND event_id = ?`
	res, err := r.db.ExecContext(ctx, query, timelineID, eventID)
	if err != nil {
		return fmt.Errorf("deleting timeline event: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// queryTimelineEvents is a helper to execute link queries.
func (r *Repository) queryTimelineEvents(ctx context.Context, query string, args ...any) ([]entities.TimelineEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying timeline events: %w", err)
	}
	defer rows.Close()

	links := make([]entities.TimelineEvent, 0, 16)
	for rows.Next() {
		var link entities.TimelineEvent
		if err := rows.Scan(&link.TimelineID, &link.EventID, &link.Position); err != nil {
			return nil, fmt.Errorf("scanning timeline event: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Merge operations

// ListMerges lists all merge records ordered by merge time.
func (r *Repository) ListMerges(ctx context.Context) ([]entities.TimelineMerge, error) {
	query := `
		SELECT id, source_timeline_id, target_timeline_id, merged_at
		FROM timeline_merges
		ORDER BY merged_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying merges: %w", err)
	}
	defer rows.Close()

	merges := make([]entities.TimelineMerge, 0, 16)
	for rows.Next() {
		var merge entities.TimelineMerge
		if err := rows.Scan(
			&merge.ID,
			&merge.SourceTimelineID,
			&merge.TargetTimelineID,
			&merge.MergedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning merge: %w", err)
		}
		merges = append(merges, merge)
	}
	return merges, rows.Err()
}

// FindMergeByID finds a merge record by id. Returns nil if not found.
func (r *Repository) FindMergeByID(ctx context.Context, id int64) (*entities.TimelineMerge, error) {
	query := `
		SELECT id, source_timeline_id, target_timeline_id, merged_at
		FROM timeline_merges
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var merge entities.TimelineMerge
	err := row.Scan(&merge.ID, &merge.SourceTimelineID, &merge.TargetTimelineID, &merge.MergedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning merge: %w", err)
	}
	return &merge, nil
}

// MergeTimelines merges the source timeline into the target as one
// all-or-nothing transaction. Link conflicts resolve by target priority:
// INSERT OR IGNORE leaves the target's existing (timeline, event) rows,
// and their positions, untouched.
func (r *Repository) MergeTimelines(ctx context.Context, sourceID, targetID int64) (*entities.TimelineMerge, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Copy links from source to target, skipping conflicts
	copyQuery := `
		INSERT OR IGNORE INTO timeline_events (timeline_id, event_id, position)
		SELECT ?, event_id, position
		FROM timeline_events
		WHERE timeline_id = ?
	`
	if _, err := tx.ExecContext(ctx, copyQuery, targetID, sourceID); err != nil {
		return nil, fmt.Errorf("copying timeline events: %w", err)
	}

	// 2. Delete the source timeline's links
	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_events WHERE timeline_id = ?`, sourceID); err != nil {
		return nil, fmt.Errorf("deleting source timeline events: %w", err)
	}

	// 3. Delete the source timeline itself; zero rows means a bad source
	// id and aborts the whole transaction
	res, err := tx.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("deleting source timeline: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, entities.ErrNotFound
	}

	// 4. Record the merge
	mergedAt := timeNow().UTC()
	insertRes, err := tx.ExecContext(ctx,
		`INSERT INTO timeline_merges (source_timeline_id, target_timeline_id, merged_at) VALUES (?, ?, ?)`,
		sourceID, targetID, mergedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording merge: %w", err)
	}
	id, err := insertRes.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading merge id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing merge: %w", err)
	}

	return &entities.TimelineMerge{
		ID:               id,
		SourceTimelineID: sourceID,
		TargetTimelineID: targetID,
		MergedAt:         mergedAt,
	}, nil
}

// DeleteMerge deletes a merge record by id.
func (r *Repository) DeleteMerge(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timeline_merges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting merge: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// One-time token operations

// InsertToken records a freshly issued token as unused.
func (r *Repository) InsertToken(ctx context.Context, token string) error {
	query := `INSERT INTO one_time_tokens (token, used) VALUES (?, 0)`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

// FindToken finds a token record. Returns nil if not found.
func (r *Repository) FindToken(ctx context.Context, token string) (*entities.OneTimeToken, error) {
	query := `
		SELECT token, used, status_code, response_body, response_headers
		FROM one_time_tokens
		WHERE token = ?
	`
	row := r.db.QueryRowContext(ctx, query, token)

	var rec entities.OneTimeToken
	var statusCode sql.NullInt64
	var headers []byte
	err := row.Scan(&rec.Token, &rec.Used, &statusCode, &rec.ResponseBody, &headers)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning token: %w", err)
	}

	if statusCode.Valid {
		status := int(statusCode.Int64)
		rec.StatusCode = &status
	}
	rec.ResponseHeaders, err = entities.DecodeHeaderBag(headers)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkTokenUsed atomically flips the token from unused to used. The
// affected-row count of this single conditional statement decides the
// claim race; there is no separate read in the decision.
func (r *Repository) MarkTokenUsed(ctx context.Context, token string) (bool, error) {
	query := `UPDATE one_time_tokens SET used = 1 WHERE token = ? AND used = 0`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("marking token used: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return rows > 0, nil
}

// SaveTokenResponse stores the final response of the mutation the token
// guarded.
func (r *Repository) SaveTokenResponse(ctx context.Context, token string, status int, headers entities.HeaderBag, body []byte) error {
	encoded, err := headers.Encode()
	if err != nil {
		return err
	}
	query := `
		UPDATE one_time_tokens
		SET status_code = ?, response_body = ?, response_headers = ?
		WHERE token = ?
	`
	if _, err := r.db.ExecContext(ctx, query, status, body, encoded, token); err != nil {
		return fmt.Errorf("saving token response: %w", err)
	}
	return nil
}

// scanEvent scans an event row from either a *sql.Row or *sql.Rows.
func scanEvent(row interface{ Scan(...any) error }) (*entities.Event, error) {
	var event entities.Event
	var image, thumbnail sql.NullString
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Reference,
		&image,
		&thumbnail,
		&event.AuthorID,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	if image.Valid {
		event.Image = &image.String
	}
	if thumbnail.Valid {
		event.Thumbnail = &thumbnail.String
	}
	return &event, nil
}
