package sqlite

import (
	"context"
	"database/sql"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a file-backed SQLite repository for testing. A
// real file rather than :memory: so concurrent connections in the token
// claim tests see the same database.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

// seedAuthor inserts a user to satisfy author foreign keys.
func seedAuthor(t *testing.T, repo *Repository) *entities.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), "test_user", nil)
	require.NoError(t, err)
	return user
}

// seedUniverse inserts a universe to satisfy timeline foreign keys.
func seedUniverse(t *testing.T, repo *Repository) *entities.Universe {
	t.Helper()
	universe := &entities.Universe{Name: "Middle-earth", Description: "Tolkien's legendarium"}
	require.NoError(t, repo.CreateUniverse(context.Background(), universe))
	return universe
}

func seedTimeline(t *testing.T, repo *Repository, authorID int64, universe string) *entities.Timeline {
	t.Helper()
	timeline, err := repo.CreateTimeline(context.Background(), &entities.Timeline{
		AuthorID:     authorID,
		Description:  "Third Age",
		Start:        0,
		End:          3021,
		Unit:         "year",
		UniverseName: universe,
	})
	require.NoError(t, err)
	return timeline
}

func seedEvent(t *testing.T, repo *Repository, authorID int64, name string) *entities.Event {
	t.Helper()
	event, err := repo.CreateEvent(context.Background(), &entities.Event{
		Name:        name,
		Description: "a thing happened",
		Reference:   "Book I",
		AuthorID:    authorID,
	})
	require.NoError(t, err)
	return event
}

func TestNewRepository(t *testing.T) {
	t.Run("success with file database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_PragmasApplyToEveryConnection(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open distinct
	// ones rather than reuse the first.
	conns := make([]*sql.Conn, 0, 4)
	t.Cleanup(func() {
		for _, conn := range conns {
			conn.Close()
		}
	})
	for i := 0; i < 4; i++ {
		conn, err := repo.db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}

	for _, conn := range conns {
		var foreignKeys int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 1, foreignKeys)

		var busyTimeout int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, 5000, busyTimeout)

		var journalMode string
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)
	}
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	// Verify tables exist
	tables := []string{"users", "universes", "events", "timelines", "timeline_events", "timeline_merges", "one_time_tokens"}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestRepository_EnsureSchema_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)

	// Should not error when called again
	err := repo.EnsureSchema(context.Background())
	require.NoError(t, err)
}

func TestRepository_Users(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		desc := "a test user"
		user, err := repo.CreateUser(ctx, "frodo", &desc)
		require.NoError(t, err)
		assert.NotZero(t, user.ID)

		found, err := repo.FindUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "frodo", found.Nickname)
		require.NotNil(t, found.Description)
		assert.Equal(t, desc, *found.Description)
	})

	t.Run("find missing returns nil", func(t *testing.T) {
		found, err := repo.FindUserByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("update", func(t *testing.T) {
		user, err := repo.CreateUser(ctx, "sam", nil)
		require.NoError(t, err)

		nickname := "samwise"
		err = repo.UpdateUser(ctx, user.ID, entities.UserUpdate{Nickname: &nickname})
		require.NoError(t, err)

		found, err := repo.FindUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "samwise", found.Nickname)
	})

	t.Run("update with no fields", func(t *testing.T) {
		user, err := repo.CreateUser(ctx, "merry", nil)
		require.NoError(t, err)

		err = repo.UpdateUser(ctx, user.ID, entities.UserUpdate{})
		assert.ErrorIs(t, err, entities.ErrNoFields)
	})

	t.Run("update missing returns not found", func(t *testing.T) {
		nickname := "nobody"
		err := repo.UpdateUser(ctx, 99999, entities.UserUpdate{Nickname: &nickname})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		user, err := repo.CreateUser(ctx, "pippin", nil)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteUser(ctx, user.ID))

		found, err := repo.FindUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		assert.ErrorIs(t, repo.DeleteUser(ctx, user.ID), entities.ErrNotFound)
	})

	t.Run("list and count", func(t *testing.T) {
		users, err := repo.ListUsers(ctx)
		require.NoError(t, err)

		count, err := repo.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(users), count)
	})
}

func TestRepository_Universes(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUniverse(ctx, &entities.Universe{Name: "Discworld", Description: "flat, on turtles"}))
	require.NoError(t, repo.CreateUniverse(ctx, &entities.Universe{Name: "Arrakis", Description: "desert planet"}))

	universes, err := repo.ListUniverses(ctx)
	require.NoError(t, err)
	require.Len(t, universes, 2)
	assert.Equal(t, "Arrakis", universes[0].Name)
	assert.Equal(t, "Discworld", universes[1].Name)

	count, err := repo.CountUniverses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Duplicate name violates the primary key
	err = repo.CreateUniverse(ctx, &entities.Universe{Name: "Arrakis", Description: "again"})
	assert.Error(t, err)
}

func TestRepository_Events(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	author := seedAuthor(t, repo)

	t.Run("create and find", func(t *testing.T) {
		image := "https://example.com/ring.png"
		event, err := repo.CreateEvent(ctx, &entities.Event{
			Name:        "The Ring is destroyed",
			Description: "Gollum falls into Mount Doom",
			Reference:   "Return of the King",
			Image:       &image,
			AuthorID:    author.ID,
		})
		require.NoError(t, err)
		assert.NotZero(t, event.ID)

		found, err := repo.FindEventByID(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "The Ring is destroyed", found.Name)
		require.NotNil(t, found.Image)
		assert.Equal(t, image, *found.Image)
		assert.Nil(t, found.Thumbnail)
	})

	t.Run("find missing returns nil", func(t *testing.T) {
		found, err := repo.FindEventByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("list respects limit and offset", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			seedEvent(t, repo, author.ID, "paging event")
		}

		first, err := repo.ListEvents(ctx, 2, 0)
		require.NoError(t, err)
		assert.Len(t, first, 2)

		second, err := repo.ListEvents(ctx, 2, 2)
		require.NoError(t, err)
		assert.Len(t, second, 2)
		assert.NotEqual(t, first[0].ID, second[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		event := seedEvent(t, repo, author.ID, "doomed")
		require.NoError(t, repo.DeleteEvent(ctx, event.ID))
		assert.ErrorIs(t, repo.DeleteEvent(ctx, event.ID), entities.ErrNotFound)
	})
}

func TestRepository_UpdateEvent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	author := seedAuthor(t, repo)

	t.Run("applies update when row is unchanged", func(t *testing.T) {
		event := seedEvent(t, repo, author.ID, "original")

		name := "revised"
		err := repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: author.ID, Name: &name})
		require.NoError(t, err)

		found, err := repo.FindEventByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "revised", found.Name)
	})

	t.Run("stale snapshot loses", func(t *testing.T) {
		event := seedEvent(t, repo, author.ID, "contested")

		// First writer commits against the snapshot
		name1 := "first writer"
		require.NoError(t, repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: author.ID, Name: &name1}))

		// Second writer still holds the original snapshot
		name2 := "second writer"
		err := repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: author.ID, Name: &name2})
		assert.ErrorIs(t, err, entities.ErrStale)

		// The first write survives
		found, err := repo.FindEventByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "first writer", found.Name)
	})

	t.Run("missing event returns not found", func(t *testing.T) {
		event := seedEvent(t, repo, author.ID, "transient")
		require.NoError(t, repo.DeleteEvent(ctx, event.ID))

		name := "too late"
		err := repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: author.ID, Name: &name})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("author mismatch is stale", func(t *testing.T) {
		other := seedAuthor(t, repo)
		event := seedEvent(t, repo, author.ID, "guarded")

		name := "stolen"
		err := repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: other.ID, Name: &name})
		assert.ErrorIs(t, err, entities.ErrStale)
	})

	t.Run("no fields", func(t *testing.T) {
		event := seedEvent(t, repo, author.ID, "untouched")
		err := repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: author.ID})
		assert.ErrorIs(t, err, entities.ErrNoFields)
	})

	t.Run("matches rows with null optional columns", func(t *testing.T) {
		event := seedEvent(t, repo, author.ID, "nullable")
		require.Nil(t, event.Image)

		image := "https://example.com/pic.png"
		err := repo.UpdateEvent(ctx, event, entities.EventUpdate{AuthorID: author.ID, Image: &image})
		require.NoError(t, err)

		found, err := repo.FindEventByID(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, found.Image)
		assert.Equal(t, image, *found.Image)
	})
}

func TestRepository_Timelines(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	author := seedAuthor(t, repo)
	universe := seedUniverse(t, repo)

	t.Run("create and find", func(t *testing.T) {
		timeline := seedTimeline(t, repo, author.ID, universe.Name)

		found, err := repo.FindTimelineByID(ctx, timeline.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Third Age", found.Description)
		assert.Equal(t, int64(3021), found.End)
	})

	t.Run("update scoped to author", func(t *testing.T) {
		timeline := seedTimeline(t, repo, author.ID, universe.Name)

		end := int64(3441)
		err := repo.UpdateTimeline(ctx, timeline.ID, entities.TimelineUpdate{AuthorID: author.ID, End: &end})
		require.NoError(t, err)

		other := seedAuthor(t, repo)
		err = repo.UpdateTimeline(ctx, timeline.ID, entities.TimelineUpdate{AuthorID: other.ID, End: &end})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("delete cascades to links", func(t *testing.T) {
		timeline := seedTimeline(t, repo, author.ID, universe.Name)
		event := seedEvent(t, repo, author.ID, "linked")
		_, err := repo.CreateTimelineEvent(ctx, &entities.TimelineEvent{
			TimelineID: timeline.ID, EventID: event.ID, Position: 1,
		})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteTimeline(ctx, timeline.ID))

		links, err := repo.ListEventsForTimeline(ctx, timeline.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}

func TestRepository_TimelineEvents(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	author := seedAuthor(t, repo)
	universe := seedUniverse(t, repo)
	timeline := seedTimeline(t, repo, author.ID, universe.Name)
	event := seedEvent(t, repo, author.ID, "anchor")

	t.Run("create and list ordered by position", func(t *testing.T) {
		second := seedEvent(t, repo, author.ID, "later")

		_, err := repo.CreateTimelineEvent(ctx, &entities.TimelineEvent{
			TimelineID: timeline.ID, EventID: second.ID, Position: 20,
		})
		require.NoError(t, err)
		_, err = repo.CreateTimelineEvent(ctx, &entities.TimelineEvent{
			TimelineID: timeline.ID, EventID: event.ID, Position: 10,
		})
		require.NoError(t, err)

		links, err := repo.ListEventsForTimeline(ctx, timeline.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, event.ID, links[0].EventID)
		assert.Equal(t, second.ID, links[1].EventID)
	})

	t.Run("duplicate create returns existing link unchanged", func(t *testing.T) {
		link, err := repo.CreateTimelineEvent(ctx, &entities.TimelineEvent{
			TimelineID: timeline.ID, EventID: event.ID, Position: 99,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10), link.Position)
	})

	t.Run("update position", func(t *testing.T) {
		position := int64(5)
		err := repo.UpdateTimelineEvent(ctx, timeline.ID, event.ID, entities.TimelineEventUpdate{Position: &position})
		require.NoError(t, err)

		link, err := repo.FindTimelineEvent(ctx, timeline.ID, event.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), link.Position)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteTimelineEvent(ctx, timeline.ID, event.ID))
		assert.ErrorIs(t, repo.DeleteTimelineEvent(ctx, timeline.ID, event.ID), entities.ErrNotFound)
	})
}

func TestRepository_MergeTimelines(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	author := seedAuthor(t, repo)
	universe := seedUniverse(t, repo)

	link := func(timelineID, eventID, position int64) {
		t.Helper()
		_, err := repo.CreateTimelineEvent(ctx, &entities.TimelineEvent{
			TimelineID: timelineID, EventID: eventID, Position: position,
		})
		require.NoError(t, err)
	}

	t.Run("moves links and keeps target positions on conflict", func(t *testing.T) {
		source := seedTimeline(t, repo, author.ID, universe.Name)
		target := seedTimeline(t, repo, author.ID, universe.Name)
		shared := seedEvent(t, repo, author.ID, "shared")
		sourceOnly := seedEvent(t, repo, author.ID, "source only")

		link(source.ID, shared.ID, 7)
		link(source.ID, sourceOnly.ID, 8)
		link(target.ID, shared.ID, 3)

		before := timeNow().UTC()
		merge, err := repo.MergeTimelines(ctx, source.ID, target.ID)
		after := timeNow().UTC()
		require.NoError(t, err)
		assert.NotZero(t, merge.ID)
		assert.Equal(t, source.ID, merge.SourceTimelineID)
		assert.Equal(t, target.ID, merge.TargetTimelineID)
		assert.False(t, merge.MergedAt.Before(before.Truncate(time.Second)))
		assert.False(t, merge.MergedAt.After(after.Add(time.Second)))

		// Source timeline is gone
		found, err := repo.FindTimelineByID(ctx, source.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		// Target has both events and kept its own position for the shared one
		links, err := repo.ListEventsForTimeline(ctx, target.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
		sharedLink, err := repo.FindTimelineEvent(ctx, target.ID, shared.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), sharedLink.Position)

		// The merge is recorded
		fetched, err := repo.FindMergeByID(ctx, merge.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, source.ID, fetched.SourceTimelineID)
	})

	t.Run("missing source rolls back everything", func(t *testing.T) {
		target := seedTimeline(t, repo, author.ID, universe.Name)

		mergesBefore, err := repo.ListMerges(ctx)
		require.NoError(t, err)

		_, err = repo.MergeTimelines(ctx, 99999, target.ID)
		assert.ErrorIs(t, err, entities.ErrNotFound)

		mergesAfter, err := repo.ListMerges(ctx)
		require.NoError(t, err)
		assert.Len(t, mergesAfter, len(mergesBefore))
	})

	t.Run("delete merge record", func(t *testing.T) {
		source := seedTimeline(t, repo, author.ID, universe.Name)
		target := seedTimeline(t, repo, author.ID, universe.Name)

		merge, err := repo.MergeTimelines(ctx, source.ID, target.ID)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteMerge(ctx, merge.ID))
		assert.ErrorIs(t, repo.DeleteMerge(ctx, merge.ID), entities.ErrNotFound)
	})
}

func TestRepository_Tokens(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		require.NoError(t, repo.InsertToken(ctx, "tok-1"))

		rec, err := repo.FindToken(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.False(t, rec.Used)
		assert.False(t, rec.HasResponse())
	})

	t.Run("find missing returns nil", func(t *testing.T) {
		rec, err := repo.FindToken(ctx, "no-such-token")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("mark used wins once", func(t *testing.T) {
		require.NoError(t, repo.InsertToken(ctx, "tok-2"))

		won, err := repo.MarkTokenUsed(ctx, "tok-2")
		require.NoError(t, err)
		assert.True(t, won)

		won, err = repo.MarkTokenUsed(ctx, "tok-2")
		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("save and read back response", func(t *testing.T) {
		require.NoError(t, repo.InsertToken(ctx, "tok-3"))
		_, err := repo.MarkTokenUsed(ctx, "tok-3")
		require.NoError(t, err)

		headers := entities.HeaderBag{"Content-Type": "application/json", "Etag": `"cafebabe"`}
		body := []byte(`{"id":1}`)
		require.NoError(t, repo.SaveTokenResponse(ctx, "tok-3", http.StatusCreated, headers, body))

		rec, err := repo.FindToken(ctx, "tok-3")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.True(t, rec.Used)
		require.True(t, rec.HasResponse())
		assert.Equal(t, http.StatusCreated, *rec.StatusCode)
		assert.Equal(t, body, rec.ResponseBody)
		assert.Equal(t, headers, rec.ResponseHeaders)
	})
}

func TestRepository_MarkTokenUsed_Concurrent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertToken(ctx, "contested"))

	const claimers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.MarkTokenUsed(ctx, "contested")
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one claimer should win")
}
