package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
)

func newTestDB(t *testing.T) (*gorm.DB, *logger.Logger) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.Story{},
		&types.Rating{},
		&types.Comment{},
		&types.ReadStory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return gdb, log
}

func seedStory(t *testing.T, gdb *gorm.DB, authorID *uuid.UUID, isPublic bool, genre string) *types.Story {
	t.Helper()
	story := &types.Story{
		ID:       uuid.New(),
		AuthorID: authorID,
		Author:   "tester",
		Title:    "a story",
		Content:  "once upon a time",
		Genre:    genre,
		Date:     time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		IsPublic: isPublic,
	}
	if err := gdb.Create(story).Error; err != nil {
		t.Fatalf("seed story: %v", err)
	}
	return story
}

func TestRatingUpsertLastWriteWins(t *testing.T) {
	gdb, log := newTestDB(t)
	ctx := context.Background()
	repo := NewRatingRepo(gdb, log)

	story := seedStory(t, gdb, nil, true, "Fiction")
	user := uuid.New()

	first := &types.Rating{ID: uuid.New(), StoryID: story.ID, UserID: user, Value: 2}
	if err := repo.Upsert(ctx, nil, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := &types.Rating{ID: uuid.New(), StoryID: story.ID, UserID: user, Value: 5}
	if err := repo.Upsert(ctx, nil, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := repo.GetByStoryIDs(ctx, nil, []uuid.UUID{story.ID})
	if err != nil {
		t.Fatalf("get ratings: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want exactly one rating row per user, got %d", len(rows))
	}
	if rows[0].Value != 5 {
		t.Fatalf("rating value=%d, want latest value 5", rows[0].Value)
	}
}

func TestRatingUpsertKeepsOtherUsers(t *testing.T) {
	gdb, log := newTestDB(t)
	ctx := context.Background()
	repo := NewRatingRepo(gdb, log)

	story := seedStory(t, gdb, nil, true, "Fiction")
	alice, bob := uuid.New(), uuid.New()

	if err := repo.Upsert(ctx, nil, &types.Rating{ID: uuid.New(), StoryID: story.ID, UserID: alice, Value: 4}); err != nil {
		t.Fatalf("alice upsert: %v", err)
	}
	if err := repo.Upsert(ctx, nil, &types.Rating{ID: uuid.New(), StoryID: story.ID, UserID: bob, Value: 1}); err != nil {
		t.Fatalf("bob upsert: %v", err)
	}
	if err := repo.Upsert(ctx, nil, &types.Rating{ID: uuid.New(), StoryID: story.ID, UserID: bob, Value: 3}); err != nil {
		t.Fatalf("bob re-upsert: %v", err)
	}

	rows, err := repo.GetByStoryIDs(ctx, nil, []uuid.UUID{story.ID})
	if err != nil {
		t.Fatalf("get ratings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rating rows, got %d", len(rows))
	}
	byUser := map[uuid.UUID]int{}
	for _, r := range rows {
		byUser[r.UserID] = r.Value
	}
	if byUser[alice] != 4 || byUser[bob] != 3 {
		t.Fatalf("ratings by user = %v", byUser)
	}
}

func TestReadStoryMarkIsIdempotent(t *testing.T) {
	gdb, log := newTestDB(t)
	ctx := context.Background()
	repo := NewReadStoryRepo(gdb, log)

	user := uuid.New()
	story := seedStory(t, gdb, nil, true, "Drama")

	if err := repo.Mark(ctx, nil, user, story.ID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := repo.Mark(ctx, nil, user, story.ID); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	readSet, err := repo.GetReadSet(ctx, nil, user)
	if err != nil {
		t.Fatalf("get read set: %v", err)
	}
	if len(readSet) != 1 {
		t.Fatalf("read set size=%d, want 1", len(readSet))
	}
	if _, ok := readSet[story.ID]; !ok {
		t.Fatal("story missing from read set")
	}

	if err := repo.Unmark(ctx, nil, user, story.ID); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	readSet, err = repo.GetReadSet(ctx, nil, user)
	if err != nil {
		t.Fatalf("get read set after unmark: %v", err)
	}
	if len(readSet) != 0 {
		t.Fatalf("read set size=%d after unmark, want 0", len(readSet))
	}
}

func TestGetFeedCandidatesVisibility(t *testing.T) {
	gdb, log := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepo(gdb, log)

	viewer := uuid.New()
	other := uuid.New()

	ownPublic := seedStory(t, gdb, &viewer, true, "Fiction")
	othersPublic := seedStory(t, gdb, &other, true, "Horror")
	othersPrivate := seedStory(t, gdb, &other, false, "Horror")
	anonPublic := seedStory(t, gdb, nil, true, "Drama")

	t.Run("anonymous_viewer_sees_all_public", func(t *testing.T) {
		got, err := repo.GetFeedCandidates(ctx, nil, uuid.Nil, nil)
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		ids := idSet(got)
		if len(got) != 3 || !ids[ownPublic.ID] || !ids[othersPublic.ID] || !ids[anonPublic.ID] {
			t.Fatalf("anonymous feed = %v", ids)
		}
		if ids[othersPrivate.ID] {
			t.Fatal("private story leaked into feed")
		}
	})

	t.Run("viewer_never_sees_own_stories", func(t *testing.T) {
		got, err := repo.GetFeedCandidates(ctx, nil, viewer, nil)
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		ids := idSet(got)
		if ids[ownPublic.ID] {
			t.Fatal("viewer's own story appeared in the feed")
		}
		if len(got) != 2 || !ids[othersPublic.ID] || !ids[anonPublic.ID] {
			t.Fatalf("viewer feed = %v", ids)
		}
	})

	t.Run("genre_filter_or_semantics", func(t *testing.T) {
		got, err := repo.GetFeedCandidates(ctx, nil, uuid.Nil, []string{"Horror", "Drama"})
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		ids := idSet(got)
		if len(got) != 2 || !ids[othersPublic.ID] || !ids[anonPublic.ID] {
			t.Fatalf("genre-filtered feed = %v", ids)
		}
	})
}

func idSet(stories []*types.Story) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(stories))
	for _, s := range stories {
		out[s.ID] = true
	}
	return out
}
