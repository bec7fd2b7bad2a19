package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/requestdata"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type harness struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	tokenRepo   repos.UserTokenRepo
	storyRepo   repos.StoryRepo
	ratingRepo  repos.RatingRepo
	commentRepo repos.CommentRepo
	readRepo    repos.ReadStoryRepo
	eventRepo   repos.UserEventRepo
	media       MediaService
	stories     StoryService
	feed        FeedService
	boards      LeaderboardService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("MEDIA_DIR", t.TempDir())
	t.Setenv("PUBLIC_BASE_URL", "http://test.local")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Story{},
		&types.Rating{},
		&types.Comment{},
		&types.ReadStory{},
		&types.UserEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	h := &harness{db: gdb, log: log}
	h.userRepo = repos.NewUserRepo(gdb, log)
	h.tokenRepo = repos.NewUserTokenRepo(gdb, log)
	h.storyRepo = repos.NewStoryRepo(gdb, log)
	h.ratingRepo = repos.NewRatingRepo(gdb, log)
	h.commentRepo = repos.NewCommentRepo(gdb, log)
	h.readRepo = repos.NewReadStoryRepo(gdb, log)
	h.eventRepo = repos.NewUserEventRepo(gdb, log)

	media, err := NewMediaService(log)
	if err != nil {
		t.Fatalf("media service: %v", err)
	}
	h.media = media
	captcha := NewCaptchaService(log)

	h.stories = NewStoryService(gdb, log, h.storyRepo, h.ratingRepo, h.commentRepo, h.readRepo, h.userRepo, h.eventRepo, media, captcha)
	h.feed = NewFeedService(gdb, log, h.storyRepo, h.readRepo, media)
	h.boards = NewLeaderboardService(gdb, log, h.storyRepo, h.userRepo)
	return h
}

func (h *harness) createUser(t *testing.T, username string) *types.User {
	t.Helper()
	user := &types.User{ID: uuid.New(), Username: username, Password: "x"}
	if _, err := h.userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func asViewer(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func TestCreateStoryAnonymousGetsClaimCode(t *testing.T) {
	h := newHarness(t)

	result, err := h.stories.CreateStory(context.Background(), CreateStoryInput{
		Title:    "Found on a Park Bench",
		Content:  "Nobody knew who left it there.",
		Genre:    "Mystery",
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.ClaimCode == "" {
		t.Fatal("anonymous story must return a claim code")
	}
	if result.Story.Author != types.AnonymousAuthor {
		t.Fatalf("author=%q, want %q", result.Story.Author, types.AnonymousAuthor)
	}
	if result.Story.AuthorID != nil {
		t.Fatal("anonymous story must not carry an author id")
	}
}

func TestCreateStorySignedInUsesUsername(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")

	result, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title:    "The Lighthouse Shift",
		Content:  "Eight hours alone with the beam.",
		Genre:    "Drama",
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.ClaimCode != "" {
		t.Fatal("signed-in story must not return a claim code")
	}
	if result.Story.AuthorID == nil || *result.Story.AuthorID != alice.ID {
		t.Fatal("story must be attributed to the signed-in author")
	}
	if result.Story.Author != "alice" {
		t.Fatalf("author=%q, want alice", result.Story.Author)
	}
}

func TestCreateStoryRejectsUnknownGenre(t *testing.T) {
	h := newHarness(t)
	if _, err := h.stories.CreateStory(context.Background(), CreateStoryInput{
		Title:   "x",
		Content: "y",
		Genre:   "Cookbook",
	}); err == nil {
		t.Fatal("expected error for unknown genre")
	}
}

func TestRateStoryBoundsAndReadMark(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")
	bob := h.createUser(t, "bob")

	created, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "t", Content: "c", Genre: "Fiction", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	storyID := created.Story.ID

	for _, bad := range []int{0, 6, -1} {
		if err := h.stories.RateStory(asViewer(bob.ID), storyID, bad); err == nil {
			t.Fatalf("rating %d accepted, want rejection", bad)
		}
	}
	if err := h.stories.RateStory(context.Background(), storyID, 4); err == nil {
		t.Fatal("anonymous rating accepted, want rejection")
	}

	if err := h.stories.RateStory(asViewer(bob.ID), storyID, 4); err != nil {
		t.Fatalf("rate: %v", err)
	}
	// Re-rating replaces, never duplicates.
	if err := h.stories.RateStory(asViewer(bob.ID), storyID, 2); err != nil {
		t.Fatalf("re-rate: %v", err)
	}
	ratings, err := h.ratingRepo.GetByStoryIDs(context.Background(), nil, []uuid.UUID{storyID})
	if err != nil {
		t.Fatalf("get ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Value != 2 {
		t.Fatalf("ratings=%v, want one row with value 2", ratings)
	}

	readSet, err := h.readRepo.GetReadSet(context.Background(), nil, bob.ID)
	if err != nil {
		t.Fatalf("read set: %v", err)
	}
	if _, ok := readSet[storyID]; !ok {
		t.Fatal("rating a story must mark it read")
	}
}

func TestClaimStoryIsSingleUse(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")
	bob := h.createUser(t, "bob")

	created, err := h.stories.CreateStory(context.Background(), CreateStoryInput{
		Title: "t", Content: "c", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := h.stories.ClaimStory(asViewer(alice.ID), created.ClaimCode)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.AuthorID == nil || *claimed.AuthorID != alice.ID {
		t.Fatal("claimed story must carry the claimant's id")
	}
	if claimed.Author != "alice" {
		t.Fatalf("author=%q after claim, want alice", claimed.Author)
	}

	if _, err := h.stories.ClaimStory(asViewer(bob.ID), created.ClaimCode); err == nil {
		t.Fatal("claim code must be single-use")
	}
}

func TestGetStoryPrivateVisibility(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")
	bob := h.createUser(t, "bob")

	created, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "drafts", Content: "not ready yet", Genre: "Drama", IsPublic: false,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	storyID := created.Story.ID

	// Non-authors get the same answer as for a missing id.
	if _, err := h.stories.GetStory(context.Background(), storyID); err == nil {
		t.Fatal("anonymous viewer read a private story")
	}
	if _, err := h.stories.GetStory(asViewer(bob.ID), storyID); err == nil {
		t.Fatal("non-author read a private story")
	}

	got, err := h.stories.GetStory(asViewer(alice.ID), storyID)
	if err != nil {
		t.Fatalf("author get: %v", err)
	}
	if got.ID != storyID {
		t.Fatalf("got story %s, want %s", got.ID, storyID)
	}
}

func TestDeleteStoryOwnerOnly(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")
	bob := h.createUser(t, "bob")

	created, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "t", Content: "c", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := h.stories.DeleteStory(asViewer(bob.ID), created.Story.ID); err == nil {
		t.Fatal("non-author delete accepted, want rejection")
	}
	if err := h.stories.DeleteStory(asViewer(alice.ID), created.Story.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	remaining, err := h.storyRepo.GetByIDs(context.Background(), nil, []uuid.UUID{created.Story.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatal("story still present after delete")
	}
}

func TestGetFeedReadFilter(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")
	bob := h.createUser(t, "bob")

	first, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "first", Content: "c", Genre: "Fiction", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "second", Content: "c", Genre: "Fiction", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if err := h.stories.UpdateReadStatus(asViewer(bob.ID), first.Story.ID, true); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	read, err := h.feed.GetFeed(asViewer(bob.ID), ReadFilterRead, nil)
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if len(read) != 1 || read[0].ID != first.Story.ID {
		t.Fatalf("read feed has %d stories, want only the read one", len(read))
	}
	if !read[0].IsRead {
		t.Fatal("read feed story must carry isRead=true")
	}

	unread, err := h.feed.GetFeed(asViewer(bob.ID), ReadFilterUnread, nil)
	if err != nil {
		t.Fatalf("unread feed: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != second.Story.ID {
		t.Fatalf("unread feed has %d stories, want only the unread one", len(unread))
	}

	all, err := h.feed.GetFeed(asViewer(bob.ID), "", nil)
	if err != nil {
		t.Fatalf("all feed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered feed has %d stories, want 2", len(all))
	}
}

func TestGetFeedAnonymousIgnoresReadFilter(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")

	if _, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "t", Content: "c", Genre: "Fiction", IsPublic: true,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	stories, err := h.feed.GetFeed(context.Background(), ReadFilterUnread, nil)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(stories) != 1 {
		t.Fatalf("anonymous feed has %d stories, want 1", len(stories))
	}
	if stories[0].IsRead || stories[0].IsOwnStory || stories[0].ThisUserRating != 0 {
		t.Fatal("anonymous feed must zero the per-viewer fields")
	}
}

func TestLeaderboardOverviewMatchesSingleBoards(t *testing.T) {
	h := newHarness(t)
	alice := h.createUser(t, "alice")
	bob := h.createUser(t, "bob")

	created, err := h.stories.CreateStory(asViewer(alice.ID), CreateStoryInput{
		Title: "t", Content: "c", Genre: "Fiction", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := h.stories.RateStory(asViewer(bob.ID), created.Story.ID, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}

	overview, err := h.boards.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	authors, err := h.boards.TopAuthors(context.Background())
	if err != nil {
		t.Fatalf("top authors: %v", err)
	}
	readers, err := h.boards.TopReaders(context.Background())
	if err != nil {
		t.Fatalf("top readers: %v", err)
	}

	if len(overview.TopAuthors) != len(authors) || len(overview.TopReaders) != len(readers) {
		t.Fatal("overview boards disagree with single-board endpoints")
	}
	if len(authors) != 1 || authors[0].Username != "alice" || authors[0].AvgAuthorRating != 5 {
		t.Fatalf("authors=%v", authors)
	}
	if len(readers) != 1 || readers[0].Username != "bob" || readers[0].TotalRatingsGiven != 1 {
		t.Fatalf("readers=%v", readers)
	}
}
