package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/types"
)

func TestCreateStampsTimestamps(t *testing.T) {
	gdb, log := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepo(gdb, log)

	story := &types.Story{
		ID:       uuid.New(),
		Author:   types.AnonymousAuthor,
		Title:    "untitled",
		Content:  "body",
		Genre:    "Fiction",
		Date:     time.Now().UTC(),
		IsPublic: true,
	}
	if _, err := repo.Create(ctx, nil, []*types.Story{story}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByIDs(ctx, nil, []uuid.UUID{story.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 story, got %d", len(got))
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatal("created_at not stamped on insert")
	}
	if got[0].UpdatedAt.IsZero() {
		t.Fatal("updated_at not stamped on insert")
	}
}

func TestClaimIsSingleUse(t *testing.T) {
	gdb, log := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepo(gdb, log)

	story := &types.Story{
		ID:        uuid.New(),
		Author:    types.AnonymousAuthor,
		Title:     "unclaimed",
		Content:   "body",
		Genre:     "Drama",
		Date:      time.Now().UTC(),
		IsPublic:  true,
		ClaimCode: uuid.New().String(),
	}
	if _, err := repo.Create(ctx, nil, []*types.Story{story}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, second := uuid.New(), uuid.New()
	if err := repo.Claim(ctx, nil, story.ID, first, "alice"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	err := repo.Claim(ctx, nil, story.ID, second, "bob")
	if !errors.Is(err, ErrStoryAlreadyClaimed) {
		t.Fatalf("second claim err = %v, want ErrStoryAlreadyClaimed", err)
	}

	got, err := repo.GetByIDs(ctx, nil, []uuid.UUID{story.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[0].AuthorID == nil || *got[0].AuthorID != first {
		t.Fatalf("author id = %v, want first claimant %s", got[0].AuthorID, first)
	}
	if got[0].Author != "alice" {
		t.Fatalf("author = %q, want alice", got[0].Author)
	}
	if got[0].ClaimCode != "" {
		t.Fatal("claim code not cleared after claim")
	}
}
