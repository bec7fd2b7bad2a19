package ranking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/types"
)

var boardDate = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

func storyWithRatings(title string, author *uuid.UUID, date time.Time, values ...int) types.Story {
	s := types.Story{ID: uuid.New(), AuthorID: author, Title: title, Date: date}
	if author != nil {
		s.Author = "someone"
	} else {
		s.Author = types.AnonymousAuthor
	}
	for _, v := range values {
		s.Ratings = append(s.Ratings, types.Rating{UserID: uuid.New(), Value: v})
	}
	return s
}

func TestTopStoriesOrdering(t *testing.T) {
	// A: avg 4.5 over 10 ratings, B: avg 4.5 over 2, C: avg 5.0 over 1.
	// Rating wins first, rating count breaks the tie.
	a := storyWithRatings("A", nil, boardDate, 5, 5, 5, 5, 5, 4, 4, 4, 4, 4)
	b := storyWithRatings("B", nil, boardDate, 4, 5)
	c := storyWithRatings("C", nil, boardDate, 5)

	out := TopStories([]types.Story{a, b, c}, TopN)
	if len(out) != 3 {
		t.Fatalf("len=%d, want 3", len(out))
	}
	got := []string{out[0].Title, out[1].Title, out[2].Title}
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v, want %v", got, want)
		}
	}
	for i, r := range out {
		if r.Rank != i+1 {
			t.Fatalf("rank[%d]=%d, want %d", i, r.Rank, i+1)
		}
	}
}

func TestTopStoriesDateBreaksRemainingTies(t *testing.T) {
	older := storyWithRatings("older", nil, boardDate.AddDate(0, 0, -7), 4)
	newer := storyWithRatings("newer", nil, boardDate, 4)
	out := TopStories([]types.Story{older, newer}, TopN)
	if out[0].Title != "newer" {
		t.Fatalf("most recent story should win the tie, got %q first", out[0].Title)
	}
}

func TestTopStoriesKeepsUnratedStories(t *testing.T) {
	rated := storyWithRatings("rated", nil, boardDate, 3)
	unrated := storyWithRatings("unrated", nil, boardDate)
	out := TopStories([]types.Story{unrated, rated}, TopN)
	if len(out) != 2 {
		t.Fatalf("unrated story filtered out, len=%d", len(out))
	}
	if out[1].Title != "unrated" || out[1].AverageRating != 0 {
		t.Fatalf("unrated story should rank last with average 0, got %+v", out[1])
	}
}

func TestTopStoriesTruncatesToN(t *testing.T) {
	stories := make([]types.Story, 0, 15)
	for i := 0; i < 15; i++ {
		stories = append(stories, storyWithRatings("s", nil, boardDate, 3))
	}
	out := TopStories(stories, TopN)
	if len(out) != TopN {
		t.Fatalf("len=%d, want %d", len(out), TopN)
	}
}

func TestTopAuthorsAggregation(t *testing.T) {
	strong := uuid.New()
	weak := uuid.New()
	usernames := map[uuid.UUID]string{strong: "strong", weak: "weak"}

	stories := []types.Story{
		// strong: story averages 5.0 and 3.0 -> author average 4.0
		storyWithRatings("s1", &strong, boardDate, 5, 5),
		storyWithRatings("s2", &strong, boardDate, 3),
		// weak: single story averaging 2.0
		storyWithRatings("w1", &weak, boardDate, 2),
		// anonymous stories never join author grouping
		storyWithRatings("anon", nil, boardDate, 5, 5, 5),
	}

	out := TopAuthors(stories, usernames, TopN)
	if len(out) != 2 {
		t.Fatalf("len=%d, want 2", len(out))
	}
	if out[0].Username != "strong" || out[0].AvgAuthorRating != 4.0 {
		t.Fatalf("top author = %+v, want strong at 4.0", out[0])
	}
	if out[0].TotalStories != 2 || out[0].TotalRatings != 3 {
		t.Fatalf("rollup = %+v, want 2 stories / 3 ratings", out[0])
	}
	if out[1].Username != "weak" || out[1].Rank != 2 {
		t.Fatalf("second author = %+v", out[1])
	}
}

func TestTopAuthorsDropUnresolvedAndCompressRanks(t *testing.T) {
	resolved := uuid.New()
	orphaned := uuid.New()
	usernames := map[uuid.UUID]string{resolved: "resolved"}

	stories := []types.Story{
		storyWithRatings("o1", &orphaned, boardDate, 5),
		storyWithRatings("r1", &resolved, boardDate, 4),
	}

	out := TopAuthors(stories, usernames, TopN)
	if len(out) != 1 {
		t.Fatalf("len=%d, want 1 (orphaned author dropped)", len(out))
	}
	if out[0].Username != "resolved" || out[0].Rank != 1 {
		t.Fatalf("ranks must compress after dropping, got %+v", out[0])
	}
}

func TestTopReadersCounts(t *testing.T) {
	busy := uuid.New()
	casual := uuid.New()
	usernames := map[uuid.UUID]string{busy: "busy", casual: "casual"}

	s1 := types.Story{ID: uuid.New(), Date: boardDate}
	s1.Ratings = []types.Rating{
		{UserID: busy, Value: 5},
		{UserID: casual, Value: 3},
		{UserID: uuid.Nil, Value: 4}, // placeholder id, never a reader
	}
	s1.Comments = []types.Comment{
		{UserID: busy, Content: "nice"},
	}
	s2 := types.Story{ID: uuid.New(), Date: boardDate}
	s2.Ratings = []types.Rating{{UserID: busy, Value: 4}}

	out := TopReaders([]types.Story{s1, s2}, usernames, TopN)
	if len(out) != 2 {
		t.Fatalf("len=%d, want 2", len(out))
	}
	if out[0].Username != "busy" || out[0].TotalRatingsGiven != 2 || out[0].CommentsCount != 1 {
		t.Fatalf("top reader = %+v", out[0])
	}
	if out[1].Username != "casual" || out[1].TotalRatingsGiven != 1 || out[1].Rank != 2 {
		t.Fatalf("second reader = %+v", out[1])
	}
}

func TestTopReadersCommentsBreakTies(t *testing.T) {
	quiet := uuid.New()
	chatty := uuid.New()
	usernames := map[uuid.UUID]string{quiet: "quiet", chatty: "chatty"}

	s := types.Story{ID: uuid.New(), Date: boardDate}
	s.Ratings = []types.Rating{
		{UserID: quiet, Value: 4},
		{UserID: chatty, Value: 4},
	}
	s.Comments = []types.Comment{{UserID: chatty, Content: "hello"}}

	out := TopReaders([]types.Story{s}, usernames, TopN)
	if out[0].Username != "chatty" {
		t.Fatalf("comment count should break the tie, got %q first", out[0].Username)
	}
}

func TestTopReadersDropUnresolved(t *testing.T) {
	known := uuid.New()
	ghost := uuid.New()
	usernames := map[uuid.UUID]string{known: "known"}

	s := types.Story{ID: uuid.New(), Date: boardDate}
	s.Ratings = []types.Rating{
		{UserID: ghost, Value: 5},
		{UserID: known, Value: 4},
	}

	out := TopReaders([]types.Story{s}, usernames, TopN)
	if len(out) != 1 || out[0].Username != "known" || out[0].Rank != 1 {
		t.Fatalf("unresolved reader must be dropped with dense ranks, got %+v", out)
	}
}

func TestLeaderboardsAreIdempotent(t *testing.T) {
	author := uuid.New()
	usernames := map[uuid.UUID]string{author: "author"}
	stories := []types.Story{
		storyWithRatings("a", &author, boardDate, 5, 3),
		storyWithRatings("b", &author, boardDate.AddDate(0, 0, -1), 4),
	}
	first := TopAuthors(stories, usernames, TopN)
	second := TopAuthors(stories, usernames, TopN)
	if len(first) != len(second) {
		t.Fatalf("idempotence broken: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("idempotence broken at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestEmptyCorpus(t *testing.T) {
	if got := TopStories(nil, TopN); len(got) != 0 {
		t.Fatalf("TopStories(nil) = %v", got)
	}
	if got := TopAuthors(nil, nil, TopN); len(got) != 0 {
		t.Fatalf("TopAuthors(nil) = %v", got)
	}
	if got := TopReaders(nil, nil, TopN); len(got) != 0 {
		t.Fatalf("TopReaders(nil) = %v", got)
	}
}
