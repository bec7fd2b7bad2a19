package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/types"
)

var rankNow = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func enriched(id uuid.UUID, author *uuid.UUID, date time.Time, avg float64, thisUser int) types.EnrichedStory {
	return types.EnrichedStory{
		Story:          types.Story{ID: id, AuthorID: author, Date: date},
		AverageRating:  avg,
		ThisUserRating: thisUser,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankIsPermutationSortedDescending(t *testing.T) {
	author := uuid.New()
	in := []types.EnrichedStory{
		enriched(uuid.New(), nil, rankNow.AddDate(0, 0, -30), 0, 0),
		enriched(uuid.New(), &author, rankNow, 4.0, 0),
		enriched(uuid.New(), nil, rankNow.AddDate(0, 0, -2), 0, 0),
	}
	out := Rank(in, rankNow)
	if len(out) != len(in) {
		t.Fatalf("len(out)=%d, want %d", len(out), len(in))
	}
	seen := map[uuid.UUID]bool{}
	for _, s := range out {
		seen[s.ID] = true
	}
	for _, s := range in {
		if !seen[s.ID] {
			t.Fatalf("story %s missing from output", s.ID)
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].StoryScore < out[i].StoryScore {
			t.Fatalf("output not sorted descending at %d: %v < %v", i, out[i-1].StoryScore, out[i].StoryScore)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	// Same date, no authors: every story scores identically.
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	in := []types.EnrichedStory{
		enriched(a, nil, rankNow, 0, 0),
		enriched(b, nil, rankNow, 0, 0),
		enriched(c, nil, rankNow, 0, 0),
	}
	out := Rank(in, rankNow)
	if out[0].ID != a || out[1].ID != b || out[2].ID != c {
		t.Fatalf("tie order not preserved: got %v %v %v", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestRankReputationGating(t *testing.T) {
	cases := []struct {
		name      string
		authorAvg float64
		wantBonus float64
	}{
		{name: "below_floor_contributes_nothing", authorAvg: 2.9, wantBonus: 0},
		{name: "at_floor_contributes_weighted_average", authorAvg: 3.0, wantBonus: 0.3 * 3.0},
		{name: "above_floor", authorAvg: 4.5, wantBonus: 0.3 * 4.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			author := uuid.New()
			in := []types.EnrichedStory{
				enriched(uuid.New(), &author, rankNow, tc.authorAvg, 0),
			}
			out := Rank(in, rankNow)
			// Same-day story: recency is exactly 1.
			want := 1.0 + tc.wantBonus
			if !almostEqual(out[0].StoryScore, want) {
				t.Fatalf("StoryScore=%v, want %v", out[0].StoryScore, want)
			}
		})
	}
}

func TestRankViewerAuthorBonus(t *testing.T) {
	author := uuid.New()
	// The viewer rated only the 5.0 story, so the viewer-scoped author
	// average is 5.0 while the global average is (5+3)/2 = 4.0.
	in := []types.EnrichedStory{
		enriched(uuid.New(), &author, rankNow, 5.0, 5),
		enriched(uuid.New(), &author, rankNow, 3.0, 0),
	}
	out := Rank(in, rankNow)
	want := 1.0 + 0.3*4.0 + 0.4*5.0
	if !almostEqual(out[0].StoryScore, want) {
		t.Fatalf("StoryScore=%v, want %v", out[0].StoryScore, want)
	}
}

func TestRankViewerAverageBelowFloorIsGated(t *testing.T) {
	author := uuid.New()
	in := []types.EnrichedStory{
		enriched(uuid.New(), &author, rankNow, 2.0, 2),
		enriched(uuid.New(), &author, rankNow, 4.0, 0),
	}
	out := Rank(in, rankNow)
	// Global average (2+4)/2 = 3.0 clears the floor, viewer average 2.0
	// does not.
	want := 1.0 + 0.3*3.0
	for _, s := range out {
		if !almostEqual(s.StoryScore, want) {
			t.Fatalf("StoryScore=%v, want %v", s.StoryScore, want)
		}
	}
}

func TestRankAnonymousStoriesGetNoAuthorBonus(t *testing.T) {
	in := []types.EnrichedStory{
		enriched(uuid.New(), nil, rankNow, 5.0, 5),
	}
	out := Rank(in, rankNow)
	if !almostEqual(out[0].StoryScore, 1.0) {
		t.Fatalf("anonymous story StoryScore=%v, want recency only (1.0)", out[0].StoryScore)
	}
}

func TestRecencySymmetry(t *testing.T) {
	past := enriched(uuid.New(), nil, rankNow.AddDate(0, 0, -5), 0, 0)
	future := enriched(uuid.New(), nil, rankNow.AddDate(0, 0, 5), 0, 0)
	out := Rank([]types.EnrichedStory{past, future}, rankNow)
	if !almostEqual(out[0].StoryScore, out[1].StoryScore) {
		t.Fatalf("recency not symmetric: %v vs %v", out[0].StoryScore, out[1].StoryScore)
	}
	if !almostEqual(out[0].StoryScore, 1.0/6.0) {
		t.Fatalf("recency for 5 days = %v, want %v", out[0].StoryScore, 1.0/6.0)
	}
}

func TestRecencyIgnoresTimeOfDay(t *testing.T) {
	lateYesterday := time.Date(2026, time.March, 14, 23, 59, 0, 0, time.UTC)
	s := enriched(uuid.New(), nil, lateYesterday, 0, 0)
	out := Rank([]types.EnrichedStory{s}, rankNow)
	if !almostEqual(out[0].StoryScore, 0.5) {
		t.Fatalf("calendar-day recency = %v, want 0.5", out[0].StoryScore)
	}
}

func TestRankEmptyBatch(t *testing.T) {
	out := Rank(nil, rankNow)
	if len(out) != 0 {
		t.Fatalf("empty input should yield empty output, got %d", len(out))
	}
}
