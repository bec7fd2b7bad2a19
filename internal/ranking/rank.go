package ranking

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/types"
)

// Fixed feed policy. An author's rollup only counts as a bonus once it
// clears the reputation floor; below the floor it contributes nothing.
const (
	authorWeight       = 0.3
	viewerAuthorWeight = 0.4
	reputationFloor    = 3.0
)

type authorRollup struct {
	ratingSum   float64
	storyCount  int
	viewerSum   float64
	viewerCount int
}

// Rank scores every story in the batch and returns a new slice sorted by
// descending storyScore. The sort is stable so equal scores keep their input
// order. now is passed in rather than read from the clock so scoring stays
// deterministic.
func Rank(stories []types.EnrichedStory, now time.Time) []types.EnrichedStory {
	rollups := make(map[uuid.UUID]*authorRollup)
	for _, s := range stories {
		if s.AuthorID == nil {
			continue
		}
		ru := rollups[*s.AuthorID]
		if ru == nil {
			ru = &authorRollup{}
			rollups[*s.AuthorID] = ru
		}
		ru.ratingSum += s.AverageRating
		ru.storyCount++
		if s.ThisUserRating > 0 {
			ru.viewerSum += s.AverageRating
			ru.viewerCount++
		}
	}

	out := make([]types.EnrichedStory, len(stories))
	copy(out, stories)
	for i := range out {
		score := recencyScore(out[i].Date, now)
		if out[i].AuthorID != nil {
			if ru := rollups[*out[i].AuthorID]; ru != nil {
				avg := ru.ratingSum / float64(ru.storyCount)
				score += authorWeight * gate(avg)
				if ru.viewerCount > 0 {
					viewerAvg := ru.viewerSum / float64(ru.viewerCount)
					score += viewerAuthorWeight * gate(viewerAvg)
				}
			}
		}
		out[i].StoryScore = score
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StoryScore > out[j].StoryScore
	})
	return out
}

func gate(v float64) float64 {
	if v < reputationFloor {
		return 0
	}
	return v
}

// recencyScore decays with the calendar-day distance from now. Future-dated
// stories decay the same way as past ones.
func recencyScore(date, now time.Time) float64 {
	days := calendarDays(date, now)
	if days < 0 {
		days = -days
	}
	return 1 / float64(1+days)
}

func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
