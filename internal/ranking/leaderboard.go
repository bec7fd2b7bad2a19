package ranking

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/types"
)

// TopN is the fixed leaderboard size.
const TopN = 10

// TopStories ranks the whole corpus by (averageRating, numRatings, date).
// Zero-rated stories stay in the running with an average of 0.
func TopStories(stories []types.Story, n int) []types.StoryRank {
	ranks := make([]types.StoryRank, 0, len(stories))
	for _, s := range stories {
		avg, num := ratingStats(s.Ratings)
		genre := s.Genre
		if genre == "" {
			genre = types.GenreUnknown
		}
		ranks = append(ranks, types.StoryRank{
			StoryID:       s.ID,
			Title:         s.Title,
			Author:        s.Author,
			Genre:         genre,
			Date:          s.Date,
			AverageRating: avg,
			NumRatings:    num,
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].AverageRating != ranks[j].AverageRating {
			return ranks[i].AverageRating > ranks[j].AverageRating
		}
		if ranks[i].NumRatings != ranks[j].NumRatings {
			return ranks[i].NumRatings > ranks[j].NumRatings
		}
		if !ranks[i].Date.Equal(ranks[j].Date) {
			return ranks[i].Date.After(ranks[j].Date)
		}
		return ranks[i].StoryID.String() < ranks[j].StoryID.String()
	})
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}

type authorAggregate struct {
	authorID     uuid.UUID
	avgSum       float64
	totalStories int
	totalRatings int
}

// TopAuthors groups the corpus by author (anonymous stories excluded), takes
// the top n by (avgAuthorRating, totalRatings), then drops authors whose
// username cannot be resolved. Ranks are dense over the surviving list, so a
// dropped author leaves no gap.
func TopAuthors(stories []types.Story, usernames map[uuid.UUID]string, n int) []types.AuthorRank {
	byAuthor := make(map[uuid.UUID]*authorAggregate)
	order := make([]uuid.UUID, 0)
	for _, s := range stories {
		if s.AuthorID == nil {
			continue
		}
		agg := byAuthor[*s.AuthorID]
		if agg == nil {
			agg = &authorAggregate{authorID: *s.AuthorID}
			byAuthor[*s.AuthorID] = agg
			order = append(order, *s.AuthorID)
		}
		avg, num := ratingStats(s.Ratings)
		agg.avgSum += avg
		agg.totalStories++
		agg.totalRatings += num
	}

	aggs := make([]*authorAggregate, 0, len(order))
	for _, id := range order {
		aggs = append(aggs, byAuthor[id])
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		ai := aggs[i].avgSum / float64(aggs[i].totalStories)
		aj := aggs[j].avgSum / float64(aggs[j].totalStories)
		if ai != aj {
			return ai > aj
		}
		if aggs[i].totalRatings != aggs[j].totalRatings {
			return aggs[i].totalRatings > aggs[j].totalRatings
		}
		return aggs[i].authorID.String() < aggs[j].authorID.String()
	})
	if len(aggs) > n {
		aggs = aggs[:n]
	}

	out := make([]types.AuthorRank, 0, len(aggs))
	for _, agg := range aggs {
		username, ok := usernames[agg.authorID]
		if !ok || username == "" {
			continue
		}
		out = append(out, types.AuthorRank{
			Rank:            len(out) + 1,
			Username:        username,
			AvgAuthorRating: agg.avgSum / float64(agg.totalStories),
			TotalStories:    agg.totalStories,
			TotalRatings:    agg.totalRatings,
		})
	}
	return out
}

type readerCounts struct {
	ratingsGiven  int
	commentsCount int
}

// TopReaders counts ratings given and comments added per user across the
// whole corpus. The zero uuid is a placeholder, never a reader. Users whose
// username cannot be resolved are dropped before ranking.
func TopReaders(stories []types.Story, usernames map[uuid.UUID]string, n int) []types.ReaderRank {
	counts := make(map[uuid.UUID]*readerCounts)
	get := func(id uuid.UUID) *readerCounts {
		c := counts[id]
		if c == nil {
			c = &readerCounts{}
			counts[id] = c
		}
		return c
	}
	for _, s := range stories {
		for _, r := range s.Ratings {
			if r.UserID == uuid.Nil {
				continue
			}
			get(r.UserID).ratingsGiven++
		}
		for _, c := range s.Comments {
			if c.UserID == uuid.Nil {
				continue
			}
			get(c.UserID).commentsCount++
		}
	}

	out := make([]types.ReaderRank, 0, len(counts))
	for id, c := range counts {
		username, ok := usernames[id]
		if !ok || username == "" {
			continue
		}
		out = append(out, types.ReaderRank{
			Username:          username,
			TotalRatingsGiven: c.ratingsGiven,
			CommentsCount:     c.commentsCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRatingsGiven != out[j].TotalRatingsGiven {
			return out[i].TotalRatingsGiven > out[j].TotalRatingsGiven
		}
		if out[i].CommentsCount != out[j].CommentsCount {
			return out[i].CommentsCount > out[j].CommentsCount
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func ratingStats(ratings []types.Rating) (avg float64, num int) {
	num = len(ratings)
	if num == 0 {
		return 0, 0
	}
	total := 0
	for _, r := range ratings {
		total += r.Value
	}
	return float64(total) / float64(num), num
}
