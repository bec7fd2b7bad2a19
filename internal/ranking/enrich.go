package ranking

import (
	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/types"
)

// AbsoluteURL rewrites a stored relative media path into a fully qualified
// URL under the serving host. Empty paths must stay empty.
type AbsoluteURL func(path string) string

// Enrich derives the per-viewer engagement fields for one story. viewerID is
// uuid.Nil for anonymous viewers; readSet holds the story ids the viewer has
// marked read. The story itself is not mutated.
//
// Malformed rating rows are tolerated: a zero user id never matches any
// viewer and a zero value contributes 0 to the sum.
func Enrich(story types.Story, viewerID uuid.UUID, readSet map[uuid.UUID]struct{}, absURL AbsoluteURL) types.EnrichedStory {
	es := types.EnrichedStory{Story: story}

	es.NumRatings = len(story.Ratings)
	if es.NumRatings > 0 {
		total := 0
		for _, r := range story.Ratings {
			total += r.Value
		}
		es.AverageRating = float64(total) / float64(es.NumRatings)
	}

	if viewerID != uuid.Nil {
		for _, r := range story.Ratings {
			if r.UserID == viewerID {
				es.ThisUserRating = r.Value
				break
			}
		}
		es.IsOwnStory = story.AuthorID != nil && *story.AuthorID == viewerID
	}

	if readSet != nil {
		_, es.IsRead = readSet[story.ID]
	}

	if es.Genre == "" {
		es.Genre = types.GenreUnknown
	}
	if es.ImageURL != "" && absURL != nil {
		es.ImageURL = absURL(es.ImageURL)
	}
	return es
}
