package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/ranking"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/requestdata"
	"github.com/yungbote/storyloom-backend/internal/types"
)

const (
	ReadFilterAll    = "all"
	ReadFilterRead   = "read"
	ReadFilterUnread = "unread"
)

type FeedService interface {
	GetFeed(ctx context.Context, readFilter string, genres []string) ([]types.EnrichedStory, error)
}

type feedService struct {
	db            *gorm.DB
	log           *logger.Logger
	storyRepo     repos.StoryRepo
	readStoryRepo repos.ReadStoryRepo
	mediaService  MediaService
}

func NewFeedService(
	db *gorm.DB,
	log *logger.Logger,
	storyRepo repos.StoryRepo,
	readStoryRepo repos.ReadStoryRepo,
	mediaService MediaService,
) FeedService {
	serviceLog := log.With("service", "FeedService")
	return &feedService{
		db:            db,
		log:           serviceLog,
		storyRepo:     storyRepo,
		readStoryRepo: readStoryRepo,
		mediaService:  mediaService,
	}
}

// GetFeed loads the visibility-filtered candidates, enriches them for the
// viewer, applies the read filter and returns them ranked. Anonymous viewers
// get the globally-ranked feed with per-viewer fields zeroed.
func (fs *feedService) GetFeed(ctx context.Context, readFilter string, genres []string) ([]types.EnrichedStory, error) {
	viewerID := requestdata.ViewerID(ctx)

	for _, g := range genres {
		if !types.IsValidGenre(g) {
			return nil, fmt.Errorf("unknown genre %q", g)
		}
	}

	candidates, err := fs.storyRepo.GetFeedCandidates(ctx, nil, viewerID, genres)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed candidates: %w", err)
	}
	readSet, err := fs.readStoryRepo.GetReadSet(ctx, nil, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load read set: %w", err)
	}

	enriched := make([]types.EnrichedStory, 0, len(candidates))
	for _, s := range candidates {
		enriched = append(enriched, ranking.Enrich(*s, viewerID, readSet, fs.mediaService.AbsoluteURL))
	}

	// The read filter only means something for a signed-in viewer.
	if viewerID != uuid.Nil {
		switch readFilter {
		case ReadFilterRead:
			enriched = filterByRead(enriched, true)
		case ReadFilterUnread:
			enriched = filterByRead(enriched, false)
		case "", ReadFilterAll:
		default:
			return nil, fmt.Errorf("unknown read filter %q", readFilter)
		}
	}

	return ranking.Rank(enriched, time.Now().UTC()), nil
}

func filterByRead(stories []types.EnrichedStory, wantRead bool) []types.EnrichedStory {
	out := stories[:0]
	for _, s := range stories {
		if s.IsRead == wantRead {
			out = append(out, s)
		}
	}
	return out
}
