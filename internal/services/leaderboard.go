package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/ranking"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/types"
)

// LeaderboardOverview bundles all three boards for the combined endpoint.
type LeaderboardOverview struct {
	TopStories []types.StoryRank  `json:"topStories"`
	TopAuthors []types.AuthorRank `json:"topAuthors"`
	TopReaders []types.ReaderRank `json:"topReaders"`
}

type LeaderboardService interface {
	TopStories(ctx context.Context) ([]types.StoryRank, error)
	TopAuthors(ctx context.Context) ([]types.AuthorRank, error)
	TopReaders(ctx context.Context) ([]types.ReaderRank, error)
	Overview(ctx context.Context) (*LeaderboardOverview, error)
}

type leaderboardService struct {
	db        *gorm.DB
	log       *logger.Logger
	storyRepo repos.StoryRepo
	userRepo  repos.UserRepo
}

func NewLeaderboardService(db *gorm.DB, log *logger.Logger, storyRepo repos.StoryRepo, userRepo repos.UserRepo) LeaderboardService {
	serviceLog := log.With("service", "LeaderboardService")
	return &leaderboardService{
		db:        db,
		log:       serviceLog,
		storyRepo: storyRepo,
		userRepo:  userRepo,
	}
}

func (ls *leaderboardService) TopStories(ctx context.Context) ([]types.StoryRank, error) {
	corpus, _, err := ls.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.TopStories(corpus, ranking.TopN), nil
}

func (ls *leaderboardService) TopAuthors(ctx context.Context) ([]types.AuthorRank, error) {
	corpus, usernames, err := ls.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.TopAuthors(corpus, usernames, ranking.TopN), nil
}

func (ls *leaderboardService) TopReaders(ctx context.Context) ([]types.ReaderRank, error) {
	corpus, usernames, err := ls.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.TopReaders(corpus, usernames, ranking.TopN), nil
}

// Overview computes the three boards concurrently over one corpus snapshot,
// so the numbers across boards always agree with each other.
func (ls *leaderboardService) Overview(ctx context.Context) (*LeaderboardOverview, error) {
	corpus, usernames, err := ls.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}

	var overview LeaderboardOverview
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		overview.TopStories = ranking.TopStories(corpus, ranking.TopN)
		return nil
	})
	g.Go(func() error {
		overview.TopAuthors = ranking.TopAuthors(corpus, usernames, ranking.TopN)
		return nil
	})
	g.Go(func() error {
		overview.TopReaders = ranking.TopReaders(corpus, usernames, ranking.TopN)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

// loadCorpus fetches every story with its engagement plus the username map
// covering all authors, raters and commenters in the snapshot.
func (ls *leaderboardService) loadCorpus(ctx context.Context) ([]types.Story, map[uuid.UUID]string, error) {
	stories, err := ls.storyRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stories: %w", err)
	}

	corpus := make([]types.Story, 0, len(stories))
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	collect := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, s := range stories {
		corpus = append(corpus, *s)
		if s.AuthorID != nil {
			collect(*s.AuthorID)
		}
		for _, r := range s.Ratings {
			collect(r.UserID)
		}
		for _, c := range s.Comments {
			collect(c.UserID)
		}
	}

	usernames := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		users, err := ls.userRepo.GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve usernames: %w", err)
		}
		for _, u := range users {
			usernames[u.ID] = u.Username
		}
	}
	return corpus, usernames, nil
}
