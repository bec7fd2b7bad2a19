package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
)

// ErrStoryAlreadyClaimed is returned when a claim races another and loses.
var ErrStoryAlreadyClaimed = errors.New("story already claimed")

type StoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stories []*types.Story) ([]*types.Story, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) ([]*types.Story, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Story, error)
	GetFeedCandidates(ctx context.Context, tx *gorm.DB, viewerID uuid.UUID, genres []string) ([]*types.Story, error)
	GetByAuthorIDs(ctx context.Context, tx *gorm.DB, authorIDs []uuid.UUID) ([]*types.Story, error)
	GetByClaimCode(ctx context.Context, tx *gorm.DB, claimCode string) (*types.Story, error)
	Claim(ctx context.Context, tx *gorm.DB, storyID uuid.UUID, authorID uuid.UUID, authorName string) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error
}

type storyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoryRepo(db *gorm.DB, baseLog *logger.Logger) StoryRepo {
	repoLog := baseLog.With("repo", "StoryRepo")
	return &storyRepo{db: db, log: repoLog}
}

// withEngagement preloads ratings and comments in a deterministic order so
// two fetches of the same snapshot enrich and rank identically.
func withEngagement(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Ratings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") })
}

func (sr *storyRepo) Create(ctx context.Context, tx *gorm.DB, stories []*types.Story) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(stories) == 0 {
		return []*types.Story{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&stories).Error; err != nil {
		return nil, err
	}

	return stories, nil
}

func (sr *storyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Story

	if len(storyIDs) == 0 {
		return results, nil
	}

	if err := withEngagement(transaction.WithContext(ctx)).
		Where("id IN ?", storyIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *storyRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Story

	if err := withEngagement(transaction.WithContext(ctx)).
		Order("date DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetFeedCandidates returns the visibility-filtered batch the feed ranker
// scores: public stories only, minus the viewer's own stories when a viewer
// is present, optionally narrowed to a genre set (OR semantics).
func (sr *storyRepo) GetFeedCandidates(ctx context.Context, tx *gorm.DB, viewerID uuid.UUID, genres []string) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	q := withEngagement(transaction.WithContext(ctx)).
		Where("is_public = ?", true)
	if viewerID != uuid.Nil {
		q = q.Where("author_id IS NULL OR author_id <> ?", viewerID)
	}
	if len(genres) > 0 {
		q = q.Where("genre IN ?", genres)
	}

	var results []*types.Story
	if err := q.Order("date DESC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *storyRepo) GetByAuthorIDs(ctx context.Context, tx *gorm.DB, authorIDs []uuid.UUID) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Story

	if len(authorIDs) == 0 {
		return results, nil
	}

	if err := withEngagement(transaction.WithContext(ctx)).
		Where("author_id IN ?", authorIDs).
		Order("date DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *storyRepo) GetByClaimCode(ctx context.Context, tx *gorm.DB, claimCode string) (*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if claimCode == "" {
		return nil, nil
	}

	var results []*types.Story
	if err := transaction.WithContext(ctx).
		Where("claim_code = ?", claimCode).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Claim attaches the story to an author. The author_id IS NULL guard makes
// the claim atomic: of two racing claims only one updates a row, the other
// gets ErrStoryAlreadyClaimed.
func (sr *storyRepo) Claim(ctx context.Context, tx *gorm.DB, storyID uuid.UUID, authorID uuid.UUID, authorName string) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Story{}).
		Where("id = ? AND author_id IS NULL", storyID).
		Updates(map[string]interface{}{
			"author_id":  authorID,
			"author":     authorName,
			"claim_code": "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStoryAlreadyClaimed
	}
	return nil
}

func (sr *storyRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(storyIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", storyIDs).
		Delete(&types.Story{}).Error
}
