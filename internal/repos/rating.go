package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type RatingRepo interface {
	// Upsert inserts the rating or, when the user already rated the story,
	// replaces the stored value. Last write wins.
	Upsert(ctx context.Context, tx *gorm.DB, rating *types.Rating) error
	GetByStoryIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) ([]*types.Rating, error)
	GetByStoryAndUser(ctx context.Context, tx *gorm.DB, storyID, userID uuid.UUID) (*types.Rating, error)
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	repoLog := baseLog.With("repo", "RatingRepo")
	return &ratingRepo{db: db, log: repoLog}
}

func (rr *ratingRepo) Upsert(ctx context.Context, tx *gorm.DB, rating *types.Rating) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "story_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(rating).Error
}

func (rr *ratingRepo) GetByStoryIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) ([]*types.Rating, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Rating

	if len(storyIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("story_id IN ?", storyIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *ratingRepo) GetByStoryAndUser(ctx context.Context, tx *gorm.DB, storyID, userID uuid.UUID) (*types.Rating, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Rating
	if err := transaction.WithContext(ctx).
		Where("story_id = ? AND user_id = ?", storyID, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
