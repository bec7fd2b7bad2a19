package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type ReadStoryRepo interface {
	Mark(ctx context.Context, tx *gorm.DB, userID, storyID uuid.UUID) error
	Unmark(ctx context.Context, tx *gorm.DB, userID, storyID uuid.UUID) error
	GetReadSet(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

type readStoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadStoryRepo(db *gorm.DB, baseLog *logger.Logger) ReadStoryRepo {
	repoLog := baseLog.With("repo", "ReadStoryRepo")
	return &readStoryRepo{db: db, log: repoLog}
}

func (rr *readStoryRepo) Mark(ctx context.Context, tx *gorm.DB, userID, storyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	row := &types.ReadStory{UserID: userID, StoryID: storyID}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (rr *readStoryRepo) Unmark(ctx context.Context, tx *gorm.DB, userID, storyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Delete(&types.ReadStory{}).Error
}

func (rr *readStoryRepo) GetReadSet(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	readSet := make(map[uuid.UUID]struct{})
	if userID == uuid.Nil {
		return readSet, nil
	}

	var rows []*types.ReadStory
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		readSet[r.StoryID] = struct{}{}
	}
	return readSet, nil
}
