package types

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one user's rating of one story. The unique index enforces the
// one-rating-per-user invariant; writes go through an upsert so the latest
// value wins.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	StoryID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_story_user;column:story_id" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_story_user;column:user_id" json:"userId"`
	Value     int       `gorm:"not null;column:rating" json:"rating"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

func (Rating) TableName() string {
	return "rating"
}
