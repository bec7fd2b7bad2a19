package types

import (
	"time"

	"github.com/google/uuid"
)

// ReadStory marks a story as read for a user. Rating a story inserts a row
// here as a side effect.
type ReadStory struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"userId"`
	StoryID   uuid.UUID `gorm:"type:uuid;primaryKey;column:story_id" json:"storyId"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}

func (ReadStory) TableName() string {
	return "read_story"
}
