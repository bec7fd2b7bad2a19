package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserEvent is an append-only activity log row (story posted, rating given,
// comment added, read toggled). Payload carries event-specific fields.
type UserEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;column:user_id" json:"user_id"`
	EventType string         `gorm:"not null;column:event_type" json:"event_type"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (UserEvent) TableName() string {
	return "user_event"
}

const (
	EventStoryPosted   = "story_posted"
	EventStoryRated    = "story_rated"
	EventCommentAdded  = "comment_added"
	EventReadToggled   = "read_toggled"
	EventStoryClaimed  = "story_claimed"
	EventStoryDeleted  = "story_deleted"
)
