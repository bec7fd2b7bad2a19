package types

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoryID   uuid.UUID `gorm:"type:uuid;not null;index;column:story_id" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;column:user_id" json:"userId"`
	Author    string    `gorm:"not null;column:author" json:"author"`
	Date      time.Time `gorm:"not null;column:date" json:"date"`
	Content   string    `gorm:"not null;column:content" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}

func (Comment) TableName() string {
	return "comment"
}
