package types

import (
	"time"

	"github.com/google/uuid"
)

// GenreUnknown is the fallback emitted whenever a story was saved without a
// genre. Output never carries an empty genre.
const GenreUnknown = "Unknown"

// AnonymousAuthor is the display name for stories posted without an account.
const AnonymousAuthor = "Anonymous"

var Genres = []string{
	"Fiction",
	"Drama",
	"Mystery",
	"Horror",
	"Romance",
	"Comedy",
	"Fantasy",
	"Sci-Fi",
	"Thriller",
	"Other",
}

func IsValidGenre(genre string) bool {
	for _, g := range Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Story is the persisted record. AuthorID is nil for anonymously posted
// stories; those carry a claim code until an account claims them.
type Story struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID  *uuid.UUID `gorm:"type:uuid;index;column:author_id" json:"authorId,omitempty"`
	Author    string     `gorm:"not null;column:author" json:"author"`
	Title     string     `gorm:"not null;column:title" json:"title"`
	Content   string     `gorm:"not null;column:content" json:"content"`
	Genre     string     `gorm:"column:genre" json:"genre"`
	Date      time.Time  `gorm:"not null;column:date" json:"date"`
	IsPublic  bool       `gorm:"not null;default:false;column:is_public" json:"isPublic"`
	ImageURL  string     `gorm:"column:image_url" json:"imageUrl"`
	ClaimCode string     `gorm:"column:claim_code" json:"-"`
	Ratings   []Rating   `gorm:"foreignKey:StoryID" json:"ratings"`
	Comments  []Comment  `gorm:"foreignKey:StoryID" json:"comments"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Story) TableName() string {
	return "story"
}
