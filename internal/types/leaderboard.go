package types

import (
	"time"

	"github.com/google/uuid"
)

type StoryRank struct {
	Rank          int       `json:"rank"`
	StoryID       uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	Date          time.Time `json:"date"`
	AverageRating float64   `json:"averageRating"`
	NumRatings    int       `json:"numRatings"`
}

type AuthorRank struct {
	Rank            int     `json:"rank"`
	Username        string  `json:"username"`
	AvgAuthorRating float64 `json:"avgAuthorRating"`
	TotalStories    int     `json:"totalStories"`
	TotalRatings    int     `json:"totalRatings"`
}

type ReaderRank struct {
	Rank              int    `json:"rank"`
	Username          string `json:"username"`
	TotalRatingsGiven int    `json:"totalRatingsGiven"`
	CommentsCount     int    `json:"commentsCount"`
}
