package types

// EnrichedStory is a Story plus the per-viewer engagement fields the feed
// needs. It is derived on every request and never persisted.
type EnrichedStory struct {
	Story
	NumRatings     int     `json:"numRatings"`
	AverageRating  float64 `json:"averageRating"`
	ThisUserRating int     `json:"thisUserRating"`
	IsOwnStory     bool    `json:"isOwnStory"`
	IsRead         bool    `json:"isRead"`
	StoryScore     float64 `json:"storyScore"`
}
