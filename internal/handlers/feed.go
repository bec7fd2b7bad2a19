package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyloom-backend/internal/services"
)

type FeedHandler struct {
	feedService services.FeedService
}

func NewFeedHandler(feedService services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// GetPosts serves the ranked feed. Genres arrive either as repeated query
// params or one comma-separated value.
func (fh *FeedHandler) GetPosts(c *gin.Context) {
	readFilter := c.Query("readfilter")

	var genres []string
	for _, raw := range c.QueryArray("genre") {
		for _, g := range strings.Split(raw, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				genres = append(genres, g)
			}
		}
	}

	stories, err := fh.feedService.GetFeed(c.Request.Context(), readFilter, genres)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "feed_failed", err)
		return
	}
	RespondOK(c, gin.H{"stories": stories})
}
