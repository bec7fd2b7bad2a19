package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyloom-backend/internal/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (lh *LeaderboardHandler) TopStories(c *gin.Context) {
	ranks, err := lh.leaderboardService.TopStories(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}
	RespondOK(c, gin.H{"topStories": ranks})
}

func (lh *LeaderboardHandler) TopAuthors(c *gin.Context) {
	ranks, err := lh.leaderboardService.TopAuthors(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}
	RespondOK(c, gin.H{"topUsers": ranks})
}

func (lh *LeaderboardHandler) TopReaders(c *gin.Context) {
	ranks, err := lh.leaderboardService.TopReaders(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}
	RespondOK(c, gin.H{"topReaders": ranks})
}

func (lh *LeaderboardHandler) Overview(c *gin.Context) {
	overview, err := lh.leaderboardService.Overview(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}
	RespondOK(c, overview)
}
