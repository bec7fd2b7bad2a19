package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/services"
)

type StoryHandler struct {
	storyService services.StoryService
}

func NewStoryHandler(storyService services.StoryService) *StoryHandler {
	return &StoryHandler{storyService: storyService}
}

// AddPost accepts a multipart form so a cover image can ride along. Anonymous
// submissions are allowed; they get a claim code back.
func (sh *StoryHandler) AddPost(c *gin.Context) {
	isPublic := true
	if v := c.PostForm("isPublic"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("isPublic must be a boolean"))
			return
		}
		isPublic = parsed
	}

	input := services.CreateStoryInput{
		Title:        c.PostForm("title"),
		Content:      c.PostForm("content"),
		Genre:        c.PostForm("genre"),
		IsPublic:     isPublic,
		CaptchaToken: c.PostForm("captchaToken"),
		RemoteIP:     c.ClientIP(),
	}
	if file, err := c.FormFile("image"); err == nil {
		input.Image = file
	}

	result, err := sh.storyService.CreateStory(c.Request.Context(), input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}

	resp := gin.H{"story": result.Story}
	if result.ClaimCode != "" {
		resp["claimCode"] = result.ClaimCode
	}
	RespondOK(c, resp)
}

func (sh *StoryHandler) DeleteStory(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid story id"))
		return
	}
	if err := sh.storyService.DeleteStory(c.Request.Context(), storyID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": "story deleted"})
}

func (sh *StoryHandler) RateStory(c *gin.Context) {
	var req struct {
		StoryID uuid.UUID `json:"storyId"`
		Rating  int       `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	if err := sh.storyService.RateStory(c.Request.Context(), req.StoryID, req.Rating); err != nil {
		RespondError(c, http.StatusBadRequest, "rating_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": "rating saved"})
}

func (sh *StoryHandler) AddComment(c *gin.Context) {
	var req struct {
		StoryID uuid.UUID `json:"storyId"`
		Content string    `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	comment, err := sh.storyService.AddComment(c.Request.Context(), req.StoryID, req.Content)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "comment_failed", err)
		return
	}
	RespondOK(c, gin.H{"comment": comment})
}

func (sh *StoryHandler) UpdateReadStatus(c *gin.Context) {
	var req struct {
		StoryID uuid.UUID `json:"storyId"`
		Read    *bool     `json:"read"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Read == nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	if err := sh.storyService.UpdateReadStatus(c.Request.Context(), req.StoryID, *req.Read); err != nil {
		RespondError(c, http.StatusBadRequest, "read_status_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": "read status updated"})
}

func (sh *StoryHandler) ClaimStory(c *gin.Context) {
	var req struct {
		ClaimCode string `json:"claimCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	story, err := sh.storyService.ClaimStory(c.Request.Context(), req.ClaimCode)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "claim_failed", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

func (sh *StoryHandler) GetSingleStory(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid story id"))
		return
	}
	story, err := sh.storyService.GetStory(c.Request.Context(), storyID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

func (sh *StoryHandler) GetMyStories(c *gin.Context) {
	stories, err := sh.storyService.GetMyStories(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"stories": stories})
}
