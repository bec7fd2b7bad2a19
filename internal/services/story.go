package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/ranking"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/requestdata"
	"github.com/yungbote/storyloom-backend/internal/types"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

const (
	maxTitleLen   = 200
	maxContentLen = 50000
	maxCommentLen = 2000
)

type CreateStoryInput struct {
	Title        string
	Content      string
	Genre        string
	IsPublic     bool
	Image        *multipart.FileHeader
	CaptchaToken string
	RemoteIP     string
}

// CreateStoryResult carries the claim code back to anonymous posters. It is
// shown exactly once, at creation time.
type CreateStoryResult struct {
	Story     *types.Story
	ClaimCode string
}

type StoryService interface {
	CreateStory(ctx context.Context, input CreateStoryInput) (*CreateStoryResult, error)
	DeleteStory(ctx context.Context, storyID uuid.UUID) error
	RateStory(ctx context.Context, storyID uuid.UUID, value int) error
	AddComment(ctx context.Context, storyID uuid.UUID, content string) (*types.Comment, error)
	UpdateReadStatus(ctx context.Context, storyID uuid.UUID, read bool) error
	ClaimStory(ctx context.Context, claimCode string) (*types.Story, error)
	GetStory(ctx context.Context, storyID uuid.UUID) (*types.EnrichedStory, error)
	GetMyStories(ctx context.Context) ([]types.EnrichedStory, error)
}

type storyService struct {
	db             *gorm.DB
	log            *logger.Logger
	storyRepo      repos.StoryRepo
	ratingRepo     repos.RatingRepo
	commentRepo    repos.CommentRepo
	readStoryRepo  repos.ReadStoryRepo
	userRepo       repos.UserRepo
	userEventRepo  repos.UserEventRepo
	mediaService   MediaService
	captchaService CaptchaService
}

func NewStoryService(
	db *gorm.DB,
	log *logger.Logger,
	storyRepo repos.StoryRepo,
	ratingRepo repos.RatingRepo,
	commentRepo repos.CommentRepo,
	readStoryRepo repos.ReadStoryRepo,
	userRepo repos.UserRepo,
	userEventRepo repos.UserEventRepo,
	mediaService MediaService,
	captchaService CaptchaService,
) StoryService {
	serviceLog := log.With("service", "StoryService")
	return &storyService{
		db:             db,
		log:            serviceLog,
		storyRepo:      storyRepo,
		ratingRepo:     ratingRepo,
		commentRepo:    commentRepo,
		readStoryRepo:  readStoryRepo,
		userRepo:       userRepo,
		userEventRepo:  userEventRepo,
		mediaService:   mediaService,
		captchaService: captchaService,
	}
}

// CreateStory accepts both signed-in and anonymous submissions. Anonymous
// stories get a one-time claim code instead of an author id.
func (ss *storyService) CreateStory(ctx context.Context, input CreateStoryInput) (*CreateStoryResult, error) {
	title := utils.ParseInputString(input.Title)
	content := utils.ParseInputString(input.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("title and content are required")
	}
	if len(title) > maxTitleLen {
		return nil, fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	if len(content) > maxContentLen {
		return nil, fmt.Errorf("content exceeds %d characters", maxContentLen)
	}

	genre := utils.ParseInputString(input.Genre)
	if genre != "" && !types.IsValidGenre(genre) {
		return nil, fmt.Errorf("unknown genre %q", genre)
	}

	if err := ss.captchaService.Verify(ctx, input.CaptchaToken, input.RemoteIP); err != nil {
		return nil, err
	}

	imageURL := ""
	if input.Image != nil {
		path, err := ss.mediaService.SaveUpload(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		imageURL = path
	}

	viewerID := requestdata.ViewerID(ctx)
	story := &types.Story{
		ID:       uuid.New(),
		Title:    title,
		Content:  content,
		Genre:    genre,
		Date:     time.Now().UTC(),
		IsPublic: input.IsPublic,
		ImageURL: imageURL,
	}

	claimCode := ""
	if viewerID == uuid.Nil {
		story.Author = types.AnonymousAuthor
		claimCode = uuid.New().String()
		story.ClaimCode = claimCode
	} else {
		users, err := ss.userRepo.GetByIDs(ctx, nil, []uuid.UUID{viewerID})
		if err != nil || len(users) == 0 {
			return nil, fmt.Errorf("failed to resolve author: %w", err)
		}
		story.AuthorID = &viewerID
		story.Author = users[0].Username
	}

	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.storyRepo.Create(ctx, tx, []*types.Story{story}); err != nil {
			return fmt.Errorf("failed to create story: %w", err)
		}
		return ss.recordEvent(ctx, tx, viewerID, types.EventStoryPosted, map[string]interface{}{
			"story_id": story.ID.String(),
			"genre":    story.Genre,
		})
	})
	if err != nil {
		return nil, err
	}

	ss.log.Info("Story created", "story_id", story.ID.String(), "anonymous", viewerID == uuid.Nil)
	return &CreateStoryResult{Story: story, ClaimCode: claimCode}, nil
}

func (ss *storyService) DeleteStory(ctx context.Context, storyID uuid.UUID) error {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return fmt.Errorf("authentication required")
	}

	stories, err := ss.storyRepo.GetByIDs(ctx, nil, []uuid.UUID{storyID})
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}
	if len(stories) == 0 {
		return fmt.Errorf("story not found")
	}
	story := stories[0]
	if story.AuthorID == nil || *story.AuthorID != viewerID {
		return fmt.Errorf("only the author can delete a story")
	}

	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.storyRepo.DeleteByIDs(ctx, tx, []uuid.UUID{storyID}); err != nil {
			return fmt.Errorf("failed to delete story: %w", err)
		}
		return ss.recordEvent(ctx, tx, viewerID, types.EventStoryDeleted, map[string]interface{}{
			"story_id": storyID.String(),
		})
	})
}

// RateStory upserts the viewer's rating and marks the story read, rating
// implies having read it.
func (ss *storyService) RateStory(ctx context.Context, storyID uuid.UUID, value int) error {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return fmt.Errorf("authentication required")
	}
	if value < 1 || value > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	stories, err := ss.storyRepo.GetByIDs(ctx, nil, []uuid.UUID{storyID})
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}
	if len(stories) == 0 {
		return fmt.Errorf("story not found")
	}

	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rating := &types.Rating{
			ID:      uuid.New(),
			StoryID: storyID,
			UserID:  viewerID,
			Value:   value,
		}
		if err := ss.ratingRepo.Upsert(ctx, tx, rating); err != nil {
			return fmt.Errorf("failed to save rating: %w", err)
		}
		if err := ss.readStoryRepo.Mark(ctx, tx, viewerID, storyID); err != nil {
			return fmt.Errorf("failed to mark story read: %w", err)
		}
		return ss.recordEvent(ctx, tx, viewerID, types.EventStoryRated, map[string]interface{}{
			"story_id": storyID.String(),
			"rating":   value,
		})
	})
}

func (ss *storyService) AddComment(ctx context.Context, storyID uuid.UUID, content string) (*types.Comment, error) {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	content = utils.ParseInputString(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, fmt.Errorf("comment exceeds %d characters", maxCommentLen)
	}

	stories, err := ss.storyRepo.GetByIDs(ctx, nil, []uuid.UUID{storyID})
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if len(stories) == 0 {
		return nil, fmt.Errorf("story not found")
	}

	users, err := ss.userRepo.GetByIDs(ctx, nil, []uuid.UUID{viewerID})
	if err != nil || len(users) == 0 {
		return nil, fmt.Errorf("failed to resolve commenter: %w", err)
	}

	comment := &types.Comment{
		ID:      uuid.New(),
		StoryID: storyID,
		UserID:  viewerID,
		Author:  users[0].Username,
		Date:    time.Now().UTC(),
		Content: content,
	}
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.commentRepo.Create(ctx, tx, []*types.Comment{comment}); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return ss.recordEvent(ctx, tx, viewerID, types.EventCommentAdded, map[string]interface{}{
			"story_id":   storyID.String(),
			"comment_id": comment.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (ss *storyService) UpdateReadStatus(ctx context.Context, storyID uuid.UUID, read bool) error {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return fmt.Errorf("authentication required")
	}

	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if read {
			err = ss.readStoryRepo.Mark(ctx, tx, viewerID, storyID)
		} else {
			err = ss.readStoryRepo.Unmark(ctx, tx, viewerID, storyID)
		}
		if err != nil {
			return fmt.Errorf("failed to update read status: %w", err)
		}
		return ss.recordEvent(ctx, tx, viewerID, types.EventReadToggled, map[string]interface{}{
			"story_id": storyID.String(),
			"read":     read,
		})
	})
}

// ClaimStory attaches an anonymous story to the viewer's account. The claim
// code is single-use, claiming clears it.
func (ss *storyService) ClaimStory(ctx context.Context, claimCode string) (*types.Story, error) {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	claimCode = utils.ParseInputString(claimCode)
	if claimCode == "" {
		return nil, fmt.Errorf("claim code is required")
	}

	story, err := ss.storyRepo.GetByClaimCode(ctx, nil, claimCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up claim code: %w", err)
	}
	if story == nil {
		return nil, fmt.Errorf("invalid claim code")
	}
	if story.AuthorID != nil {
		return nil, fmt.Errorf("story has already been claimed")
	}

	users, err := ss.userRepo.GetByIDs(ctx, nil, []uuid.UUID{viewerID})
	if err != nil || len(users) == 0 {
		return nil, fmt.Errorf("failed to resolve claimant: %w", err)
	}
	username := users[0].Username

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.storyRepo.Claim(ctx, tx, story.ID, viewerID, username); err != nil {
			if errors.Is(err, repos.ErrStoryAlreadyClaimed) {
				return fmt.Errorf("story has already been claimed")
			}
			return fmt.Errorf("failed to claim story: %w", err)
		}
		return ss.recordEvent(ctx, tx, viewerID, types.EventStoryClaimed, map[string]interface{}{
			"story_id": story.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	story.AuthorID = &viewerID
	story.Author = username
	story.ClaimCode = ""
	return story, nil
}

func (ss *storyService) GetStory(ctx context.Context, storyID uuid.UUID) (*types.EnrichedStory, error) {
	stories, err := ss.storyRepo.GetByIDs(ctx, nil, []uuid.UUID{storyID})
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if len(stories) == 0 {
		return nil, fmt.Errorf("story not found")
	}
	story := stories[0]

	viewerID := requestdata.ViewerID(ctx)
	// Private stories are visible to their author only. Respond the same
	// way as a missing id so the endpoint does not leak existence.
	if !story.IsPublic && (story.AuthorID == nil || *story.AuthorID != viewerID) {
		return nil, fmt.Errorf("story not found")
	}

	readSet, err := ss.readStoryRepo.GetReadSet(ctx, nil, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load read set: %w", err)
	}
	enriched := ranking.Enrich(*story, viewerID, readSet, ss.mediaService.AbsoluteURL)
	return &enriched, nil
}

func (ss *storyService) GetMyStories(ctx context.Context) ([]types.EnrichedStory, error) {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}

	stories, err := ss.storyRepo.GetByAuthorIDs(ctx, nil, []uuid.UUID{viewerID})
	if err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	readSet, err := ss.readStoryRepo.GetReadSet(ctx, nil, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load read set: %w", err)
	}

	out := make([]types.EnrichedStory, 0, len(stories))
	for _, s := range stories {
		out = append(out, ranking.Enrich(*s, viewerID, readSet, ss.mediaService.AbsoluteURL))
	}
	return out, nil
}

func (ss *storyService) recordEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventType string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	event := &types.UserEvent{
		ID:        uuid.New(),
		UserID:    userID,
		EventType: eventType,
		Payload:   datatypes.JSON(raw),
	}
	if _, err := ss.userEventRepo.Create(ctx, tx, []*types.UserEvent{event}); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}
