package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/requestdata"
	"github.com/yungbote/storyloom-backend/internal/types"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	mediaService  MediaService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, avatarService AvatarService, mediaService MediaService) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		avatarService: avatarService,
		mediaService:  mediaService,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = us.mediaService.AbsoluteURL(user.AvatarURL)
	return user, nil
}

func (us *userService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	user, err := us.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return us.userRepo.UpdatePassword(ctx, nil, user.ID, hashed)
}

func (us *userService) UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.avatarService.SetUserAvatarFromImage(ctx, tx, user, raw)
	})
	if err != nil {
		return nil, err
	}
	user.AvatarURL = us.mediaService.AbsoluteURL(user.AvatarURL)
	return user, nil
}

func (us *userService) currentUser(ctx context.Context) (*types.User, error) {
	viewerID := requestdata.ViewerID(ctx)
	if viewerID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{viewerID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return users[0], nil
}
