package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/storyloom-backend/internal/db"
	"github.com/yungbote/storyloom-backend/internal/handlers"
	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/middleware"
	"github.com/yungbote/storyloom-backend/internal/observability"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/server"
	"github.com/yungbote/storyloom-backend/internal/services"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "storyloom",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	storyRepo := repos.NewStoryRepo(thePG, log)
	ratingRepo := repos.NewRatingRepo(thePG, log)
	commentRepo := repos.NewCommentRepo(thePG, log)
	readStoryRepo := repos.NewReadStoryRepo(thePG, log)
	userEventRepo := repos.NewUserEventRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	mediaService, err := services.NewMediaService(log)
	if err != nil {
		log.Error("Could not init MediaService", "error", err)
		os.Exit(1)
	}
	captchaService := services.NewCaptchaService(log)
	loginLimiter, err := services.NewLoginRateLimiter(log)
	if err != nil {
		log.Warn("Could not init LoginRateLimiter", "error", err)
	}
	if loginLimiter != nil {
		defer loginLimiter.Close()
	}
	avatarService, err := services.NewAvatarService(log, userRepo, mediaService)
	if err != nil {
		log.Error("Could not init AvatarService", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(
		thePG,
		log,
		userRepo,
		userTokenRepo,
		avatarService,
		loginLimiter,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	userService := services.NewUserService(thePG, log, userRepo, avatarService, mediaService)
	storyService := services.NewStoryService(
		thePG,
		log,
		storyRepo,
		ratingRepo,
		commentRepo,
		readStoryRepo,
		userRepo,
		userEventRepo,
		mediaService,
		captchaService,
	)
	feedService := services.NewFeedService(thePG, log, storyRepo, readStoryRepo, mediaService)
	leaderboardService := services.NewLeaderboardService(thePG, log, storyRepo, userRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService, userService, captchaService)
	userHandler := handlers.NewUserHandler(userService)
	storyHandler := handlers.NewStoryHandler(storyService)
	feedHandler := handlers.NewFeedHandler(feedService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		StoryHandler:       storyHandler,
		FeedHandler:        feedHandler,
		LeaderboardHandler: leaderboardHandler,
		MediaDir:           mediaService.Dir(),
		Tracing:            otelShutdown != nil,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
