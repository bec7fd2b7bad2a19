package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/storyloom-backend/internal/handlers"
	"github.com/yungbote/storyloom-backend/internal/middleware"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	StoryHandler       *handlers.StoryHandler
	FeedHandler        *handlers.FeedHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	MediaDir           string
	Tracing            bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.Tracing {
		router.Use(otelgin.Middleware("storyloom"))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.Static("/media", cfg.MediaDir)

	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Reads work anonymously; a token just personalizes the result.
	optional := router.Group("/")
	optional.Use(cfg.AuthMiddleware.OptionalAuth())
	optional.GET("/getPosts", cfg.FeedHandler.GetPosts)
	optional.GET("/getSingleStory/:id", cfg.StoryHandler.GetSingleStory)
	optional.POST("/addPost", cfg.StoryHandler.AddPost)

	router.GET("/top-stories", cfg.LeaderboardHandler.TopStories)
	router.GET("/topUsers", cfg.LeaderboardHandler.TopAuthors)
	router.GET("/topReaders", cfg.LeaderboardHandler.TopReaders)
	router.GET("/leaderboards", cfg.LeaderboardHandler.Overview)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/checkLoggedIn", cfg.AuthHandler.CheckLoggedIn)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.POST("/user/password", cfg.UserHandler.ChangePassword)
	protected.POST("/user/avatar", cfg.UserHandler.UploadAvatar)
	// Stories
	protected.POST("/rateStory", cfg.StoryHandler.RateStory)
	protected.POST("/addComment", cfg.StoryHandler.AddComment)
	protected.POST("/updateReadStatus", cfg.StoryHandler.UpdateReadStatus)
	protected.POST("/claimStory", cfg.StoryHandler.ClaimStory)
	protected.DELETE("/deleteStory/:id", cfg.StoryHandler.DeleteStory)
	protected.GET("/myStories", cfg.StoryHandler.GetMyStories)

	return router
}

func corsOrigins() []string {
	raw := utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173", nil)
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
