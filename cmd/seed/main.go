package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/storyloom-backend/internal/db"
	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/types"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

// Seed fixture format. Ratings and comments reference users and stories by
// their fixture keys, not by uuid, so fixtures stay hand-editable.
type fixture struct {
	Users   []fixtureUser  `yaml:"users"`
	Stories []fixtureStory `yaml:"stories"`
}

type fixtureUser struct {
	Key      string `yaml:"key"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type fixtureStory struct {
	Key      string            `yaml:"key"`
	Author   string            `yaml:"author"`
	Title    string            `yaml:"title"`
	Content  string            `yaml:"content"`
	Genre    string            `yaml:"genre"`
	Date     string            `yaml:"date"`
	IsPublic bool              `yaml:"isPublic"`
	Ratings  map[string]int    `yaml:"ratings"`
	Comments map[string]string `yaml:"comments"`
	ReadBy   []string          `yaml:"readBy"`
}

func main() {
	log, err := logger.New("development")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	path := utils.GetEnv("SEED_FILE", "./scripts/seed.yaml", log)
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read seed file", "path", path, "error", err)
		os.Exit(1)
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		log.Error("Failed to parse seed file", "error", err)
		os.Exit(1)
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	userRepo := repos.NewUserRepo(thePG, log)
	storyRepo := repos.NewStoryRepo(thePG, log)
	ratingRepo := repos.NewRatingRepo(thePG, log)
	commentRepo := repos.NewCommentRepo(thePG, log)
	readStoryRepo := repos.NewReadStoryRepo(thePG, log)

	ctx := context.Background()

	userIDs := make(map[string]uuid.UUID, len(fx.Users))
	usernames := make(map[string]string, len(fx.Users))
	for _, fu := range fx.Users {
		hashed, err := utils.HashPassword(fu.Password)
		if err != nil {
			log.Error("Failed to hash password", "user", fu.Key, "error", err)
			os.Exit(1)
		}
		user := &types.User{
			ID:       uuid.New(),
			Username: fu.Username,
			Password: hashed,
		}
		if _, err := userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
			log.Error("Failed to create user", "user", fu.Key, "error", err)
			os.Exit(1)
		}
		userIDs[fu.Key] = user.ID
		usernames[fu.Key] = user.Username
	}

	for _, fs := range fx.Stories {
		date := time.Now().UTC()
		if fs.Date != "" {
			parsed, err := time.Parse("2006-01-02", fs.Date)
			if err != nil {
				log.Error("Bad date in seed story", "story", fs.Key, "date", fs.Date)
				os.Exit(1)
			}
			date = parsed
		}

		story := &types.Story{
			ID:       uuid.New(),
			Title:    fs.Title,
			Content:  fs.Content,
			Genre:    fs.Genre,
			Date:     date,
			IsPublic: fs.IsPublic,
		}
		if fs.Author == "" {
			story.Author = types.AnonymousAuthor
			story.ClaimCode = uuid.New().String()
		} else {
			authorID, ok := userIDs[fs.Author]
			if !ok {
				log.Error("Seed story references unknown author", "story", fs.Key, "author", fs.Author)
				os.Exit(1)
			}
			story.AuthorID = &authorID
			story.Author = usernames[fs.Author]
		}
		if _, err := storyRepo.Create(ctx, nil, []*types.Story{story}); err != nil {
			log.Error("Failed to create story", "story", fs.Key, "error", err)
			os.Exit(1)
		}

		for userKey, value := range fs.Ratings {
			raterID, ok := userIDs[userKey]
			if !ok {
				log.Error("Seed rating references unknown user", "story", fs.Key, "user", userKey)
				os.Exit(1)
			}
			rating := &types.Rating{
				ID:      uuid.New(),
				StoryID: story.ID,
				UserID:  raterID,
				Value:   value,
			}
			if err := ratingRepo.Upsert(ctx, nil, rating); err != nil {
				log.Error("Failed to seed rating", "story", fs.Key, "user", userKey, "error", err)
				os.Exit(1)
			}
		}

		for userKey, content := range fs.Comments {
			commenterID, ok := userIDs[userKey]
			if !ok {
				log.Error("Seed comment references unknown user", "story", fs.Key, "user", userKey)
				os.Exit(1)
			}
			comment := &types.Comment{
				ID:      uuid.New(),
				StoryID: story.ID,
				UserID:  commenterID,
				Author:  usernames[userKey],
				Date:    date,
				Content: content,
			}
			if _, err := commentRepo.Create(ctx, nil, []*types.Comment{comment}); err != nil {
				log.Error("Failed to seed comment", "story", fs.Key, "user", userKey, "error", err)
				os.Exit(1)
			}
		}

		for _, userKey := range fs.ReadBy {
			readerID, ok := userIDs[userKey]
			if !ok {
				log.Error("Seed readBy references unknown user", "story", fs.Key, "user", userKey)
				os.Exit(1)
			}
			if err := readStoryRepo.Mark(ctx, nil, readerID, story.ID); err != nil {
				log.Error("Failed to seed read mark", "story", fs.Key, "user", userKey, "error", err)
				os.Exit(1)
			}
		}
	}

	log.Info("Seed complete", "users", len(fx.Users), "stories", len(fx.Stories))
}
