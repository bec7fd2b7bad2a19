package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "storyloom", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Story{},
		&types.Rating{},
		&types.Comment{},
		&types.ReadStory{},
		&types.UserEvent{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_user_token_user_id",
			stmt: `ALTER TABLE "user_token" ADD CONSTRAINT "fk_user_token_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_rating_story_id",
			stmt: `ALTER TABLE "rating" ADD CONSTRAINT "fk_rating_story_id" FOREIGN KEY ("story_id") REFERENCES "story"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_comment_story_id",
			stmt: `ALTER TABLE "comment" ADD CONSTRAINT "fk_comment_story_id" FOREIGN KEY ("story_id") REFERENCES "story"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_read_story_user_id",
			stmt: `ALTER TABLE "read_story" ADD CONSTRAINT "fk_read_story_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_read_story_story_id",
			stmt: `ALTER TABLE "read_story" ADD CONSTRAINT "fk_read_story_story_id" FOREIGN KEY ("story_id") REFERENCES "story"("id") ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		drop := fmt.Sprintf(`ALTER TABLE IF EXISTS %q DROP CONSTRAINT IF EXISTS %q`, tableForConstraint(c.name), c.name)
		if err := s.db.Exec(drop).Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", c.name, err)
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func tableForConstraint(name string) string {
	switch name {
	case "fk_user_token_user_id":
		return "user_token"
	case "fk_rating_story_id":
		return "rating"
	case "fk_comment_story_id":
		return "comment"
	case "fk_read_story_user_id", "fk_read_story_story_id":
		return "read_story"
	default:
		return ""
	}
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
