package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

// LoginRateLimiter throttles credential attempts per username via a redis
// counter with a rolling window. A nil limiter (no REDIS_ADDR configured)
// allows everything.
type LoginRateLimiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	limit  int
	window time.Duration
}

func NewLoginRateLimiter(log *logger.Logger) (*LoginRateLimiter, error) {
	limiterLog := log.With("service", "LoginRateLimiter")

	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		limiterLog.Warn("REDIS_ADDR not set, login rate limiting disabled")
		return nil, nil
	}
	limit := utils.GetEnvAsInt("LOGIN_ATTEMPT_LIMIT", 10, log)
	windowSecs := utils.GetEnvAsInt("LOGIN_ATTEMPT_WINDOW_SECONDS", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    utils.GetEnv("REDIS_PASSWORD", "", log),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &LoginRateLimiter{
		log:    limiterLog,
		rdb:    rdb,
		limit:  limit,
		window: time.Duration(windowSecs) * time.Second,
	}, nil
}

func attemptKey(username string) string {
	return "login:attempts:" + strings.ToLower(strings.TrimSpace(username))
}

// Allow records one attempt and rejects once the window limit is exceeded.
func (l *LoginRateLimiter) Allow(ctx context.Context, username string) error {
	if l == nil {
		return nil
	}
	key := attemptKey(username)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		// Redis trouble must not lock everyone out.
		l.log.Warn("Rate limiter unavailable, allowing attempt", "error", err)
		return nil
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Warn("Failed to set rate limit window", "error", err)
		}
	}
	if int(n) > l.limit {
		return fmt.Errorf("too many login attempts, try again later")
	}
	return nil
}

// Reset clears the attempt counter after a successful login.
func (l *LoginRateLimiter) Reset(ctx context.Context, username string) {
	if l == nil {
		return
	}
	if err := l.rdb.Del(ctx, attemptKey(username)).Err(); err != nil {
		l.log.Warn("Failed to reset rate limit counter", "error", err)
	}
}

func (l *LoginRateLimiter) Close() {
	if l == nil {
		return
	}
	_ = l.rdb.Close()
}
