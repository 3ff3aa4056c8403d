package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/timebank/backoffice/internal/config"
)

// InitRedis connects to redis. Redis only backs the token blacklist and the report
// cache, so a failed ping is logged and nil is returned instead of failing start-up.
func InitRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis connection failed, continuing without redis", slog.Any("error", err))
		rdb.Close()
		return nil
	}

	logger.Info("redis connection established", slog.String("addr", cfg.Addr()))
	return rdb
}
