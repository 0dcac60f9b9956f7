package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/dojoquest-backend/internal/platform/envutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Addr:        strings.TrimSpace(envutil.String("REDIS_ADDR", "")),
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: envutil.Seconds("REDIS_DIAL_TIMEOUT_SECONDS", 5*time.Second),
	}
}

// NewRedisClient returns (nil, nil) when no address is configured so callers
// can run without redis.
func NewRedisClient(ctx context.Context, log *logger.Logger, cfg RedisConfig) (*goredis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, nil
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("Redis connected", "addr", cfg.Addr, "db", cfg.DB)
	}
	return rdb, nil
}
