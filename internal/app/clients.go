package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/dojoquest-backend/internal/data/cache"
	"github.com/yungbote/dojoquest-backend/internal/data/db"
	"github.com/yungbote/dojoquest-backend/internal/platform/gcp"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/platform/openai"
	"github.com/yungbote/dojoquest-backend/internal/platform/sendgrid"
	"github.com/yungbote/dojoquest-backend/internal/temporalx"
)

// Clients holds every external connection. Everything but Postgres is
// optional and left nil when not configured.
type Clients struct {
	Postgres *db.PostgresService
	Redis    *goredis.Client
	OpenAI   openai.Client
	SendGrid sendgrid.Client
	Bucket   gcp.BucketService
	Temporal temporalsdkclient.Client

	TemporalCfg temporalx.Config
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		return c, fmt.Errorf("init postgres: %w", err)
	}
	c.Postgres = pg
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			c.Close(log)
			return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
		}
	}

	rdb, err := cache.NewRedisClient(ctx, log, cache.RedisConfigFromEnv())
	if err != nil {
		c.Close(log)
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	c.Redis = rdb
	if rdb == nil {
		log.Warn("REDIS_ADDR not set; daily challenges are served from postgres and SSE stays local")
	}

	ai, err := openai.NewFromEnv(log)
	if err != nil {
		c.Close(log)
		return Clients{}, fmt.Errorf("init openai: %w", err)
	}
	c.OpenAI = ai
	if ai == nil {
		log.Warn("OPENAI_API_KEY not set; daily challenges use the fallback question")
	}

	sg, err := sendgrid.NewFromEnv(log)
	if err != nil {
		c.Close(log)
		return Clients{}, fmt.Errorf("init sendgrid: %w", err)
	}
	c.SendGrid = sg

	if cfg.EnableVideoGCS {
		storageCfg, err := gcp.StorageConfigFromEnv()
		if err != nil {
			c.Close(log)
			return Clients{}, err
		}
		if storageCfg.Bucket == "" {
			log.Warn("VIDEO_PROOF_GCS_BUCKET_NAME not set; video proof uploads are disabled")
		} else {
			bucket, err := gcp.NewBucketService(ctx, log, storageCfg)
			if err != nil {
				c.Close(log)
				return Clients{}, fmt.Errorf("init bucket: %w", err)
			}
			c.Bucket = bucket
		}
	}

	c.TemporalCfg = temporalx.LoadConfig()
	if c.TemporalCfg.Enabled() {
		tc, err := temporalx.NewClient(log, c.TemporalCfg)
		if err != nil {
			c.Close(log)
			return Clients{}, fmt.Errorf("init temporal: %w", err)
		}
		c.Temporal = tc
	}

	return c, nil
}

func (c *Clients) Close(log *logger.Logger) {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
		c.Temporal = nil
	}
	if c.Bucket != nil {
		if err := c.Bucket.Close(); err != nil {
			log.Warn("bucket close failed", "error", err)
		}
		c.Bucket = nil
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
		c.Redis = nil
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			log.Warn("postgres close failed", "error", err)
		}
		c.Postgres = nil
	}
}
