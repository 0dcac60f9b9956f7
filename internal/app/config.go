package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/dojoquest-backend/internal/data/db"
	"github.com/yungbote/dojoquest-backend/internal/platform/config"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type Config struct {
	LogMode     string `env:"LOG_MODE" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"dojoquest-api"`
	Environment string `env:"APP_ENV" envDefault:"local"`
	Version     string `env:"APP_VERSION"`

	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8080"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MaxUploadBytes    int64         `env:"VIDEO_PROOF_MAX_BYTES" envDefault:"209715200"`

	JWTSecretKey string `env:"JWT_SECRET_KEY"`
	JWTIssuer    string `env:"JWT_ISSUER"`

	MetricsAddr string `env:"METRICS_ADDR"`

	RedisPrefix     string        `env:"REDIS_KEY_PREFIX" envDefault:"dq"`
	SSEChannel      string        `env:"SSE_REDIS_CHANNEL" envDefault:"dojoquest:sse"`
	NotifyTimeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	EmailFromAddr   string        `env:"SENDGRID_FROM_EMAIL"`
	EmailFromName   string        `env:"SENDGRID_FROM_NAME" envDefault:"Dojo Quest"`
	AutoMigrate     bool          `env:"POSTGRES_AUTO_MIGRATE" envDefault:"true"`
	EnableVideoGCS  bool          `env:"VIDEO_PROOF_ENABLED" envDefault:"true"`
	DevInsecureAuth bool          `env:"DEV_INSECURE_AUTH" envDefault:"false"`

	Postgres db.PostgresConfig
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() (Config, error) {
	if _, err := config.LoadDotEnv(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, cfg.validate()
}

func (c *Config) normalize() {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
	c.JWTSecretKey = strings.TrimSpace(c.JWTSecretKey)
	c.JWTIssuer = strings.TrimSpace(c.JWTIssuer)
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 200 << 20
	}
}

func (c Config) validate() error {
	if c.JWTSecretKey == "" {
		if !c.DevInsecureAuth {
			return fmt.Errorf("JWT_SECRET_KEY is required")
		}
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

// JWTSecret returns the configured secret, or a fixed development one when
// DEV_INSECURE_AUTH is on.
func (c Config) JWTSecret(log *logger.Logger) string {
	if c.JWTSecretKey != "" {
		return c.JWTSecretKey
	}
	log.Warn("DEV_INSECURE_AUTH is on; using the development JWT secret")
	return devJWTSecret
}

const devJWTSecret = "dojoquest-dev-secret"
