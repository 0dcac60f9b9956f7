package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type BucketService interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	cfg    StorageConfig
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg StorageConfig) (BucketService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "BucketService")
	serviceLog.Info("Object storage initialized",
		"mode", cfg.Mode,
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
		"public_base_url", cfg.PublicBaseURL,
	)
	return &bucketService{log: serviceLog, client: client, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.IsEmulator() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (bs *bucketService) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.cfg.Bucket).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.client.Bucket(bs.cfg.Bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.cfg.Bucket, err)
	}
	return nil
}

func (bs *bucketService) PublicURL(key string) string {
	return PublicURL(bs.cfg, key)
}

func (bs *bucketService) Close() error {
	return bs.client.Close()
}

// PublicURL prefers the CDN, then an explicit public base, then the emulator
// media endpoint, then storage.googleapis.com.
func PublicURL(cfg StorageConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	case cfg.IsEmulator():
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(cfg.Bucket), url.PathEscape(key))
	case cfg.PublicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
	}
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
