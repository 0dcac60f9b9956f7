package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/platform/gcp"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

var ErrUnsupportedVideo = errors.New("unsupported video format")

type StoredVideo struct {
	Key string
	URL string
}

// VideoProofStore keeps uploaded proof videos for coach review.
type VideoProofStore interface {
	Save(ctx context.Context, studentID uuid.UUID, challengeKey, filename string, body io.Reader) (StoredVideo, error)
	Remove(ctx context.Context, key string) error
}

type videoProofStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewVideoProofStore(log *logger.Logger, bucket gcp.BucketService) VideoProofStore {
	return &videoProofStore{log: log.With("service", "VideoProofStore"), bucket: bucket}
}

var allowedVideoExt = map[string]bool{".mp4": true, ".m4v": true, ".mov": true, ".webm": true}

// VideoKey builds the object key for a new proof upload.
func VideoKey(studentID uuid.UUID, challengeKey, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if !allowedVideoExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVideo, ext)
	}
	return fmt.Sprintf("video-proofs/%s/%s/%s%s", studentID, challengeKey, uuid.New(), ext), nil
}

func (s *videoProofStore) Save(ctx context.Context, studentID uuid.UUID, challengeKey, filename string, body io.Reader) (StoredVideo, error) {
	if s.bucket == nil {
		return StoredVideo{}, fmt.Errorf("video storage not configured")
	}
	key, err := VideoKey(studentID, challengeKey, filename)
	if err != nil {
		return StoredVideo{}, err
	}
	if err := s.bucket.Upload(ctx, key, body, gcp.ContentTypeForKey(key)); err != nil {
		return StoredVideo{}, fmt.Errorf("upload video proof: %w", err)
	}
	return StoredVideo{Key: key, URL: s.bucket.PublicURL(key)}, nil
}

func (s *videoProofStore) Remove(ctx context.Context, key string) error {
	if s.bucket == nil || key == "" {
		return nil
	}
	return s.bucket.Delete(ctx, key)
}
