package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/dojoquest-backend/internal/platform/envutil"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

// StorageConfig describes the single bucket holding video proofs.
type StorageConfig struct {
	Mode          StorageMode
	EmulatorHost  string
	Bucket        string
	CDNDomain     string
	PublicBaseURL string
}

func (cfg StorageConfig) IsEmulator() bool { return cfg.Mode == StorageModeGCSEmulator }

// StorageConfigFromEnv reads OBJECT_STORAGE_MODE, STORAGE_EMULATOR_HOST,
// VIDEO_PROOF_GCS_BUCKET_NAME, VIDEO_PROOF_CDN_DOMAIN and
// OBJECT_STORAGE_PUBLIC_BASE_URL. An emulator host with no explicit mode
// selects the emulator.
func StorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		EmulatorHost:  strings.TrimRight(strings.TrimSpace(envutil.String("STORAGE_EMULATOR_HOST", "")), "/"),
		Bucket:        strings.TrimSpace(envutil.String("VIDEO_PROOF_GCS_BUCKET_NAME", "")),
		CDNDomain:     strings.TrimSpace(envutil.String("VIDEO_PROOF_CDN_DOMAIN", "")),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", "")), "/"),
	}
	raw := strings.ToLower(strings.TrimSpace(envutil.String("OBJECT_STORAGE_MODE", "")))
	switch StorageMode(raw) {
	case "":
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
		}
	case StorageModeGCS, StorageModeGCSEmulator:
		cfg.Mode = StorageMode(raw)
	default:
		return cfg, fmt.Errorf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", raw, StorageModeGCS, StorageModeGCSEmulator)
	}
	return cfg, cfg.Validate()
}

func (cfg StorageConfig) Validate() error {
	if cfg.Mode != StorageModeGCS && cfg.Mode != StorageModeGCSEmulator {
		return fmt.Errorf("invalid storage mode %q", cfg.Mode)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("missing env var VIDEO_PROOF_GCS_BUCKET_NAME")
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", cfg.PublicBaseURL)
	}
	if !cfg.IsEmulator() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", StorageModeGCSEmulator)
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost)
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
