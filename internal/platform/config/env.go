package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ParseEnv loads configuration from environment variables into target's `env` tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads the given files (default ".env") into the process environment
// without overriding variables that are already set. Missing files are not an
// error. It returns the files that were loaded.
func LoadDotEnv(files ...string) ([]string, error) {
	if strings.TrimSpace(os.Getenv("DOTENV_DISABLED")) == "true" {
		return nil, nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	loaded := make([]string, 0, len(files))
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
