// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadSecrets reads all files in dir and returns a map of filename to
// trimmed contents. Each file holds one secret; the filename is its key
// (e.g. semantic-scholar-api-key). A missing directory is not an error.
// Unreadable files produce a warning on w and are skipped.
func LoadSecrets(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	if w == nil {
		w = io.Discard
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// LoadDotEnv loads variables from the given .env files (default ./.env)
// into the process environment. Variables already set are left alone and
// missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}
