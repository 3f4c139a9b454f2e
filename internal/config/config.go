// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the export configuration from flags, the
// environment, an optional config file, and defaults, in that precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-export/internal/httputil"
	"github.com/pdiddy/scholar-export/internal/s2"
	"github.com/pdiddy/scholar-export/pkg/types"
)

// Config keys. Each is also settable as SCHOLAR_EXPORT_<KEY>.
const (
	KeyAuthorID     = "author_id"
	KeyOut          = "out"
	KeySelectedDOIs = "selected_dois"
	KeyLimit        = "limit"
	KeyFormat       = "format"
	KeyDB           = "db"
	KeyTimeout      = "timeout"
	KeyPageSize     = "page_size"
	KeyMaxRetries   = "max_retries"
	KeyAPIKey       = "api_key"
	KeySecretsDir   = "secrets_dir"
)

const (
	// Name is the config file base name and the env prefix stem.
	Name      = "scholar-export"
	EnvPrefix = "SCHOLAR_EXPORT"

	// APIKeyEnv is the provider's conventional API key variable.
	APIKeyEnv = "SEMANTIC_SCHOLAR_API_KEY"

	// APIKeySecret is the file under the secrets directory holding the key.
	APIKeySecret = "semantic-scholar-api-key"

	DefaultOut        = "data/publications.json"
	DefaultSelected   = "data/selected_dois.txt"
	DefaultLimit      = 2000
	DefaultSecretsDir = ".secrets"
)

// ErrInvalid marks configuration and usage errors.
var ErrInvalid = errors.New("invalid configuration")

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOut, DefaultOut)
	v.SetDefault(KeySelectedDOIs, DefaultSelected)
	v.SetDefault(KeyLimit, DefaultLimit)
	v.SetDefault(KeyFormat, string(types.FormatJSON))
	v.SetDefault(KeyTimeout, s2.DefaultTimeout)
	v.SetDefault(KeyPageSize, s2.DefaultPageSize)
	v.SetDefault(KeyMaxRetries, httputil.DefaultMaxRetries)
	v.SetDefault(KeySecretsDir, DefaultSecretsDir)
}

// Setup points v at its config file and the environment. cfgFile, when
// set, is the only file consulted; otherwise scholar-export.yaml is
// searched for in the working directory and ~/.config/scholar-export/.
// The file used, if any, is reported on w.
func Setup(v *viper.Viper, cfgFile string, w io.Writer) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv(KeyAPIKey, EnvPrefix+"_API_KEY", APIKeyEnv); err != nil {
		return err
	}
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: reading config file: %v", ErrInvalid, err)
	}
	if w != nil {
		fmt.Fprintln(w, "Using config file:", v.ConfigFileUsed())
	}
	return nil
}

// Load assembles an ExportConfig from v. The API key falls back to the
// secrets directory when neither the environment nor the config file
// provides one. Secrets warnings go to w.
func Load(v *viper.Viper, w io.Writer) (types.ExportConfig, error) {
	cfg := types.ExportConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout: v.GetDuration(KeyTimeout),
		},
		AuthorID:     strings.TrimSpace(v.GetString(KeyAuthorID)),
		OutPath:      v.GetString(KeyOut),
		SelectedPath: v.GetString(KeySelectedDOIs),
		Limit:        v.GetInt(KeyLimit),
		Format:       types.OutputFormat(strings.ToLower(strings.TrimSpace(v.GetString(KeyFormat)))),
		DBPath:       v.GetString(KeyDB),
		PageSize:     v.GetInt(KeyPageSize),
		MaxRetries:   v.GetInt(KeyMaxRetries),
		APIKey:       strings.TrimSpace(v.GetString(KeyAPIKey)),
	}

	if cfg.AuthorID == "" {
		return cfg, fmt.Errorf("%w: author ID is required (--author-id or %s_AUTHOR_ID)", ErrInvalid, EnvPrefix)
	}
	if cfg.OutPath == "" {
		return cfg, fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	if cfg.Limit < 1 {
		return cfg, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalid, cfg.Limit)
	}
	switch cfg.Format {
	case types.FormatJSON, types.FormatYAML:
	case "":
		cfg.Format = types.FormatJSON
	default:
		return cfg, fmt.Errorf("%w: unknown format %q (want json or yaml)", ErrInvalid, cfg.Format)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = s2.DefaultTimeout
	}

	if cfg.APIKey == "" {
		secrets, err := LoadSecrets(v.GetString(KeySecretsDir), w)
		if err != nil {
			return cfg, err
		}
		cfg.APIKey = secrets[APIKeySecret]
	}
	return cfg, nil
}
