// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-export/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OutputFormat selects the export document encoding.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// ExportConfig holds everything an export run needs. It is assembled once
// at startup and passed down; nothing below the CLI reads the environment.
type ExportConfig struct {
	HTTPConfig `yaml:",inline"`

	// AuthorID is the provider's author identifier. Required.
	AuthorID string `json:"author_id" yaml:"author_id"`

	// OutPath is the export document path (default data/publications.json).
	OutPath string `json:"out" yaml:"out"`

	// SelectedPath is the selected-DOI list (default data/selected_dois.txt).
	// A missing file means nothing is selected.
	SelectedPath string `json:"selected_dois" yaml:"selected_dois"`

	// Limit caps the number of provider records consumed (default 2000).
	Limit int `json:"limit" yaml:"limit"`

	// Format selects JSON (default) or YAML output.
	Format OutputFormat `json:"format" yaml:"format"`

	// DBPath, when set, mirrors the exported items into a SQLite index.
	DBPath string `json:"db,omitempty" yaml:"db,omitempty"`

	// PageSize is the number of records requested per provider page.
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxRetries bounds retries of rate-limited (HTTP 429) requests.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// APIKey is the optional Semantic Scholar API key. Empty means the
	// shared unauthenticated rate limit applies.
	APIKey string `json:"-" yaml:"-"`
}
