// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-export/pkg/types"
)

// SourceName labels the provider in every export document.
const SourceName = "Semantic Scholar"

const dateFmt = "2006-01-02"

// NewDocument assembles the export document for authorID. now is converted
// to UTC before taking the calendar date.
func NewDocument(authorID string, items []types.PublicationItem, now time.Time) types.ExportDocument {
	if items == nil {
		items = []types.PublicationItem{}
	}
	return types.ExportDocument{
		UpdatedAt: now.UTC().Format(dateFmt),
		Source: types.ExportSource{
			Name: SourceName,
			Via:  "author:" + authorID,
		},
		Counts: types.ExportCounts{Total: len(items)},
		Items:  items,
	}
}

// Encode writes doc to w in the given format. JSON is indented by two
// spaces and leaves non-ASCII and HTML characters unescaped.
func Encode(w io.Writer, doc types.ExportDocument, format types.OutputFormat) error {
	switch format {
	case types.FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case types.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteDocument encodes doc and replaces the file at path. The parent
// directory is created if needed. The content goes to a temp file in the
// same directory that is renamed over path, so readers never see a partial
// document.
func WriteDocument(path string, doc types.ExportDocument, format types.OutputFormat) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, format); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(buf.Bytes())
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadDocument loads a JSON export document.
func ReadDocument(path string) (types.ExportDocument, error) {
	var doc types.ExportDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}
