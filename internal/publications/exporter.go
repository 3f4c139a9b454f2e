// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publications turns an author's provider records into the sorted,
// flagged export document consumed by the publications page.
package publications

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/scholar-export/internal/doi"
	"github.com/pdiddy/scholar-export/internal/s2"
	"github.com/pdiddy/scholar-export/pkg/types"
)

// Fetcher lists an author's paper records. *s2.Client implements it.
type Fetcher interface {
	AuthorPapers(ctx context.Context, authorID string, limit int) ([]s2.Record, error)
}

// Index receives each written document. *store.Index implements it.
type Index interface {
	Replace(ctx context.Context, doc types.ExportDocument) error
}

// Exporter runs one export: load selected DOIs, fetch, normalize, sort,
// write. Nothing is written unless every earlier step succeeds.
type Exporter struct {
	Fetcher Fetcher
	Config  types.ExportConfig

	// Index, if set, mirrors the document after the file is written.
	Index Index

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Out receives the one-line summary; Log receives warnings.
	// Both default to io.Discard.
	Out io.Writer
	Log io.Writer
}

// Run executes the export and returns the document that was written.
func (e *Exporter) Run(ctx context.Context) (types.ExportDocument, error) {
	cfg := e.Config
	if strings.TrimSpace(cfg.AuthorID) == "" {
		return types.ExportDocument{}, fmt.Errorf("author ID is required")
	}
	out, log := writerOrDiscard(e.Out), writerOrDiscard(e.Log)

	selected, err := doi.LoadSelected(cfg.SelectedPath)
	if err != nil {
		return types.ExportDocument{}, err
	}
	for _, bad := range selected.Invalid() {
		fmt.Fprintf(log, "warning: selected entry %q does not look like a DOI\n", bad)
	}

	records, err := e.Fetcher.AuthorPapers(ctx, cfg.AuthorID, cfg.Limit)
	if err != nil {
		return types.ExportDocument{}, fmt.Errorf("fetching papers for author %s: %w", cfg.AuthorID, err)
	}

	items := make([]types.PublicationItem, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		items = append(items, NormalizeRecord(rec, selected))
	}
	SortItems(items)

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	doc := NewDocument(cfg.AuthorID, items, now())

	if err := WriteDocument(cfg.OutPath, doc, cfg.Format); err != nil {
		return types.ExportDocument{}, err
	}
	if e.Index != nil {
		if err := e.Index.Replace(ctx, doc); err != nil {
			return doc, fmt.Errorf("updating index: %w", err)
		}
	}

	fmt.Fprintf(out, "Wrote %s: %d item(s).\n", cfg.OutPath, doc.Counts.Total)
	return doc, nil
}

// SelectedCount returns how many items in doc are flagged selected.
func SelectedCount(doc types.ExportDocument) int {
	n := 0
	for _, it := range doc.Items {
		if it.Selected {
			n++
		}
	}
	return n
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
