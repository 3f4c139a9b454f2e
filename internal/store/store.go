// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store mirrors the last written export document into a SQLite
// database so it can be listed and filtered without re-reading the file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-export/pkg/types"
)

// DefaultPath is where the index lives when no path is configured.
const DefaultPath = "data/publications.db"

// ErrEmpty is returned by Meta when no export has been mirrored yet.
var ErrEmpty = errors.New("index holds no export")

// Index is the SQLite publication index.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path, creating the parent
// directory and the schema if they do not exist.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			position INTEGER PRIMARY KEY,
			doi TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT NOT NULL,
			venue TEXT NOT NULL,
			year TEXT NOT NULL,
			url TEXT NOT NULL,
			citation_count INTEGER,
			publication_date TEXT NOT NULL,
			publication_types TEXT NOT NULL,
			selected INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_doi ON publications(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_selected ON publications(selected)`,
		`CREATE TABLE IF NOT EXISTS export_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			updated_at TEXT NOT NULL,
			source_name TEXT NOT NULL,
			source_via TEXT NOT NULL,
			total INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Replace swaps the index contents for doc in a single transaction. Item
// order is kept as the position column.
func (x *Index) Replace(ctx context.Context, doc types.ExportDocument) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM publications`); err != nil {
		return fmt.Errorf("clearing publications: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publications (position, doi, title, authors, venue, year, url,
			citation_count, publication_date, publication_types, selected)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range doc.Items {
		yearJSON, err := json.Marshal(it.Year)
		if err != nil {
			return fmt.Errorf("encoding year of item %d: %w", i, err)
		}
		pubTypes := it.PublicationTypes
		if pubTypes == nil {
			pubTypes = []string{}
		}
		typesJSON, _ := json.Marshal(pubTypes)

		var cites sql.NullInt64
		if it.CitationCount != nil {
			cites = sql.NullInt64{Int64: int64(*it.CitationCount), Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			i, it.DOI, it.Title, it.Authors, it.Venue, string(yearJSON), it.URL,
			cites, it.PublicationDate, string(typesJSON), it.Selected,
		)
		if err != nil {
			return fmt.Errorf("inserting item %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO export_meta (id, updated_at, source_name, source_via, total)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			updated_at=excluded.updated_at, source_name=excluded.source_name,
			source_via=excluded.source_via, total=excluded.total`,
		doc.UpdatedAt, doc.Source.Name, doc.Source.Via, doc.Counts.Total,
	)
	if err != nil {
		return fmt.Errorf("updating export metadata: %w", err)
	}

	return tx.Commit()
}

// ListOptions filters List results.
type ListOptions struct {
	// SelectedOnly keeps only items flagged selected.
	SelectedOnly bool

	// Query keeps items whose title, authors, or venue contain it,
	// case-insensitively.
	Query string
}

// List returns the mirrored items in export order.
func (x *Index) List(ctx context.Context, opts ListOptions) ([]types.PublicationItem, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT doi, title, authors, venue, year, url, citation_count,
			publication_date, publication_types, selected
		FROM publications
		WHERE 1=1`)

	if opts.SelectedOnly {
		qb.WriteString(` AND selected = 1`)
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		qb.WriteString(` AND (title LIKE ? ESCAPE '\' OR authors LIKE ? ESCAPE '\' OR venue LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern, pattern)
	}
	qb.WriteString(` ORDER BY position`)

	rows, err := x.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	items := []types.PublicationItem{}
	for rows.Next() {
		var (
			it        types.PublicationItem
			yearJSON  string
			typesJSON string
			cites     sql.NullInt64
		)
		if err := rows.Scan(&it.DOI, &it.Title, &it.Authors, &it.Venue, &yearJSON, &it.URL,
			&cites, &it.PublicationDate, &typesJSON, &it.Selected); err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		if err := json.Unmarshal([]byte(yearJSON), &it.Year); err != nil {
			return nil, fmt.Errorf("decoding year: %w", err)
		}
		if err := json.Unmarshal([]byte(typesJSON), &it.PublicationTypes); err != nil {
			return nil, fmt.Errorf("decoding publication types: %w", err)
		}
		if cites.Valid {
			n := int(cites.Int64)
			it.CitationCount = &n
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Meta returns the header of the mirrored export with Items left nil.
func (x *Index) Meta(ctx context.Context) (types.ExportDocument, error) {
	var doc types.ExportDocument
	err := x.db.QueryRowContext(ctx,
		`SELECT updated_at, source_name, source_via, total FROM export_meta WHERE id = 1`,
	).Scan(&doc.UpdatedAt, &doc.Source.Name, &doc.Source.Via, &doc.Counts.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, ErrEmpty
	}
	if err != nil {
		return doc, fmt.Errorf("reading export metadata: %w", err)
	}
	return doc, nil
}

// Load returns the mirrored export document with items filtered by opts.
// Counts.Total is the total of the mirrored export, not of the filtered
// items.
func (x *Index) Load(ctx context.Context, opts ListOptions) (types.ExportDocument, error) {
	doc, err := x.Meta(ctx)
	if err != nil {
		return doc, err
	}
	doc.Items, err = x.List(ctx, opts)
	return doc, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
