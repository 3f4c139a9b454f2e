// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-export pipeline:
// the normalized publication record, the export document written to disk,
// and the configuration assembled by the CLI.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PublicationItem is the canonical, defaulted form of one provider record.
// Field order matches the key order of the exported JSON document.
type PublicationItem struct {
	// DOI is the normalized DOI, or empty when the provider has none.
	DOI string `json:"doi" yaml:"doi"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors is the comma-joined list of non-empty author names in source order.
	Authors string `json:"authors" yaml:"authors"`

	// Venue is the journal or conference name.
	Venue string `json:"venue" yaml:"venue"`

	// Year is the publication year as the provider reported it.
	Year Year `json:"year" yaml:"year"`

	// URL is the provider URL, or the synthesized paper page URL.
	URL string `json:"url" yaml:"url"`

	// CitationCount is nil when the provider omits it.
	CitationCount *int `json:"citationCount" yaml:"citationCount"`

	// PublicationDate is the provider's date string (usually YYYY-MM-DD).
	PublicationDate string `json:"publicationDate" yaml:"publicationDate"`

	// PublicationTypes lists provider types such as "JournalArticle". Never nil.
	PublicationTypes []string `json:"publicationTypes" yaml:"publicationTypes"`

	// Selected is true when DOI is non-empty and listed in the selected set.
	Selected bool `json:"selected" yaml:"selected"`
}

// Citations returns the citation count, treating a missing count as 0.
func (p PublicationItem) Citations() int {
	if p.CitationCount == nil {
		return 0
	}
	return *p.CitationCount
}

// ExportDocument is the file written by an export run.
type ExportDocument struct {
	// UpdatedAt is the UTC calendar date of generation (YYYY-MM-DD).
	UpdatedAt string `json:"updatedAt" yaml:"updatedAt"`

	Source ExportSource `json:"source" yaml:"source"`
	Counts ExportCounts `json:"counts" yaml:"counts"`

	// Items is sorted newest first; see publications.SortItems.
	Items []PublicationItem `json:"items" yaml:"items"`
}

// ExportSource names the provider and the query that produced the items.
type ExportSource struct {
	Name string `json:"name" yaml:"name"`
	Via  string `json:"via" yaml:"via"`
}

// ExportCounts holds document totals. Total always equals len(Items).
type ExportCounts struct {
	Total int `json:"total" yaml:"total"`
}

// Year is a publication year that keeps the provider's representation.
// Providers normally send a number, occasionally a string; a missing or zero
// year marshals as the empty string.
type Year struct {
	num  int
	text string
}

// YearOf returns a numeric year. Zero yields the empty Year.
func YearOf(n int) Year {
	return Year{num: n}
}

// YearText returns a year carried as text, trimmed of surrounding whitespace.
func YearText(s string) Year {
	return Year{text: strings.TrimSpace(s)}
}

// IsZero reports whether the year is absent.
func (y Year) IsZero() bool {
	return y.num == 0 && y.text == ""
}

// Int returns the year as an integer for ordering. Text that does not parse
// as an integer yields 0.
func (y Year) Int() int {
	if y.num != 0 {
		return y.num
	}
	n, err := strconv.Atoi(y.text)
	if err != nil {
		return 0
	}
	return n
}

func (y Year) String() string {
	if y.num != 0 {
		return strconv.Itoa(y.num)
	}
	return y.text
}

// MarshalJSON writes a number for numeric years and a string otherwise.
func (y Year) MarshalJSON() ([]byte, error) {
	if y.num != 0 {
		return []byte(strconv.Itoa(y.num)), nil
	}
	return json.Marshal(y.text)
}

// UnmarshalJSON accepts a number, a string, or null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*y = Year{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = YearText(s)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("year %s: %w", data, err)
	}
	*y = YearOf(n)
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (y Year) MarshalYAML() (any, error) {
	if y.num != 0 {
		return y.num, nil
	}
	return y.text, nil
}
