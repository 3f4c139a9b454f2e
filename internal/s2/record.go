// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package s2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-export/pkg/types"
)

// Record is a provider paper record seen through named accessors. Every
// accessor returns its default (empty string, zero Year, nil) when the field
// is absent, null, or of an unexpected shape; none of them fail.
//
// Two representations implement it: the typed Paper, used when a record
// decodes cleanly, and MapRecord, the loose fallback for records whose
// fields arrive in unexpected shapes.
type Record interface {
	Title() string
	Year() types.Year
	// Authors returns trimmed, non-empty author names in source order.
	Authors() []string
	Venue() string
	PublicationTypes() []string
	PublicationDate() string
	CitationCount() *int
	// DOI returns the raw externalIds DOI, not yet normalized.
	DOI() string
	URL() string
	PaperID() string
}

// Paper is a Semantic Scholar paper as returned by the author papers
// endpoint for the fields in PaperFields.
type Paper struct {
	PaperID          string       `json:"paperId"`
	ExternalIDs      *ExternalIDs `json:"externalIds"`
	URL              string       `json:"url"`
	Title            string       `json:"title"`
	Venue            string       `json:"venue"`
	Year             int          `json:"year"`
	PublicationDate  string       `json:"publicationDate"`
	PublicationTypes []string     `json:"publicationTypes"`
	CitationCount    *int         `json:"citationCount"`
	Authors          []Author     `json:"authors"`
}

// ExternalIDs contains the external identifiers of a paper.
type ExternalIDs struct {
	DOI      string `json:"DOI,omitempty"`
	ArXiv    string `json:"ArXiv,omitempty"`
	PubMed   string `json:"PubMed,omitempty"`
	CorpusID int    `json:"CorpusId,omitempty"`
}

// Author is an author entry of a paper.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// Record returns p as a Record.
func (p *Paper) Record() Record { return paperRecord{p} }

type paperRecord struct{ p *Paper }

func (r paperRecord) Title() string           { return r.p.Title }
func (r paperRecord) Year() types.Year        { return types.YearOf(r.p.Year) }
func (r paperRecord) Venue() string           { return r.p.Venue }
func (r paperRecord) PublicationDate() string { return r.p.PublicationDate }
func (r paperRecord) CitationCount() *int     { return r.p.CitationCount }
func (r paperRecord) URL() string             { return r.p.URL }
func (r paperRecord) PaperID() string         { return r.p.PaperID }

func (r paperRecord) Authors() []string {
	var names []string
	for _, a := range r.p.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func (r paperRecord) PublicationTypes() []string { return r.p.PublicationTypes }

func (r paperRecord) DOI() string {
	if r.p.ExternalIDs == nil {
		return ""
	}
	return r.p.ExternalIDs.DOI
}

// MapRecord is a paper record held as decoded JSON. Numbers are json.Number
// when decoded by DecodeRecord. Both camelCase and snake_case keys are
// consulted where the provider has used either.
type MapRecord map[string]any

func (m MapRecord) Title() string           { return m.str("title") }
func (m MapRecord) Venue() string           { return m.str("venue") }
func (m MapRecord) PublicationDate() string { return m.str("publicationDate", "publication_date") }
func (m MapRecord) URL() string             { return m.str("url") }
func (m MapRecord) PaperID() string         { return m.str("paperId", "paper_id") }

func (m MapRecord) Year() types.Year {
	switch v := m["year"].(type) {
	case json.Number:
		return types.YearOf(numberToInt(v))
	case float64:
		return types.YearOf(int(v))
	case int:
		return types.YearOf(v)
	case string:
		return types.YearText(v)
	}
	return types.Year{}
}

func (m MapRecord) CitationCount() *int {
	var n int
	switch v := m.first("citationCount", "citation_count").(type) {
	case json.Number:
		n = numberToInt(v)
	case float64:
		n = int(v)
	case int:
		n = v
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

// Authors accepts entries that are objects with a "name", bare strings, or
// anything else (skipped).
func (m MapRecord) Authors() []string {
	list, _ := m["authors"].([]any)
	var names []string
	for _, a := range list {
		var n string
		switch v := a.(type) {
		case map[string]any:
			n = scalarString(v["name"])
		case string:
			n = v
		}
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func (m MapRecord) PublicationTypes() []string {
	list, _ := m.first("publicationTypes", "publication_types").([]any)
	var out []string
	for _, t := range list {
		if s, ok := t.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (m MapRecord) DOI() string {
	for _, key := range []string{"externalIds", "external_ids"} {
		if ids, ok := m[key].(map[string]any); ok {
			return scalarString(ids["DOI"])
		}
	}
	return ""
}

// first returns the first non-null value among keys.
func (m MapRecord) first(keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// str returns the first non-empty scalar among keys as a string.
func (m MapRecord) str(keys ...string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	}
	return ""
}

func numberToInt(n json.Number) int {
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// snakeKeys are the snake_case spellings the typed Paper does not read.
var snakeKeys = []string{"external_ids", "paper_id", "citation_count", "publication_date", "publication_types"}

// DecodeRecord decodes one element of a response "data" array. It returns
// ok=false for empty elements (null, {}, [], "", false, 0), which callers
// skip. Any other element that is not a JSON object is an
// ErrInvalidResponse. Records using snake_case keys stay MapRecords.
func DecodeRecord(raw json.RawMessage) (rec Record, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false, fmt.Errorf("%w: malformed record: %v", ErrInvalidResponse, err)
	}
	if isEmpty(v) {
		return nil, false, nil
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		return nil, false, fmt.Errorf("%w: record is not an object: %s", ErrInvalidResponse, raw)
	}
	m := MapRecord(obj)

	for _, k := range snakeKeys {
		if _, present := m[k]; present {
			return m, true, nil
		}
	}

	var p Paper
	if err := json.Unmarshal(raw, &p); err == nil {
		return p.Record(), true, nil
	}
	return m, true, nil
}

// isEmpty reports whether a decoded JSON value is null, false, zero, or an
// empty string, array, or object.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
