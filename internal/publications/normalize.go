// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publications

import (
	"sort"
	"strings"

	"github.com/pdiddy/scholar-export/internal/doi"
	"github.com/pdiddy/scholar-export/internal/s2"
	"github.com/pdiddy/scholar-export/pkg/types"
)

// authorSeparator joins author names in PublicationItem.Authors.
const authorSeparator = ", "

// NormalizeRecord converts a provider record into its canonical form and
// flags it when its DOI is in selected.
func NormalizeRecord(rec s2.Record, selected doi.SelectedSet) types.PublicationItem {
	d := doi.Normalize(rec.DOI())

	pubTypes := rec.PublicationTypes()
	if pubTypes == nil {
		pubTypes = []string{}
	}

	return types.PublicationItem{
		DOI:              d,
		Title:            rec.Title(),
		Authors:          strings.Join(rec.Authors(), authorSeparator),
		Venue:            rec.Venue(),
		Year:             rec.Year(),
		URL:              PaperURL(rec),
		CitationCount:    rec.CitationCount(),
		PublicationDate:  rec.PublicationDate(),
		PublicationTypes: pubTypes,
		Selected:         selected.Contains(d),
	}
}

// PaperURL returns the record's URL, falling back to the Semantic Scholar
// page for its paperId, or "" when it has neither.
func PaperURL(rec s2.Record) string {
	if u := rec.URL(); u != "" {
		return u
	}
	if id := rec.PaperID(); id != "" {
		return s2.PaperURLBase + id
	}
	return ""
}

// SortItems orders items newest first: by year descending, then citation
// count descending, then lower-cased title descending. Missing or
// unparseable years and counts sort as 0. Equal keys keep their input order.
// Titles tie-break descending, so "Zeta" precedes "Alpha".
func SortItems(items []types.PublicationItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ay, by := a.Year.Int(), b.Year.Int(); ay != by {
			return ay > by
		}
		if ac, bc := a.Citations(), b.Citations(); ac != bc {
			return ac > bc
		}
		return strings.ToLower(a.Title) > strings.ToLower(b.Title)
	})
}
