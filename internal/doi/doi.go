// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doi normalizes DOI strings and loads the curated set of selected
// DOIs used to flag highlighted publications.
package doi

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// resolverPrefixes are the doi.org URL forms stripped from identifiers.
var resolverPrefixes = []string{"https://doi.org/", "http://doi.org/"}

const schemePrefix = "doi:"

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// Normalize reduces a DOI to canonical form: surrounding whitespace trimmed,
// a leading doi.org resolver URL removed, and a leading case-insensitive
// "doi:" scheme removed. The case of the DOI body is preserved.
//
// Stripping repeats until nothing changes, so Normalize(Normalize(s)) ==
// Normalize(s) for every input, including oddities like "doi: https://doi.org/10.1/x".
func Normalize(s string) string {
	for {
		prev := s
		s = strings.TrimSpace(s)
		for _, p := range resolverPrefixes {
			if strings.HasPrefix(s, p) {
				s = s[len(p):]
				break
			}
		}
		if len(s) >= len(schemePrefix) && strings.EqualFold(s[:len(schemePrefix)], schemePrefix) {
			s = s[len(schemePrefix):]
		}
		if s == prev {
			return s
		}
	}
}

// Valid reports whether s, once normalized, looks like a DOI.
func Valid(s string) bool {
	return doiPattern.MatchString(Normalize(s))
}

// SelectedSet is an immutable set of normalized DOIs.
type SelectedSet struct {
	dois map[string]struct{}
}

// NewSelectedSet builds a set from raw identifiers. Each is normalized;
// empty results are dropped and duplicates collapse.
func NewSelectedSet(ids ...string) SelectedSet {
	s := SelectedSet{dois: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if n := Normalize(id); n != "" {
			s.dois[n] = struct{}{}
		}
	}
	return s
}

// Contains reports whether the normalized DOI is in the set. The empty DOI
// is never a member.
func (s SelectedSet) Contains(doi string) bool {
	if doi == "" {
		return false
	}
	_, ok := s.dois[doi]
	return ok
}

// Len returns the number of distinct DOIs in the set.
func (s SelectedSet) Len() int {
	return len(s.dois)
}

// Invalid returns the members that do not look like DOIs, sorted.
func (s SelectedSet) Invalid() []string {
	var out []string
	for d := range s.dois {
		if !doiPattern.MatchString(d) {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// LoadSelected reads a selected-DOI file. A missing file yields an empty
// set and no error.
func LoadSelected(path string) (SelectedSet, error) {
	if path == "" {
		return NewSelectedSet(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSelectedSet(), nil
		}
		return SelectedSet{}, fmt.Errorf("opening selected DOIs %s: %w", path, err)
	}
	defer f.Close()

	s, err := ParseSelected(f)
	if err != nil {
		return SelectedSet{}, fmt.Errorf("reading selected DOIs %s: %w", path, err)
	}
	return s, nil
}

// ParseSelected reads one identifier per line. Blank lines and lines
// starting with "#" (after trimming) are ignored.
func ParseSelected(r io.Reader) (SelectedSet, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return SelectedSet{}, err
	}
	return NewSelectedSet(ids...), nil
}
