// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package doi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare DOI", "10.1/x", "10.1/x"},
		{"https resolver", "https://doi.org/10.1/x", "10.1/x"},
		{"http resolver", "http://doi.org/10.1/x", "10.1/x"},
		{"upper-case scheme", "DOI:10.1/x", "10.1/x"},
		{"lower-case scheme with space", "doi: 10.1/x", "10.1/x"},
		{"surrounding whitespace keeps body case", "  10.1/X ", "10.1/X"},
		{"empty", "", ""},
		{"whitespace only", " \t ", ""},
		{"scheme only", "doi:", ""},
		{"resolver then scheme", "https://doi.org/doi:10.1/x", "10.1/x"},
		{"scheme then resolver", "doi: https://doi.org/10.1/x", "10.1/x"},
		{"resolver not at start is kept", "see https://doi.org/10.1/x", "see https://doi.org/10.1/x"},
		{"other host untouched", "https://dx.doi.org/10.1/x", "https://dx.doi.org/10.1/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "10.1/x", "  10.1/X ", "DOI:10.1/x", "doi:doi:10.1/x",
		"https://doi.org/ 10.1/x", "doi: http://doi.org/DOI:10.1/x ",
		"http://doi.org/https://doi.org/10.1/x", "Doi:", "doi", "#comment",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("10.1145/1234567.1234568"))
	assert.True(t, Valid("https://doi.org/10.1038/nphys1170"))
	assert.False(t, Valid("not-a-doi"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("10.1/x")) // registrant code too short
}

func TestSelectedSetContains(t *testing.T) {
	s := NewSelectedSet("https://doi.org/10.1/ABC", "doi:10.2/def", "10.2/def", "  ")

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("10.1/ABC"))
	assert.True(t, s.Contains("10.2/def"))
	assert.False(t, s.Contains("10.1/abc"), "membership is exact-match")
	assert.False(t, s.Contains(""), "empty DOI is never selected")
}

func TestZeroSelectedSet(t *testing.T) {
	var s SelectedSet
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("10.1/x"))
}

func TestParseSelected(t *testing.T) {
	input := strings.Join([]string{
		"# curated highlights",
		"",
		"https://doi.org/10.1000/ABC",
		"   # indented comment",
		"DOI:10.1000/xyz",
		"10.1000/xyz",
		"   ",
		"http://doi.org/10.1000/Other  ",
	}, "\n")

	s, err := ParseSelected(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	for _, d := range []string{"10.1000/ABC", "10.1000/xyz", "10.1000/Other"} {
		assert.True(t, s.Contains(d), "expected %q in set", d)
	}
	assert.False(t, s.Contains("# curated highlights"))
}

func TestLoadSelected(t *testing.T) {
	t.Run("missing file is an empty set", func(t *testing.T) {
		s, err := LoadSelected(filepath.Join(t.TempDir(), "nope.txt"))
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("empty path is an empty set", func(t *testing.T) {
		s, err := LoadSelected("")
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "selected_dois.txt")
		require.NoError(t, os.WriteFile(path, []byte("# mine\n10.1234/one\nhttps://doi.org/10.1234/two\n"), 0o644))

		s, err := LoadSelected(path)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
		assert.True(t, s.Contains("10.1234/two"))
	})

	t.Run("directory is an error", func(t *testing.T) {
		_, err := LoadSelected(t.TempDir())
		assert.Error(t, err)
	})
}

func TestSelectedSetInvalid(t *testing.T) {
	s := NewSelectedSet("10.1234/ok", "zzz", "arXiv:2301.07041")
	assert.Equal(t, []string{"arXiv:2301.07041", "zzz"}, s.Invalid())
}
