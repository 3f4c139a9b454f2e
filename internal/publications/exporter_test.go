// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-export/internal/s2"
	"github.com/pdiddy/scholar-export/pkg/types"
)

// --- test doubles ---

type fakeFetcher struct {
	records []s2.Record
	err     error

	calls    int
	authorID string
	limit    int
}

func (f *fakeFetcher) AuthorPapers(_ context.Context, authorID string, limit int) ([]s2.Record, error) {
	f.calls++
	f.authorID = authorID
	f.limit = limit
	return f.records, f.err
}

type fakeIndex struct {
	docs []types.ExportDocument
	err  error
}

func (f *fakeIndex) Replace(_ context.Context, doc types.ExportDocument) error {
	f.docs = append(f.docs, doc)
	return f.err
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }

func testConfig(t *testing.T) types.ExportConfig {
	t.Helper()
	dir := t.TempDir()
	return types.ExportConfig{
		AuthorID:     "1741101",
		OutPath:      filepath.Join(dir, "data", "publications.json"),
		SelectedPath: filepath.Join(dir, "data", "selected_dois.txt"),
		Limit:        2000,
		Format:       types.FormatJSON,
	}
}

func writeSelected(t *testing.T, cfg types.ExportConfig, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.SelectedPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.SelectedPath, []byte(content), 0o644))
}

func sampleRecords() []s2.Record {
	return []s2.Record{
		s2.MapRecord{"title": "Alpha", "year": 2020.0, "citationCount": 5.0,
			"externalIds": map[string]any{"DOI": "10.1000/ABC"}, "paperId": "a"},
		s2.MapRecord{"title": "Mid", "year": 2021.0, "citationCount": 1.0, "paperId": "m"},
		s2.MapRecord{"title": "Zeta", "year": 2020.0, "citationCount": 5.0,
			"externalIds": map[string]any{"DOI": "10.1000/zzz"}, "url": "https://z.example"},
		nil,
	}
}

// --- Run ---

func TestRunWritesSortedFlaggedDocument(t *testing.T) {
	cfg := testConfig(t)
	writeSelected(t, cfg, "# highlights\nhttps://doi.org/10.1000/ABC\n")

	fetcher := &fakeFetcher{records: sampleRecords()}
	var out bytes.Buffer
	e := &Exporter{Fetcher: fetcher, Config: cfg, Now: fixedNow, Out: &out}

	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "1741101", fetcher.authorID)
	assert.Equal(t, 2000, fetcher.limit)

	assert.Equal(t, []string{"Mid", "Zeta", "Alpha"}, titles(doc.Items))
	assert.Equal(t, 3, doc.Counts.Total)
	assert.True(t, doc.Items[2].Selected)
	assert.False(t, doc.Items[1].Selected)
	assert.Equal(t, "https://www.semanticscholar.org/paper/m", doc.Items[0].URL)
	assert.Equal(t, 1, SelectedCount(doc))

	assert.Equal(t, fmt.Sprintf("Wrote %s: 3 item(s).\n", cfg.OutPath), out.String())

	written, err := ReadDocument(cfg.OutPath)
	require.NoError(t, err)
	assert.Equal(t, doc, written)
	assert.Equal(t, "2026-10-17", written.UpdatedAt)
	assert.Equal(t, "author:1741101", written.Source.Via)
	assert.Equal(t, len(written.Items), written.Counts.Total)
}

func TestRunWithoutSelectedFile(t *testing.T) {
	cfg := testConfig(t)
	e := &Exporter{Fetcher: &fakeFetcher{records: sampleRecords()}, Config: cfg, Now: fixedNow}

	doc, err := e.Run(context.Background())
	require.NoError(t, err)
	for _, it := range doc.Items {
		assert.False(t, it.Selected, "item %q", it.Title)
	}
}

func TestRunMissingAuthorID(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthorID = "  "
	fetcher := &fakeFetcher{}
	e := &Exporter{Fetcher: fetcher, Config: cfg}

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, fetcher.calls, "no provider call without an author")
	assert.NoFileExists(t, cfg.OutPath)
}

func TestRunProviderErrorWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	providerErr := &s2.APIError{StatusCode: http.StatusInternalServerError}
	index := &fakeIndex{}
	var out bytes.Buffer
	e := &Exporter{Fetcher: &fakeFetcher{err: providerErr}, Config: cfg, Index: index, Out: &out}

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, providerErr) || s2.IsProviderError(err))
	assert.NoFileExists(t, cfg.OutPath)
	assert.Empty(t, index.docs)
	assert.Empty(t, out.String())
}

func TestRunProviderErrorKeepsPreviousFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.OutPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.OutPath, []byte(`{"previous":true}`), 0o644))

	e := &Exporter{Fetcher: &fakeFetcher{err: errors.New("boom")}, Config: cfg}
	_, err := e.Run(context.Background())
	require.Error(t, err)

	data, err := os.ReadFile(cfg.OutPath)
	require.NoError(t, err)
	assert.Equal(t, `{"previous":true}`, string(data))
}

func TestRunOverwritesPreviousFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.OutPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.OutPath, []byte(`{"items":[{"title":"stale"}],"extra":1}`), 0o644))

	e := &Exporter{Fetcher: &fakeFetcher{records: sampleRecords()[:1]}, Config: cfg, Now: fixedNow}
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.OutPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.NotContains(t, string(data), "extra")
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeSelected(t, cfg, "10.1000/zzz\n")
	e := &Exporter{Fetcher: &fakeFetcher{records: sampleRecords()}, Config: cfg, Now: fixedNow}

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.OutPath)
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.OutPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRunYAMLFormat(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = types.FormatYAML
	cfg.OutPath = filepath.Join(filepath.Dir(cfg.OutPath), "publications.yaml")

	e := &Exporter{Fetcher: &fakeFetcher{records: sampleRecords()}, Config: cfg, Now: fixedNow}
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.OutPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "updatedAt: \"2026-10-17\"")
	assert.Contains(t, string(data), "via: author:1741101")
}

func TestRunUpdatesIndex(t *testing.T) {
	cfg := testConfig(t)
	index := &fakeIndex{}
	e := &Exporter{Fetcher: &fakeFetcher{records: sampleRecords()}, Config: cfg, Index: index, Now: fixedNow}

	doc, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, index.docs, 1)
	assert.Equal(t, doc, index.docs[0])
}

func TestRunIndexErrorAfterWrite(t *testing.T) {
	cfg := testConfig(t)
	index := &fakeIndex{err: errors.New("disk I/O error")}
	e := &Exporter{Fetcher: &fakeFetcher{records: sampleRecords()}, Config: cfg, Index: index, Now: fixedNow}

	_, err := e.Run(context.Background())
	assert.ErrorContains(t, err, "updating index")
	assert.FileExists(t, cfg.OutPath)
}

func TestRunWarnsAboutNonDOISelections(t *testing.T) {
	cfg := testConfig(t)
	writeSelected(t, cfg, "10.1000/ABC\nnot a doi\n")
	var log bytes.Buffer
	e := &Exporter{Fetcher: &fakeFetcher{}, Config: cfg, Log: &log, Now: fixedNow}

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, log.String(), `selected entry "not a doi" does not look like a DOI`)
}

// TestRunAgainstProvider drives the exporter through the real client and an
// httptest server standing in for Semantic Scholar.
func TestRunAgainstProvider(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/author/42/papers" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"offset":0,"data":[
			{"paperId":"p1","title":"Zeta","year":2020,"citationCount":5,"externalIds":{"DOI":"10.1000/Z"},
			 "authors":[{"name":"A. Smith"},{"name":""},{"name":" B. Lee "}],"publicationTypes":null},
			null,
			{"paperId":"p2","title":"Alpha","year":"2020","citationCount":5,"authors":["C. Wu"]},
			{"paperId":"p3","title":"Mid","year":2021,"citationCount":1,"url":""}
		]}`)
	}))
	defer ts.Close()

	client := s2.NewClient(s2.WithHTTPClient(ts.Client()), s2.WithBaseURL(ts.URL), s2.WithRateLimit(rate.Inf))

	cfg := testConfig(t)
	cfg.AuthorID = "42"
	writeSelected(t, cfg, "doi:10.1000/Z\n")

	e := &Exporter{Fetcher: client, Config: cfg, Now: fixedNow}
	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, doc.Items, 3)
	assert.Equal(t, []string{"Mid", "Zeta", "Alpha"}, titles(doc.Items))

	mid, zeta, alpha := doc.Items[0], doc.Items[1], doc.Items[2]
	assert.Equal(t, "https://www.semanticscholar.org/paper/p3", mid.URL)
	assert.Equal(t, "A. Smith, B. Lee", zeta.Authors)
	assert.True(t, zeta.Selected)
	assert.Equal(t, []string{}, zeta.PublicationTypes)
	assert.Equal(t, "C. Wu", alpha.Authors)
	assert.Equal(t, types.YearText("2020"), alpha.Year)
	assert.False(t, alpha.Selected)
}

func TestRunAgainstMissingAuthor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"Author not found"}`)
	}))
	defer ts.Close()

	client := s2.NewClient(s2.WithHTTPClient(ts.Client()), s2.WithBaseURL(ts.URL), s2.WithRateLimit(rate.Inf))
	cfg := testConfig(t)
	e := &Exporter{Fetcher: client, Config: cfg}

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, s2.IsNotFound(err))
	assert.True(t, s2.IsProviderError(err))
	assert.NoFileExists(t, cfg.OutPath)
}
