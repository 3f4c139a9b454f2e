// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package s2 is a small client for the Semantic Scholar Academic Graph API,
// limited to listing an author's papers.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-export/internal/httputil"
)

// apiBase is the Academic Graph API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.semanticscholar.org/graph/v1"

// PaperURLBase prefixes a paperId to form its Semantic Scholar page.
const PaperURLBase = "https://www.semanticscholar.org/paper/"

// PaperFields are requested for every paper.
var PaperFields = []string{
	"title", "year", "authors", "venue", "publicationTypes", "publicationDate",
	"citationCount", "externalIds", "url", "paperId",
}

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultPageSize is the number of papers requested per page.
	DefaultPageSize = 500

	// MaxPageSize is the largest page the author papers endpoint accepts.
	MaxPageSize = 1000

	// RateLimit is one request per second, the allowance of a personal key.
	RateLimit = 1.0
)

// Client lists papers from the Semantic Scholar API, one rate-limited page
// at a time.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	userAgent  string
	baseURL    string
	pageSize   int
	maxRetries int
	progress   io.Writer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom API root (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithPageSize sets the page size, clamped to [1, MaxPageSize].
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		switch {
		case n <= 0:
			c.pageSize = DefaultPageSize
		case n > MaxPageSize:
			c.pageSize = MaxPageSize
		default:
			c.pageSize = n
		}
	}
}

// WithMaxRetries bounds retries of HTTP 429 responses.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRateLimit replaces the request rate limit. rate.Inf disables it.
func WithRateLimit(r rate.Limit) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, 1)
	}
}

// WithProgress sets where retry notices are written.
func WithProgress(w io.Writer) ClientOption {
	return func(c *Client) {
		c.progress = w
	}
}

// NewClient creates a Semantic Scholar client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		userAgent:  "scholar-export",
		baseURL:    apiBase,
		pageSize:   DefaultPageSize,
		maxRetries: httputil.DefaultMaxRetries,
		progress:   io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorPapers returns up to limit paper records for authorID, following
// the API's offset/next paging. Null and empty records count toward limit
// but are not returned. Any failed page aborts the whole listing.
func (c *Client) AuthorPapers(ctx context.Context, authorID string, limit int) ([]Record, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, fmt.Errorf("empty author ID")
	}
	if limit <= 0 {
		return nil, nil
	}

	var records []Record
	consumed, offset := 0, 0
	for consumed < limit {
		size := min(c.pageSize, limit-consumed)
		page, err := c.authorPapersPage(ctx, authorID, offset, size)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Data {
			if consumed >= limit {
				break
			}
			consumed++
			rec, ok, err := DecodeRecord(raw)
			if err != nil {
				return nil, fmt.Errorf("author %s, offset %d: %w", authorID, offset, err)
			}
			if ok {
				records = append(records, rec)
			}
		}

		if page.Next == nil || len(page.Data) == 0 || *page.Next <= offset {
			break
		}
		offset = *page.Next
	}
	return records, nil
}

// authorPapersPage fetches one page of /author/{id}/papers.
func (c *Client) authorPapersPage(ctx context.Context, authorID string, offset, size int) (*papersPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{
		"fields": {strings.Join(PaperFields, ",")},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(size)},
	}
	reqURL := c.baseURL + "/author/" + url.PathEscape(authorID) + "/papers?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries, c.progress)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
			AuthorID:   authorID,
		}
	}

	var page papersPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: parsing author papers: %v", ErrInvalidResponse, err)
	}
	return &page, nil
}

// errorMessage extracts the "error" or "message" field of an error body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(data) == 0 {
		return ""
	}
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(data))
}

// papersPage is one page of the author papers endpoint.
type papersPage struct {
	Offset int               `json:"offset"`
	Next   *int              `json:"next"`
	Data   []json.RawMessage `json:"data"`
}
