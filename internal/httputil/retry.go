// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for provider clients.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 5 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After may hold us.
var MaxRetryAfter = 2 * time.Minute

// DefaultMaxRetries is used when the caller passes maxRetries <= 0.
const DefaultMaxRetries = 3

// DoWithRetry executes an HTTP request and retries only on HTTP 429 (Too
// Many Requests). Every other status, and every transport error, is returned
// to the caller on the first attempt.
//
// The wait before retry n (0-based) is the Retry-After header when the server
// sends one in seconds, otherwise RetryBaseDelay doubled n times. Each wait is
// reported on w (nil discards). A cancelled context during the wait returns
// ctx.Err(). After maxRetries retries the last 429 response is returned so the
// caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, w io.Writer) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if w == nil {
		w = io.Discard
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := Backoff(attempt)
		if ra, ok := RetryAfter(resp.Header); ok {
			wait = ra
		}
		fmt.Fprintf(w, "rate limited, retrying in %v (attempt %d/%d)\n", wait, attempt+1, maxRetries)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Backoff returns RetryBaseDelay doubled attempt times.
func Backoff(attempt int) time.Duration {
	return RetryBaseDelay << uint(attempt)
}

// RetryAfter parses a Retry-After header given in whole seconds. HTTP-date
// values and negative numbers are ignored. The result is capped at
// MaxRetryAfter.
func RetryAfter(h http.Header) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d, true
}
