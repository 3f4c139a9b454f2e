// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package s2

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the Semantic Scholar client.
var (
	// ErrNotFound indicates the author does not exist.
	ErrNotFound = errors.New("not found in Semantic Scholar")

	// ErrAuth indicates a rejected or malformed API key.
	ErrAuth = errors.New("Semantic Scholar authentication error")

	// ErrRateLimited indicates the rate limit was still exceeded after retries.
	ErrRateLimited = errors.New("Semantic Scholar rate limit exceeded")

	// ErrInvalidResponse indicates a response body that could not be parsed.
	ErrInvalidResponse = errors.New("invalid response from Semantic Scholar")
)

// APIError represents a non-2xx response from the Semantic Scholar API.
type APIError struct {
	StatusCode int
	Message    string // "error" or "message" field of the body, if any
	AuthorID   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.AuthorID != "" {
		return fmt.Sprintf("Semantic Scholar API error (status %d): %s (author: %s)", e.StatusCode, msg, e.AuthorID)
	}
	return fmt.Sprintf("Semantic Scholar API error (status %d): %s", e.StatusCode, msg)
}

// Unwrap maps well-known statuses onto the sentinel errors so callers can
// use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// IsNotFound returns true if the error indicates a missing author.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsProviderError reports whether err came from talking to the provider,
// as opposed to local configuration or filesystem trouble.
func IsProviderError(err error) bool {
	var apiErr *APIError
	var reqErr *RequestError
	return errors.As(err, &apiErr) || errors.As(err, &reqErr) || errors.Is(err, ErrInvalidResponse)
}

// RequestError wraps a transport failure (DNS, connection reset, timeout).
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Semantic Scholar API request: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
