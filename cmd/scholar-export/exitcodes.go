// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	"github.com/pdiddy/scholar-export/internal/config"
	"github.com/pdiddy/scholar-export/internal/s2"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (filesystem, index, cancelled)
	ExitConfigError = 2 // Configuration or usage error (missing author ID, bad flag)
	ExitAPIError    = 3 // Provider error (HTTP status, network, malformed response)
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case s2.IsProviderError(err):
		return ExitAPIError
	default:
		return ExitError
	}
}
