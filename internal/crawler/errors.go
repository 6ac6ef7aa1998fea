package crawler

import (
	"errors"
	"fmt"
)

// ErrMalformedConfig is the parent of all configuration errors returned by
// Spider.Traverse. They are detected before any network activity.
var ErrMalformedConfig = errors.New("malformed crawl config")

// Configuration errors. Each one matches ErrMalformedConfig with errors.Is.
var (
	// ErrNoSeeds is returned when the seed list is empty.
	ErrNoSeeds = fmt.Errorf("%w: no seed URLs", ErrMalformedConfig)

	// ErrNegativeDepth is returned when MaxDepth is below zero.
	ErrNegativeDepth = fmt.Errorf("%w: max depth must not be negative", ErrMalformedConfig)

	// ErrNegativeMaxPages is returned when MaxPages is below zero.
	ErrNegativeMaxPages = fmt.Errorf("%w: max pages must not be negative", ErrMalformedConfig)

	// ErrInvalidSeed is returned when a seed is not an absolute http(s) URL.
	ErrInvalidSeed = fmt.Errorf("%w: invalid seed URL", ErrMalformedConfig)
)

// FetchError describes a failed page fetch.
// Fetch errors are never fatal to a traversal.
type FetchError struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
