package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoTopic is returned when no research topic is selected.
	ErrNoTopic = errors.New("no topic specified: provide a topic name or use --all")

	// ErrInvalidTimeout is returned when the run timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRequestTimeout is returned when the request timeout is not positive.
	ErrInvalidRequestTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidConcurrency is returned when the seed concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidDepth is returned when the depth override is below -1.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)

// Research file errors.
var (
	// ErrConfigNotFound is returned when the research file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrUnknownTopic is returned when a topic name is not defined.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrInvalidTopic is returned when a topic definition is incomplete.
	ErrInvalidTopic = errors.New("invalid topic")
)
