package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// Package-level sentinels so callers can use errors.Is while still
// getting a human-readable message.
var (
	// ErrNoBaseURL is returned when no base URL is configured.
	ErrNoBaseURL = errors.New("no base URL specified: set baseURL in the config file or pass --base-url")

	// ErrInvalidBaseURL is returned when the base URL does not parse
	// as an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute URL with scheme and host")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page ceiling is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidDelay is returned when the politeness delay bounds are
	// negative or inverted.
	ErrInvalidDelay = errors.New("invalid delay: min must be non-negative and max must be >= min")

	// ErrInvalidMaxRetries is returned when the retry ceiling is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidFetchTimeout is returned when the fetch timeout is not positive.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidThreshold is returned when the classifier threshold is
	// outside 0-100.
	ErrInvalidThreshold = errors.New("invalid threshold: must be between 0 and 100")
)
