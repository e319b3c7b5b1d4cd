package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product id is not in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidProduct is returned when a product fails validation
	ErrInvalidProduct = errors.New("invalid product")

	// ErrEmptyCatalog is returned when an analysis is requested with no products registered
	ErrEmptyCatalog = errors.New("product catalog is empty")

	// ErrNoText is returned when no text could be extracted from a document
	ErrNoText = errors.New("no text available")

	// ErrUnsupportedFormat is returned for document formats the extractor cannot read
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrDocumentTooLarge is returned when a document exceeds the configured size limit
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrFetchFailure is returned when a remote document cannot be downloaded
	ErrFetchFailure = errors.New("document fetch failed")

	// ErrRobotsDisallowed is returned when robots.txt forbids fetching a URL
	ErrRobotsDisallowed = errors.New("fetch disallowed by robots.txt")

	// ErrAnalysisNotFound is returned when an analysis id is not in the history
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrJobNotFound is returned when a job id is unknown or was pruned
	ErrJobNotFound = errors.New("job not found")

	// ErrWorkersBusy is returned when the job queue cannot accept more work
	ErrWorkersBusy = errors.New("analysis workers busy")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
