package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// FetchResult is the outcome of a successful fetch: the raw body plus
// the response metadata the loader persists on the Source.
type FetchResult struct {
	// URL is the fetched URL.
	URL string

	// Body is the raw response body, capped at the configured size.
	Body []byte

	// StatusCode is the HTTP status code.
	StatusCode int

	// ETag is the ETag response header, empty when absent.
	ETag string

	// ContentType is the Content-Type response header.
	ContentType string

	// FetchedAt is the wall-clock time the response was received.
	FetchedAt time.Time
}

// Fetcher retrieves a URL's content. The production implementation is
// HTTPFetcher; tests substitute fixtures behind this interface.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// FetchError classifies a failed fetch. Transient failures (timeout,
// connection reset) are retried up to the configured ceiling; permanent
// failures (4xx/5xx, malformed URL) are dropped immediately.
type FetchError struct {
	// URL is the URL whose fetch failed.
	URL string

	// Transient marks failures worth retrying.
	Transient bool

	// StatusCode is the HTTP status for application-level failures,
	// zero for transport-level ones.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("fetch %s: %s failure: %v", e.URL, kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus is wrapped by FetchError for 4xx/5xx responses.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// IsTransient reports whether err is a fetch failure worth retrying.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}

// HTTPFetcher fetches pages over plain HTTP.
//
// Design decision: A lightweight HTTP-only fetch rather than headless
// rendering. Government portals serve their visa content server-side;
// isolating fetching behind the Fetcher interface means a rendering
// fetcher could substitute later without touching crawl logic.
type HTTPFetcher struct {
	// client is the shared HTTP client.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize caps the response body size read.
	maxBodySize int64

	// timeout is the hard per-request timeout.
	timeout time.Duration
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithTimeout sets the hard per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// NewHTTPFetcher creates an HTTPFetcher over the given client.
// The client is injected so tests can point it at fixtures and the
// orchestrator controls transport configuration in one place.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   "visaingest/1.0",
		maxBodySize: 5 * 1024 * 1024,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawURL and classifies any failure as transient or
// permanent. A 4xx/5xx response is a permanent *FetchError wrapping
// ErrHTTPStatus; timeouts and transport errors are transient.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Transient: false, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en,ar;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Transient: isTransportTransient(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &FetchError{
			URL:        rawURL,
			Transient:  false,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Transient: true, Err: err}
	}

	return &FetchResult{
		URL:         rawURL,
		Body:        body,
		StatusCode:  resp.StatusCode,
		ETag:        resp.Header.Get("ETag"),
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now(),
	}, nil
}

// isTransportTransient classifies transport-level errors. Timeouts,
// cancelled deadlines and connection resets are all worth retrying;
// anything else transport-level (DNS failure, refused connection) is
// treated the same way since the next attempt may succeed.
func isTransportTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// url.Error wraps transport failures that don't implement
	// net.Error, e.g. EOF from a reset connection.
	return true
}
