package crawler

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// Guard enforces crawl politeness for one host: robots.txt compliance
// and a randomized inter-request delay. One Guard exists per host so
// politeness state is never shared across hosts.
type Guard struct {
	// group holds the parsed robots.txt rules for our user agent.
	// Nil means allow-all (robots disabled or unavailable).
	group *robotstxt.Group

	// minDelay and maxDelay bound the randomized delay applied before
	// every fetch, retries included.
	minDelay time.Duration
	maxDelay time.Duration

	logger *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithDelayRange sets the politeness delay bounds.
func WithDelayRange(minDelay, maxDelay time.Duration) GuardOption {
	return func(g *Guard) {
		g.minDelay = minDelay
		g.maxDelay = maxDelay
	}
}

// WithGuardLogger sets a custom logger for the guard.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard creates a Guard for the host of baseURL. When honorRobots is
// set it fetches robots.txt once, best-effort: a fetch failure logs a
// warning and the guard defaults to allow-all. The robots fetch itself
// is not subject to the politeness delay.
func NewGuard(ctx context.Context, client *http.Client, baseURL, userAgent string, honorRobots bool, opts ...GuardOption) *Guard {
	g := &Guard{
		minDelay: 500 * time.Millisecond,
		maxDelay: 1500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	if !honorRobots {
		return g
	}

	robotsURL, err := url.Parse(baseURL)
	if err != nil {
		g.logger.Warn("invalid base URL for robots.txt, allowing all", "baseURL", baseURL, "error", err)
		return g
	}
	robotsURL.Path = "/robots.txt"
	robotsURL.RawQuery = ""
	robotsURL.Fragment = ""

	data, status, err := fetchRobots(ctx, client, robotsURL.String(), userAgent)
	if err != nil {
		g.logger.Warn("robots.txt fetch failed, allowing all", "url", robotsURL.String(), "error", err)
		return g
	}

	robots, err := robotstxt.FromStatusAndBytes(status, data)
	if err != nil {
		g.logger.Warn("robots.txt parse failed, allowing all", "url", robotsURL.String(), "error", err)
		return g
	}

	g.group = robots.FindGroup(userAgent)
	g.logger.Debug("robots.txt loaded", "url", robotsURL.String(), "status", status)
	return g
}

// fetchRobots retrieves robots.txt bytes and status.
func fetchRobots(ctx context.Context, client *http.Client, robotsURL, userAgent string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	// robots.txt files are small; 512KB is far beyond any real one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

// Allowed reports whether the configured user agent may fetch rawURL
// according to the loaded robots rules. Allow-all when no rules loaded.
func (g *Guard) Allowed(rawURL string) bool {
	if g.group == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return g.group.Test(path)
}

// Wait blocks for a uniformly random duration in [minDelay, maxDelay].
// This is the politeness contract: it runs before every fetch,
// including retries. It returns early with the context's error on
// cancellation.
func (g *Guard) Wait(ctx context.Context) error {
	d := g.minDelay
	if spread := g.maxDelay - g.minDelay; spread > 0 {
		d += rand.N(spread)
	}
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
