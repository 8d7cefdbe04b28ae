package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Entry is one unit of crawl work: a normalized URL and its link depth
// from the seeds.
type Entry struct {
	URL   string
	Depth int
}

// Frontier is the crawl queue: discovered-but-not-yet-processed URLs
// plus the visited-URL record that prevents reprocessing.
//
// Design decision: One mutex guards both the queue and the visited set
// so the visited check-and-insert is a single atomic step relative to
// enqueue. Two workers can therefore never fetch the same URL, and the
// page-count ceiling is enforced exactly.
type Frontier struct {
	// base is the configured origin. Only same-origin URLs are accepted.
	base *url.URL

	// maxDepth bounds link depth from the seeds.
	maxDepth int

	// maxPages bounds the number of URLs ever admitted to the queue.
	maxPages int

	mu      sync.Mutex
	queue   []Entry
	visited map[string]bool
}

// NewFrontier creates a Frontier for the given base origin.
func NewFrontier(base string, maxDepth, maxPages int) (*Frontier, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", base)
	}
	return &Frontier{
		base:     u,
		maxDepth: maxDepth,
		maxPages: maxPages,
		visited:  make(map[string]bool),
	}, nil
}

// Seed enqueues starting URLs at depth 0 and returns how many were
// accepted. Seeds pass through the same normalization and filters as
// discovered links.
func (f *Frontier) Seed(urls []string) int {
	accepted := 0
	for _, u := range urls {
		if f.Push(u, 0) {
			accepted++
		}
	}
	return accepted
}

// Push enqueues a discovered URL at the given depth. It returns false
// when the URL was rejected: malformed, cross-origin, already visited,
// beyond the depth bound, or past the page-count ceiling. The visited
// set is recorded in the same critical section as the enqueue.
func (f *Frontier) Push(rawURL string, depth int) bool {
	norm, ok := f.Normalize(rawURL)
	if !ok {
		return false
	}
	if depth > f.maxDepth {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited[norm] {
		return false
	}
	if len(f.visited) >= f.maxPages {
		return false
	}

	f.visited[norm] = true
	f.queue = append(f.queue, Entry{URL: norm, Depth: depth})
	return true
}

// Next pops the next candidate, or returns false when the queue is
// currently empty. An empty queue does not mean the crawl is over while
// workers are still in flight; the orchestrator tracks that.
func (f *Frontier) Next() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Entry{}, false
	}
	e := f.queue[0]
	f.queue = f.queue[1:]
	return e, true
}

// Normalize resolves rawURL against the base, strips the fragment and
// the scheme's default port, lowercases scheme and host, maps the empty
// path to "/" and collapses a trailing slash. The second return value
// is false for malformed or cross-origin URLs.
func (f *Frontier) Normalize(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	resolved := f.base.ResolveReference(u)
	resolved.Fragment = ""
	resolved.Scheme = strings.ToLower(resolved.Scheme)
	resolved.Host = stripDefaultPort(resolved.Scheme, strings.ToLower(resolved.Host))
	if resolved.Path == "" {
		resolved.Path = "/"
	}
	// "/visas/" and "/visas" are the same resource; the root path stays.
	if resolved.Path != "/" {
		resolved.Path = strings.TrimSuffix(resolved.Path, "/")
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	baseHost := stripDefaultPort(strings.ToLower(f.base.Scheme), strings.ToLower(f.base.Host))
	if resolved.Host != baseHost {
		return "", false
	}

	return resolved.String(), true
}

// stripDefaultPort removes an explicit port that merely restates the
// scheme's default, so both spellings dedup as one URL.
func stripDefaultPort(scheme, host string) string {
	switch scheme {
	case "http":
		return strings.TrimSuffix(host, ":80")
	case "https":
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// Stats reports frontier state for observability.
func (f *Frontier) Stats() FrontierStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FrontierStats{
		Queued:  len(f.queue),
		Visited: len(f.visited),
	}
}

// FrontierStats is a point-in-time snapshot of the frontier.
type FrontierStats struct {
	// Queued is the number of URLs waiting to be processed.
	Queued int

	// Visited is the number of unique URLs ever admitted.
	Visited int
}
