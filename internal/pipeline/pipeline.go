package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dohadev/visaingest/internal/classifier"
	"github.com/dohadev/visaingest/internal/config"
	"github.com/dohadev/visaingest/internal/crawler"
	"github.com/dohadev/visaingest/internal/extractor"
	"github.com/dohadev/visaingest/internal/loader"
)

// Summary aggregates what one ingestion run did. All counters are
// totals over the run.
type Summary struct {
	// PagesCrawled counts successful fetches.
	PagesCrawled int

	// PagesLoaded counts pages stored or refreshed (New + Updated +
	// Unchanged).
	PagesLoaded int

	// New, Updated and Unchanged break PagesLoaded down by load outcome.
	New       int
	Updated   int
	Unchanged int

	// Skipped counts pages rejected by the content classifier, missing
	// a title, or disallowed by robots.txt.
	Skipped int

	// Errors counts pages that failed permanently (fetch errors after
	// retries, parse errors, store errors).
	Errors int

	// ErrorDetails holds one line per counted error.
	ErrorDetails []string

	// URLsSeen is the number of unique URLs admitted to the frontier.
	URLsSeen int

	// Elapsed is the wall-clock run duration.
	Elapsed time.Duration
}

// Pipeline wires the crawl frontier, politeness guard, fetcher,
// classifier, extractor and loader into one ingestion run.
type Pipeline struct {
	cfg        *config.Config
	frontier   *crawler.Frontier
	guard      *crawler.Guard
	fetcher    crawler.Fetcher
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	loader     *loader.Loader
	logger     *slog.Logger

	// mu guards summary during the run.
	mu      sync.Mutex
	summary Summary
}

// New creates a Pipeline. The guard, fetcher and loader are injected so
// tests can substitute fixtures; frontier, classifier and extractor are
// derived from the configuration.
func New(cfg *config.Config, guard *crawler.Guard, fetcher crawler.Fetcher, ldr *loader.Loader, logger *slog.Logger) (*Pipeline, error) {
	frontier, err := crawler.NewFrontier(cfg.BaseURL, cfg.MaxDepth, cfg.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		cfg:        cfg,
		frontier:   frontier,
		guard:      guard,
		fetcher:    fetcher,
		classifier: classifier.New(cfg),
		extractor:  extractor.New(cfg),
		loader:     ldr,
		logger:     logger,
	}, nil
}

// Run executes one ingestion run to completion: seeds the frontier,
// processes every admitted URL through fetch, classification,
// extraction and loading, and returns the run summary. Per-page
// failures are counted in the summary, never aborting the run; Run
// itself fails only on context cancellation.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	seeds := p.cfg.Seeds
	if len(seeds) == 0 {
		seeds = []string{p.cfg.BaseURL}
	}
	accepted := p.seed(seeds)
	p.logger.Info("crawl starting",
		"base_url", p.cfg.BaseURL,
		"seeds", accepted,
		"max_depth", p.cfg.MaxDepth,
		"max_pages", p.cfg.MaxPages,
		"workers", p.cfg.Workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	// active tracks in-flight workers so an empty queue is only
	// terminal once nothing can still discover links.
	var active atomic.Int64

dispatch:
	for {
		select {
		case <-gctx.Done():
			break dispatch
		default:
		}

		entry, ok := p.frontier.Next()
		if !ok {
			if active.Load() == 0 {
				break
			}
			time.Sleep(20 * time.Millisecond)
			continue
		}

		active.Add(1)
		g.Go(func() error {
			defer active.Add(-1)
			p.process(gctx, entry)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	summary := p.summary
	p.mu.Unlock()
	summary.URLsSeen = p.frontier.Stats().Visited
	summary.Elapsed = time.Since(start)

	p.logger.Info("crawl finished",
		"crawled", summary.PagesCrawled,
		"new", summary.New,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"elapsed", summary.Elapsed,
	)
	return &summary, nil
}

// seed enqueues the starting URLs, applying the same URL-stage filter
// links get. The base URL itself bypasses the keyword filter: an
// operator pointing the tool at a portal section means it, even when
// the section path carries no recognized keyword.
func (p *Pipeline) seed(seeds []string) int {
	keep := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if s != p.cfg.BaseURL {
			if res := p.classifier.URLStage(s); !res.Accept {
				p.logger.Debug("seed rejected by url stage", "url", s, "score", res.Score)
				continue
			}
		}
		keep = append(keep, s)
	}
	return p.frontier.Seed(keep)
}

// process runs one URL through the whole pipeline: politeness, fetch
// with retries, link discovery, content classification, extraction and
// loading. Failures are recorded in the summary.
func (p *Pipeline) process(ctx context.Context, entry crawler.Entry) {
	if !p.guard.Allowed(entry.URL) {
		p.logger.Debug("disallowed by robots.txt", "url", entry.URL)
		p.addSkipped()
		return
	}

	res, err := p.fetchWithRetry(ctx, entry.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.addError(fmt.Sprintf("%s: %v", entry.URL, err))
		p.logger.Warn("fetch failed", "url", entry.URL, "error", err)
		return
	}
	p.addCrawled()

	if ct := res.ContentType; ct != "" && !strings.Contains(ct, "html") {
		p.logger.Debug("skipping non-HTML response", "url", entry.URL, "content_type", ct)
		p.addSkipped()
		return
	}

	doc, err := extractor.Parse(entry.URL, res.ContentType, res.Body)
	if err != nil {
		p.addError(fmt.Sprintf("%s: %v", entry.URL, err))
		p.logger.Warn("parse failed", "url", entry.URL, "error", err)
		return
	}

	// Link discovery runs before the content gate: an off-topic hub
	// page still links to the detail pages we want.
	p.discoverLinks(doc, entry.Depth)

	sig := classifier.Signals{
		Title:           extractor.Title(doc),
		MetaDescription: extractor.MetaDescription(doc),
		Headings:        extractor.Headings(doc),
		BodyText:        extractor.FullText(doc),
		LinkHosts:       linkHosts(doc),
	}
	verdict := p.classifier.ContentStage(entry.URL, sig)
	if !verdict.Accept {
		p.logger.Debug("rejected by content stage",
			"url", entry.URL,
			"score", verdict.Score,
			"reasons", strings.Join(verdict.Reasons, "; "),
		)
		p.addSkipped()
		return
	}

	draft, err := p.extractor.Extract(doc)
	if err != nil {
		if errors.Is(err, extractor.ErrNoTitle) {
			p.logger.Debug("no usable title", "url", entry.URL)
			p.addSkipped()
			return
		}
		p.addError(fmt.Sprintf("%s: %v", entry.URL, err))
		return
	}

	outcome, err := p.loader.Load(ctx, res, draft)
	if err != nil {
		p.addError(fmt.Sprintf("%s: %v", entry.URL, err))
		p.logger.Warn("load failed", "url", entry.URL, "error", err)
		return
	}
	p.addOutcome(outcome)
}

// fetchWithRetry fetches a URL, retrying transient failures up to the
// configured ceiling. The politeness delay runs before every attempt,
// retries included.
func (p *Pipeline) fetchWithRetry(ctx context.Context, rawURL string) (*crawler.FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if err := p.guard.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := p.fetcher.Fetch(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !crawler.IsTransient(err) {
			return nil, err
		}
		p.logger.Debug("transient fetch failure, retrying",
			"url", rawURL,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, lastErr
}

// discoverLinks pushes the document's same-origin links that pass the
// URL-stage filter onto the frontier at the next depth.
func (p *Pipeline) discoverLinks(doc extractor.Document, depth int) {
	for _, link := range extractor.Links(doc) {
		norm, ok := p.frontier.Normalize(link.URL)
		if !ok {
			continue
		}
		if res := p.classifier.URLStage(norm); !res.Accept {
			continue
		}
		p.frontier.Push(norm, depth+1)
	}
}

// linkHosts returns the hostnames of every resolved link on the page.
func linkHosts(doc extractor.Document) []string {
	var hosts []string
	for _, link := range extractor.Links(doc) {
		if h := classifier.HostOf(link.URL); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func (p *Pipeline) addCrawled() {
	p.mu.Lock()
	p.summary.PagesCrawled++
	p.mu.Unlock()
}

func (p *Pipeline) addSkipped() {
	p.mu.Lock()
	p.summary.Skipped++
	p.mu.Unlock()
}

func (p *Pipeline) addError(detail string) {
	p.mu.Lock()
	p.summary.Errors++
	p.summary.ErrorDetails = append(p.summary.ErrorDetails, detail)
	p.mu.Unlock()
}

func (p *Pipeline) addOutcome(o loader.Outcome) {
	p.mu.Lock()
	p.summary.PagesLoaded++
	switch o {
	case loader.OutcomeNew:
		p.summary.New++
	case loader.OutcomeUpdated:
		p.summary.Updated++
	case loader.OutcomeUnchanged:
		p.summary.Unchanged++
	}
	p.mu.Unlock()
}
