package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dohadev/visaingest/internal/crawler"
	"github.com/dohadev/visaingest/internal/extractor"
	"github.com/dohadev/visaingest/internal/model"
)

// Store is the persistence capability the loader depends on.
// *database.Store implements it; the narrow interface also gives tests
// a seam to inject write failures.
type Store interface {
	GetSourceByURL(ctx context.Context, url string) (*model.Source, error)
	InsertSource(ctx context.Context, src *model.Source) error
	TouchSource(ctx context.Context, id int64, statusCode int, etag string, fetchedAt time.Time) error
	GetPageBySource(ctx context.Context, sourceID int64) (*model.Page, error)
	SavePage(ctx context.Context, page *model.Page) error
	ReplaceVisaTypes(ctx context.Context, pageID int64, types []model.VisaType) error
	ApplyContentChange(ctx context.Context, src *model.Source, page *model.Page, types []model.VisaType, change *model.Change) error
}

// Outcome classifies what loading one page did to the store.
type Outcome int

const (
	// OutcomeNew means the URL had no stored content before this load.
	OutcomeNew Outcome = iota

	// OutcomeUpdated means stored content existed and differed; the
	// page was regenerated and a change record appended.
	OutcomeUpdated

	// OutcomeUnchanged means the fetched bytes matched the stored
	// content hash; only fetch metadata was touched.
	OutcomeUnchanged
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNew:
		return "new"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Loader persists fetch results and extraction drafts, detecting
// content changes against the stored hash and appending change records.
type Loader struct {
	store  Store
	logger *slog.Logger

	// mu guards the per-URL locks map.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Loader backed by the given store.
func New(store Store, logger *slog.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// urlLock returns the mutex serializing loads of one URL, creating it
// on first use. Concurrent workers never race on the same source row.
func (l *Loader) urlLock(url string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[url]
	if !ok {
		m = &sync.Mutex{}
		l.locks[url] = m
	}
	return m
}

// Load persists one fetched and extracted page. The three outcomes:
//
//   - the URL was never stored: source, page and visa types are created
//   - the stored content hash differs: the source update, page
//     regeneration, change-record append and visa-type rebuild are
//     applied as one atomic unit
//   - the hashes match: only the source's fetch metadata is touched
//
// The change log is append-only.
func (l *Loader) Load(ctx context.Context, fetch *crawler.FetchResult, draft *extractor.Draft) (Outcome, error) {
	lock := l.urlLock(fetch.URL)
	lock.Lock()
	defer lock.Unlock()

	src, err := l.store.GetSourceByURL(ctx, fetch.URL)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", fetch.URL, err)
	}

	if src == nil {
		return l.loadNew(ctx, fetch, draft)
	}

	newHash := model.HashBytes(fetch.Body)
	if newHash == src.ContentHash {
		if err := l.store.TouchSource(ctx, src.ID, fetch.StatusCode, fetch.ETag, fetch.FetchedAt); err != nil {
			return 0, fmt.Errorf("load %s: %w", fetch.URL, err)
		}
		l.logger.Debug("content unchanged", "url", fetch.URL)
		return OutcomeUnchanged, nil
	}

	return l.loadChanged(ctx, src, fetch, draft)
}

// loadNew stores a never-seen URL: source, page and visa types.
func (l *Loader) loadNew(ctx context.Context, fetch *crawler.FetchResult, draft *extractor.Draft) (Outcome, error) {
	src := &model.Source{
		URL:           fetch.URL,
		FirstSeenAt:   fetch.FetchedAt,
		LastFetchedAt: fetch.FetchedAt,
		StatusCode:    fetch.StatusCode,
		ETag:          fetch.ETag,
		RawHTML:       fetch.Body,
	}
	src.ComputeHashes()

	if err := l.store.InsertSource(ctx, src); err != nil {
		return 0, fmt.Errorf("load %s: %w", fetch.URL, err)
	}
	if err := l.savePageAndTypes(ctx, src.ID, draft); err != nil {
		return 0, fmt.Errorf("load %s: %w", fetch.URL, err)
	}

	l.logger.Info("new page stored",
		"url", fetch.URL,
		"title", draft.Page.Title,
		"visa_types", len(draft.VisaTypes),
	)
	return OutcomeNew, nil
}

// loadChanged handles a known URL whose content hash changed. The diff
// against the old page text is computed first, then the source update,
// page regeneration, change append and visa-type rebuild are handed to
// the store as one atomic unit, so a partial failure can never advance
// the hash while losing the change record. A source without a prior
// page (an earlier run fetched it but extraction skipped it) has no
// diff baseline and is stored as new.
func (l *Loader) loadChanged(ctx context.Context, src *model.Source, fetch *crawler.FetchResult, draft *extractor.Draft) (Outcome, error) {
	oldPage, err := l.store.GetPageBySource(ctx, src.ID)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", fetch.URL, err)
	}

	src.RawHTML = fetch.Body
	src.ContentHash = model.HashBytes(fetch.Body)
	src.LastFetchedAt = fetch.FetchedAt
	src.StatusCode = fetch.StatusCode
	src.ETag = fetch.ETag

	var change *model.Change
	if oldPage != nil {
		diff := DiffText(oldPage.FullText, draft.Page.FullText)
		change = &model.Change{
			CreatedAt:    fetch.FetchedAt,
			AddedLines:   diff.Added,
			RemovedLines: diff.Removed,
			Preview:      diff.Preview,
		}
	}

	draft.Page.SourceID = src.ID
	if err := l.store.ApplyContentChange(ctx, src, &draft.Page, draft.VisaTypes, change); err != nil {
		return 0, fmt.Errorf("load %s: %w", fetch.URL, err)
	}

	if change == nil {
		l.logger.Info("new page stored",
			"url", fetch.URL,
			"title", draft.Page.Title,
			"visa_types", len(draft.VisaTypes),
		)
		return OutcomeNew, nil
	}

	l.logger.Info("page updated",
		"url", fetch.URL,
		"title", draft.Page.Title,
		"added_lines", change.AddedLines,
		"removed_lines", change.RemovedLines,
	)
	return OutcomeUpdated, nil
}

// savePageAndTypes persists the draft page for a source and replaces
// its visa types.
func (l *Loader) savePageAndTypes(ctx context.Context, sourceID int64, draft *extractor.Draft) error {
	draft.Page.SourceID = sourceID
	if err := l.store.SavePage(ctx, &draft.Page); err != nil {
		return err
	}
	return l.store.ReplaceVisaTypes(ctx, draft.Page.ID, draft.VisaTypes)
}
