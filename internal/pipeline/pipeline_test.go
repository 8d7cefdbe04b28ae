package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dohadev/visaingest/internal/config"
	"github.com/dohadev/visaingest/internal/crawler"
	"github.com/dohadev/visaingest/internal/database"
	"github.com/dohadev/visaingest/internal/loader"
	"github.com/dohadev/visaingest/internal/log"
	"github.com/dohadev/visaingest/internal/model"
)

const hubHTML = `<html><head><title>Portal Home</title></head><body>
<h1>Portal Home</h1>
<p>Welcome to the portal.</p>
<a href="/visa/work">Work Visa</a>
<a href="/blog/visa-news">News about visas</a>
</body></html>`

const workVisaHTML = `<html><head>
<title>Work Visa</title>
<meta name="description" content="Work visa requirements and fees.">
</head><body>
<h1>Work Visa</h1>
<p>Employment visa for foreign nationals.</p>
<h2>Eligibility</h2>
<ul><li>A valid employment contract with a registered employer</li></ul>
<h2>Required Documents</h2>
<ul><li>Passport: valid for at least six months</li></ul>
<h2>Fees</h2>
<p>The visa fee is 500 QAR.</p>
<h2>Processing Time</h2>
<p>Processed within 5-10 business days.</p>
<h2>How to Apply</h2>
<ol><li>Apply online: submit the form</li></ol>
</body></html>`

// newTestPipeline builds a pipeline against the given server with
// robots and politeness delays disabled, sharing the store across runs.
func newTestPipeline(t *testing.T, server *httptest.Server, store *database.Store, mutate func(*config.Config)) *Pipeline {
	t.Helper()

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	cfg.HonorRobots = false
	cfg.MinDelay = 0
	cfg.MaxDelay = 0
	cfg.MaxRetries = 0
	if mutate != nil {
		mutate(cfg)
	}

	logger := log.NewLogger(io.Discard, false)
	guard := crawler.NewGuard(context.Background(), nil, cfg.BaseURL, cfg.UserAgent, false,
		crawler.WithDelayRange(0, 0),
		crawler.WithGuardLogger(logger),
	)
	fetcher := crawler.NewHTTPFetcher(server.Client(), crawler.WithUserAgent(cfg.UserAgent))
	ldr := loader.New(store, logger)

	p, err := New(cfg, guard, fetcher, ldr, logger)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newPortalServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(hubHTML))
	})
	mux.HandleFunc("/visa/work", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(workVisaHTML))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunIngestsVisaPages(t *testing.T) {
	t.Parallel()

	server := newPortalServer(t)
	store := newTestStore(t)
	p := newTestPipeline(t, server, store, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The hub and the work visa page are fetched; the blog link is
	// vetoed before fetching.
	if summary.URLsSeen != 2 {
		t.Errorf("URLsSeen = %d, want 2", summary.URLsSeen)
	}
	if summary.PagesCrawled != 2 {
		t.Errorf("PagesCrawled = %d, want 2", summary.PagesCrawled)
	}
	if summary.New != 1 {
		t.Errorf("New = %d, want 1 (the work visa page)", summary.New)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (the hub page)", summary.Skipped)
	}
	if summary.Errors != 0 {
		t.Errorf("Errors = %d, details %v", summary.Errors, summary.ErrorDetails)
	}

	ctx := context.Background()
	src, err := store.GetSourceByURL(ctx, server.URL+"/visa/work")
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("work visa source should be stored")
	}
	page, err := store.GetPageBySource(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "Work Visa" || page.Slug != "work-visa" {
		t.Errorf("page = %+v", page)
	}
	types, err := store.GetVisaTypes(ctx, page.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 1 || types[0].Category != model.CategoryWork {
		t.Errorf("visa types = %+v", types)
	}
}

func TestRunSecondPassUnchanged(t *testing.T) {
	t.Parallel()

	server := newPortalServer(t)
	store := newTestStore(t)

	if _, err := newTestPipeline(t, server, store, nil).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	summary, err := newTestPipeline(t, server, store, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Unchanged != 1 {
		t.Errorf("Unchanged = %d, want 1", summary.Unchanged)
	}
	if summary.New != 0 || summary.Updated != 0 {
		t.Errorf("New/Updated = %d/%d, want 0/0", summary.New, summary.Updated)
	}
}

func TestRunRespectsMaxPages(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Hub</h1>`))
		for i := 0; i < 30; i++ {
			_, _ = w.Write([]byte(`<a href="/visa/p` + string(rune('a'+i%26)) + string(rune('a'+i/26)) + `">visa link</a>`))
		}
		_, _ = w.Write([]byte(`</body></html>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := newTestStore(t)
	p := newTestPipeline(t, server, store, func(cfg *config.Config) {
		cfg.MaxPages = 5
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.URLsSeen > 5 {
		t.Errorf("URLsSeen = %d, must not exceed the page ceiling", summary.URLsSeen)
	}
}

func TestRunRespectsMaxDepth(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	page := func(next string) string {
		body := `<html><body><h1>Hub</h1><p>hub page</p>`
		if next != "" {
			body += `<a href="` + next + `">visa link</a>`
		}
		return body + `</body></html>`
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page("/visa/a")))
	})
	mux.HandleFunc("/visa/a", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page("/visa/b")))
	})
	mux.HandleFunc("/visa/b", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page("")))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := newTestStore(t)
	p := newTestPipeline(t, server, store, func(cfg *config.Config) {
		cfg.MaxDepth = 1
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Seed at depth 0 plus /visa/a at depth 1; /visa/b is beyond the
	// depth bound.
	if summary.URLsSeen != 2 {
		t.Errorf("URLsSeen = %d, want 2", summary.URLsSeen)
	}
}

func TestRunCountsPermanentFetchFailures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Hub</h1><a href="/visa/missing">gone visa</a></body></html>`))
	})
	mux.HandleFunc("/visa/missing", http.NotFound)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := newTestStore(t)
	p := newTestPipeline(t, server, store, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Errors != 1 {
		t.Errorf("Errors = %d, want 1: %v", summary.Errors, summary.ErrorDetails)
	}
	if len(summary.ErrorDetails) != 1 {
		t.Errorf("ErrorDetails = %v", summary.ErrorDetails)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Drop the connection to provoke a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Error(err)
				return
			}
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(workVisaHTML))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := newTestStore(t)
	p := newTestPipeline(t, server, store, func(cfg *config.Config) {
		cfg.MaxRetries = 2
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Errors != 0 {
		t.Errorf("Errors = %d, retry should have recovered: %v", summary.Errors, summary.ErrorDetails)
	}
	if summary.New != 1 {
		t.Errorf("New = %d, want 1", summary.New)
	}
	if attempts < 2 {
		t.Errorf("attempts = %d, want at least 2", attempts)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	server := newPortalServer(t)
	store := newTestStore(t)
	p := newTestPipeline(t, server, store, func(cfg *config.Config) {
		cfg.MinDelay = 50 * time.Millisecond
		cfg.MaxDelay = 100 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Run(ctx); err == nil {
		t.Error("Run with cancelled context should fail")
	}
}

func TestRunWithWorkers(t *testing.T) {
	t.Parallel()

	server := newPortalServer(t)
	store := newTestStore(t)
	p := newTestPipeline(t, server, store, func(cfg *config.Config) {
		cfg.Workers = 4
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PagesCrawled != 2 || summary.New != 1 {
		t.Errorf("summary = %+v", summary)
	}
}
