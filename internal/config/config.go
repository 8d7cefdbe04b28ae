package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These are tuned for a single government
// visa portal: polite enough to never attract rate limiting, bounded
// enough that a run finishes in minutes.
const (
	// DefaultMaxDepth bounds link-following from the seed URLs.
	// Portal visa sections are shallow; three levels reaches every
	// detail page from a section index.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps the number of URLs visited per run. This
	// prevents runaway crawling when a section index links into large
	// unrelated areas of the portal.
	DefaultMaxPages = 150

	// DefaultMinDelay and DefaultMaxDelay bound the randomized
	// inter-request politeness delay. Randomizing the delay avoids a
	// fixed request cadence in the target's logs.
	DefaultMinDelay = 500 * time.Millisecond
	DefaultMaxDelay = 1500 * time.Millisecond

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// A descriptive User-Agent lets portal operators identify and
	// contact us rather than block unexplained traffic.
	DefaultUserAgent = "visaingest/1.0 (+https://github.com/dohadev/visaingest)"

	// DefaultMaxRetries is the retry ceiling for transient fetch
	// failures (timeouts, connection resets). Permanent failures are
	// never retried.
	DefaultMaxRetries = 3

	// DefaultFetchTimeout is the hard per-request timeout. Exceeding
	// it counts as a transient failure, not a crawl-wide abort.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultThreshold is the content-stage acceptance score out of
	// 100. Pages scoring below it are skipped.
	DefaultThreshold = 40

	// DefaultURLStageWeight is the number of content-stage points the
	// URL-stage confidence contributes at full confidence.
	DefaultURLStageWeight = 30

	// DefaultWorkers is the number of concurrent crawl workers.
	// One worker keeps per-host request ordering deterministic; raise
	// it only when seeds span multiple hosts.
	DefaultWorkers = 1

	// DefaultMaxBodySize limits the response body size read per fetch.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "visaingest"
)

// Default keyword and pattern sets. All of these are configuration, not
// behavior: operators retune precision/recall through the config file
// without code changes.
var (
	// DefaultAllowKeywords are URL path keywords that mark a URL as
	// likely relevant before fetching it.
	DefaultAllowKeywords = []string{
		"visa", "visas", "immigration", "permit", "residence",
		"residency", "entry", "sponsorship", "work-permit",
	}

	// DefaultExcludePatterns are URL substrings that veto a URL
	// regardless of allow-keyword matches.
	DefaultExcludePatterns = []string{
		"/blog/", "/news/", "/media/", "/press/", "/events/",
		"/careers/", "/ads/", "/advertis", "javascript:", "mailto:",
		".pdf", ".jpg", ".jpeg", ".png", ".gif", ".zip", ".doc",
	}

	// DefaultTitleKeywords mark a page title as on-topic.
	DefaultTitleKeywords = []string{
		"visa", "permit", "immigration", "residence", "residency", "entry",
	}

	// DefaultSectionIndicators are phrases whose presence in body text
	// indicates the page carries structured visa information.
	DefaultSectionIndicators = []string{
		"eligibility", "required documents", "processing time",
		"how to apply", "fees", "validity", "supporting documents",
		"application form",
	}

	// DefaultTourismKeywords penalize generic tourism-marketing pages
	// that mention visas only in passing.
	DefaultTourismKeywords = []string{
		"hotel", "restaurant", "beach", "shopping", "sightseeing",
		"attraction", "itinerary", "nightlife",
	}

	// DefaultOfficialDomains is the allowlist of official-domain
	// patterns for external link extraction and the government-link
	// classifier bonus. Matching is suffix-based on the hostname.
	DefaultOfficialDomains = []string{
		".gov", ".gov.qa", ".gov.uk", ".gov.sa", ".gov.ae",
		".gouv.fr", ".europa.eu", ".un.org", ".iom.int",
	}

	// Section heading keywords. Headings containing one of these mark
	// the start of the corresponding topical section.
	DefaultEligibilityKeywords = []string{"eligibility", "eligible", "who can apply", "requirements", "conditions"}
	DefaultDocumentKeywords    = []string{"document", "documents", "paperwork", "what you need"}
	DefaultFeeKeywords         = []string{"fee", "fees", "cost", "costs", "charges", "price"}
	DefaultProcessingKeywords  = []string{"processing time", "processing", "how long", "duration", "timeline"}
	// "process" alone is absent here: it would also match "Processing
	// Time" headings, which belong to the processing-time section.
	DefaultStepKeywords = []string{"how to apply", "steps", "procedure", "application process"}
)

// Config holds all configuration for an ingestion run. It is populated
// from defaults, then the optional config file, then CLI flags, and
// passed through the application by dependency injection rather than
// global state.
//
// Design decision: A single flat struct, as the option count is
// manageable and nesting would complicate flag and YAML binding.
type Config struct {
	// BaseURL is the portal origin. Only same-origin URLs are crawled.
	BaseURL string

	// Seeds are the starting URLs, same origin as BaseURL. When empty,
	// BaseURL itself is the seed.
	Seeds []string

	// MaxDepth is the maximum link depth from the seeds.
	MaxDepth int

	// MaxPages is the maximum number of URLs visited per run.
	MaxPages int

	// MinDelay and MaxDelay bound the randomized politeness delay
	// applied before every fetch, including retries.
	MinDelay time.Duration
	MaxDelay time.Duration

	// UserAgent is the User-Agent header for all requests and the
	// agent consulted in robots.txt.
	UserAgent string

	// HonorRobots controls robots.txt enforcement. On by default;
	// turning it off is for fixture-backed testing only.
	HonorRobots bool

	// MaxRetries is the retry ceiling for transient fetch failures.
	MaxRetries int

	// FetchTimeout is the hard per-request timeout.
	FetchTimeout time.Duration

	// MaxBodySize limits the response body size read per fetch.
	MaxBodySize int64

	// Workers is the number of concurrent crawl workers.
	Workers int

	// Threshold is the content-stage acceptance score (0-100).
	Threshold int

	// URLStageWeight is the content-stage points contributed by the
	// URL-stage confidence at full confidence. The URL stage also runs
	// independently as the frontier's enqueue filter, so its score
	// intentionally counts twice; this weight is the tunable for that.
	URLStageWeight int

	// Classifier keyword and pattern sets.
	AllowKeywords     []string
	ExcludePatterns   []string
	TitleKeywords     []string
	SectionIndicators []string
	TourismKeywords   []string

	// OfficialDomains is the official-domain allowlist for external
	// link extraction.
	OfficialDomains []string

	// Section heading keyword sets for the extractor.
	EligibilityKeywords []string
	DocumentKeywords    []string
	FeeKeywords         []string
	ProcessingKeywords  []string
	StepKeywords        []string

	// DBDir is the directory holding the SQLite database. Defaults to
	// the XDG data directory.
	DBDir string

	// Verbose enables debug-level logging.
	Verbose bool

	// JSONLog switches log output from text to JSON.
	JSONLog bool

	// MarkdownReport renders the run summary as Markdown.
	MarkdownReport bool

	// ReportFile writes the run summary to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicit config file path, empty to search
	// the default locations.
	ConfigFilePath string
}

// NewConfig returns a Config populated with all defaults. Callers
// override individual fields from the config file and CLI flags.
func NewConfig() *Config {
	return &Config{
		MaxDepth:            DefaultMaxDepth,
		MaxPages:            DefaultMaxPages,
		MinDelay:            DefaultMinDelay,
		MaxDelay:            DefaultMaxDelay,
		UserAgent:           DefaultUserAgent,
		HonorRobots:         true,
		MaxRetries:          DefaultMaxRetries,
		FetchTimeout:        DefaultFetchTimeout,
		MaxBodySize:         DefaultMaxBodySize,
		Workers:             DefaultWorkers,
		Threshold:           DefaultThreshold,
		URLStageWeight:      DefaultURLStageWeight,
		AllowKeywords:       DefaultAllowKeywords,
		ExcludePatterns:     DefaultExcludePatterns,
		TitleKeywords:       DefaultTitleKeywords,
		SectionIndicators:   DefaultSectionIndicators,
		TourismKeywords:     DefaultTourismKeywords,
		OfficialDomains:     DefaultOfficialDomains,
		EligibilityKeywords: DefaultEligibilityKeywords,
		DocumentKeywords:    DefaultDocumentKeywords,
		FeeKeywords:         DefaultFeeKeywords,
		ProcessingKeywords:  DefaultProcessingKeywords,
		StepKeywords:        DefaultStepKeywords,
		DBDir:               XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for visaingest.
// On Linux: ~/.local/share/visaingest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for visaingest.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem
// found. Called once after flag parsing, before any crawling begins.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidDelay
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}
