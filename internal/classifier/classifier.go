package classifier

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dohadev/visaingest/internal/config"
)

// Content-stage point values. The stage is a weighted additive score
// out of 100; these weights are the fixed shape of the score, while the
// keyword sets and the acceptance threshold are configuration.
const (
	titlePoints          = 20
	metaPoints           = 15
	headingPoints        = 20
	indicatorFullPoints  = 30
	indicatorEachPoints  = 5
	officialLinkPoints   = 10
	tourismPenaltyPoints = 20

	// vetoScore is the URL-stage penalty for an exclusion-pattern hit,
	// large enough that no number of allow-keyword matches outweighs it.
	vetoScore = 100

	// allowKeywordPoints is the URL-stage score per allow-keyword hit.
	allowKeywordPoints = 10

	// urlConfidenceCap is the number of allow-keyword hits at which
	// URL-stage confidence saturates at 1.0.
	urlConfidenceCap = 3
)

// Result is a classification decision with its supporting evidence.
// Reasons list every score contribution so operators can audit why a
// page was accepted or skipped.
type Result struct {
	// Accept is the decision.
	Accept bool

	// Confidence is the decision strength in [0, 1].
	Confidence float64

	// Score is the raw stage score. URL stage: net keyword score.
	// Content stage: 0-100 after clamping.
	Score int

	// Reasons lists each contribution in evaluation order.
	Reasons []string
}

// Signals are the page features the content stage scores. The pipeline
// derives them from the parsed document so the classifier stays free of
// any DOM dependency.
type Signals struct {
	// Title is the extracted page title.
	Title string

	// MetaDescription is the meta description content, empty if none.
	MetaDescription string

	// Headings are the texts of all heading elements.
	Headings []string

	// BodyText is the whitespace-normalized body text.
	BodyText string

	// LinkHosts are the hostnames of all resolved anchor URLs.
	LinkHosts []string
}

// Classifier is the two-stage relevance scorer. The URL stage is a
// cheap pre-fetch filter that prunes the frontier before spending a
// network round-trip; the content stage is the post-fetch precision
// gate that keeps off-topic pages out of the structured dataset.
type Classifier struct {
	allowKeywords     []string
	excludePatterns   []string
	titleKeywords     []string
	sectionIndicators []string
	tourismKeywords   []string
	officialDomains   []string
	threshold         int
	urlStageWeight    int
}

// New creates a Classifier from the configured keyword sets and
// threshold.
func New(cfg *config.Config) *Classifier {
	return &Classifier{
		allowKeywords:     cfg.AllowKeywords,
		excludePatterns:   cfg.ExcludePatterns,
		titleKeywords:     cfg.TitleKeywords,
		sectionIndicators: cfg.SectionIndicators,
		tourismKeywords:   cfg.TourismKeywords,
		officialDomains:   cfg.OfficialDomains,
		threshold:         cfg.Threshold,
		urlStageWeight:    cfg.URLStageWeight,
	}
}

// URLStage scores a URL before fetching. Allow-keyword path matches add
// points; any exclusion-pattern match applies a veto penalty that no
// number of allow matches can overcome. Accept iff the net score is
// positive.
func (c *Classifier) URLStage(rawURL string) Result {
	res := Result{}
	lower := strings.ToLower(rawURL)

	matches := 0
	for _, kw := range c.allowKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
			res.Score += allowKeywordPoints
			res.Reasons = append(res.Reasons, fmt.Sprintf("url matches keyword %q", kw))
		}
	}

	for _, pat := range c.excludePatterns {
		if strings.Contains(lower, strings.ToLower(pat)) {
			res.Score -= vetoScore
			res.Reasons = append(res.Reasons, fmt.Sprintf("url matches exclusion %q", pat))
		}
	}

	res.Accept = res.Score > 0
	if res.Accept {
		res.Confidence = min(1.0, float64(matches)/urlConfidenceCap)
	}
	return res
}

// ContentStage scores fetched page content out of 100. Accept iff the
// clamped score meets the configured threshold.
//
// The URL-stage confidence is folded in here even though the URL stage
// already ran as the frontier's enqueue filter; a relevant-looking URL
// reinforces the content score, and URLStageWeight tunes how much.
func (c *Classifier) ContentStage(rawURL string, sig Signals) Result {
	res := Result{}

	urlRes := c.URLStage(rawURL)
	if pts := int(urlRes.Confidence * float64(c.urlStageWeight)); pts > 0 {
		res.Score += pts
		res.Reasons = append(res.Reasons, fmt.Sprintf("url stage confidence %.2f (+%d)", urlRes.Confidence, pts))
	}

	if kw, ok := c.matchKeyword(sig.Title, c.titleKeywords); ok {
		res.Score += titlePoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("title matches %q (+%d)", kw, titlePoints))
	}

	if kw, ok := c.matchKeyword(sig.MetaDescription, c.titleKeywords); ok {
		res.Score += metaPoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("meta description matches %q (+%d)", kw, metaPoints))
	}

	for _, h := range sig.Headings {
		if kw, ok := c.matchKeyword(h, c.titleKeywords); ok {
			res.Score += headingPoints
			res.Reasons = append(res.Reasons, fmt.Sprintf("heading matches %q (+%d)", kw, headingPoints))
			break
		}
	}

	body := strings.ToLower(sig.BodyText)
	indicators := 0
	for _, ind := range c.sectionIndicators {
		if strings.Contains(body, strings.ToLower(ind)) {
			indicators++
		}
	}
	switch {
	case indicators >= 3:
		res.Score += indicatorFullPoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("%d section indicators (+%d)", indicators, indicatorFullPoints))
	case indicators > 0:
		pts := indicators * indicatorEachPoints
		res.Score += pts
		res.Reasons = append(res.Reasons, fmt.Sprintf("%d section indicators (+%d)", indicators, pts))
	}

	if host, ok := c.officialLink(sig.LinkHosts); ok {
		res.Score += officialLinkPoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("official link to %s (+%d)", host, officialLinkPoints))
	}

	tourism := 0
	for _, kw := range c.tourismKeywords {
		if strings.Contains(body, strings.ToLower(kw)) {
			tourism++
		}
	}
	if tourism >= 3 {
		res.Score -= tourismPenaltyPoints
		res.Reasons = append(res.Reasons, fmt.Sprintf("%d tourism keywords (-%d)", tourism, tourismPenaltyPoints))
	}

	if res.Score < 0 {
		res.Score = 0
	}
	if res.Score > 100 {
		res.Score = 100
	}

	res.Accept = res.Score >= c.threshold
	res.Confidence = float64(res.Score) / 100
	return res
}

// matchKeyword returns the first keyword contained in text,
// case-insensitively.
func (c *Classifier) matchKeyword(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// officialLink returns the first link host matching the official-domain
// allowlist.
func (c *Classifier) officialLink(hosts []string) (string, bool) {
	for _, h := range hosts {
		if IsOfficialHost(h, c.officialDomains) {
			return h, true
		}
	}
	return "", false
}

// IsOfficialHost reports whether host matches one of the official
// domain patterns. A pattern starting with a dot matches any subdomain
// of it and the bare domain itself; other patterns match exactly.
func IsOfficialHost(host string, patterns []string) bool {
	host = strings.ToLower(host)
	for _, pat := range patterns {
		pat = strings.ToLower(pat)
		if strings.HasPrefix(pat, ".") {
			if strings.HasSuffix(host, pat) || host == strings.TrimPrefix(pat, ".") {
				return true
			}
		} else if host == pat {
			return true
		}
	}
	return false
}

// HostOf extracts the hostname of rawURL, empty on parse failure.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
