package extractor

import (
	"errors"
	"strings"
	"time"

	"github.com/dohadev/visaingest/internal/config"
	"github.com/dohadev/visaingest/internal/model"
)

// ErrNoTitle signals that a page has no usable title. Title is the one
// mandatory extraction; its absence means "skip this page", not a
// pipeline error.
var ErrNoTitle = errors.New("no usable title found")

// excludeSelector names the subtrees removed before full-text
// extraction: scripts, styles, navigation, footers and advertising
// containers.
const excludeSelector = "script, style, noscript, nav, footer, .ad, .ads, .advertisement, .banner"

// contentSelectors is the ordered candidate list for the main content
// container. First match wins.
var contentSelectors = []string{"#content", "article", "[role=main]", "main", ".post", ".main-content"}

// Draft is the extractor's output for one page: a Page draft plus the
// visa-type records found on it, all without database identifiers.
type Draft struct {
	Page      model.Page
	VisaTypes []model.VisaType
}

// Link is a resolved anchor.
type Link struct {
	// URL is the resolved absolute URL.
	URL string

	// Text is the anchor's visible text, whitespace-normalized.
	Text string
}

// Extractor turns parsed documents into page and visa-type drafts
// using the configured section keyword sets.
type Extractor struct {
	cfg *config.Config
}

// New creates an Extractor.
func New(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract produces a Draft from a parsed document. It returns
// ErrNoTitle when the page has no usable title; every other extraction
// failure degrades to an empty section, never an error.
func (e *Extractor) Extract(doc Document) (*Draft, error) {
	title := Title(doc)
	if title == "" {
		return nil, ErrNoTitle
	}

	fullText := FullText(doc)
	page := model.Page{
		Title:       title,
		Slug:        model.Slugify(title),
		Summary:     summary(doc),
		FullText:    fullText,
		ContentHTML: contentHTML(doc),
	}
	if ts, ok := updatedAt(doc); ok {
		page.PageUpdatedAt = &ts
	}

	category, purpose, audience := model.CategorizeTitle(title)
	vt := model.VisaType{
		Name:            title,
		Category:        category,
		Purpose:         purpose,
		Audience:        audience,
		Active:          true,
		Eligibility:     parseEligibility(sectionItems(doc, e.cfg.EligibilityKeywords)),
		Documents:       parseDocuments(sectionItems(doc, e.cfg.DocumentKeywords)),
		Fees:            parseFees(sectionText(doc, e.cfg.FeeKeywords), fullText),
		ProcessingTimes: parseProcessingTimes(sectionText(doc, e.cfg.ProcessingKeywords)),
		Steps:           parseSteps(sectionNodes(doc, e.cfg.StepKeywords)),
		Links:           officialLinks(doc, e.cfg.OfficialDomains),
	}

	return &Draft{Page: page, VisaTypes: []model.VisaType{vt}}, nil
}

// Title returns the first non-empty h1 text, else the document title
// element, else empty.
func Title(doc Document) string {
	for _, h1 := range doc.Find("h1") {
		if t := normalizeSpace(h1.Text()); t != "" {
			return t
		}
	}
	if n, ok := doc.First("title"); ok {
		return normalizeSpace(n.Text())
	}
	return ""
}

// MetaDescription returns the meta description content, empty if none.
func MetaDescription(doc Document) string {
	if n, ok := doc.First(`meta[name="description"]`); ok {
		return normalizeSpace(n.Attr("content"))
	}
	return ""
}

// Headings returns the texts of all heading elements in document order.
func Headings(doc Document) []string {
	var out []string
	for _, n := range doc.Find("h1, h2, h3, h4, h5, h6") {
		if t := normalizeSpace(n.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FullText returns the body text with script/style/nav/footer/ad
// subtrees removed and whitespace collapsed.
func FullText(doc Document) string {
	return normalizeSpace(doc.BodyText(excludeSelector))
}

// Links returns all resolved anchors with non-empty visible text.
func Links(doc Document) []Link {
	var out []Link
	for _, a := range doc.Find("a") {
		resolved := doc.Resolve(a.Attr("href"))
		if resolved == "" {
			continue
		}
		out = append(out, Link{URL: resolved, Text: normalizeSpace(a.Text())})
	}
	return out
}

// summary prefers the meta description, falls back to the first
// paragraph, and truncates to the summary length cap.
func summary(doc Document) string {
	s := MetaDescription(doc)
	if s == "" {
		for _, p := range doc.Find("p") {
			if t := normalizeSpace(p.Text()); t != "" {
				s = t
				break
			}
		}
	}
	return model.Truncate(s, model.MaxSummaryLen)
}

// contentHTML returns the markup of the first matching main-content
// container, empty when none matched.
func contentHTML(doc Document) string {
	for _, sel := range contentSelectors {
		if n, ok := doc.First(sel); ok {
			return n.HTML()
		}
	}
	return ""
}

// dateFormats are tried in order when parsing candidate date strings.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
}

// updatedAt returns the first parseable last-updated timestamp declared
// by the page. Candidates in order: machine-readable time elements,
// updated/modified classed elements, then meta tags. Unparseable values
// are treated as absent.
func updatedAt(doc Document) (time.Time, bool) {
	if n, ok := doc.First("time[datetime]"); ok {
		if ts, ok := parseDate(n.Attr("datetime")); ok {
			return ts, true
		}
	}
	for _, sel := range []string{".updated", ".modified", ".last-updated"} {
		if n, ok := doc.First(sel); ok {
			if ts, ok := parseDate(stripDateLabel(n.Text())); ok {
				return ts, true
			}
		}
	}
	for _, sel := range []string{
		`meta[property="article:modified_time"]`,
		`meta[name="last-modified"]`,
		`meta[itemprop="dateModified"]`,
	} {
		if n, ok := doc.First(sel); ok {
			if ts, ok := parseDate(n.Attr("content")); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// parseDate tries the known formats against a candidate string.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// stripDateLabel removes leading "Updated:"/"Last modified:" style
// labels from classed date elements.
func stripDateLabel(s string) string {
	s = normalizeSpace(s)
	for _, label := range []string{"last updated", "last modified", "updated", "modified"} {
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, label) {
			s = strings.TrimSpace(s[len(label):])
			s = strings.TrimLeft(s, ":- ")
			break
		}
	}
	return s
}

// normalizeSpace collapses consecutive whitespace to single spaces and
// trims the ends.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
