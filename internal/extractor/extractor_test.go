package extractor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dohadev/visaingest/internal/config"
	"github.com/dohadev/visaingest/internal/model"
)

func newTestExtractor() *Extractor {
	cfg := config.NewConfig()
	cfg.BaseURL = "https://portal.example.gov"
	return New(cfg)
}

func mustParse(t *testing.T, html string) Document {
	t.Helper()
	doc, err := Parse("https://portal.example.gov/visas/work", "text/html; charset=utf-8", []byte(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

const workVisaHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Work Visa | Portal</title>
  <meta name="description" content="Requirements and process for the work visa.">
</head>
<body>
  <nav><a href="/home">Home</a></nav>
  <main id="content">
    <h1>Work Visa</h1>
    <p>The work visa allows foreign nationals to take up employment.</p>
    <h2>Eligibility</h2>
    <ul>
      <li>A valid employment contract with a registered employer</li>
      <li>Applicant must be at least 18 years of age</li>
    </ul>
    <h2>Required Documents</h2>
    <ul>
      <li>Passport: valid for at least six months</li>
      <li>Employment contract - attested copy</li>
    </ul>
    <h2>Fees</h2>
    <p>The visa fee is 500 QAR, non-refundable.</p>
    <h2>Processing Time</h2>
    <p>Applications are processed within 5-10 business days.</p>
    <h2>How to Apply</h2>
    <ol>
      <li>Create an account: register on the portal</li>
      <li>Submit documents: upload scanned copies</li>
      <li>Pay the fee: online payment only</li>
    </ol>
    <p>More details at <a href="https://www.gov.qa/work-visas">Ministry of Interior</a>.</p>
  </main>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtractWorkVisaPage(t *testing.T) {
	t.Parallel()

	e := newTestExtractor()
	draft, err := e.Extract(mustParse(t, workVisaHTML))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	page := draft.Page
	if page.Title != "Work Visa" {
		t.Errorf("Title = %q", page.Title)
	}
	if page.Slug != "work-visa" {
		t.Errorf("Slug = %q", page.Slug)
	}
	if page.Summary != "Requirements and process for the work visa." {
		t.Errorf("Summary = %q", page.Summary)
	}
	if page.FullText == "" {
		t.Error("FullText should not be empty")
	}
	if page.ContentHTML == "" {
		t.Error("ContentHTML should capture the main container")
	}

	if len(draft.VisaTypes) != 1 {
		t.Fatalf("VisaTypes = %d, want 1", len(draft.VisaTypes))
	}
	vt := draft.VisaTypes[0]

	if vt.Category != model.CategoryWork {
		t.Errorf("Category = %q, want work", vt.Category)
	}
	if !vt.Active {
		t.Error("new records should be active")
	}

	if len(vt.Eligibility) != 2 {
		t.Errorf("Eligibility = %d items, want 2: %+v", len(vt.Eligibility), vt.Eligibility)
	}

	if len(vt.Documents) != 2 {
		t.Fatalf("Documents = %d items, want 2: %+v", len(vt.Documents), vt.Documents)
	}
	if vt.Documents[0].Name != "Passport" || vt.Documents[0].Notes != "valid for at least six months" {
		t.Errorf("Documents[0] = %+v", vt.Documents[0])
	}
	if vt.Documents[1].Name != "Employment contract" || vt.Documents[1].Notes != "attested copy" {
		t.Errorf("Documents[1] = %+v", vt.Documents[1])
	}

	if len(vt.Fees) != 1 {
		t.Fatalf("Fees = %d, want 1: %+v", len(vt.Fees), vt.Fees)
	}
	if vt.Fees[0].Amount == nil || *vt.Fees[0].Amount != 500 {
		t.Errorf("Fees[0].Amount = %v, want 500", vt.Fees[0].Amount)
	}
	if vt.Fees[0].Currency != "QAR" {
		t.Errorf("Fees[0].Currency = %q, want QAR", vt.Fees[0].Currency)
	}

	if len(vt.ProcessingTimes) != 1 {
		t.Fatalf("ProcessingTimes = %d, want 1: %+v", len(vt.ProcessingTimes), vt.ProcessingTimes)
	}
	if vt.ProcessingTimes[0].MinDays != 5 || vt.ProcessingTimes[0].MaxDays != 10 {
		t.Errorf("ProcessingTimes[0] = %+v, want 5-10 days", vt.ProcessingTimes[0])
	}

	if len(vt.Steps) != 3 {
		t.Fatalf("Steps = %d, want 3: %+v", len(vt.Steps), vt.Steps)
	}
	for i, step := range vt.Steps {
		if step.Seq != i+1 {
			t.Errorf("Steps[%d].Seq = %d, want %d", i, step.Seq, i+1)
		}
	}
	if vt.Steps[0].Title != "Create an account" || vt.Steps[0].Detail != "register on the portal" {
		t.Errorf("Steps[0] = %+v", vt.Steps[0])
	}

	if len(vt.Links) != 1 {
		t.Fatalf("Links = %d, want 1: %+v", len(vt.Links), vt.Links)
	}
	if vt.Links[0].URL != "https://www.gov.qa/work-visas" || vt.Links[0].Title != "Ministry of Interior" {
		t.Errorf("Links[0] = %+v", vt.Links[0])
	}
}

func TestExtractNoTitle(t *testing.T) {
	t.Parallel()

	e := newTestExtractor()
	_, err := e.Extract(mustParse(t, `<html><body><p>content without heading</p></body></html>`))
	if !errors.Is(err, ErrNoTitle) {
		t.Errorf("error = %v, want ErrNoTitle", err)
	}
}

func TestTitleFallsBackToTitleElement(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><head><title>Student Visa</title></head><body><p>x</p></body></html>`)
	if got := Title(doc); got != "Student Visa" {
		t.Errorf("Title = %q, want Student Visa", got)
	}
}

func TestTitlePrefersH1(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><head><title>Portal</title></head><body><h1> Transit  Visa </h1></body></html>`)
	if got := Title(doc); got != "Transit Visa" {
		t.Errorf("Title = %q, want Transit Visa", got)
	}
}

func TestSummaryFallsBackToFirstParagraph(t *testing.T) {
	t.Parallel()

	e := newTestExtractor()
	draft, err := e.Extract(mustParse(t,
		`<html><body><h1>Visit Visa</h1><p>Short-stay visits for tourism and family.</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if draft.Page.Summary != "Short-stay visits for tourism and family." {
		t.Errorf("Summary = %q", draft.Page.Summary)
	}
}

func TestFullTextExcludesChrome(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body>
		<nav>NAVIGATION</nav>
		<script>var x = "SCRIPT";</script>
		<div class="ads">ADVERT</div>
		<p>Visible content.</p>
		<footer>FOOTER</footer>
	</body></html>`)

	text := FullText(doc)
	for _, banned := range []string{"NAVIGATION", "SCRIPT", "ADVERT", "FOOTER"} {
		if strings.Contains(text, banned) {
			t.Errorf("FullText should not contain %q: %q", banned, text)
		}
	}
	if !strings.Contains(text, "Visible content") {
		t.Errorf("FullText should keep visible content: %q", text)
	}
}

func TestUpdatedAtFromTimeElement(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body><h1>Visa</h1>
		<time datetime="2024-03-01">1 March 2024</time></body></html>`)

	ts, ok := updatedAt(doc)
	if !ok {
		t.Fatal("expected a timestamp")
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("updatedAt = %v, want %v", ts, want)
	}
}

func TestUpdatedAtFromClassedElement(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body><h1>Visa</h1>
		<div class="updated">Last updated: 02 January 2025</div></body></html>`)

	ts, ok := updatedAt(doc)
	if !ok {
		t.Fatal("expected a timestamp")
	}
	if ts.Year() != 2025 || ts.Month() != time.January || ts.Day() != 2 {
		t.Errorf("updatedAt = %v", ts)
	}
}

func TestUpdatedAtAbsent(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body><h1>Visa</h1><p>no date here</p></body></html>`)
	if _, ok := updatedAt(doc); ok {
		t.Error("expected no timestamp")
	}
}

func TestParseTranscodesLegacyEncoding(t *testing.T) {
	t.Parallel()

	// "Résidence" with é as the single ISO-8859-1 byte 0xE9.
	body := append([]byte(`<html><head><title>R`), 0xE9)
	body = append(body, []byte(`sidence</title></head><body><p>x</p></body></html>`)...)

	doc, err := Parse("https://portal.example.gov/visas", "text/html; charset=iso-8859-1", body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	title, ok := doc.First("title")
	if !ok {
		t.Fatal("title not found")
	}
	if got := title.Text(); got != "Résidence" {
		t.Errorf("title = %q, want transcoded UTF-8", got)
	}
}

func TestLinksResolveRelative(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body>
		<a href="/visas/family">Family Visa</a>
		<a href="detail">Detail</a>
		<a href="javascript:void(0)">Ignore</a>
		<a href="mailto:x@y.gov">Mail</a>
	</body></html>`)

	links := Links(doc)
	if len(links) != 2 {
		t.Fatalf("Links = %d, want 2: %+v", len(links), links)
	}
	if links[0].URL != "https://portal.example.gov/visas/family" {
		t.Errorf("links[0].URL = %q", links[0].URL)
	}
	if links[1].URL != "https://portal.example.gov/visas/detail" {
		t.Errorf("links[1].URL = %q", links[1].URL)
	}
}
