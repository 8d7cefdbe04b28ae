package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dohadev/visaingest/internal/classifier"
	"github.com/dohadev/visaingest/internal/model"
)

// Item length bounds. List items and paragraphs outside these bounds
// are navigation crumbs, stray characters or whole article bodies, not
// criteria or document names.
const (
	minCriterionLen = 10
	maxCriterionLen = 2000
	minDocumentLen  = 5
	maxDocumentLen  = 500
)

// headingSelector matches every heading level.
const headingSelector = "h1, h2, h3, h4, h5, h6"

// sectionNodes locates the first heading whose text contains one of the
// topic keywords and returns the sibling content up to the next heading
// of equal or higher level. Empty when no heading matched.
func sectionNodes(doc Document, keywords []string) []Node {
	for _, h := range doc.Find(headingSelector) {
		if !containsAny(h.Text(), keywords) {
			continue
		}
		level := headingLevel(h.Tag())
		if level == 0 {
			continue
		}
		return h.FollowingUntil(stopSelector(level))
	}
	return nil
}

// stopSelector builds the until-selector for a section started by a
// heading of the given level: all headings of equal or higher level.
func stopSelector(level int) string {
	parts := make([]string, 0, level)
	for i := 1; i <= level; i++ {
		parts = append(parts, "h"+strconv.Itoa(i))
	}
	return strings.Join(parts, ", ")
}

// headingLevel maps h1..h6 to 1..6, anything else to 0.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// sectionItems returns the individual items of a topical section: list
// item texts when the section has lists, paragraph texts otherwise.
func sectionItems(doc Document, keywords []string) []string {
	nodes := sectionNodes(doc, keywords)
	var items []string
	for _, n := range nodes {
		for _, li := range n.Find("li") {
			if t := normalizeSpace(li.Text()); t != "" {
				items = append(items, t)
			}
		}
	}
	if len(items) > 0 {
		return items
	}
	for _, n := range nodes {
		if n.Tag() != "p" {
			continue
		}
		if t := normalizeSpace(n.Text()); t != "" {
			items = append(items, t)
		}
	}
	return items
}

// sectionText returns the whole text of a topical section,
// whitespace-normalized. Empty when the section was not found.
func sectionText(doc Document, keywords []string) string {
	var b strings.Builder
	for _, n := range sectionNodes(doc, keywords) {
		b.WriteString(n.Text())
		b.WriteString(" ")
	}
	return normalizeSpace(b.String())
}

// parseEligibility turns section items into eligibility criteria.
// Items outside the length bounds are dropped.
func parseEligibility(items []string) []model.EligibilityCriterion {
	var out []model.EligibilityCriterion
	for _, item := range items {
		if len(item) < minCriterionLen || len(item) > maxCriterionLen {
			continue
		}
		out = append(out, model.EligibilityCriterion{Text: item})
	}
	return out
}

// parseDocuments turns section items into required documents, splitting
// each on the first colon or spaced dash into name and notes.
func parseDocuments(items []string) []model.RequiredDocument {
	var out []model.RequiredDocument
	for _, item := range items {
		if len(item) < minDocumentLen || len(item) > maxDocumentLen {
			continue
		}
		name, notes := splitNameNotes(item)
		out = append(out, model.RequiredDocument{Name: name, Notes: notes})
	}
	return out
}

// splitNameNotes splits "Passport: valid six months" style items into
// name and notes. The first colon wins; else the first spaced dash, so
// hyphenated names like "e-visa" stay intact.
func splitNameNotes(item string) (string, string) {
	if i := strings.Index(item, ":"); i > 0 {
		return strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+1:])
	}
	for _, sep := range []string{" - ", " – ", " — "} {
		if i := strings.Index(item, sep); i > 0 {
			return strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+len(sep):])
		}
	}
	return item, ""
}

// feeRe matches an amount (with optional thousands separators and
// decimal part) followed by a currency token.
var feeRe = regexp.MustCompile(`(?i)(\d{1,3}(?:[,\s]\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)\s*(QAR|QR|USD|EUR|GBP|AED|SAR|KWD|BHD|OMR|riyals?|dollars?|euros?|pounds?|dirhams?)\b`)

// currencyWords maps spelled-out currency tokens to codes.
var currencyWords = map[string]string{
	"riyal": "QAR", "riyals": "QAR", "qr": "QAR",
	"dollar": "USD", "dollars": "USD",
	"euro": "EUR", "euros": "EUR",
	"pound": "GBP", "pounds": "GBP",
	"dirham": "AED", "dirhams": "AED",
}

// parseFees scans the fees section for currency-amount expressions.
// When the section has no explicit amount but the body text declares
// the visa free of charge, a single zero-amount fee is emitted;
// otherwise none.
func parseFees(section, bodyText string) []model.Fee {
	var out []model.Fee
	seen := make(map[string]bool)
	for _, m := range feeRe.FindAllStringSubmatch(section, -1) {
		amount, err := strconv.ParseFloat(stripSeparators(m[1]), 64)
		if err != nil || amount < 0 {
			continue
		}
		currency := normalizeCurrency(m[2])
		key := m[1] + currency
		if seen[key] {
			continue
		}
		seen[key] = true
		a := amount
		out = append(out, model.Fee{Name: "Visa fee", Amount: &a, Currency: currency})
	}
	if len(out) == 0 && strings.Contains(strings.ToLower(bodyText), "free of charge") {
		zero := 0.0
		out = append(out, model.Fee{Name: "Visa fee", Amount: &zero, Notes: "free of charge"})
	}
	return out
}

// stripSeparators removes thousands separators from an amount string.
func stripSeparators(s string) string {
	return strings.NewReplacer(",", "", " ", "").Replace(s)
}

// normalizeCurrency uppercases currency codes and maps spelled-out
// tokens to their code.
func normalizeCurrency(token string) string {
	lower := strings.ToLower(token)
	if code, ok := currencyWords[lower]; ok {
		return code
	}
	return strings.ToUpper(token)
}

// durationRe matches "<N> [to|-] <M> <unit>" and "<N> <unit>" duration
// expressions.
var durationRe = regexp.MustCompile(`(?i)\b(\d+)\s*(?:(?:to|[-–])\s*(\d+)\s*)?(business\s+days?|working\s+days?|days?|weeks?|months?)\b`)

// parseProcessingTimes scans the processing-time section for duration
// expressions, normalizing weeks to x7 days and months to x30 days.
// Range forms set min and max distinctly; single values set min=max.
func parseProcessingTimes(section string) []model.ProcessingTime {
	var out []model.ProcessingTime
	for _, m := range durationRe.FindAllStringSubmatch(section, -1) {
		minVal, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		maxVal := minVal
		if m[2] != "" {
			maxVal, err = strconv.Atoi(m[2])
			if err != nil {
				continue
			}
		}
		factor := unitDays(m[3])
		out = append(out, model.ProcessingTime{
			Label:   normalizeSpace(m[0]),
			MinDays: minVal * factor,
			MaxDays: maxVal * factor,
		})
	}
	return out
}

// unitDays returns the day multiplier for a duration unit.
func unitDays(unit string) int {
	switch {
	case strings.HasPrefix(strings.ToLower(unit), "week"):
		return 7
	case strings.HasPrefix(strings.ToLower(unit), "month"):
		return 30
	default:
		// days, business days, working days
		return 1
	}
}

// stepPrefixRe matches leading "1." / "2)" / "step 3" markers on
// paragraph-form steps.
var stepPrefixRe = regexp.MustCompile(`(?i)^\s*(?:step\s*)?(\d+)\s*[.):]?\s+`)

// parseSteps extracts the application procedure. List items within the
// section are preferred; each splits on the first colon or period into
// a short title and the remaining detail. Without a list, paragraphs
// carrying a leading step marker are used, with the marker stripped.
// Step sequence numbers are assigned densely, 1..N.
func parseSteps(nodes []Node) []model.Step {
	var items []string
	for _, n := range nodes {
		for _, li := range n.Find("li") {
			if t := normalizeSpace(li.Text()); t != "" {
				items = append(items, t)
			}
		}
	}

	if len(items) == 0 {
		for _, n := range nodes {
			if n.Tag() != "p" {
				continue
			}
			t := normalizeSpace(n.Text())
			if t == "" || !stepPrefixRe.MatchString(t) {
				continue
			}
			items = append(items, stepPrefixRe.ReplaceAllString(t, ""))
		}
	}

	steps := make([]model.Step, 0, len(items))
	for i, item := range items {
		title, detail := splitStep(item)
		steps = append(steps, model.Step{Seq: i + 1, Title: title, Detail: detail})
	}
	return steps
}

// splitStep splits a step item on the first colon or sentence period
// into title and detail, capping the title length.
func splitStep(item string) (string, string) {
	title, detail := item, ""
	if i := strings.IndexAny(item, ":"); i > 0 {
		title, detail = item[:i], item[i+1:]
	} else if i := strings.Index(item, ". "); i > 0 {
		title, detail = item[:i], item[i+2:]
	}
	title = strings.TrimSpace(title)
	if len(title) > model.MaxStepTitleLen {
		title = model.Truncate(title, model.MaxStepTitleLen)
	}
	return title, strings.TrimSpace(detail)
}

// officialLinks returns every anchor whose resolved URL points at an
// official domain. Anchors with empty visible text are skipped.
func officialLinks(doc Document, officialDomains []string) []model.ExternalLink {
	var out []model.ExternalLink
	seen := make(map[string]bool)
	for _, link := range Links(doc) {
		if link.Text == "" {
			continue
		}
		host := classifier.HostOf(link.URL)
		if host == "" || !classifier.IsOfficialHost(host, officialDomains) {
			continue
		}
		if seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		out = append(out, model.ExternalLink{Title: link.Text, URL: link.URL})
	}
	return out
}

// containsAny reports whether text contains any of the keywords,
// case-insensitively.
func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
