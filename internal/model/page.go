package model

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSummaryLen is the maximum length of a page summary in characters.
// Longer summaries are truncated with an ellipsis marker.
const MaxSummaryLen = 2000

// Page is the parsed representation of a Source. At most one Page
// exists per Source. When the Source's content hash changes the Page is
// regenerated from scratch, never patched.
type Page struct {
	// ID is the database identifier. Zero before the first insert.
	ID int64 `json:"id"`

	// SourceID references the owning Source.
	SourceID int64 `json:"source_id"`

	// Title is the extracted page title. A page without a title is
	// never stored; title extraction failure skips the page.
	Title string `json:"title"`

	// Slug is a URL-safe identifier derived from the title.
	Slug string `json:"slug"`

	// Summary is a short description of the page, at most
	// MaxSummaryLen characters.
	Summary string `json:"summary"`

	// FullText is the whitespace-normalized body text with script,
	// style, navigation, footer and advertisement subtrees removed.
	FullText string `json:"full_text"`

	// ContentHTML is the markup of the main content container when one
	// was identified, empty otherwise.
	ContentHTML string `json:"content_html,omitempty"`

	// PageUpdatedAt is the last-updated timestamp declared by the page
	// itself (time elements, meta tags), not the fetch time. Nil when
	// the page declares none or the declared value is unparseable.
	PageUpdatedAt *time.Time `json:"page_updated_at,omitempty"`

	// CreatedAt and UpdatedAt track the row lifecycle in the store.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Truncate shortens s so the result, ellipsis marker included, never
// exceeds max characters.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	const marker = "..."
	if max <= len(marker) {
		return cutAtRune(s, max)
	}
	return cutAtRune(s, max-len(marker)) + marker
}

// cutAtRune cuts s at or before the given byte offset, backing up to a
// rune boundary so a multi-byte character is never split.
func cutAtRune(s string, cut int) string {
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut]
}

// utf8Start reports whether b is the first byte of a UTF-8 sequence.
func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

// Slugify derives a URL-safe slug from a title: diacritics stripped,
// lowercased, runs of non-alphanumeric characters collapsed to single
// dashes.
//
// Design decision: We strip diacritics via NFD decomposition rather than
// dropping non-ASCII outright because portal titles mix transliterated
// Arabic and French terms; "Visa de Résidence" should slug to
// "visa-de-residence", not "visa-de-r-sidence".
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, title)
	if err != nil {
		stripped = title
	}

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
