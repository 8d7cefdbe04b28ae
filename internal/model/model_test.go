package model

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple title", title: "Work Visa", want: "work-visa"},
		{name: "diacritics stripped", title: "Visa de Résidence", want: "visa-de-residence"},
		{name: "punctuation collapsed", title: " Family Visit: Visa! ", want: "family-visit-visa"},
		{name: "digits kept", title: "Visa Type 2", want: "visa-type-2"},
		{name: "only punctuation", title: "---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		max  int
		want string
	}{
		{name: "shorter than max", s: "hello", max: 10, want: "hello"},
		{name: "exact length", s: "hello", max: 5, want: "hello"},
		{name: "truncated within cap", s: "hello world", max: 8, want: "hello..."},
		{name: "marker counted against cap", s: "hello world", max: 10, want: "hello w..."},
		{name: "tiny max drops the marker", s: "hello", max: 2, want: "he"},
		{name: "zero max is no-op", s: "hello", max: 0, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Truncate(tt.s, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
			}
			if tt.max > 0 && len(got) > tt.max {
				t.Errorf("Truncate(%q, %d) = %q exceeds the cap", tt.s, tt.max, got)
			}
		})
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	t.Parallel()

	// Each "é" is two bytes, so the cut point lands inside the second
	// rune and must back up to the rune boundary.
	got := Truncate("ééééé", 6)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 6 {
		t.Errorf("result %q exceeds the cap", got)
	}
	if kept := strings.TrimSuffix(got, "..."); kept != "é" {
		t.Errorf("expected cut on rune boundary, kept %q", kept)
	}
}

func TestCategorizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		title        string
		wantCategory Category
	}{
		{name: "work", title: "Work Visa", wantCategory: CategoryWork},
		{name: "family", title: "Family Visit Visa", wantCategory: CategoryFamily},
		{name: "business", title: "Business Visa Requirements", wantCategory: CategoryBusiness},
		{name: "tourist", title: "Tourist Entry Visa", wantCategory: CategoryTourist},
		{name: "student", title: "Study Permit", wantCategory: CategoryStudent},
		{name: "residence", title: "Permanent Residency", wantCategory: CategoryResidence},
		{name: "transit", title: "Transit Visa", wantCategory: CategoryTransit},
		{name: "case insensitive", title: "WORK VISA", wantCategory: CategoryWork},
		{name: "no match", title: "Contact Us", wantCategory: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			category, purpose, audience := CategorizeTitle(tt.title)
			if category != tt.wantCategory {
				t.Errorf("CategorizeTitle(%q) category = %q, want %q", tt.title, category, tt.wantCategory)
			}
			if tt.wantCategory == CategoryOther {
				if purpose != "" || audience != "" {
					t.Errorf("expected empty purpose/audience for other, got %q / %q", purpose, audience)
				}
			} else if purpose == "" || audience == "" {
				t.Errorf("expected non-empty purpose/audience, got %q / %q", purpose, audience)
			}
		})
	}
}

func TestComputeHashes(t *testing.T) {
	t.Parallel()

	src := &Source{URL: "https://example.gov/visa", RawHTML: []byte("<html></html>")}
	src.ComputeHashes()

	if src.URLHash != HashString(src.URL) {
		t.Error("URLHash does not match HashString of the URL")
	}
	if src.ContentHash != HashBytes(src.RawHTML) {
		t.Error("ContentHash does not match HashBytes of the body")
	}
	if len(src.URLHash) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(src.URLHash))
	}
}

func TestHashBytesEmpty(t *testing.T) {
	t.Parallel()

	// SHA-256 of the empty input is a well-known constant.
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashBytes(nil); got != want {
		t.Errorf("HashBytes(nil) = %q, want %q", got, want)
	}
}
