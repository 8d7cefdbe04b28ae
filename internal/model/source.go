package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source is one raw fetch record per normalized URL. It owns the raw
// HTML bytes; everything else in the system is derived from it.
//
// Invariants:
//  1. URL is unique across the store (one Source per normalized URL)
//  2. ContentHash changes iff the underlying bytes changed
//
// A Source is created on the first successful fetch of a new URL and
// updated in place on every subsequent fetch, never duplicated.
type Source struct {
	// ID is the database identifier. Zero before the first insert.
	ID int64 `json:"id"`

	// URL is the normalized page URL (fragment stripped, resolved
	// against the configured base).
	URL string `json:"url"`

	// URLHash is the SHA-256 hex digest of URL. Stored alongside the
	// URL so lookups can use a fixed-size key.
	URLHash string `json:"url_hash"`

	// ContentHash is the SHA-256 hex digest of RawHTML. Used to detect
	// unchanged content without comparing full text every run.
	ContentHash string `json:"content_hash"`

	// FirstSeenAt is when this URL was first successfully fetched.
	FirstSeenAt time.Time `json:"first_seen_at"`

	// LastFetchedAt is the wall-clock time of the most recent fetch.
	LastFetchedAt time.Time `json:"last_fetched_at"`

	// StatusCode is the HTTP status of the most recent fetch.
	StatusCode int `json:"status_code"`

	// ETag is the ETag response header of the most recent fetch,
	// empty when the server did not send one.
	ETag string `json:"etag,omitempty"`

	// RawHTML is the raw response body of the most recent fetch.
	// Excluded from JSON to keep log and report payloads small.
	RawHTML []byte `json:"-"`
}

// ComputeHashes fills URLHash and ContentHash from URL and RawHTML.
func (s *Source) ComputeHashes() {
	s.URLHash = HashString(s.URL)
	s.ContentHash = HashBytes(s.RawHTML)
}

// HashBytes returns the SHA-256 hex digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString returns the SHA-256 hex digest of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}
