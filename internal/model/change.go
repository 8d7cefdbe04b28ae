package model

import "time"

// Preview limits for change records. Previews keep the change log
// readable without storing full page text twice.
const (
	// MaxPreviewLines is the maximum number of preview lines stored
	// per change record.
	MaxPreviewLines = 10

	// MaxPreviewLineLen is the maximum length of a single preview line.
	MaxPreviewLineLen = 200
)

// Change is an append-only log entry recording what differed between
// two successive versions of a Page's text. Created exactly once per
// detected content change; never mutated or deleted.
type Change struct {
	// ID is the database identifier. Zero before the first insert.
	ID int64 `json:"id"`

	// PageID references the Page whose content changed.
	PageID int64 `json:"page_id"`

	// CreatedAt is when the change was detected.
	CreatedAt time.Time `json:"created_at"`

	// AddedLines and RemovedLines count lines present only in the new
	// and only in the old text respectively.
	AddedLines   int `json:"added_lines"`
	RemovedLines int `json:"removed_lines"`

	// Preview holds up to MaxPreviewLines changed lines, each prefixed
	// with "+ " or "- " and truncated to MaxPreviewLineLen characters.
	Preview []string `json:"preview,omitempty"`
}
