package loader

import (
	"strings"

	"github.com/dohadev/visaingest/internal/model"
)

// Diff summarizes what differs between two versions of a page's text.
type Diff struct {
	// Added and Removed count lines present only in the new and only
	// in the old text respectively.
	Added   int
	Removed int

	// Preview holds up to model.MaxPreviewLines changed lines, removals
	// first, each prefixed with "- " or "+ " and truncated to
	// model.MaxPreviewLineLen characters.
	Preview []string
}

// DiffText compares two texts line by line as multisets: a line
// appearing three times in the old text and once in the new counts as
// two removals. Line order does not matter.
//
// Design decision: A multiset comparison instead of a positional diff.
// Extracted page text has no stable line order to speak of (template
// reshuffles move whole blocks), so a positional diff would report huge
// changes for cosmetic moves. Counting occurrences reports only real
// content differences.
func DiffText(oldText, newText string) Diff {
	oldCounts := lineCounts(oldText)
	newCounts := lineCounts(newText)

	var d Diff
	for line, oldN := range oldCounts {
		if n := oldN - newCounts[line]; n > 0 {
			d.Removed += n
			d.addPreview("- " + line)
		}
	}
	for line, newN := range newCounts {
		if n := newN - oldCounts[line]; n > 0 {
			d.Added += n
			d.addPreview("+ " + line)
		}
	}
	return d
}

// addPreview appends a preview line, respecting the count and length
// caps.
func (d *Diff) addPreview(line string) {
	if len(d.Preview) >= model.MaxPreviewLines {
		return
	}
	d.Preview = append(d.Preview, model.Truncate(line, model.MaxPreviewLineLen))
}

// lineCounts returns per-line occurrence counts, ignoring blank lines
// and surrounding whitespace.
func lineCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		counts[line]++
	}
	return counts
}
