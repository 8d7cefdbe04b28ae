// Package extractor turns raw HTML into a normalized page summary plus
// structured visa-type records.
//
// Extraction is heuristic: regex and section-based, not semantic. Each
// rule is a small pure function taking already-isolated input, composed
// by a thin orchestrator (Extractor.Extract). A failing section yields
// an empty result for that section only; the single fatal condition is
// a missing title, reported as ErrNoTitle and treated by callers as
// "skip this page".
//
// The extractor depends on a narrow DOM query capability (Document,
// Node) implemented once on goquery, never on a concrete parser.
package extractor
