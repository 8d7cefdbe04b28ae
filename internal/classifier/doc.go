// Package classifier implements the two-stage relevance scorer that
// decides whether a URL or fetched page belongs to the visa domain.
// The URL stage is a cheap pre-fetch filter; the content stage is a
// weighted additive score out of 100 with a configurable acceptance
// threshold. Every decision carries its reasons for observability.
package classifier
