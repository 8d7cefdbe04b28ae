// Package pipeline orchestrates one ingestion run: it drains the crawl
// frontier through a bounded worker pool, applying politeness, fetch
// retries, two-stage relevance classification, extraction and loading
// to every admitted URL, and aggregates the results into a run summary.
package pipeline
