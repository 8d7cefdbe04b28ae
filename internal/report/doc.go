// Package report renders ingestion run summaries and store statistics
// as plain text or Markdown.
package report
