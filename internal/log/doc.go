// Package log provides structured logging for the ingestion pipeline
// built on log/slog, with a handler wrapper that truncates oversized
// attribute values such as page text and diff previews.
package log
