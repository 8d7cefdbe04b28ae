// Package config defines configuration for the ingestion pipeline:
// crawl bounds, politeness delays, classifier keyword sets and
// thresholds, and extractor section keywords. Defaults live here;
// a YAML config file and CLI flags overlay them.
package config
