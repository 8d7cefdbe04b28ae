// Package crawler provides the crawl-management layer of the ingestion
// pipeline: the Frontier (crawl queue with dedup, depth and page-count
// bounds), the Guard (robots.txt compliance plus randomized politeness
// delay) and the Fetcher (bounded HTTP retrieval with a transient vs
// permanent failure taxonomy).
//
// # Politeness
//
// The crawler is designed to be polite to the target portal:
//   - robots.txt rules are honored for the configured user agent
//   - a randomized delay runs before every fetch, retries included
//   - depth and page-count bounds cap the total load per run
//
// # Usage
//
//	frontier, _ := crawler.NewFrontier(base, 3, 150)
//	frontier.Seed(seeds)
//	guard := crawler.NewGuard(ctx, client, base, ua, true)
//	fetcher := crawler.NewHTTPFetcher(client, crawler.WithUserAgent(ua))
//
// The pipeline package wires these together and drives the crawl loop.
package crawler
