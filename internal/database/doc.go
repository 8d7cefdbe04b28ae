// Package database provides SQLite-backed persistence for crawl
// sources, normalized pages, visa-type records and the append-only
// change log. It uses modernc.org/sqlite, a pure-Go driver requiring
// no CGO.
package database
