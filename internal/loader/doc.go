// Package loader persists fetched pages and their extracted records,
// detecting content changes by hash comparison and keeping an
// append-only log of what changed between runs.
package loader
