// Package main provides the entry point for the visaingest CLI.
//
// visaingest crawls a government visa portal, classifies and extracts
// visa-type information from its pages, and maintains a local SQLite
// dataset with change tracking across runs.
//
// Usage:
//
//	visaingest run --base-url https://portal.example.gov
//	visaingest stats
//
// See --help for all available options.
package main

// main is the entry point for visaingest.
func main() {
	Execute()
}
