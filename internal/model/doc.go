// Package model defines the core data structures shared across the
// ingestion pipeline: raw fetch records (Source), parsed pages (Page),
// normalized visa types with their owned sub-records (VisaType), and the
// append-only change log (Change).
//
// Design decision: Models are plain structs with no behavior beyond
// hashing and normalization helpers. Persistence lives in the database
// package, extraction in the extractor package. This keeps the model
// package dependency-free and usable from every layer.
package model
