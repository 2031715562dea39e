// Package repositories implements SQLite persistence for the playlist splitter.
//
// The database is optional bookkeeping: the CSV files remain the source of truth for track data.
//
// Key Implementations:
//   - [RunRepository] : One row per analyze, export, materialize or split invocation, with its counters and outcome
//   - [TagCacheRepository] : Scraped tag lists keyed by (artist, title), consulted before hitting last.fm
//
// The schema is created by the embedded migrations in the shared package.
package repositories
