// Package models defines the entities passed between the playlist splitter's stages.
//
// The package contains two categories of types:
//
// 1. Pipeline values: plain structs flowing from the provider through enrichment to the CSV table
//   - [TrackPayload] : Raw playlist entry as returned by the provider
//   - [TrackRecord] : Track with its genre tags, one row of the CSV table
//   - [TrackKey] : Exact (title, artist) identity used to skip already enriched tracks
//   - [FailedTrack] : Payload whose enrichment failed, kept for diagnostics
//
// 2. Persistent entities: database-backed history
//   - [Run] : One invocation of analyze, export, materialize or split with its counters
package models
