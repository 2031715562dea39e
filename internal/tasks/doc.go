// Package tasks implements the playlist splitting pipeline.
//
// # Core Operations
//
//  1. [Enumerator.Tracks] : Lazily pages through a playlist
//     - Requests [PageSize] entries at a time starting from offset 0
//     - Stops at the first empty page; provider errors end the sequence
//
//  2. [Reconciler.Run] : Enriches enumerated tracks with genre tags
//     - Tracks are identified by (title, first artist)
//     - Keys seen in a previous run ([Reconciler.Load]) are skipped
//     - Failures are recorded, then the [FailurePolicy] decides whether to abort
//
//  3. [ExportGenre] : Writes the tracks matching a genre
//     - Case-insensitive substring match on each tag
//     - Matching records keep only their matching tags
//
//  4. [Materializer.Materialize] : Creates or augments a destination playlist
//     - Skips tracks already in the destination and tracks without an ID
//     - Adds are sent in batches of [AddBatchSize]
//
// # Progress Reporting
//
// Reconciler and Materializer accept an optional progress channel.
// Updates use select with default so a slow reader never blocks the run.
//
// Everything runs on the calling goroutine.
package tasks
