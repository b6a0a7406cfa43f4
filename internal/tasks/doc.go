// Package tasks runs long catalog operations over the favorites list with real-time progress reporting.
//
// # Enrichment
//
// Favorites are stored as summaries. [Enricher.Enrich] fetches the full record (runtime, genres, cast) for
// every favorite from a [services.Catalog] using a worker pool:
//   - jobs are fed to a fixed number of workers (default 4, at most 8)
//   - every catalog request waits on a shared [rate.Limiter]
//   - a failed lookup keeps the stored summary and is reported per item; it never fails the whole run
//
// Results come back in the list's original order.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
