// Package tasks orchestrates album version migrations against a music library with real-time progress reporting.
//
// # Core Operations
//
// The [MigrationEngine] interface defines three operations:
//
//  1. [MigrationEngine.Plan] : Compute a migration plan between two versions
//     - Fetches the source library snapshot and destination catalog snapshot
//     - Matches every library entry against the destination (strict, ambiguity-rejecting)
//     - Returns the ordered Add/Remove plan with warnings and unmatched tracks
//
//  2. [MigrationEngine.Apply] : Plan and then perform the migration
//     - Records the planned run before the first mutation
//     - Walks the plan in order, all adds before any remove, stopping at the first failure
//     - Updates the run record with applied counts and final status
//
//  3. [MigrationEngine.Export] : Bulk snapshot export
//     - Fetches library and catalog snapshots through a bounded worker pool
//     - Writes each album to disk with a manifest summarizing the run
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Snapshot Caching
//
// The optional [AlbumCacher] interface enables automatic snapshot persistence during operations
//
// Snapshots are cached silently (errors ignored) to avoid disrupting migrations.

// This supports offline plan review across future operations and inspection of stale library state.
//
// # Implementation
//
// [AlbumEngine] implements [MigrationEngine] with dependencies on:
//   - [services.Library] : host storefront API client
//   - [services.Executor] : ordered plan application
//   - [RunRecorder] : Optional run history (repositories.RunRepository)
//   - [AlbumCacher] : Optional persistence layer (repositories.AlbumCacheAdapter)
package tasks
