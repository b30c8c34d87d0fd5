// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [RunRepository] : Migration run history with status and storefront filters
//   - [AlbumRepository] : Album snapshot caching with catalog and library id lookups
//   - [AlbumCacheAdapter] : Automatic snapshot refresh after album fetches
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42, album #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
