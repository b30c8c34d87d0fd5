// Package models defines domain entities and persistence interfaces for the AMX album migration tool.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing Apple Music data
//   - [Album] : Point-in-time snapshot of one album version with its tracks
//   - [Track] : Catalog track metadata with ISRC and position for matching
//   - [LibraryEntry] : One library copy of a track, carrying its own library ID
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [MigrationRun] : Planned and executed migrations with per-operation counts
//   - [CachedAlbum] : Stored album snapshots with their raw JSON payloads
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
