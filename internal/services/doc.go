// Package services defines the [Library] interface to the host music service
// and implements it for Apple Music.
//
// # Library Interface
//
// The matcher and plan builder never perform network calls; they consume
// album snapshots materialized through [Library]. Anything that can produce
// validated snapshots and apply add/remove operations can stand in for the
// real service, which is how the engine is tested.
//
// # Apple Music Implementation
//
// [AppleMusicService] talks to the amp-api storefront service. The developer
// token rides on every request as a Bearer header through a static [oauth2]
// token source; library endpoints additionally send the Media-User-Token
// header. A client-level [rate.Limiter] paces all requests.
//
// Fetched snapshots pass hard validation before anyone sees them:
// [ValidateCatalogSnapshot] and [ValidateLibrarySnapshot] reject malformed
// listings at the boundary, and [ValidatePair] rejects source/destination
// pairs that are not two versions of the same album.
//
// # Executor
//
// [Executor.Apply] walks a plan's operations in order. Plans put every Add
// before any Remove, so a run that stops at a failure never removes a song
// whose replacement was not added first. Each attempted operation is
// attributed in the [ApplyResult].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : missing or rejected tokens
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrAlbumNotFound] : album ID not found
//   - [shared.ErrInvalidSnapshot] : fetched album failed validation
//   - [shared.ErrSnapshotPair] : source and destination are not migratable
//   - [shared.ErrMigrationFailed] : an operation failed mid-apply
package services
