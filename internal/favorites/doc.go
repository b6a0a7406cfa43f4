// Package favorites keeps the favorites list consistent across memory, the local store, and the
// signed-in user's remote document.
//
// # State Machine
//
// A [Reconciler] starts Unauthenticated with its list hydrated from the [LocalStore].
//
//	Unauthenticated --user signs in--> Syncing --fetch resolves--> Synced
//	       ^                                                          |
//	       +--------------------------user signs out------------------+
//
// When a user signs in the reconciler fetches their remote list. If one exists it replaces both the
// in-memory list and the local store, discarding local-only edits. If none exists (or the fetch fails)
// the local list is kept and the next toggle creates the remote document.
//
// Signing out keeps the list in memory and locally but stops remote writes.
//
// # Tasks and Generations
//
// Every remote operation runs in the background as a [Task]. Tasks are tagged with the identity
// generation they were issued under; each sign-in or sign-out starts a new generation. A fetch whose
// generation is no longer current is discarded, and a queued save from an old generation is skipped.
//
// # Failure Handling
//
// Remote failures are logged and never surfaced as errors to the caller of [Reconciler.Toggle].
// Memory is the source of truth for the session.
package favorites
