// Package models defines the domain types shared by reelx's stores, services, and UI.
//
// The package contains three groups of types:
//
// 1. Catalog items: movie metadata returned by the metadata service and stored as favorites
//   - [ItemID] : Opaque item identifier, tolerant of legacy numeric ids
//   - [Movie] : Typed item record with optional display attributes and fallbacks
//   - [FavoritesList] : Ordered, id-unique list of movies
//
// 2. Identity: who is signed in and whether that is known yet
//   - [UserIdentity] : Stable user id plus display metadata
//   - [IdentityState] : Nullable user with a loading flag
//   - [Session] : Persisted sign-in with tokens
//
// 3. Local journal data: per-device records kept in the key-value store
//   - [Todo], [Note], [Review], [Theme]
//
// Types that accept user input implement Validate.
package models
