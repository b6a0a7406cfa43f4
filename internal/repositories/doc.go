// Package repositories implements reelx's persistence: a local SQLite-backed key-value store
// and the remote per-user favorites document in Firestore.
//
// Local data lives in a single kv_store table that plays the role of on-device key-value storage.
// Each feature owns one key holding a JSON document:
//   - [FavoritesKey] : the favorites list, read and written by [FavoritesLocalStore]
//   - [TodosKey], [NotesKey] : [TodoRepository] and [NoteRepository]
//   - [ReviewsKey], [UsernameKey] : [ReviewRepository]
//   - [ThemeKey] : [PreferenceRepository]
//
// [JSONDocument] gives every key the same best-effort contract: reads of an absent, malformed, or
// unavailable value yield the zero value, and malformed values are removed.
//
// [SessionRepository] keeps signed-in sessions in their own table and soft deletes them on logout
// via deleted_at, excluding deleted rows from queries.
//
// [FirestoreFavorites] stores each user's favorites as a field on users/{uid}, written with merge
// semantics so other fields on the document survive.
package repositories
