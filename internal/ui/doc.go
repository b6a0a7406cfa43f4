// Package ui implements an interactive movie browser using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [BrowseView] : Popular movies, or search results after pressing /
//  2. [FavoritesView] : The favorites list, kept current through the reconciler's change hook
//  3. [DetailView] : Full record for one movie, fetched on enter
//
// Pressing f on any movie toggles it as a favorite. The header shows who is signed in and the sync state.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Favorites changes flow through a channel fed by the reconciler, so remote sync results re-render without polling.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
