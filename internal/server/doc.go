// Package server provides HTTP routing, middleware, and the loopback OAuth callback used by `reelx auth login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback for Google sign-in.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for a Google
// ID token through a [CodeExchanger], and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// When the user runs `reelx auth login`, a temporary HTTP server starts on the configured loopback address,
// handles the callback, and shuts down after receiving the ID token. The ID token is then exchanged for a
// Firebase session.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
