// Package services implements reelx's HTTP-facing clients: the movie catalog and the identity services.
//
// # Movie Catalog
//
// [TMDBService] implements [Catalog] against The Movie Database v3 API.
// Requests carry the API key as a query parameter and pass through a [rate.Limiter] before being sent.
// Responses are mapped onto [models.Movie] so the rest of the app never sees TMDB wire types.
//
// # Google Sign-In
//
// [GoogleSignIn] drives the OAuth2 authorization code flow against Google with the openid, email, and
// profile scopes. The loopback server in package server receives the callback, and [GoogleSignIn.Exchange]
// returns the Google ID token carried in the token response.
//
// # Firebase Identity
//
// [FirebaseAuth] talks to the Identity Toolkit and Secure Token REST endpoints with the project's web
// API key. It exchanges a Google ID token (or an email and password) for a Firebase session and
// refreshes expired ID tokens.
//
// [FirebaseVerifier] wraps the Firebase Admin SDK and verifies ID tokens when credentials are configured.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : API key or OAuth client not configured
//   - [shared.ErrInvalidCredentials] : API key, password, or token rejected
//   - [shared.ErrRefreshFailed] : refresh token rejected; the session must be discarded
//   - [shared.ErrServiceUnavailable] : network failure; callers may keep cached state
//   - [shared.ErrMovieNotFound] : unknown movie id
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
