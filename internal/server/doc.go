// Package server provides HTTP routing, middleware, and token capture handling for the CLI login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] is applied in reverse order, so the first middleware added sees the request first, following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Token Capture Handler
//
// TokenHandler implements the user token capture flow behind `amx auth login`.
//
// The handler serves the embedded authorization page, validates the state parameter (CSRF protection)
// on the posted token, and sends the result through a channel.
//
// It only processes one submission to prevent replay attacks.
//
// # Current Usage
//
// When the user runs `amx auth login`, a temporary HTTP server starts on localhost, the browser opens
// the authorization page, the page's bridge script mints a user token and posts it back, and the
// server shuts down after receiving it.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
