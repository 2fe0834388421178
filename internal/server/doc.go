// Package server provides HTTP routing, middleware, the JSON API and the OAuth callback used by
// `tunesmith serve` and `tunesmith auth login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// The [BasicRouter] implementation uses [http.ServeMux] with method-qualified patterns ("GET /api/session")
// and chains [Middleware] with alice, so the first middleware added is the outermost.
//
// # Implicit-Grant Callback
//
// [OAuthHandler] serves GET /callback, a page that lifts the access token out of the URL fragment and
// posts it to /callback/token. The token endpoint checks the state value and hands the token to the
// session. The CLI uses a single-use handler and reads [OAuthHandler.Result]; the web server keeps a
// reusable one mounted for as long as it runs.
//
// # JSON API
//
// [API] mounts the dashboard endpoints. Errors are always {"error": message}. A token rejected by
// Spotify answers 401 and the session is left expired so the page can send the user back to /login.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
