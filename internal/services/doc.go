// Package services implements the HTTP clients for the two upstream APIs: Spotify for listening data
// and playlist mutation, and Gemini for text generation.
//
// # Spotify
//
// [SpotifyService] reads its bearer token from a [session.Session] on every call. Responses are normalized:
//   - 401 : the session is invalidated for the token that was sent and [shared.ErrTokenExpired] is returned
//   - 204 : the typed result is nil and the error is nil (nothing playing, for example)
//   - other non-2xx : [shared.UpstreamRequestError] carrying the endpoint path and upstream message
//
// List fields that are missing or null in a 2xx body decode as empty slices, so callers can range
// over them without nil checks. Paginated endpoints decode into [Page].
//
// [SpotifyAuth] builds implicit-grant login URLs with the [SpotifyScopes] the dashboard and
// playlist generator need.
//
// # Gemini
//
// [GeminiService] posts a single-part prompt to generateContent and returns the first candidate's text.
// A missing API key yields [shared.ErrUpstreamConfig] without any network traffic.
//
// # Interfaces
//
// [MusicService] and [TextGenerator] are the surfaces the tasks package depends on, so the pipeline can
// be driven by test doubles.
package services
