// Package tasks orchestrates the playlist generator and the dashboard reads with real-time progress reporting.
//
// # Playlist Synthesis
//
//  1. [Generator.Generate] : prompt → at most ten [models.GeneratedTrack]
//     - Wraps the prompt in the curator instructions ([BuildPrompt])
//     - Scans the free-form reply for a JSON array ([ExtractTracklist])
//
//  2. [PlaylistEngine.Synthesize] : tracks → saved [models.Playlist]
//     - Resolve: one concurrent search per track; failures yield unmatched refs, order is kept
//     - Create: one playlist for the draft name (never when nothing matched)
//     - Populate: one add call with at most 100 matched URIs
//
// Failures are reported as [*SynthesisError], which unwraps to the phase sentinel and to the upstream
// cause. [StatusLine] turns any outcome into the single line shown to the user. A populate failure
// leaves the empty playlist in place; there is no rollback.
//
// # Dashboard
//
// [Dashboard.Load] fans out the profile, top items, saved albums, playlists and player reads into a
// [Snapshot]. An authentication failure ends the load; the music client has already invalidated the
// session by then, once, for the token that was rejected.
//
// [NowPlayingPoller] refreshes the player state on a fixed pace until cancelled.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
