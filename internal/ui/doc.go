// Package ui implements the terminal dashboard using bubbletea's Elm architecture.
//
// The dashboard has one section per [View] (home, tracks, playlists, artists, albums, generate). The set is
// closed and a single render method switches over it; tab and the number keys move between views.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The now-playing line is fed by a [tasks.NowPlayingPoller] running in the background and delivering
// results over a channel. Saving a generated tracklist streams [tasks.ProgressUpdate] values the same way.
//
// An expired Spotify session stops polling and replaces every view with a sign-in notice.
package ui
