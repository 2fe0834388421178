// Package models defines the domain entities of the playlist generator and the persistence interfaces.
//
// Pipeline entities flow in one direction:
//   - [GeneratedTrack] : one AI-suggested (song, artist) pair
//   - [ResolvedTrackRef] : the search outcome for a generated track, matched or not
//   - [PlaylistDraft] : a playlist name plus owner before creation
//   - [Playlist] : a playlist that exists on the music service
//
// [Credential] is the only persisted entity. It implements [Model] and is stored through a [Repository].
package models
