package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tunesmith/internal/services"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = artistItem{}
	_ list.Item = albumItem{}
)

// playlistItem wraps [services.SpotifyPlaylist] to implement [list.Item].
type playlistItem struct {
	playlist services.SpotifyPlaylist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.Tracks.Total)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [services.SpotifyTrack] to implement [list.Item].
type trackItem struct {
	track services.SpotifyTrack
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.ArtistNames()
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	return desc
}

// artistItem wraps [services.SpotifyArtist] to implement [list.Item].
type artistItem struct {
	artist services.SpotifyArtist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	if len(i.artist.Genres) == 0 {
		return "no genres listed"
	}
	return strings.Join(i.artist.Genres[:min(3, len(i.artist.Genres))], ", ")
}

// albumItem wraps [services.SavedAlbum] to implement [list.Item].
type albumItem struct {
	saved services.SavedAlbum
}

func (i albumItem) FilterValue() string { return i.saved.Album.Name }
func (i albumItem) Title() string       { return i.saved.Album.Name }
func (i albumItem) Description() string {
	names := make([]string, 0, len(i.saved.Album.Artists))
	for _, a := range i.saved.Album.Artists {
		names = append(names, a.Name)
	}
	desc := strings.Join(names, ", ")
	if i.saved.Album.ReleaseDate != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.saved.Album.ReleaseDate)
	}
	return desc
}

func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

func trackItems(tracks []services.SpotifyTrack) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func playlistItems(playlists []services.SpotifyPlaylist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

func artistItems(artists []services.SpotifyArtist) []list.Item {
	items := make([]list.Item, len(artists))
	for i, a := range artists {
		items[i] = artistItem{artist: a}
	}
	return items
}

func albumItems(albums []services.SavedAlbum) []list.Item {
	items := make([]list.Item, len(albums))
	for i, a := range albums {
		items[i] = albumItem{saved: a}
	}
	return items
}
