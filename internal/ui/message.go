package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDashboardLoaded MsgKind = iota
	MsgNowPlaying
	MsgPollStopped
	MsgGenerated
	MsgProgressUpdate
	MsgSaveComplete
	MsgPlaylistsRefreshed
)

type dashboardLoaded struct {
	snapshot *tasks.Snapshot
	err      error
}

type generated struct {
	prompt string
	tracks []models.GeneratedTrack
	err    error
}

type saveComplete struct {
	playlist *models.Playlist
	err      error
}

type playlistsRefreshed struct {
	playlists []services.SpotifyPlaylist
	err       error
}

// dashboardLoadedMsg is the constructor for [MsgDashboardLoaded]
func dashboardLoadedMsg(snap *tasks.Snapshot, err error) Msg {
	return Msg{kind: MsgDashboardLoaded, data: dashboardLoaded{snap, err}}
}

// nowPlayingMsg is the constructor for [MsgNowPlaying]
func nowPlayingMsg(np tasks.NowPlaying) Msg {
	return Msg{kind: MsgNowPlaying, data: np}
}

// pollStoppedMsg is the constructor for [MsgPollStopped]
func pollStoppedMsg(err error) Msg {
	return Msg{kind: MsgPollStopped, data: err}
}

// generatedMsg is the constructor for [MsgGenerated]
func generatedMsg(prompt string, tracks []models.GeneratedTrack, err error) Msg {
	return Msg{kind: MsgGenerated, data: generated{prompt, tracks, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// saveCompleteMsg is the constructor for [MsgSaveComplete]
func saveCompleteMsg(pl *models.Playlist, err error) Msg {
	return Msg{kind: MsgSaveComplete, data: saveComplete{pl, err}}
}

// playlistsRefreshedMsg is the constructor for [MsgPlaylistsRefreshed]
func playlistsRefreshedMsg(playlists []services.SpotifyPlaylist, err error) Msg {
	return Msg{kind: MsgPlaylistsRefreshed, data: playlistsRefreshed{playlists, err}}
}
