package tasks

import (
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/tunesmith/internal/models"
)

// Workspace holds the most recent generated tracklist until it is saved or replaced.
type Workspace struct {
	mu     sync.Mutex
	prompt string
	tracks []models.GeneratedTrack
}

// Set replaces the working tracklist.
func (w *Workspace) Set(prompt string, tracks []models.GeneratedTrack) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompt = strings.TrimSpace(prompt)
	w.tracks = slices.Clone(tracks)
}

// Tracks returns a copy of the working tracklist.
func (w *Workspace) Tracks() []models.GeneratedTrack {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.tracks)
}

// Prompt returns the prompt the tracklist was generated from. It doubles as the default playlist name.
func (w *Workspace) Prompt() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prompt
}

// Empty reports whether there is nothing to save.
func (w *Workspace) Empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tracks) == 0
}

// Clear discards the tracklist after a successful save.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompt = ""
	w.tracks = nil
}
