package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// User-facing failure messages, one per pipeline phase.
const (
	msgNoMatches      = "Could not find any of the generated songs on Spotify."
	msgCreateFailed   = "Failed to create the playlist on Spotify."
	msgPopulateFailed = "Failed to add tracks to the playlist."
	msgUnexpected     = "An unexpected error occurred."
)

// SynthesisError reports which phase of [PlaylistEngine.Synthesize] failed.
//
// It unwraps to both the phase sentinel (Err) and the underlying cause, so errors.Is works for either.
type SynthesisError struct {
	Phase   Phase
	Message string // user-facing
	Err     error  // phase sentinel: shared.ErrNoMatchesFound, ErrPlaylistCreate or ErrPlaylistPopulate
	Cause   error  // upstream failure, if any
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SynthesisError) Unwrap() []error {
	errs := []error{e.Err}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// StatusLine renders the outcome of a failed save for display.
// Errors become "Error: <message>"; anything else (a recovered panic value) is reported as unexpected.
func StatusLine(v any) string {
	var synthErr *SynthesisError
	switch err := v.(type) {
	case error:
		if errors.As(err, &synthErr) {
			return "Error: " + synthErr.Message
		}
		return "Error: " + err.Error()
	default:
		return msgUnexpected
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// PlaylistEngine resolves generated tracks on the music service and saves them as a new playlist.
type PlaylistEngine struct {
	music  services.MusicService
	logger *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine backed by music.
func NewPlaylistEngine(music services.MusicService, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{music: music, logger: shared.WithLogger(logger, "component", "synthesis")}
}

// Resolve searches for every track concurrently and returns one ref per input, in input order.
// It never fails: a search error or panic yields an unmatched ref.
//
// The first authentication error seen is returned alongside so callers can tell a dead session from
// songs that simply do not exist.
func (e *PlaylistEngine) Resolve(ctx context.Context, tracks []models.GeneratedTrack) ([]models.ResolvedTrackRef, error) {
	refs := make([]models.ResolvedTrackRef, len(tracks))
	errs := make([]error, len(tracks))

	var wg sync.WaitGroup
	for i, track := range tracks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs[i], errs[i] = e.resolveOne(ctx, track)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if shared.IsAuthError(err) {
			return refs, err
		}
	}
	return refs, nil
}

func (e *PlaylistEngine) resolveOne(ctx context.Context, track models.GeneratedTrack) (ref models.ResolvedTrackRef, err error) {
	ref = models.ResolvedTrackRef{Source: track}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("search panicked", "song", track.Song, "artist", track.Artist, "panic", r)
			ref, err = models.ResolvedTrackRef{Source: track}, nil
		}
	}()

	found, err := e.music.SearchTrack(ctx, track.Query())
	if err != nil {
		e.logger.Warn("search failed", "song", track.Song, "artist", track.Artist, "error", err)
		return ref, err
	}
	if found == nil || found.URI == "" {
		e.logger.Debug("no match", "query", track.Query())
		return ref, nil
	}

	ref.URI = found.URI
	ref.Name = found.Name
	return ref, nil
}

// Synthesize resolves tracks, creates a playlist for draft and adds the matched tracks to it.
//
// An empty draft.OwnerID is filled from the user's profile. At most [models.MaxTracksPerAdd] tracks are
// added. There is no rollback: when adding tracks fails the empty playlist remains. Failures are
// returned as [*SynthesisError].
func (e *PlaylistEngine) Synthesize(ctx context.Context, progress chan<- ProgressUpdate, draft models.PlaylistDraft, tracks []models.GeneratedTrack) (*models.Playlist, error) {
	if e.music == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, models.ErrEmptyPlaylistName)
	}

	sendProgress(progress, resolveUpdate(len(tracks)))
	refs, authErr := e.Resolve(ctx, tracks)
	uris := models.MatchedURIs(refs)
	sendProgress(progress, resolvedTracksUpdate(refs, len(uris)))

	if len(uris) == 0 {
		return nil, &SynthesisError{Phase: Resolve, Message: msgNoMatches, Err: shared.ErrNoMatchesFound, Cause: authErr}
	}

	sendProgress(progress, createUpdate(draft.Name))
	created, err := e.create(ctx, draft)
	if err != nil {
		return nil, &SynthesisError{Phase: Create, Message: msgCreateFailed, Err: shared.ErrPlaylistCreate, Cause: err}
	}

	if len(uris) > models.MaxTracksPerAdd {
		e.logger.Warn("truncating track list", "matched", len(uris), "limit", models.MaxTracksPerAdd)
		uris = uris[:models.MaxTracksPerAdd]
	}

	sendProgress(progress, populateUpdate(len(uris)))
	if _, err := e.music.AddTracks(ctx, created.ID, uris); err != nil {
		e.logger.Error("playlist left empty", "playlist", created.ID, "error", err)
		return nil, &SynthesisError{Phase: Populate, Message: msgPopulateFailed, Err: shared.ErrPlaylistPopulate, Cause: err}
	}

	playlist := created.ToModel()
	playlist.TrackCount = len(uris)

	e.logger.Info("playlist saved", "id", playlist.ID, "name", playlist.Name, "tracks", len(uris), "requested", len(tracks))
	sendProgress(progress, completeUpdate(playlist))
	return playlist, nil
}

func (e *PlaylistEngine) create(ctx context.Context, draft models.PlaylistDraft) (*services.SpotifyPlaylist, error) {
	if draft.OwnerID == "" {
		user, err := e.music.UserProfile(ctx)
		if err != nil {
			return nil, err
		}
		if user == nil || user.ID == "" {
			return nil, fmt.Errorf("%w: profile has no user id", shared.ErrAPIRequest)
		}
		draft.OwnerID = user.ID
	}

	created, err := e.music.CreatePlaylist(ctx, draft)
	if err != nil {
		return nil, err
	}
	if created == nil || created.ID == "" {
		return nil, fmt.Errorf("%w: reply has no playlist id", shared.ErrAPIRequest)
	}
	return created, nil
}
