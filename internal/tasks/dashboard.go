package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/session"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// Dashboard request sizes.
const (
	topTracksFetchLimit  = 50
	topArtistsLimit      = 10
	savedAlbumsLimit     = 10
	playlistsLimit       = 50
	recentlyPlayedLimit  = 20
	savedShowsLimit      = 20
	DefaultTopTrackLimit = 20
)

// Snapshot is everything the dashboard views display, read in one pass.
type Snapshot struct {
	Profile        *services.SpotifyUser      `json:"profile"`
	TopTracks      []services.SpotifyTrack    `json:"top_tracks"`
	TopArtists     []services.SpotifyArtist   `json:"top_artists"`
	SavedAlbums    []services.SavedAlbum      `json:"saved_albums"`
	Playlists      []services.SpotifyPlaylist `json:"playlists"`
	NowPlaying     *services.CurrentlyPlaying `json:"now_playing"`
	RecentlyPlayed []services.PlayHistory     `json:"recently_played"`
	SavedShows     []services.SavedShow       `json:"saved_shows"`
}

// Dashboard aggregates the dashboard reads into a [Snapshot].
type Dashboard struct {
	music          services.MusicService
	session        *session.Session
	logger         *log.Logger
	topTracksLimit int
}

// NewDashboard creates an aggregator. sess, when non-nil, records the profile's user ID as the session owner.
func NewDashboard(music services.MusicService, sess *session.Session, logger *log.Logger, topTracksLimit int) *Dashboard {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if topTracksLimit <= 0 {
		topTracksLimit = DefaultTopTrackLimit
	}
	return &Dashboard{
		music:          music,
		session:        sess,
		logger:         shared.WithLogger(logger, "component", "dashboard"),
		topTracksLimit: topTracksLimit,
	}
}

type dashboardRead struct {
	name     string
	fetch    func(ctx context.Context, snap *Snapshot) error
	optional bool
}

// Load reads every section concurrently.
//
// The profile, top tracks, top artists, saved albums and playlists are required: any failure among them
// fails the load, and an authentication failure takes precedence so the caller can sign out. The player
// state, recently played and saved shows are best effort.
func (d *Dashboard) Load(ctx context.Context, progress chan<- ProgressUpdate) (*Snapshot, error) {
	if d.music == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}

	snap := &Snapshot{
		TopTracks:      []services.SpotifyTrack{},
		TopArtists:     []services.SpotifyArtist{},
		SavedAlbums:    []services.SavedAlbum{},
		Playlists:      []services.SpotifyPlaylist{},
		RecentlyPlayed: []services.PlayHistory{},
		SavedShows:     []services.SavedShow{},
	}

	reads := []dashboardRead{
		{name: "profile", fetch: d.readProfile},
		{name: "top tracks", fetch: d.readTopTracks},
		{name: "top artists", fetch: d.readTopArtists},
		{name: "saved albums", fetch: d.readSavedAlbums},
		{name: "playlists", fetch: d.readPlaylists},
		{name: "now playing", fetch: d.readNowPlaying, optional: true},
		{name: "recently played", fetch: d.readRecentlyPlayed, optional: true},
		{name: "saved shows", fetch: d.readSavedShows, optional: true},
	}

	// Each read owns a distinct field of snap.
	errs := make([]error, len(reads))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, r := range reads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.fetch(ctx, snap)

			mu.Lock()
			done++
			step := done
			mu.Unlock()
			sendProgress(progress, dashboardUpdate(step, len(reads), r.name))
		}()
	}
	wg.Wait()

	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		r := reads[i]
		if shared.IsAuthError(err) {
			d.logger.Warn("dashboard load rejected", "section", r.name, "error", err)
			return nil, err
		}
		if r.optional {
			d.logger.Warn("skipping dashboard section", "section", r.name, "error", err)
			continue
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to load %s: %w", r.name, err)
		}
	}
	if firstErr != nil {
		d.logger.Error("dashboard load failed", "error", firstErr)
		return nil, firstErr
	}

	if d.session != nil && snap.Profile != nil {
		d.session.SetOwner(snap.Profile.ID)
	}
	return snap, nil
}

// Playlists re-reads the user's playlists, e.g. after a new one was saved.
func (d *Dashboard) Playlists(ctx context.Context) ([]services.SpotifyPlaylist, error) {
	page, err := d.music.UserPlaylists(ctx, playlistsLimit, 0)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return []services.SpotifyPlaylist{}, nil
	}
	return page.Items, nil
}

func (d *Dashboard) readProfile(ctx context.Context, snap *Snapshot) error {
	user, err := d.music.UserProfile(ctx)
	if err != nil {
		return err
	}
	snap.Profile = user
	return nil
}

func (d *Dashboard) readTopTracks(ctx context.Context, snap *Snapshot) error {
	page, err := d.music.TopTracks(ctx, topTracksFetchLimit, services.MediumTerm)
	if err != nil || page == nil {
		return err
	}
	snap.TopTracks = PreviewableTracks(page.Items, d.topTracksLimit)
	return nil
}

func (d *Dashboard) readTopArtists(ctx context.Context, snap *Snapshot) error {
	page, err := d.music.TopArtists(ctx, topArtistsLimit, services.ShortTerm)
	if err != nil || page == nil {
		return err
	}
	snap.TopArtists = page.Items
	return nil
}

func (d *Dashboard) readSavedAlbums(ctx context.Context, snap *Snapshot) error {
	page, err := d.music.SavedAlbums(ctx, savedAlbumsLimit)
	if err != nil || page == nil {
		return err
	}
	snap.SavedAlbums = page.Items
	return nil
}

func (d *Dashboard) readPlaylists(ctx context.Context, snap *Snapshot) error {
	page, err := d.music.UserPlaylists(ctx, playlistsLimit, 0)
	if err != nil || page == nil {
		return err
	}
	snap.Playlists = page.Items
	return nil
}

func (d *Dashboard) readNowPlaying(ctx context.Context, snap *Snapshot) error {
	playing, err := d.music.CurrentlyPlaying(ctx)
	if err != nil {
		return err
	}
	snap.NowPlaying = playing
	return nil
}

func (d *Dashboard) readRecentlyPlayed(ctx context.Context, snap *Snapshot) error {
	page, err := d.music.RecentlyPlayed(ctx, recentlyPlayedLimit)
	if err != nil || page == nil {
		return err
	}
	snap.RecentlyPlayed = page.Items
	return nil
}

func (d *Dashboard) readSavedShows(ctx context.Context, snap *Snapshot) error {
	page, err := d.music.SavedShows(ctx, savedShowsLimit)
	if err != nil || page == nil {
		return err
	}
	snap.SavedShows = page.Items
	return nil
}

// PreviewableTracks keeps the tracks that have an audio preview, falling back to all tracks when none do,
// and caps the result at limit.
func PreviewableTracks(tracks []services.SpotifyTrack, limit int) []services.SpotifyTrack {
	withPreview := make([]services.SpotifyTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.PreviewURL != "" {
			withPreview = append(withPreview, t)
		}
	}
	if len(withPreview) == 0 {
		withPreview = append(withPreview, tracks...)
	}
	if len(withPreview) > limit {
		withPreview = withPreview[:limit]
	}
	return withPreview
}
