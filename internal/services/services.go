package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/desertthunder/tunesmith/internal/models"
)

// MusicService is the music-service surface used by the synthesis pipeline and the dashboards.
// [SpotifyService] implements it.
type MusicService interface {
	UserProfile(ctx context.Context) (*SpotifyUser, error)
	TopTracks(ctx context.Context, limit int, timeRange string) (*Page[SpotifyTrack], error)
	TopArtists(ctx context.Context, limit int, timeRange string) (*Page[SpotifyArtist], error)
	SavedAlbums(ctx context.Context, limit int) (*Page[SavedAlbum], error)
	SavedShows(ctx context.Context, limit int) (*Page[SavedShow], error)
	UserPlaylists(ctx context.Context, limit, offset int) (*Page[SpotifyPlaylist], error)
	CurrentlyPlaying(ctx context.Context) (*CurrentlyPlaying, error)
	RecentlyPlayed(ctx context.Context, limit int) (*Page[PlayHistory], error)

	// SearchTrack returns the single best match for query, or nil when nothing matched.
	SearchTrack(ctx context.Context, query string) (*SpotifyTrack, error)

	// CreatePlaylist creates an empty playlist for draft.OwnerID.
	CreatePlaylist(ctx context.Context, draft models.PlaylistDraft) (*SpotifyPlaylist, error)

	// AddTracks appends at most [models.MaxTracksPerAdd] URIs in one call.
	AddTracks(ctx context.Context, playlistID string, uris []string) (string, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TextGenerator sends prompts to a generative-text model. [GeminiService] implements it.
type TextGenerator interface {
	// GenerateContent returns the text of the first candidate for prompt.
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// ListModels returns the upstream model listing verbatim.
	ListModels(ctx context.Context) (json.RawMessage, error)
}

// upstreamMessage extracts error.message from a Google-style or Spotify-style error body.
func upstreamMessage(body io.Reader) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&errResp); err != nil {
		return ""
	}
	return errResp.Error.Message
}
