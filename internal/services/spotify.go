// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/session"
	"github.com/desertthunder/tunesmith/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// Time ranges accepted by the top items endpoints.
const (
	ShortTerm  = "short_term"
	MediumTerm = "medium_term"
	LongTerm   = "long_term"
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"display_name"`
	Email        string         `json:"email"`
	Country      string         `json:"country"`
	Product      string         `json:"product"` // premium, free, etc.
	Followers    followers      `json:"followers"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

func (u *SpotifyUser) normalize() {
	u.Images = nonNil(u.Images)
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Genres       []string       `json:"genres"`
	Images       []SpotifyImage `json:"images"`
	Popularity   int            `json:"popularity"`
	Followers    followers      `json:"followers"`
	URI          string         `json:"uri"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

func (a *SpotifyArtist) normalize() {
	a.Genres = nonNil(a.Genres)
	a.Images = nonNil(a.Images)
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

func (a *SpotifyAlbum) normalize() {
	a.Artists = nonNil(a.Artists)
	a.Images = nonNil(a.Images)
	for i := range a.Artists {
		a.Artists[i].normalize()
	}
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	Popularity   int             `json:"popularity"`
	PreviewURL   string          `json:"preview_url"` // empty when the service offers no preview
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

func (t *SpotifyTrack) normalize() {
	t.Artists = nonNil(t.Artists)
	for i := range t.Artists {
		t.Artists[i].normalize()
	}
	t.Album.normalize()
}

// ArtistNames joins the track's artist names with ", ".
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// SavedAlbum is an album in the user's library.
type SavedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

func (s *SavedAlbum) normalize() { s.Album.normalize() }

// SpotifyShow represents a podcast show.
type SpotifyShow struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Publisher     string         `json:"publisher"`
	Description   string         `json:"description"`
	TotalEpisodes int            `json:"total_episodes"`
	Images        []SpotifyImage `json:"images"`
	URI           string         `json:"uri"`
	ExternalURLs  externalURLs   `json:"external_urls"`
}

// SavedShow is a show the user follows.
type SavedShow struct {
	AddedAt string      `json:"added_at"`
	Show    SpotifyShow `json:"show"`
}

func (s *SavedShow) normalize() { s.Show.Images = nonNil(s.Show.Images) }

// Owner identifies the user that owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a simplified playlist object, as returned by list and create calls.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	SnapshotID   string         `json:"snapshot_id"`
	URI          string         `json:"uri"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

func (p *SpotifyPlaylist) normalize() { p.Images = nonNil(p.Images) }

// ToModel converts the playlist into a [models.Playlist].
func (p SpotifyPlaylist) ToModel() *models.Playlist {
	covers := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		covers = append(covers, img.URL)
	}
	return &models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		URI:         p.URI,
		URL:         p.ExternalURLs.Spotify,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
		CoverImages: covers,
	}
}

// PlayHistory is one entry of the recently played list.
type PlayHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

func (p *PlayHistory) normalize() { p.Track.normalize() }

// CurrentlyPlaying is the user's player state. Item is nil for ads and unknown content.
type CurrentlyPlaying struct {
	Timestamp            int64         `json:"timestamp"`
	ProgressMS           int           `json:"progress_ms"`
	IsPlaying            bool          `json:"is_playing"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
	Item                 *SpotifyTrack `json:"item"`
}

func (c *CurrentlyPlaying) normalize() {
	if c.Item != nil {
		c.Item.normalize()
	}
}

// Page is a paginated list response. Items is never nil after decoding.
type Page[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

func (p *Page[T]) normalize() {
	p.Items = nonNil(p.Items)
	for i := range p.Items {
		if n, ok := any(&p.Items[i]).(normalizer); ok {
			n.normalize()
		}
	}
}

// normalizer is implemented by response types with list fields that must not be nil.
type normalizer interface {
	normalize()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// SpotifyService is a thin client for the Spotify Web API.
//
// Every call reads the bearer token from the session it was built with. A 401 invalidates that token
// and returns [shared.ErrTokenExpired]; a 204 yields a nil result with no error.
type SpotifyService struct {
	session    *session.Session
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a client that authenticates through sess. Empty baseURL and nil client select the defaults.
func NewSpotifyService(sess *session.Session, baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{
		session:    sess,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request and decodes a 2xx body into result.
// It reports false when the service answered 204 No Content.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) (bool, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := s.session.SetAuthHeader(req)
	if err != nil {
		return false, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		s.session.Invalidate(token)
		return false, fmt.Errorf("%w: %s", shared.ErrTokenExpired, endpoint)
	case resp.StatusCode == http.StatusNoContent:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, &shared.UpstreamRequestError{
			Service:    s.Name(),
			Path:       endpoint,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
		if n, ok := result.(normalizer); ok {
			n.normalize()
		}
	}

	return true, nil
}

// fetch issues a GET and returns the decoded body, or nil on 204.
func fetch[T any](ctx context.Context, s *SpotifyService, endpoint string) (*T, error) {
	var out T
	ok, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &out)
	if err != nil || !ok {
		return nil, err
	}
	return &out, nil
}

// send issues a POST with a JSON body and returns the decoded reply.
func send[T any](ctx context.Context, s *SpotifyService, endpoint string, body any) (*T, error) {
	var out T
	ok, err := s.doRequest(ctx, http.MethodPost, endpoint, body, &out)
	if err != nil || !ok {
		return nil, err
	}
	return &out, nil
}

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	return fetch[SpotifyUser](ctx, s, "/me")
}

// TopTracks retrieves the user's most played tracks over timeRange.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int, timeRange string) (*Page[SpotifyTrack], error) {
	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", clampLimit(limit, 20, 50), url.QueryEscape(timeRange))
	return fetch[Page[SpotifyTrack]](ctx, s, endpoint)
}

// TopArtists retrieves the user's most played artists over timeRange.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int, timeRange string) (*Page[SpotifyArtist], error) {
	endpoint := fmt.Sprintf("/me/top/artists?limit=%d&time_range=%s", clampLimit(limit, 20, 50), url.QueryEscape(timeRange))
	return fetch[Page[SpotifyArtist]](ctx, s, endpoint)
}

// SavedAlbums retrieves albums saved in the user's library.
func (s *SpotifyService) SavedAlbums(ctx context.Context, limit int) (*Page[SavedAlbum], error) {
	return fetch[Page[SavedAlbum]](ctx, s, fmt.Sprintf("/me/albums?limit=%d", clampLimit(limit, 20, 50)))
}

// SavedShows retrieves the shows the user follows.
func (s *SpotifyService) SavedShows(ctx context.Context, limit int) (*Page[SavedShow], error) {
	return fetch[Page[SavedShow]](ctx, s, fmt.Sprintf("/me/shows?limit=%d", clampLimit(limit, 20, 50)))
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*Page[SpotifyPlaylist], error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit, 20, 50), offset)
	return fetch[Page[SpotifyPlaylist]](ctx, s, endpoint)
}

// CurrentlyPlaying returns the user's player state, or nil when nothing is playing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*CurrentlyPlaying, error) {
	return fetch[CurrentlyPlaying](ctx, s, "/me/player/currently-playing")
}

// RecentlyPlayed retrieves the user's recently played tracks, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) (*Page[PlayHistory], error) {
	return fetch[Page[PlayHistory]](ctx, s, fmt.Sprintf("/me/player/recently-played?limit=%d", clampLimit(limit, 20, 50)))
}

// SearchTrack returns the best match for query, or nil when the search has no results.
func (s *SpotifyService) SearchTrack(ctx context.Context, query string) (*SpotifyTrack, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}

	params := url.Values{"q": {query}, "type": {"track"}, "limit": {"1"}}
	resp, err := fetch[struct {
		Tracks Page[SpotifyTrack] `json:"tracks"`
	}](ctx, s, "/search?"+params.Encode())
	if err != nil || resp == nil {
		return nil, err
	}

	resp.Tracks.normalize()
	if len(resp.Tracks.Items) == 0 {
		return nil, nil
	}
	return &resp.Tracks.Items[0], nil
}

// CreatePlaylist creates an empty playlist named after draft on the owner's account.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, draft models.PlaylistDraft) (*SpotifyPlaylist, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	body := map[string]any{
		"name":        draft.Name,
		"description": draft.Description,
		"public":      draft.Public,
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(draft.OwnerID))
	return send[SpotifyPlaylist](ctx, s, endpoint, body)
}

// AddTracks appends uris to the playlist in one call and returns the new snapshot ID.
// At most [models.MaxTracksPerAdd] URIs are accepted.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	switch {
	case playlistID == "":
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	case len(uris) == 0:
		return "", fmt.Errorf("%w: no track URIs", shared.ErrInvalidArgument)
	case len(uris) > models.MaxTracksPerAdd:
		return "", fmt.Errorf("%w: %d track URIs exceeds %d", shared.ErrInvalidArgument, len(uris), models.MaxTracksPerAdd)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	resp, err := send[struct {
		SnapshotID string `json:"snapshot_id"`
	}](ctx, s, endpoint, map[string]any{"uris": uris})
	if err != nil || resp == nil {
		return "", err
	}
	return resp.SnapshotID, nil
}
