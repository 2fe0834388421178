// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/services"
)

// MockMusicService is a test double for [services.MusicService].
//
// Reads return the configured values (empty pages by default). SearchFunc, when set, replaces the
// Matches lookup. Every call is counted by method name.
type MockMusicService struct {
	mu sync.Mutex

	Profile       *services.SpotifyUser
	TrackItems    []services.SpotifyTrack
	ArtistItems   []services.SpotifyArtist
	AlbumItems    []services.SavedAlbum
	ShowItems     []services.SavedShow
	PlaylistItems []services.SpotifyPlaylist
	RecentItems   []services.PlayHistory
	Playing       *services.CurrentlyPlaying
	ReadErr       error // returned by every read except CurrentlyPlaying
	PlayingErr    error
	Matches       map[string]*services.SpotifyTrack // keyed by search query
	SearchFunc    func(query string) (*services.SpotifyTrack, error)
	Created       *services.SpotifyPlaylist
	CreateErr     error
	AddErr        error
	Drafts        []models.PlaylistDraft
	AddedURIs     [][]string
	calls         map[string]int
}

var _ services.MusicService = (*MockMusicService)(nil)

func (m *MockMusicService) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was called.
func (m *MockMusicService) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockMusicService) Name() string { return "mock" }

func (m *MockMusicService) UserProfile(ctx context.Context) (*services.SpotifyUser, error) {
	m.record("UserProfile")
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.Profile == nil {
		return &services.SpotifyUser{ID: "user1", DisplayName: "Test User", Images: []services.SpotifyImage{}}, nil
	}
	return m.Profile, nil
}

func (m *MockMusicService) TopTracks(ctx context.Context, limit int, timeRange string) (*services.Page[services.SpotifyTrack], error) {
	m.record("TopTracks")
	return page(m.TrackItems, m.ReadErr)
}

func (m *MockMusicService) TopArtists(ctx context.Context, limit int, timeRange string) (*services.Page[services.SpotifyArtist], error) {
	m.record("TopArtists")
	return page(m.ArtistItems, m.ReadErr)
}

func (m *MockMusicService) SavedAlbums(ctx context.Context, limit int) (*services.Page[services.SavedAlbum], error) {
	m.record("SavedAlbums")
	return page(m.AlbumItems, m.ReadErr)
}

func (m *MockMusicService) SavedShows(ctx context.Context, limit int) (*services.Page[services.SavedShow], error) {
	m.record("SavedShows")
	return page(m.ShowItems, m.ReadErr)
}

func (m *MockMusicService) UserPlaylists(ctx context.Context, limit, offset int) (*services.Page[services.SpotifyPlaylist], error) {
	m.record("UserPlaylists")
	return page(m.PlaylistItems, m.ReadErr)
}

func (m *MockMusicService) RecentlyPlayed(ctx context.Context, limit int) (*services.Page[services.PlayHistory], error) {
	m.record("RecentlyPlayed")
	return page(m.RecentItems, m.ReadErr)
}

func (m *MockMusicService) CurrentlyPlaying(ctx context.Context) (*services.CurrentlyPlaying, error) {
	m.record("CurrentlyPlaying")
	if m.PlayingErr != nil {
		return nil, m.PlayingErr
	}
	return m.Playing, nil
}

func (m *MockMusicService) SearchTrack(ctx context.Context, query string) (*services.SpotifyTrack, error) {
	m.record("SearchTrack")
	if m.SearchFunc != nil {
		return m.SearchFunc(query)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Matches[query], nil
}

func (m *MockMusicService) CreatePlaylist(ctx context.Context, draft models.PlaylistDraft) (*services.SpotifyPlaylist, error) {
	m.record("CreatePlaylist")
	m.mu.Lock()
	m.Drafts = append(m.Drafts, draft)
	m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Created != nil {
		return m.Created, nil
	}
	return &services.SpotifyPlaylist{ID: "playlist1", Name: draft.Name, Images: []services.SpotifyImage{}}, nil
}

func (m *MockMusicService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	m.record("AddTracks")
	m.mu.Lock()
	m.AddedURIs = append(m.AddedURIs, slices.Clone(uris))
	m.mu.Unlock()

	if m.AddErr != nil {
		return "", m.AddErr
	}
	return "snapshot1", nil
}

func page[T any](items []T, err error) (*services.Page[T], error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return &services.Page[T]{Items: items, Total: len(items)}, nil
}

// MockTextGenerator is a test double for [services.TextGenerator].
type MockTextGenerator struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Models  json.RawMessage
	Prompts []string
}

var _ services.TextGenerator = (*MockTextGenerator)(nil)

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	return m.Reply, m.Err
}

func (m *MockTextGenerator) ListModels(ctx context.Context) (json.RawMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Models, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
