package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/session"
	"github.com/desertthunder/tunesmith/internal/shared"
)

func newTestSession(t *testing.T, token string) *session.Session {
	t.Helper()
	sess := session.New(nil, shared.NewLogger(io.Discard))
	if token != "" {
		if err := sess.Acquire(token, 0); err != nil {
			t.Fatalf("failed to acquire token: %v", err)
		}
	}
	return sess
}

func newTestSpotify(t *testing.T, handler http.HandlerFunc) (*SpotifyService, *session.Session) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := newTestSession(t, "test-token")
	return NewSpotifyService(sess, server.URL, server.Client()), sess
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("uses defaults", func(t *testing.T) {
			svc := NewSpotifyService(newTestSession(t, ""), "", nil)
			if svc.baseURL != spotifyBaseURL {
				t.Errorf("expected base URL %s, got %s", spotifyBaseURL, svc.baseURL)
			}
			if svc.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if svc.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", svc.Name())
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			svc := NewSpotifyService(newTestSession(t, ""), "http://localhost:9000/", nil)
			if svc.baseURL != "http://localhost:9000" {
				t.Errorf("unexpected base URL %s", svc.baseURL)
			}
		})
	})

	t.Run("Authorization", func(t *testing.T) {
		t.Run("sends bearer token", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
					t.Errorf("unexpected Authorization header %q", got)
				}
				writeJSON(t, w, http.StatusOK, map[string]any{"id": "user1", "display_name": "Test User"})
			})

			user, err := svc.UserProfile(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.ID != "user1" || user.DisplayName != "Test User" {
				t.Errorf("unexpected user %+v", user)
			}
			if user.Images == nil {
				t.Error("expected images to be normalized to an empty slice")
			}
		})

		t.Run("no token sends no request", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer server.Close()

			svc := NewSpotifyService(newTestSession(t, ""), server.URL, server.Client())
			if _, err := svc.UserProfile(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if calls.Load() != 0 {
				t.Errorf("expected no requests, got %d", calls.Load())
			}
		})

		t.Run("401 invalidates the session once", func(t *testing.T) {
			var calls atomic.Int32
			svc, sess := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(t, w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"status": 401, "message": "The access token expired"},
				})
			})

			_, err := svc.TopTracks(ctx, 50, MediumTerm)
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Fatalf("expected ErrTokenExpired, got %v", err)
			}
			if !strings.Contains(err.Error(), "/me/top/tracks") {
				t.Errorf("expected error to carry the path, got %v", err)
			}
			if sess.State() != session.Expired {
				t.Errorf("expected expired session, got %v", sess.State())
			}

			if _, err := svc.TopArtists(ctx, 10, ShortTerm); !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if calls.Load() != 1 {
				t.Errorf("expected no request with the stale token, got %d requests", calls.Load())
			}
		})
	})

	t.Run("Response Normalization", func(t *testing.T) {
		t.Run("204 yields nil", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/player/currently-playing" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusNoContent)
			})

			playing, err := svc.CurrentlyPlaying(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playing != nil {
				t.Errorf("expected nil, got %+v", playing)
			}
		})

		t.Run("non-2xx yields UpstreamRequestError", func(t *testing.T) {
			svc, sess := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusForbidden, map[string]any{
					"error": map[string]any{"status": 403, "message": "Insufficient client scope"},
				})
			})

			_, err := svc.SavedAlbums(ctx, 10)
			var upstream *shared.UpstreamRequestError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamRequestError, got %v", err)
			}
			if upstream.StatusCode != http.StatusForbidden || upstream.Path != "/me/albums?limit=10" {
				t.Errorf("unexpected error fields %+v", upstream)
			}
			if upstream.Message != "Insufficient client scope" {
				t.Errorf("expected upstream message, got %q", upstream.Message)
			}
			if !errors.Is(err, shared.ErrUpstreamRequest) {
				t.Error("expected error to unwrap to ErrUpstreamRequest")
			}
			if !sess.Authenticated() {
				t.Error("non-401 failures must not touch the session")
			}
		})

		t.Run("non-2xx without body", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			})

			_, err := svc.UserProfile(ctx)
			if err == nil || !strings.Contains(err.Error(), "failed with status 502") {
				t.Errorf("expected status in message, got %v", err)
			}
		})

		t.Run("null list fields become empty", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"items":[{"id":"t1","name":"Song","artists":null,"album":{"images":null}}],"total":1}`))
			})

			page, err := svc.TopTracks(ctx, 50, MediumTerm)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(page.Items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(page.Items))
			}
			track := page.Items[0]
			if track.Artists == nil || track.Album.Images == nil || track.Album.Artists == nil {
				t.Errorf("expected nil slices to be normalized: %+v", track)
			}
		})

		t.Run("missing items become empty", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, map[string]any{"total": 0})
			})

			page, err := svc.UserPlaylists(ctx, 50, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.Items == nil || len(page.Items) != 0 {
				t.Errorf("expected empty items, got %#v", page.Items)
			}
		})
	})

	t.Run("Reads", func(t *testing.T) {
		tests := []struct {
			name string
			call func(*SpotifyService) error
			path string
			raw  string
		}{
			{
				name: "TopTracks",
				call: func(s *SpotifyService) error { _, err := s.TopTracks(ctx, 50, MediumTerm); return err },
				path: "/me/top/tracks", raw: "limit=50&time_range=medium_term",
			},
			{
				name: "TopArtists",
				call: func(s *SpotifyService) error { _, err := s.TopArtists(ctx, 10, ShortTerm); return err },
				path: "/me/top/artists", raw: "limit=10&time_range=short_term",
			},
			{
				name: "SavedAlbums",
				call: func(s *SpotifyService) error { _, err := s.SavedAlbums(ctx, 10); return err },
				path: "/me/albums", raw: "limit=10",
			},
			{
				name: "SavedShows",
				call: func(s *SpotifyService) error { _, err := s.SavedShows(ctx, 0); return err },
				path: "/me/shows", raw: "limit=20",
			},
			{
				name: "UserPlaylists clamps limit",
				call: func(s *SpotifyService) error { _, err := s.UserPlaylists(ctx, 500, 0); return err },
				path: "/me/playlists", raw: "limit=50&offset=0",
			},
			{
				name: "RecentlyPlayed",
				call: func(s *SpotifyService) error { _, err := s.RecentlyPlayed(ctx, 20); return err },
				path: "/me/player/recently-played", raw: "limit=20",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
					if r.Method != http.MethodGet {
						t.Errorf("expected GET, got %s", r.Method)
					}
					if r.URL.Path != tt.path || r.URL.RawQuery != tt.raw {
						t.Errorf("expected %s?%s, got %s?%s", tt.path, tt.raw, r.URL.Path, r.URL.RawQuery)
					}
					writeJSON(t, w, http.StatusOK, map[string]any{"items": []any{}})
				})

				if err := tt.call(svc); err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			})
		}
	})

	t.Run("SearchTrack", func(t *testing.T) {
		t.Run("returns first match", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("q") != "track:Jump Around artist:House of Pain" {
					t.Errorf("unexpected query %q", q.Get("q"))
				}
				if q.Get("type") != "track" || q.Get("limit") != "1" {
					t.Errorf("unexpected params %v", q)
				}
				writeJSON(t, w, http.StatusOK, map[string]any{
					"tracks": map[string]any{"items": []map[string]any{
						{"id": "t1", "name": "Jump Around", "uri": "spotify:track:t1"},
					}},
				})
			})

			query := models.GeneratedTrack{Song: "Jump Around", Artist: "House of Pain"}.Query()
			track, err := svc.SearchTrack(ctx, query)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track == nil || track.URI != "spotify:track:t1" {
				t.Errorf("unexpected track %+v", track)
			}
		})

		t.Run("no results yields nil", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": []any{}}})
			})

			track, err := svc.SearchTrack(ctx, "track:nothing")
			if err != nil || track != nil {
				t.Errorf("expected nil track and nil error, got %+v %v", track, err)
			}
		})

		t.Run("empty query", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})
			if _, err := svc.SearchTrack(ctx, "  "); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		t.Run("posts draft", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/users/user1/playlists" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("unexpected content type %q", ct)
				}

				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if body["name"] != "Workout Mix" || body["public"] != false {
					t.Errorf("unexpected body %v", body)
				}

				writeJSON(t, w, http.StatusCreated, map[string]any{
					"id":            "pl1",
					"name":          "Workout Mix",
					"uri":           "spotify:playlist:pl1",
					"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/pl1"},
					"images":        nil,
				})
			})

			created, err := svc.CreatePlaylist(ctx, models.NewPlaylistDraft(" Workout Mix ", "user1"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			pl := created.ToModel()
			if pl.ID != "pl1" || pl.URL != "https://open.spotify.com/playlist/pl1" {
				t.Errorf("unexpected playlist %+v", pl)
			}
			if pl.CoverImages == nil {
				t.Error("expected cover images to be an empty slice")
			}
		})

		t.Run("rejects invalid draft", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})
			if _, err := svc.CreatePlaylist(ctx, models.NewPlaylistDraft("  ", "user1")); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("AddTracks", func(t *testing.T) {
		t.Run("posts uris", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlists/pl1/tracks" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				var body struct {
					URIs []string `json:"uris"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if len(body.URIs) != 2 {
					t.Errorf("expected 2 uris, got %d", len(body.URIs))
				}
				writeJSON(t, w, http.StatusCreated, map[string]string{"snapshot_id": "snap1"})
			})

			snapshot, err := svc.AddTracks(ctx, "pl1", []string{"spotify:track:a", "spotify:track:b"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if snapshot != "snap1" {
				t.Errorf("expected snapshot snap1, got %s", snapshot)
			}
		})

		t.Run("rejects bad arguments", func(t *testing.T) {
			svc, _ := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})

			tooMany := make([]string, models.MaxTracksPerAdd+1)
			tests := []struct {
				name string
				id   string
				uris []string
				want error
			}{
				{"missing id", "", []string{"a"}, shared.ErrMissingArgument},
				{"no uris", "pl1", nil, shared.ErrInvalidArgument},
				{"too many uris", "pl1", tooMany, shared.ErrInvalidArgument},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if _, err := svc.AddTracks(ctx, tt.id, tt.uris); !errors.Is(err, tt.want) {
						t.Errorf("expected %v, got %v", tt.want, err)
					}
				})
			}
		})
	})
}

func TestSpotifyTrack(t *testing.T) {
	track := SpotifyTrack{Artists: []SpotifyArtist{{Name: "Salt-N-Pepa"}, {Name: "En Vogue"}}}
	if got := track.ArtistNames(); got != "Salt-N-Pepa, En Vogue" {
		t.Errorf("unexpected artist names %q", got)
	}
}
