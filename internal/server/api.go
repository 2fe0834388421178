package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/session"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/desertthunder/tunesmith/internal/tasks"
)

// APIOpts configures [NewAPI]. Session and Music are required. Text, Auth and OAuth may be nil; the endpoints that need them then report
// a configuration error.
type APIOpts struct {
	Session        *session.Session
	Music          services.MusicService
	Text           services.TextGenerator
	Auth           *services.SpotifyAuth
	OAuth          *OAuthHandler
	Logger         *log.Logger
	TopTracksLimit int
}

// API serves the dashboard's JSON endpoints.
type API struct {
	session   *session.Session
	music     services.MusicService
	text      services.TextGenerator
	auth      *services.SpotifyAuth
	oauth     *OAuthHandler
	generator *tasks.Generator
	engine    *tasks.PlaylistEngine
	dashboard *tasks.Dashboard
	logger    *log.Logger
}

// NewAPI wires the generator, synthesis engine and dashboard aggregator to the given services.
func NewAPI(opts APIOpts) *API {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{
		session:   opts.Session,
		music:     opts.Music,
		text:      opts.Text,
		auth:      opts.Auth,
		oauth:     opts.OAuth,
		generator: tasks.NewGenerator(opts.Text, logger),
		engine:    tasks.NewPlaylistEngine(opts.Music, logger),
		dashboard: tasks.NewDashboard(opts.Music, opts.Session, logger, opts.TopTracksLimit),
		logger:    shared.WithLogger(logger, "component", "api"),
	}
}

// Register adds the API routes (and the OAuth callback, when configured) to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodPost, "/api/generate", http.HandlerFunc(a.handleGenerate))
	r.Handle(http.MethodGet, "/api/debug-models", http.HandlerFunc(a.handleDebugModels))
	r.Handle(http.MethodGet, "/api/session", http.HandlerFunc(a.handleSessionStatus))
	r.Handle(http.MethodPost, "/api/session", http.HandlerFunc(a.handleSessionAcquire))
	r.Handle(http.MethodDelete, "/api/session", http.HandlerFunc(a.handleSessionClear))
	r.Handle(http.MethodGet, "/api/dashboard", http.HandlerFunc(a.handleDashboard))
	r.Handle(http.MethodGet, "/api/now-playing", http.HandlerFunc(a.handleNowPlaying))
	r.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(a.handleCreatePlaylist))
	r.Handle(http.MethodGet, "/login", http.HandlerFunc(a.handleLogin))
	if a.oauth != nil {
		r.Handler(a.oauth)
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// handleGenerate answers POST /api/generate with the generated [{song, artist}] list.
func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Prompt == "" {
		jsonError(w, msgPromptRequired, http.StatusBadRequest)
		return
	}

	tracks, err := a.generator.Generate(r.Context(), req.Prompt)
	switch {
	case err == nil:
		jsonResponse(w, http.StatusOK, tracks)
	case errors.Is(err, shared.ErrInvalidInput):
		jsonError(w, msgPromptRequired, http.StatusBadRequest)
	case errors.Is(err, shared.ErrUpstreamConfig), errors.Is(err, shared.ErrServiceUnavailable):
		jsonError(w, msgGeminiUnavailable, http.StatusInternalServerError)
	default:
		jsonError(w, "Server Error: "+err.Error(), http.StatusInternalServerError)
	}
}

// handleDebugModels proxies the model list for diagnosing key and model problems.
func (a *API) handleDebugModels(w http.ResponseWriter, r *http.Request) {
	if a.text == nil {
		jsonError(w, msgGeminiUnavailable, http.StatusInternalServerError)
		return
	}

	data, err := a.text.ListModels(r.Context())
	switch {
	case err == nil:
		jsonResponse(w, http.StatusOK, data)
	case errors.Is(err, shared.ErrUpstreamConfig):
		jsonError(w, msgGeminiUnavailable, http.StatusInternalServerError)
	default:
		jsonError(w, "Server Error: "+err.Error(), http.StatusInternalServerError)
	}
}

type sessionStatus struct {
	State         string `json:"state"`
	Authenticated bool   `json:"authenticated"`
	Owner         string `json:"owner,omitempty"`
}

func (a *API) status() sessionStatus {
	return sessionStatus{
		State:         a.session.State().String(),
		Authenticated: a.session.Authenticated(),
		Owner:         a.session.Owner(),
	}
}

func (a *API) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.status())
}

type acquireRequest struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleSessionAcquire stores a token obtained outside the callback flow.
func (a *API) handleSessionAcquire(w http.ResponseWriter, r *http.Request) {
	var req acquireRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if err := a.session.Acquire(req.AccessToken, time.Duration(req.ExpiresIn)*time.Second); err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}
	jsonResponse(w, http.StatusCreated, a.status())
}

func (a *API) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Clear(); err != nil {
		a.logger.Error("logout failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDashboard loads every dashboard section. A rejected token answers 401 and leaves the session expired.
func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := a.dashboard.Load(r.Context(), nil)
	if err != nil {
		a.logger.Warn("dashboard load failed", "error", err)
		jsonError(w, err.Error(), errorStatus(err))
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

// handleNowPlaying answers 204 when nothing is playing.
func (a *API) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	playing, err := a.music.CurrentlyPlaying(r.Context())
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}
	if playing == nil || playing.Item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	jsonResponse(w, http.StatusOK, playing)
}

type createPlaylistRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Public      bool                    `json:"public"`
	Tracks      []models.GeneratedTrack `json:"tracks"`
}

type createPlaylistResponse struct {
	Playlist *models.Playlist `json:"playlist"`
	Status   string           `json:"status"`
}

// handleCreatePlaylist saves a generated tracklist as a new playlist.
func (a *API) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}
	if len(req.Tracks) == 0 {
		jsonError(w, msgTracksRequired, http.StatusBadRequest)
		return
	}
	for _, track := range req.Tracks {
		if err := track.Validate(); err != nil {
			jsonError(w, msgInvalidTrack, http.StatusBadRequest)
			return
		}
	}

	draft := models.NewPlaylistDraft(req.Name, a.session.Owner())
	draft.Description = req.Description
	draft.Public = req.Public

	playlist, err := a.engine.Synthesize(r.Context(), nil, draft, req.Tracks)
	if err != nil {
		a.logger.Warn("playlist synthesis failed", "name", draft.Name, "error", err)
		jsonResponse(w, errorStatus(err), map[string]string{
			"error":  err.Error(),
			"status": tasks.StatusLine(err),
		})
		return
	}

	jsonResponse(w, http.StatusCreated, createPlaylistResponse{
		Playlist: playlist,
		Status:   tasks.SuccessMessage(playlist.Name),
	})
}

// handleLogin redirects to the Spotify authorize page.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil || a.oauth == nil {
		jsonError(w, msgSpotifyUnset, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, a.auth.AuthURL(a.oauth.State()), http.StatusFound)
}
