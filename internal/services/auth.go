package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tunesmith/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

// SpotifyScopes are the permissions requested at login.
var SpotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-library-read",
	"user-read-currently-playing",
	"user-read-recently-played",
	"playlist-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
}

// SpotifyAuth builds implicit-grant login URLs. The access token comes back in the redirect's URL fragment,
// so no client secret or token exchange is involved.
type SpotifyAuth struct {
	config oauth2.Config
}

// NewSpotifyAuth validates cfg and returns an authorizer for it.
func NewSpotifyAuth(cfg shared.SpotifyConfig) (*SpotifyAuth, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	redirectURI := strings.TrimSpace(cfg.RedirectURI)

	switch {
	case clientID == "":
		return nil, fmt.Errorf("%w: spotify client_id is not set", shared.ErrUpstreamConfig)
	case redirectURI == "":
		return nil, fmt.Errorf("%w: spotify redirect_uri is not set", shared.ErrUpstreamConfig)
	}

	return &SpotifyAuth{
		config: oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Scopes:      SpotifyScopes,
			Endpoint:    spotify.Endpoint,
		},
	}, nil
}

// AuthURL returns the authorization URL for an implicit grant. The consent dialog is always shown.
func (a *SpotifyAuth) AuthURL(state string) string {
	return a.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.SetAuthURLParam("show_dialog", "true"),
	)
}

// RedirectURL returns the configured redirect URI.
func (a *SpotifyAuth) RedirectURL() string {
	return a.config.RedirectURL
}
