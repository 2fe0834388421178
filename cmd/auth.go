package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tunesmith/internal/server"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the implicit-grant flow against a short-lived local callback server.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	if r.auth == nil {
		return fmt.Errorf("%w: set credentials.spotify.client_id and redirect_uri", shared.ErrUpstreamConfig)
	}

	token, err := r.doOAuth(ctx, cmd.Duration("timeout"), cmd.Bool("no-browser"))
	if err != nil {
		return err
	}
	r.logger.Debug("token received", "expiry", token.Expiry)

	user, err := r.music.UserProfile(ctx)
	if err != nil {
		r.logger.Warn("could not read profile after login", "error", err)
		return r.writePlain("✓ Signed in to Spotify\n")
	}
	r.session.SetOwner(user.ID)

	return r.writePlain("✓ Signed in to Spotify as %s\n", displayName(user))
}

// doOAuth serves the callback page until a token arrives, the timeout passes or ctx is cancelled.
func (r *Runner) doOAuth(ctx context.Context, timeout time.Duration, noBrowser bool) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	oauthHandler := server.NewOAuthHandler(shared.GenerateID(), r.session, true)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serveCtx, stop := context.WithCancel(ctx)
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Serve(serveCtx, r.config.Server.Addr(), router, r.logger)
	}()
	defer func() {
		stop()
		<-serverErrors
	}()

	time.Sleep(100 * time.Millisecond)

	authURL := r.auth.AuthURL(oauthHandler.State())
	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify login...\n")
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		serverErrors <- nil
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// AuthLogout forgets the held token, locally and in the credential store.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	if err := r.session.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	State           string `json:"state"`
	Authenticated   bool   `json:"authenticated"`
	User            string `json:"user,omitempty"`
	LoginConfigured bool   `json:"login_configured"`
	AIConfigured    bool   `json:"ai_configured"`
}

// AuthStatus reports the session state. When a token is held the profile is read to confirm it still works.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	status := authStatus{LoginConfigured: r.auth != nil, AIConfigured: r.config.Credentials.Gemini.APIKey != ""}
	if r.session.Authenticated() {
		if user, err := r.music.UserProfile(ctx); err != nil {
			r.logger.Warn("token check failed", "error", err)
		} else {
			r.session.SetOwner(user.ID)
			status.User = displayName(user)
		}
	}
	status.State = r.session.State().String()
	status.Authenticated = r.session.Authenticated()

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Spotify session")
	if status.Authenticated {
		r.writePlain("Status: ✓ %s\n", status.State)
	} else {
		r.writePlain("Status: ✗ %s\n", status.State)
	}
	if status.User != "" {
		r.writePlain("User: %s\n", status.User)
	}
	r.writePlain("Login configured: %v\n", status.LoginConfigured)
	return r.writePlain("AI configured: %v\n", status.AIConfigured)
}

func displayName(user *services.SpotifyUser) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.ID
}
