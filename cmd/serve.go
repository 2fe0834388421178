package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tunesmith/internal/server"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/desertthunder/tunesmith/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web dashboard and its JSON API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	handler, err := r.buildHandler()
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}
	addr := cfg.Addr()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("open") {
		if err := r.openBrowser("http://" + addr); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	r.writePlain("→ Dashboard at http://%s\n", addr)
	return server.Serve(ctx, addr, handler, r.logger)
}

// buildHandler assembles the router: middleware, API routes, the OAuth callback and the static dashboard.
func (r *Runner) buildHandler() (http.Handler, error) {
	router := server.NewBasicRouter()
	router.Use(server.WithRequestID, server.WithLogging(r.logger), server.WithRecover(r.logger))

	api := server.NewAPI(server.APIOpts{
		Session:        r.session,
		Music:          r.music,
		Text:           r.text,
		Auth:           r.auth,
		OAuth:          server.NewOAuthHandler(shared.GenerateID(), r.session, false),
		Logger:         r.logger,
		TopTracksLimit: r.config.Dashboard.TopTracksLimit,
	})
	api.Register(router)

	assets, err := web.Handler(r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard assets: %w", err)
	}
	router.Handle(http.MethodGet, "/", assets)

	return router, nil
}
