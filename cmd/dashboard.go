package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/desertthunder/tunesmith/internal/tasks"
	"github.com/desertthunder/tunesmith/internal/ui"
	"github.com/urfave/cli/v3"
)

// Dashboard launches the interactive terminal dashboard.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.requireSession(); err != nil {
		return err
	}

	config := r.config.Dashboard
	model := ui.NewModel(ctx, ui.ModelOpts{
		Session:   r.session,
		Dashboard: tasks.NewDashboard(r.music, r.session, r.logger, config.TopTracksLimit),
		Poller:    tasks.NewNowPlayingPoller(r.music, config.PollInterval.Duration, r.logger),
		Generator: tasks.NewGenerator(r.text, r.logger),
		Engine:    tasks.NewPlaylistEngine(r.music, r.logger),
		Workspace: &tasks.Workspace{},
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// NowPlaying prints the track on the user's player, if any.
func (r *Runner) NowPlaying(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	current, err := tasks.NewNowPlayingPoller(r.music, 0, r.logger).Poll(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(current.Track, true)
	}

	if current.Track == nil || current.Track.Item == nil {
		return r.writePlain("Nothing playing\n")
	}

	track := current.Track.Item
	marker := "⏸"
	if current.Track.IsPlaying {
		marker = "▶"
	}
	return r.writePlain("%s %s - %s (%s)\n", marker, track.Name, track.ArtistNames(), track.Album.Name)
}
