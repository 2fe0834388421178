package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/tunesmith/internal/formatter"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/desertthunder/tunesmith/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate asks the AI for a tracklist and prints or exports it.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	prompt, err := promptArg(cmd)
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	tracks, err := tasks.NewGenerator(r.text, r.logger).Generate(ctx, prompt)
	if err != nil {
		return err
	}

	list := &formatter.Tracklist{Prompt: prompt, Tracks: tracks}
	if exported, err := r.export(cmd, list); exported || err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("%d songs for %q", len(tracks), prompt))
	for i, track := range tracks {
		r.writePlain("%2d. %s\n", i+1, track)
	}
	return nil
}

// Synthesize generates a tracklist, resolves it on Spotify and saves the matches as a new playlist.
func (r *Runner) Synthesize(ctx context.Context, cmd *cli.Command) error {
	prompt, err := promptArg(cmd)
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	name := cmd.String("name")
	if strings.TrimSpace(name) == "" {
		name = prompt
	}
	draft := models.NewPlaylistDraft(name, r.session.Owner())
	draft.Description = cmd.String("description")
	draft.Public = cmd.Bool("public")

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	var refs []models.ResolvedTrackRef
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("→ %s\n", update.Message)
			if v, ok := update.Data.([]models.ResolvedTrackRef); ok {
				refs = v
			}
		}
	}()

	tracks, err := tasks.NewGenerator(r.text, r.logger).GenerateWithProgress(ctx, progress, prompt)
	var playlist *models.Playlist
	if err == nil {
		playlist, err = tasks.NewPlaylistEngine(r.music, r.logger).Synthesize(ctx, progress, draft, tracks)
	}
	close(progress)
	<-done

	if err != nil {
		r.writePlain("%s\n", tasks.StatusLine(err))
		return err
	}

	r.writePlain("✓ %s\n", tasks.SuccessMessage(playlist.Name))
	if playlist.URL != "" {
		r.writePlain("%s\n", playlist.URL)
	}

	list := &formatter.Tracklist{Prompt: prompt, Tracks: tracks, Resolved: refs, Playlist: playlist}
	_, err = r.export(cmd, list)
	return err
}

// Models prints the model listing for the configured API key.
func (r *Runner) Models(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	listing, err := r.text.ListModels(ctx)
	if err != nil {
		return err
	}

	return r.writeJSON(listing, cmd.Bool("pretty"))
}

// export writes list when --format or --output is set and reports whether it did.
// Without --format, the format is taken from the --output extension.
func (r *Runner) export(cmd *cli.Command, list *formatter.Tracklist) (bool, error) {
	name, path := cmd.String("format"), cmd.String("output")
	if name == "" && path == "" {
		return false, nil
	}
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	format, err := formatter.ParseFormat(name)
	if err != nil {
		return true, err
	}

	written, err := formatter.WriteExport(list, format, path)
	if err != nil {
		return true, err
	}

	r.logger.Info("tracklist exported", "path", written, "format", format)
	return true, r.writePlain("✓ Tracklist written to %s\n", written)
}

func promptArg(cmd *cli.Command) (string, error) {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}
	return prompt, nil
}
