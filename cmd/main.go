package main

import (
	"context"
	"os"

	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "tunesmith",
		Usage:    "Spotify dashboard with an AI playlist generator",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.before,
		After:    runner.after,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
