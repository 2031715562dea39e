package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/urfave/cli/v3"
)

const usageExitCode = 2

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "plsplit",
		Usage:   "Split a Spotify playlist into genre playlists using Last.fm tags",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("PLSPLIT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file with SPOTIPY_* overrides (ignored when missing)",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Load,
		After:    r.Close,
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if isUsageError(err) {
			logger.Warn(err.Error())
			stop()
			os.Exit(usageExitCode)
		}
		logger.Fatalf("application error: %v", err)
	}
}
