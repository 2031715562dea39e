// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "out-dir",
		Aliases: []string{"o"},
		Usage:   "Directory for CSV and log files (default: [output] dir)",
	}
}

func resumeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "resume",
			Usage: "Snapshot CSV from a previous run; its tracks are not looked up again",
		},
		&cli.BoolFlag{
			Name:  "continue-on-error",
			Usage: "Record tracks that fail enrichment and keep going instead of aborting",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Bypass the tag cache",
		},
	}
}

func destinationFlags(idFlag string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Create a new playlist with this name",
		},
		&cli.StringFlag{
			Name:  idFlag,
			Usage: "Add to this existing playlist, skipping tracks it already has",
		},
		&cli.BoolFlag{
			Name:  "private",
			Usage: "Make a new playlist private",
		},
	}
}

// analyzeCommand enriches a playlist with genre tags
func analyzeCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Source playlist ID",
		},
		outDirFlag(),
	}
	return &cli.Command{
		Name:   "analyze",
		Usage:  "Fetch a playlist's tracks, look up their genres and save them to CSV",
		Flags:  append(flags, resumeFlags()...),
		Action: r.Analyze,
	}
}

// exportCommand filters a saved table by genre
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Save the tracks of a CSV matching a genre to a new CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Snapshot CSV written by analyze",
			},
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Genre to match (case-insensitive substring of a tag)",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "Print the matched tracks after saving them",
			},
			outDirFlag(),
		},
		Action: r.Export,
	}
}

// materializeCommand builds a playlist from a CSV
func materializeCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "CSV of tracks to add",
		},
		outDirFlag(),
	}
	return &cli.Command{
		Name:   "materialize",
		Usage:  "Create a playlist from a CSV, or add its tracks to an existing playlist",
		Flags:  append(flags, destinationFlags("playlist-id")...),
		Action: r.Materialize,
	}
}

// splitCommand runs the whole pipeline
func splitCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Source playlist ID",
		},
		&cli.StringFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Genre to match (case-insensitive substring of a tag)",
		},
		outDirFlag(),
	}
	flags = append(flags, destinationFlags("dest-id")...)
	return &cli.Command{
		Name:   "split",
		Usage:  "Analyze a playlist, export one genre and build a playlist from it",
		Flags:  append(flags, resumeFlags()...),
		Action: r.Split,
	}
}

// authCommand runs the OAuth flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2 and save the token to the config file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Auth,
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show (0 for all)",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: plain, json or yaml",
				Value:   "plain",
			},
		},
		Action: r.History,
	}
}

// cacheCommand manages the tag cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the genre tag cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show how many tracks have cached tags",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached tag list",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand initializes configuration and storage
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file or initialize the database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
