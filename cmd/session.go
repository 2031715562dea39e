package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/services"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/urfave/cli/v3"
)

// Load reads the config file named by --config, applies environment overrides and opens the database.
//
// A missing config file falls back to defaults. A database that cannot be opened disables
// run history and the tag cache instead of failing the command.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.configured {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := shared.ApplyEnv(r.config, cmd.String("env-file")); err != nil {
		return ctx, err
	}
	r.configured = true

	if r.db == nil && r.config.Database.Path != "" {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("database unavailable, run history and tag cache disabled", "error", err)
			return ctx, nil
		}
		r.attachDB(db)
	}
	return ctx, nil
}

// Close releases the database and persists a refreshed Spotify token.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	r.persistRefreshedToken()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// persistRefreshedToken writes the user token back to the config file when the client refreshed it.
func (r *Runner) persistRefreshedToken() {
	if r.spotify == nil || r.configPath == "" {
		return
	}
	token, err := r.spotify.Token()
	if err != nil || token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return
	}
	if err := r.saveTokens(token); err != nil {
		r.logger.Warn("failed to save refreshed token", "error", err)
		return
	}
	r.logger.Debug("saved refreshed token", "path", r.configPath)
}

// session is the state of one pipeline invocation: its timestamp, log sink and history row.
type session struct {
	stamp  string
	outDir string
	runLog *shared.RunLog
	logger *log.Logger
	run    *models.Run
}

func (r *Runner) begin(kind models.RunKind, outDir string) (*session, error) {
	if outDir == "" {
		outDir = r.config.Output.Dir
	}
	stamp := shared.Stamp(r.now())

	runLog, err := shared.OpenRunLog(outDir, stamp, r.console)
	if err != nil {
		return nil, err
	}
	runLog.Logger.SetLevel(r.logger.GetLevel())

	s := &session{
		stamp:  stamp,
		outDir: outDir,
		runLog: runLog,
		logger: shared.WithLogger(runLog.Logger, "cmd", string(kind)),
		run:    &models.Run{Kind: kind, StartedAt: r.now().UTC()},
	}

	if r.runs != nil {
		if err := r.runs.Create(s.run); err != nil {
			s.logger.Warn("failed to record run", "error", err)
		}
	}
	s.logger.Info("run started", "log", runLog.Path)
	return s, nil
}

// finish records the outcome of the session, closes its log and returns runErr unchanged.
func (r *Runner) finish(s *session, runErr error) error {
	if runErr != nil {
		s.logger.Error("run failed", "error", runErr)
	} else {
		s.logger.Info("run finished")
	}

	if r.runs != nil && s.run.RunID != "" {
		if err := r.runs.Finish(s.run, runErr); err != nil {
			s.logger.Warn("failed to record run outcome", "error", err)
		}
	}

	if err := s.runLog.Close(); err != nil {
		r.logger.Warn("failed to close run log", "error", err)
	}
	return runErr
}

// providerFor returns the playlist provider, authenticating the Spotify client on first use.
//
// A saved user token is preferred. Without one, read-only commands fall back to the client
// credentials grant and write commands fail with [shared.ErrNotAuthenticated], also when a
// client credentials provider is already cached.
func (r *Runner) providerFor(ctx context.Context, logger *log.Logger, write bool) (services.Provider, error) {
	if r.provider != nil {
		if write && r.readOnly {
			return nil, fmt.Errorf("%w: signed in with client credentials only, run `plsplit auth` first", shared.ErrNotAuthenticated)
		}
		return r.provider, nil
	}

	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map(), services.WithSpotifyLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%w: set client_id and client_secret in %s or %s/%s",
			err, r.configPath, shared.EnvClientID, shared.EnvClientSecret)
	}

	if token := r.config.Credentials.Spotify.Token(); token != nil {
		if err := svc.OAuthenticate(ctx, token); err != nil {
			return nil, err
		}
		r.spotify = svc
		r.provider = svc
		return svc, nil
	}

	if write {
		return nil, fmt.Errorf("%w: no saved user token, run `plsplit auth` first", shared.ErrNotAuthenticated)
	}

	logger.Info("no user token, using client credentials for read-only access")
	if err := svc.AuthenticateClient(ctx); err != nil {
		return nil, err
	}
	r.provider = svc
	r.readOnly = true
	return svc, nil
}

// tagLookup returns the tag source, backed by the SQLite cache unless disabled.
func (r *Runner) tagLookup(logger *log.Logger, useCache bool) services.TagLookup {
	lookup := r.tags
	if lookup == nil {
		lookup = services.NewLastFMScraper(r.config.LastFM.BaseURL, r.config.LastFM.UserAgent, logger)
	}
	if useCache && r.cache != nil {
		return services.NewCachedTagLookup(lookup, r.cache, logger)
	}
	return lookup
}

// isUsageError reports whether err should be shown as a usage problem rather than a failure.
func isUsageError(err error) bool {
	return errors.Is(err, shared.ErrUsage) || errors.Is(err, shared.ErrMissingArgument)
}
