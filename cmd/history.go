package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/desertthunder/plsplit/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireDB() error {
	if r.db == nil {
		return fmt.Errorf("%w: database is disabled, set [database] path and run `plsplit setup database`", shared.ErrServiceUnavailable)
	}
	return nil
}

// History lists recorded runs, most recent first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	return r.history(cmd.Int("limit"), cmd.String("format"))
}

func (r *Runner) history(limit int, format string) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	runs, err := r.runs.List(limit)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "json":
		return r.writeJSON(runs, true)
	case "yaml", "yml":
		return r.writeYAML(runs)
	case "", "plain":
	default:
		return fmt.Errorf("%w: unknown format %q (plain, json, yaml)", shared.ErrInvalidArgument, format)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}

	r.writeHeader(fmt.Sprintf("Run history (%d)", len(runs)))
	for _, run := range runs {
		r.writePlain("%s  %-11s %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Kind, statusLabel(run))
		if run.PlaylistID != "" {
			r.writePlain("    playlist: %s\n", run.PlaylistID)
		}
		if run.Genre != "" {
			r.writePlain("    genre:    %s\n", run.Genre)
		}
		if run.OutputPath != "" {
			r.writePlain("    file:     %s\n", run.OutputPath)
		}
		r.writePlain("    processed=%d added=%d skipped=%d failed=%d\n", run.Processed, run.Added, run.Skipped, run.Failed)
	}
	return nil
}

func statusLabel(run *models.Run) string {
	switch run.Status {
	case models.RunSucceeded:
		return ui.Styles.OK(string(run.Status))
	case models.RunFailed:
		return ui.Styles.Err(string(run.Status) + ": " + run.ErrorMessage)
	default:
		return ui.Styles.Warn(string(run.Status))
	}
}

// CacheStats reports how many tag lists are cached.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	n, err := r.cache.Count()
	if err != nil {
		return err
	}
	r.writeField("Cached tracks", n)
	r.writeField("Database", r.config.Database.Path)
	return nil
}

// CacheClear drops every cached tag list.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	n, err := r.cache.Clear()
	if err != nil {
		return err
	}
	r.logger.Info("tag cache cleared", "entries", n)
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Removed %d cached tag lists", n)))
}
