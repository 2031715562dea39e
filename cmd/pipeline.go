package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/plsplit/internal/formatter"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/desertthunder/plsplit/internal/tasks"
	"github.com/desertthunder/plsplit/internal/ui"
	"github.com/urfave/cli/v3"
)

type analyzeOpts struct {
	PlaylistID string
	Resume     string
	OutDir     string
	Policy     tasks.FailurePolicy
	NoCache    bool
}

type exportOpts struct {
	Input  string
	Genre  string
	OutDir string
	List   bool
}

type materializeOpts struct {
	Input      string
	Name       string
	PlaylistID string
	Public     bool
	OutDir     string
}

type splitOpts struct {
	analyzeOpts
	Genre  string
	Name   string
	DestID string
	Public bool
}

func policyFlag(cmd *cli.Command) tasks.FailurePolicy {
	if cmd.Bool("continue-on-error") {
		return tasks.ContinueOnError
	}
	return tasks.AbortOnError
}

// Analyze enumerates a playlist, enriches every track with tags and saves the table to a snapshot CSV.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	return r.analyze(ctx, analyzeOpts{
		PlaylistID: cmd.String("playlist"),
		Resume:     cmd.String("resume"),
		OutDir:     cmd.String("out-dir"),
		Policy:     policyFlag(cmd),
		NoCache:    cmd.Bool("no-cache"),
	})
}

func (r *Runner) analyze(ctx context.Context, opts analyzeOpts) error {
	if strings.TrimSpace(opts.PlaylistID) == "" {
		return fmt.Errorf("%w: --playlist", shared.ErrMissingArgument)
	}

	s, err := r.begin(models.RunAnalyze, opts.OutDir)
	if err != nil {
		return err
	}
	s.run.PlaylistID = opts.PlaylistID

	result, path, err := r.enrich(ctx, s, opts)
	if err := r.finish(s, err); err != nil {
		r.writeFailures(result)
		return err
	}

	r.writeHeader("Playlist analyzed")
	r.writeField("Playlist", opts.PlaylistID)
	r.writeEnrichSummary(result)
	r.writeField("Saved to", path)
	r.writeField("Log", s.runLog.Path)
	r.writeFailures(result)
	return nil
}

// enrich runs the enumerator and reconciler and writes the snapshot.
// Nothing is written when the pass fails.
func (r *Runner) enrich(ctx context.Context, s *session, opts analyzeOpts) (*tasks.EnrichResult, string, error) {
	provider, err := r.providerFor(ctx, s.logger, false)
	if err != nil {
		return nil, "", err
	}

	progress, stop := r.startProgress()
	defer stop()
	reconciler := tasks.NewReconciler(r.tagLookup(s.logger, !opts.NoCache), s.logger, tasks.ReconcilerOpts{
		Policy:   opts.Policy,
		Progress: progress,
	})
	if opts.Resume != "" {
		previous, err := formatter.ReadTracksFile(opts.Resume)
		if err != nil {
			return nil, "", err
		}
		reconciler.Load(previous)
	}

	s.logger.Info("getting genres for playlist", "playlist", opts.PlaylistID, "policy", opts.Policy)
	enumerator := tasks.NewEnumerator(provider, s.logger)
	result, err := reconciler.Run(ctx, enumerator.Tracks(ctx, opts.PlaylistID))

	s.run.Processed = result.Processed
	s.run.Added = result.Added
	s.run.Skipped = result.Skipped
	s.run.Failed = len(result.Failed)
	if err != nil {
		return result, "", err
	}

	path := filepath.Join(s.outDir, formatter.SnapshotFilename(s.stamp))
	if err := formatter.WriteTracksFile(path, result.Records); err != nil {
		return result, "", err
	}
	s.run.OutputPath = path
	s.logger.Info("saved tracks", "count", len(result.Records), "path", path)
	return result, path, nil
}

// Export writes the tracks of a saved table that match a genre to a genre CSV.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	return r.export(exportOpts{
		Input:  cmd.String("input"),
		Genre:  cmd.String("genre"),
		OutDir: cmd.String("out-dir"),
		List:   cmd.Bool("list"),
	})
}

func (r *Runner) export(opts exportOpts) error {
	if opts.Input == "" {
		return fmt.Errorf("%w: --input", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(opts.Genre) == "" {
		return fmt.Errorf("%w: --genre", shared.ErrMissingArgument)
	}

	s, err := r.begin(models.RunExport, opts.OutDir)
	if err != nil {
		return err
	}
	s.run.Genre = opts.Genre

	result, err := r.exportGenre(s, opts)
	if err := r.finish(s, err); err != nil {
		return err
	}

	r.writeHeader("Genre exported")
	r.writeField("Genre", opts.Genre)
	r.writeField("Matched", result.Matched)
	r.writeField("Saved to", result.Path)
	if result.Matched == 0 {
		r.writePlain("%s\n", ui.Styles.Warn("no tracks matched, the file only has a header row"))
	}
	if opts.List {
		r.writePlain("\n%s", formatter.ExportToText(result.Records))
	}
	return nil
}

func (r *Runner) exportGenre(s *session, opts exportOpts) (*tasks.ExportResult, error) {
	records, err := formatter.ReadTracksFile(opts.Input)
	if err != nil {
		return nil, err
	}
	s.run.Processed = len(records)

	path := filepath.Join(s.outDir, formatter.GenreFilename(opts.Genre, s.stamp))
	result, err := tasks.ExportGenre(records, opts.Genre, path)
	if err != nil {
		return nil, err
	}

	s.run.Added = result.Matched
	s.run.OutputPath = result.Path
	s.logger.Info("saved genre tracks", "genre", opts.Genre, "count", result.Matched, "path", result.Path)
	return result, nil
}

// Materialize creates or augments a playlist with the tracks of a saved table.
func (r *Runner) Materialize(ctx context.Context, cmd *cli.Command) error {
	return r.materialize(ctx, materializeOpts{
		Input:      cmd.String("input"),
		Name:       cmd.String("name"),
		PlaylistID: cmd.String("playlist-id"),
		Public:     !cmd.Bool("private"),
		OutDir:     cmd.String("out-dir"),
	})
}

func (r *Runner) materialize(ctx context.Context, opts materializeOpts) error {
	dest := r.destination(opts.Name, opts.PlaylistID, opts.Public)
	if err := dest.Validate(); err != nil {
		return err
	}
	if opts.Input == "" {
		return fmt.Errorf("%w: --input", shared.ErrMissingArgument)
	}

	s, err := r.begin(models.RunMaterialize, opts.OutDir)
	if err != nil {
		return err
	}
	s.run.OutputPath = opts.Input

	result, err := r.materializeRecords(ctx, s, opts.Input, dest)
	if err := r.finish(s, err); err != nil {
		return err
	}

	r.writeMaterializeSummary(result)
	return nil
}

func (r *Runner) destination(name, playlistID string, public bool) tasks.MaterializeOpts {
	return tasks.MaterializeOpts{
		Name:       name,
		PlaylistID: playlistID,
		Owner:      r.config.Credentials.Spotify.Username,
		Public:     public,
	}
}

func (r *Runner) materializeRecords(ctx context.Context, s *session, input string, dest tasks.MaterializeOpts) (*tasks.MaterializeResult, error) {
	records, err := formatter.ReadTracksFile(input)
	if err != nil {
		return nil, err
	}
	s.run.Processed = len(records)

	provider, err := r.providerFor(ctx, s.logger, true)
	if err != nil {
		return nil, err
	}

	progress, stop := r.startProgress()
	dest.Progress = progress
	materializer := tasks.NewMaterializer(provider, tasks.NewEnumerator(provider, s.logger), s.logger)
	result, err := materializer.Materialize(ctx, records, dest)
	stop()
	if result != nil {
		s.run.PlaylistID = result.PlaylistID
		s.run.Added = result.Added
		s.run.Skipped = result.SkippedExisting + result.SkippedMissingID
	}
	return result, err
}

// Split runs analyze, export and materialize in one invocation.
func (r *Runner) Split(ctx context.Context, cmd *cli.Command) error {
	return r.split(ctx, splitOpts{
		analyzeOpts: analyzeOpts{
			PlaylistID: cmd.String("playlist"),
			Resume:     cmd.String("resume"),
			OutDir:     cmd.String("out-dir"),
			Policy:     policyFlag(cmd),
			NoCache:    cmd.Bool("no-cache"),
		},
		Genre:  cmd.String("genre"),
		Name:   cmd.String("name"),
		DestID: cmd.String("dest-id"),
		Public: !cmd.Bool("private"),
	})
}

func (r *Runner) split(ctx context.Context, opts splitOpts) error {
	dest := r.destination(opts.Name, opts.DestID, opts.Public)
	if err := dest.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(opts.PlaylistID) == "" {
		return fmt.Errorf("%w: --playlist", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(opts.Genre) == "" {
		return fmt.Errorf("%w: --genre", shared.ErrMissingArgument)
	}

	s, err := r.begin(models.RunSplit, opts.OutDir)
	if err != nil {
		return err
	}
	s.run.Genre = opts.Genre
	s.run.PlaylistID = opts.PlaylistID

	// Fail on a missing user token before the enrichment pass.
	if _, err := r.providerFor(ctx, s.logger, true); err != nil {
		return r.finish(s, err)
	}

	enriched, snapshot, err := r.enrich(ctx, s, opts.analyzeOpts)
	if err != nil {
		r.writeFailures(enriched)
		return r.finish(s, err)
	}

	exported, err := tasks.ExportGenre(enriched.Records, opts.Genre, filepath.Join(s.outDir, formatter.GenreFilename(opts.Genre, s.stamp)))
	if err != nil {
		return r.finish(s, err)
	}
	s.logger.Info("saved genre tracks", "genre", opts.Genre, "count", exported.Matched, "path", exported.Path)

	materialized, err := r.materializeRecords(ctx, s, exported.Path, dest)
	s.run.Processed = enriched.Processed
	s.run.OutputPath = exported.Path
	if err := r.finish(s, err); err != nil {
		return err
	}

	r.writeHeader("Playlist split")
	r.writeEnrichSummary(enriched)
	r.writeField("Snapshot", snapshot)
	r.writeField("Genre", opts.Genre)
	r.writeField("Matched", exported.Matched)
	r.writeField("Genre file", exported.Path)
	r.writeMaterializeSummary(materialized)
	r.writeFailures(enriched)
	return nil
}

func (r *Runner) writeEnrichSummary(result *tasks.EnrichResult) {
	r.writeField("Processed", result.Processed)
	r.writeField("Added", result.Added)
	r.writeField("Skipped", result.Skipped)
	r.writeField("Failed", len(result.Failed))
	r.writeField("Tracks", len(result.Records))
}

func (r *Runner) writeMaterializeSummary(result *tasks.MaterializeResult) {
	if result.Created {
		r.writePlain("%s\n", ui.Styles.OK("Created playlist "+result.PlaylistID))
	} else {
		r.writePlain("%s\n", ui.Styles.OK("Updated playlist "+result.PlaylistID))
	}
	r.writeField("Added", result.Added)
	r.writeField("Already present", result.SkippedExisting)
	r.writeField("Missing ID", result.SkippedMissingID)
}

func (r *Runner) writeFailures(result *tasks.EnrichResult) {
	if result == nil || len(result.Failed) == 0 {
		return
	}
	r.writePlainln("%s", ui.Styles.Warn(fmt.Sprintf("%d tracks failed:", len(result.Failed))))
	for _, f := range result.Failed {
		r.writePlain("  %s\n", ui.Styles.Err(fmt.Sprintf("%s: %v", f.Payload.TrackID(), f.Err)))
	}
}
