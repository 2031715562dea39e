package tasks

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/services"
	"github.com/desertthunder/plsplit/internal/shared"
)

// FailurePolicy decides what happens after a track fails enrichment.
type FailurePolicy int

const (
	// AbortOnError records the failed track and then ends the pass with its error.
	AbortOnError FailurePolicy = iota
	// ContinueOnError records the failed track and moves on to the next one.
	ContinueOnError
)

func (p FailurePolicy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case ContinueOnError:
		return "continue"
	default:
		return ""
	}
}

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	Policy   FailurePolicy
	Progress chan<- ProgressUpdate // Optional, sends never block
}

// EnrichResult is the accumulated table after a pass.
type EnrichResult struct {
	Records   []models.TrackRecord // Loaded records followed by newly enriched ones
	Failed    []models.FailedTrack // Payloads that could not be enriched
	Processed int                  // Payloads seen during the pass
	Skipped   int                  // Payloads whose key was already processed
	Added     int                  // Records appended during the pass
}

// Reconciler turns enumerated payloads into [models.TrackRecord] rows,
// looking up tags only for (title, artist) pairs it has not seen yet.
type Reconciler struct {
	tags   services.TagLookup
	opts   ReconcilerOpts
	logger *log.Logger

	records   []models.TrackRecord
	processed map[models.TrackKey]struct{}
	failed    []models.FailedTrack
	seen      int
	skipped   int
	added     int
}

func NewReconciler(tags services.TagLookup, logger *log.Logger, opts ReconcilerOpts) *Reconciler {
	return &Reconciler{
		tags:      tags,
		opts:      opts,
		logger:    logger,
		records:   []models.TrackRecord{},
		processed: map[models.TrackKey]struct{}{},
	}
}

// Load seeds the accumulation with records from a previous run.
// Later duplicates of an already loaded key are dropped.
func (r *Reconciler) Load(records []models.TrackRecord) int {
	loaded := 0
	for _, rec := range records {
		key := rec.Key()
		if _, ok := r.processed[key]; ok {
			r.logger.Warn("duplicate record in loaded data", "track", key.String())
			continue
		}
		r.processed[key] = struct{}{}
		r.records = append(r.records, rec)
		loaded++
	}
	r.logger.Info("loaded previous records", "count", loaded)
	return loaded
}

// Process enriches a single payload.
//
// A non-nil error ends the pass: either the context is done or the payload failed under [AbortOnError].
// Failed payloads are recorded before the policy is applied.
func (r *Reconciler) Process(ctx context.Context, payload models.TrackPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.seen++

	key, err := payload.Identity()
	if err != nil {
		return r.fail(payload, fmt.Errorf("%w: %v", shared.ErrMalformedTrack, err))
	}

	if _, ok := r.processed[key]; ok {
		r.skipped++
		r.logger.Info("track already processed, skipping", "track", key.String())
		return nil
	}

	sendProgress(r.opts.Progress, enrichTrackUpdate(r.seen, key))

	tags, err := r.tags.LookupTags(ctx, key.Artist, key.Title)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, shared.ErrTagLookup) {
			err = fmt.Errorf("%w: %v", shared.ErrTagLookup, err)
		}
		return r.fail(payload, fmt.Errorf("%s: %w", key, err))
	}
	if tags == nil {
		tags = []string{}
	}

	r.records = append(r.records, models.TrackRecord{
		TrackID:    payload.TrackID(),
		Genres:     tags,
		TrackName:  key.Title,
		ArtistName: key.Artist,
	})
	r.processed[key] = struct{}{}
	r.added++

	r.logger.Info("track processed", "track", key.String(), "genres", tags)
	return nil
}

// Run drains seq through [Reconciler.Process]. Errors from the sequence itself are always fatal.
//
// The result is returned even when err is non-nil so callers can report the partial pass.
func (r *Reconciler) Run(ctx context.Context, seq iter.Seq2[models.TrackPayload, error]) (*EnrichResult, error) {
	var runErr error
	for payload, err := range seq {
		if err != nil {
			runErr = err
			break
		}
		if err := r.Process(ctx, payload); err != nil {
			runErr = err
			break
		}
	}

	result := r.Result()
	if runErr != nil {
		r.logger.Error("enrichment aborted", "processed", result.Processed, "error", runErr)
		return result, runErr
	}

	r.logger.Info("enrichment complete",
		"processed", result.Processed,
		"added", result.Added,
		"skipped", result.Skipped,
		"failed", len(result.Failed),
	)
	return result, nil
}

// Result snapshots the current accumulation.
func (r *Reconciler) Result() *EnrichResult {
	return &EnrichResult{
		Records:   append([]models.TrackRecord{}, r.records...),
		Failed:    append([]models.FailedTrack{}, r.failed...),
		Processed: r.seen,
		Skipped:   r.skipped,
		Added:     r.added,
	}
}

func (r *Reconciler) fail(payload models.TrackPayload, err error) error {
	r.failed = append(r.failed, models.FailedTrack{Payload: payload, Err: err})
	r.logger.Error("failed to enrich track", "track_id", payload.TrackID(), "error", err)
	sendProgress(r.opts.Progress, enrichFailedUpdate(r.seen, err))

	if r.opts.Policy == ContinueOnError {
		return nil
	}
	return err
}
