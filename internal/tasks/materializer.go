package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/services"
	"github.com/desertthunder/plsplit/internal/shared"
)

// AddBatchSize is the most track IDs sent in one add request.
const AddBatchSize = 100

// MaterializeOpts selects the destination playlist. Exactly one of Name and PlaylistID must be set.
type MaterializeOpts struct {
	Name       string                // Create a new playlist with this name
	PlaylistID string                // Append to this existing playlist
	Owner      string                // Owner of a new playlist, defaults to the authenticated user
	Public     bool                  // Visibility of a new playlist
	Progress   chan<- ProgressUpdate // Optional, sends never block
}

// MaterializeResult reports what was written to the destination.
type MaterializeResult struct {
	PlaylistID       string `json:"playlist_id"`
	Created          bool   `json:"created"`
	Added            int    `json:"added"`
	SkippedExisting  int    `json:"skipped_existing"`
	SkippedMissingID int    `json:"skipped_missing_id"`
}

// Materializer builds a destination playlist from a set of records.
type Materializer struct {
	provider   services.Provider
	enumerator *Enumerator
	logger     *log.Logger
}

func NewMaterializer(provider services.Provider, enumerator *Enumerator, logger *log.Logger) *Materializer {
	return &Materializer{provider: provider, enumerator: enumerator, logger: logger}
}

// Validate reports a usage error unless exactly one destination is selected.
func (o MaterializeOpts) Validate() error {
	name := strings.TrimSpace(o.Name)
	id := strings.TrimSpace(o.PlaylistID)
	switch {
	case name != "" && id != "":
		return fmt.Errorf("%w: give either a playlist name or a playlist ID, not both", shared.ErrUsage)
	case name == "" && id == "":
		return fmt.Errorf("%w: a playlist name or a playlist ID is required", shared.ErrUsage)
	}
	return nil
}

// Materialize creates a playlist named opts.Name holding every record's track,
// or appends to opts.PlaylistID the tracks it does not already contain.
//
// Records without a track ID are skipped. Invalid options fail before any provider call.
func (m *Materializer) Materialize(ctx context.Context, records []models.TrackRecord, opts MaterializeOpts) (*MaterializeResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &MaterializeResult{}
	existing := map[string]struct{}{}

	if opts.PlaylistID != "" {
		ids, err := m.enumerator.TrackIDs(ctx, opts.PlaylistID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch destination playlist %s: %w", opts.PlaylistID, err)
		}
		for _, id := range ids {
			existing[id] = struct{}{}
		}
		result.PlaylistID = opts.PlaylistID
		sendProgress(opts.Progress, fetchDestUpdate(opts.PlaylistID, len(ids)))
		m.logger.Info("fetched destination playlist", "playlist", opts.PlaylistID, "tracks", len(ids))
	}

	toAdd := []string{}
	for _, rec := range records {
		if rec.TrackID == "" {
			result.SkippedMissingID++
			m.logger.Warn("track has no ID, skipping", "track", rec.Key().String())
			continue
		}
		if _, ok := existing[rec.TrackID]; ok {
			result.SkippedExisting++
			m.logger.Debug("track already in destination", "track", rec.Key().String())
			continue
		}
		existing[rec.TrackID] = struct{}{}
		toAdd = append(toAdd, rec.TrackID)
	}

	if opts.Name != "" {
		owner := opts.Owner
		if owner == "" {
			id, err := m.provider.CurrentUserID(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve playlist owner: %w", err)
			}
			owner = id
		}

		id, err := m.provider.CreatePlaylist(ctx, owner, opts.Name, opts.Public)
		if err != nil {
			return nil, fmt.Errorf("failed to create playlist %q: %w", opts.Name, err)
		}
		result.PlaylistID = id
		result.Created = true
		sendProgress(opts.Progress, createPlaylistUpdate(id, opts.Name))
		m.logger.Info("created playlist", "name", opts.Name, "id", id, "public", opts.Public)
	}

	if len(toAdd) == 0 {
		m.logger.Info("nothing to add", "playlist", result.PlaylistID)
		return result, nil
	}

	batches := (len(toAdd) + AddBatchSize - 1) / AddBatchSize
	for i := range batches {
		batch := toAdd[i*AddBatchSize : min((i+1)*AddBatchSize, len(toAdd))]
		sendProgress(opts.Progress, addBatchUpdate(i+1, batches, len(batch)))
		if err := m.provider.AddTracks(ctx, result.PlaylistID, batch); err != nil {
			return result, fmt.Errorf("failed to add tracks to %s: %w", result.PlaylistID, err)
		}
		result.Added += len(batch)
	}

	m.logger.Info("added tracks",
		"playlist", result.PlaylistID,
		"added", result.Added,
		"skipped_existing", result.SkippedExisting,
		"skipped_missing_id", result.SkippedMissingID,
	)
	return result, nil
}
