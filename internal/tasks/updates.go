package tasks

import (
	"fmt"

	"github.com/desertthunder/plsplit/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	EnrichTracks Phase = iota
	FetchDest
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case EnrichTracks:
		return "enrich_tracks"
	case FetchDest:
		return "fetch_dest"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func enrichTrackUpdate(step int, key models.TrackKey) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichTracks,
		Step:    step,
		Message: fmt.Sprintf("[%d] %s", step, key),
		Data:    key,
	}
}

func enrichFailedUpdate(step int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichTracks,
		Step:    step,
		Message: fmt.Sprintf("[%d] ✗ %v", step, err),
	}
}

func fetchDestUpdate(id string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Destination playlist %s has %d tracks", id, count),
	}
}

func createPlaylistUpdate(id, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", name, id),
		Data:    id,
	}
}

func addBatchUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, size),
	}
}
