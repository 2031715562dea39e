package tasks

import (
	"context"
	"iter"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/services"
)

// PageSize is the largest page the provider serves per request.
const PageSize = 100

// Enumerator pages through a playlist with an offset/limit cursor.
type Enumerator struct {
	provider services.PageFetcher
	pageSize int
	logger   *log.Logger
}

func NewEnumerator(provider services.PageFetcher, logger *log.Logger) *Enumerator {
	return &Enumerator{provider: provider, pageSize: PageSize, logger: logger}
}

// Tracks returns a lazy sequence over every entry of the playlist.
//
// Pages are requested on demand starting at offset 0 until the provider returns an empty page.
// A provider error is yielded once as the final element.
func (e *Enumerator) Tracks(ctx context.Context, playlistID string) iter.Seq2[models.TrackPayload, error] {
	return func(yield func(models.TrackPayload, error) bool) {
		for offset := 0; ; offset += e.pageSize {
			page, err := e.provider.PlaylistPage(ctx, playlistID, offset, e.pageSize)
			if err != nil {
				yield(models.TrackPayload{}, err)
				return
			}
			if len(page) == 0 {
				e.logger.Debug("playlist exhausted", "playlist", playlistID, "offset", offset)
				return
			}

			e.logger.Debug("fetched page", "playlist", playlistID, "offset", offset, "items", len(page))
			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// TrackIDs collects the IDs of every track in the playlist. Entries without an ID are omitted.
func (e *Enumerator) TrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	ids := []string{}
	for payload, err := range e.Tracks(ctx, playlistID) {
		if err != nil {
			return nil, err
		}
		if id := payload.TrackID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
