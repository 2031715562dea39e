package services

import (
	"context"

	"github.com/charmbracelet/log"
)

// TagCache stores tag lists by (artist, title).
type TagCache interface {
	Get(artist, title string) ([]string, bool, error)
	Put(artist, title string, tags []string) error
}

// CachedTagLookup consults a [TagCache] before delegating to another [TagLookup].
//
// Cache failures are logged and never fail the lookup. Lookup errors are not cached.
type CachedTagLookup struct {
	next   TagLookup
	cache  TagCache
	logger *log.Logger
}

func NewCachedTagLookup(next TagLookup, cache TagCache, logger *log.Logger) *CachedTagLookup {
	return &CachedTagLookup{next: next, cache: cache, logger: logger}
}

func (c *CachedTagLookup) LookupTags(ctx context.Context, artist, title string) ([]string, error) {
	tags, ok, err := c.cache.Get(artist, title)
	switch {
	case err != nil:
		c.logger.Warn("tag cache read failed", "track", title, "artist", artist, "error", err)
	case ok:
		c.logger.Debug("tag cache hit", "track", title, "artist", artist)
		return tags, nil
	}

	tags, err = c.next.LookupTags(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(artist, title, tags); err != nil {
		c.logger.Warn("tag cache write failed", "track", title, "artist", artist, "error", err)
	}
	return tags, nil
}
