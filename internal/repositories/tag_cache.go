package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/plsplit/internal/shared"
)

// TagCacheRepository stores scraped tag lists keyed by the exact (artist, title) pair.
//
// Implements services.TagCache.
type TagCacheRepository struct {
	db *sql.DB
}

// NewTagCacheRepository creates a new TagCacheRepository with the given database connection
func NewTagCacheRepository(db *sql.DB) *TagCacheRepository {
	return &TagCacheRepository{db: db}
}

// Get returns the cached tags for (artist, title) and whether an entry exists.
func (r *TagCacheRepository) Get(artist, title string) ([]string, bool, error) {
	var raw string
	err := r.db.QueryRow(`SELECT tags FROM tag_cache WHERE artist = ? AND title = ?`, artist, title).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query tag cache: %w", err)
	}

	tags := []string{}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached tags: %w", err)
	}
	return tags, true, nil
}

// Put stores tags for (artist, title), replacing any existing entry.
func (r *TagCacheRepository) Put(artist, title string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}

	data, err := shared.MarshalJSON(tags, false)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO tag_cache (artist, title, tags, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (artist, title) DO UPDATE SET tags = excluded.tags, fetched_at = excluded.fetched_at
	`
	if _, err := r.db.Exec(query, artist, title, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write tag cache: %w", err)
	}
	return nil
}

// Count returns the number of cached tracks.
func (r *TagCacheRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tag_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tag cache: %w", err)
	}
	return n, nil
}

// Clear removes every cached entry and returns how many were deleted.
func (r *TagCacheRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM tag_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear tag cache: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
