package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/plsplit/internal/formatter"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/shared"
)

// ExportResult describes a written genre export.
type ExportResult struct {
	Matched int
	Path    string
	Records []models.TrackRecord // Matching records with narrowed genres
}

// MatchGenres returns the lower-cased tags that contain genre as a case-insensitive substring.
//
// "techno" matches "Melodic Techno" but not "tech house".
func MatchGenres(tags []string, genre string) []string {
	search := strings.ToLower(genre)
	matches := []string{}
	for _, tag := range tags {
		if t := strings.ToLower(tag); strings.Contains(t, search) {
			matches = append(matches, t)
		}
	}
	return matches
}

// FilterByGenre returns the records with at least one matching tag.
//
// The Genres of every matching record are narrowed in place to the matching tags;
// the full tag list is not kept.
func FilterByGenre(records []models.TrackRecord, genre string) []models.TrackRecord {
	matched := []models.TrackRecord{}
	for i := range records {
		tags := MatchGenres(records[i].Genres, genre)
		if len(tags) == 0 {
			continue
		}
		records[i].Genres = tags
		matched = append(matched, records[i])
	}
	return matched
}

// ExportGenre filters records by genre and writes the matches to path.
//
// No matches is not an error: the file then holds only the header row.
func ExportGenre(records []models.TrackRecord, genre, path string) (*ExportResult, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, fmt.Errorf("%w: genre", shared.ErrMissingArgument)
	}

	matched := FilterByGenre(records, genre)
	if err := formatter.WriteTracksFile(path, matched); err != nil {
		return nil, fmt.Errorf("failed to export %s tracks: %w", genre, err)
	}

	return &ExportResult{Matched: len(matched), Path: path, Records: matched}, nil
}
