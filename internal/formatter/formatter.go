// package formatter reads and writes the track-genre table as CSV and renders it as plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/shared"
)

// Header is the column layout shared by playlist snapshots and genre exports.
var Header = []string{"track_id", "genres", "track_name", "artist_name"}

// SnapshotFilename names the file holding a full enrichment pass.
func SnapshotFilename(stamp string) string {
	return fmt.Sprintf("playlist_splitter_%s.csv", stamp)
}

// GenreFilename names the file holding the tracks matching genre.
func GenreFilename(genre, stamp string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(genre)
	return fmt.Sprintf("%s_%s.csv", safe, stamp)
}

// WriteTracks writes the header followed by one row per record.
func WriteTracks(w io.Writer, records []models.TrackRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		genres, err := EncodeGenres(r.Genres)
		if err != nil {
			return err
		}
		if err := writer.Write([]string{r.TrackID, genres, r.TrackName, r.ArtistName}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// ReadTracks parses a table written by [WriteTracks].
//
// Columns are located by header name, so files with extra or reordered columns load too.
func ReadTracks(r io.Reader) ([]models.TrackRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", shared.ErrInvalidFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFile, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", shared.ErrInvalidFile, name)
		}
	}

	records := []models.TrackRecord{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidFile, line, err)
		}

		field := func(name string) string {
			if i := cols[name]; i < len(row) {
				return row[i]
			}
			return ""
		}

		genres, err := DecodeGenres(field("genres"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidFile, line, err)
		}

		records = append(records, models.TrackRecord{
			TrackID:    field("track_id"),
			Genres:     genres,
			TrackName:  field("track_name"),
			ArtistName: field("artist_name"),
		})
	}

	return records, nil
}

// WriteTracksFile writes records to path, creating parent directories as needed.
func WriteTracksFile(path string, records []models.TrackRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := WriteTracks(&buf, records); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}

// ReadTracksFile loads the table stored at path.
func ReadTracksFile(path string) ([]models.TrackRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	records, err := ReadTracks(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ExportToText renders records as a numbered plain text listing.
func ExportToText(records []models.TrackRecord) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&buf, "%d. %s - %s", i+1, r.ArtistName, r.TrackName)
		if len(r.Genres) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(r.Genres, ", "))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}
