// package models defines the data model for the playlist splitter
package models

import (
	"fmt"
	"strings"
	"time"
)

// TrackRecord is one row of the track-genre table.
//
// TrackID is empty when the provider's catalogue has no identifier for the track.
type TrackRecord struct {
	TrackID    string   `json:"track_id"`
	Genres     []string `json:"genres"`
	TrackName  string   `json:"track_name"`
	ArtistName string   `json:"artist_name"`
}

// Key returns the reconciliation identity of the record.
func (r TrackRecord) Key() TrackKey {
	return TrackKey{Title: r.TrackName, Artist: r.ArtistName}
}

// TrackKey identifies a track for reconciliation. Comparison is exact.
type TrackKey struct {
	Title  string
	Artist string
}

func (k TrackKey) String() string {
	return k.Title + " - " + k.Artist
}

// PayloadArtist is an artist credited on a [PayloadTrack].
type PayloadArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PayloadTrack is the track portion of a playlist entry.
type PayloadTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []PayloadArtist `json:"artists"`
}

// TrackPayload is the provider's raw representation of one playlist entry.
//
// Track is nil for entries that are not tracks (episodes, removed items).
type TrackPayload struct {
	AddedAt string        `json:"added_at"`
	Track   *PayloadTrack `json:"track"`
}

// Identity extracts the (title, first artist) pair of the payload.
//
// It fails when the entry has no track, no artist, or an empty title or
// first artist name.
func (p TrackPayload) Identity() (TrackKey, error) {
	if p.Track == nil {
		return TrackKey{}, fmt.Errorf("payload has no track")
	}
	if len(p.Track.Artists) == 0 {
		return TrackKey{}, fmt.Errorf("track %q has no artists", p.Track.Name)
	}

	key := TrackKey{Title: p.Track.Name, Artist: p.Track.Artists[0].Name}
	if strings.TrimSpace(key.Title) == "" {
		return TrackKey{}, fmt.Errorf("track %q has no name", p.Track.ID)
	}
	if strings.TrimSpace(key.Artist) == "" {
		return TrackKey{}, fmt.Errorf("track %q has an unnamed first artist", key.Title)
	}
	return key, nil
}

// TrackID returns the provider ID of the payload's track, or "" when absent.
func (p TrackPayload) TrackID() string {
	if p.Track == nil {
		return ""
	}
	return p.Track.ID
}

// FailedTrack pairs a payload with the error raised while enriching it.
type FailedTrack struct {
	Payload TrackPayload
	Err     error
}

// RunKind names the command that produced a [Run].
type RunKind string

const (
	RunAnalyze     RunKind = "analyze"
	RunExport      RunKind = "export"
	RunMaterialize RunKind = "materialize"
	RunSplit       RunKind = "split"
)

// RunStatus is the lifecycle state of a [Run].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is a recorded invocation of one of the pipeline commands.
type Run struct {
	RunID        string     `json:"id" yaml:"id"`
	Kind         RunKind    `json:"kind" yaml:"kind"`
	PlaylistID   string     `json:"playlist_id,omitempty" yaml:"playlist_id,omitempty"`
	Genre        string     `json:"genre,omitempty" yaml:"genre,omitempty"`
	OutputPath   string     `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Processed    int        `json:"processed" yaml:"processed"`
	Added        int        `json:"added" yaml:"added"`
	Skipped      int        `json:"skipped" yaml:"skipped"`
	Failed       int        `json:"failed" yaml:"failed"`
	Status       RunStatus  `json:"status" yaml:"status"`
	ErrorMessage string     `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// ID returns the run's UUID.
func (r *Run) ID() string { return r.RunID }

// Validate checks the required fields of the run.
func (r *Run) Validate() error {
	switch r.Kind {
	case RunAnalyze, RunExport, RunMaterialize, RunSplit:
	default:
		return fmt.Errorf("invalid run kind %q", r.Kind)
	}
	switch r.Status {
	case "", RunRunning, RunSucceeded, RunFailed:
	default:
		return fmt.Errorf("invalid run status %q", r.Status)
	}
	return nil
}
