// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/plsplit/internal/models"
)

// PageCall records one PlaylistPage request.
type PageCall struct {
	PlaylistID string
	Offset     int
	Limit      int
}

// AddCall records one AddTracks request.
type AddCall struct {
	PlaylistID string
	TrackIDs   []string
}

// MockProvider is an in-memory test double for [services.Provider].
//
// Playlists maps playlist IDs to their entries. PageErr is returned once
// FailAfter successful page requests have been served.
type MockProvider struct {
	Playlists map[string][]models.TrackPayload
	User      string

	PageErr   error
	FailAfter int
	CreateErr error
	AddErr    error

	Pages   []PageCall
	Created []string
	Adds    []AddCall
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Playlists: map[string][]models.TrackPayload{}, User: "tester"}
}

func (m *MockProvider) PlaylistPage(ctx context.Context, playlistID string, offset, limit int) ([]models.TrackPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.Pages = append(m.Pages, PageCall{playlistID, offset, limit})
	if m.PageErr != nil && len(m.Pages) > m.FailAfter {
		return nil, m.PageErr
	}

	items := m.Playlists[playlistID]
	if offset >= len(items) {
		return []models.TrackPayload{}, nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end], nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, owner, name string, public bool) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	id := fmt.Sprintf("created-%d", len(m.Created)+1)
	m.Created = append(m.Created, name)
	m.Playlists[id] = nil
	return id, nil
}

func (m *MockProvider) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Adds = append(m.Adds, AddCall{PlaylistID: playlistID, TrackIDs: append([]string(nil), trackIDs...)})
	for _, id := range trackIDs {
		m.Playlists[playlistID] = append(m.Playlists[playlistID], Payload(id, "track "+id, "artist"))
	}
	return nil
}

func (m *MockProvider) CurrentUserID(ctx context.Context) (string, error) {
	return m.User, nil
}

// AddedIDs flattens every AddTracks call into one slice.
func (m *MockProvider) AddedIDs() []string {
	var ids []string
	for _, call := range m.Adds {
		ids = append(ids, call.TrackIDs...)
	}
	return ids
}

// MockTagLookup is a test double for [services.TagLookup] keyed by "title - artist".
type MockTagLookup struct {
	Tags   map[string][]string
	Errors map[string]error
	Calls  []string
}

func NewMockTagLookup() *MockTagLookup {
	return &MockTagLookup{Tags: map[string][]string{}, Errors: map[string]error{}}
}

func (m *MockTagLookup) LookupTags(ctx context.Context, artist, title string) ([]string, error) {
	key := title + " - " + artist
	m.Calls = append(m.Calls, key)
	if err := m.Errors[key]; err != nil {
		return nil, err
	}
	return m.Tags[key], nil
}

// Payload builds a playlist entry with a single artist.
func Payload(id, title, artist string) models.TrackPayload {
	return models.TrackPayload{
		AddedAt: "2024-01-01T00:00:00Z",
		Track: &models.PayloadTrack{
			ID:      id,
			Name:    title,
			Artists: []models.PayloadArtist{{Name: artist}},
		},
	}
}

// Payloads builds n entries with IDs t1..tn.
func Payloads(n int) []models.TrackPayload {
	items := make([]models.TrackPayload, n)
	for i := range items {
		items[i] = Payload(fmt.Sprintf("t%d", i+1), fmt.Sprintf("Track %d", i+1), "Artist")
	}
	return items
}

// SampleRecords returns a small table with mixed genres and one record without an ID.
func SampleRecords() []models.TrackRecord {
	return []models.TrackRecord{
		{TrackID: "t1", Genres: []string{"Melodic Techno", "idm"}, TrackName: "Xtal", ArtistName: "Aphex Twin"},
		{TrackID: "t2", Genres: []string{"house", "trance"}, TrackName: "Teardrop", ArtistName: "Massive Attack"},
		{TrackID: "", Genres: []string{"techno"}, TrackName: "Spastik", ArtistName: "Plastikman"},
		{TrackID: "t4", Genres: []string{}, TrackName: "Untitled", ArtistName: "Burial"},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
