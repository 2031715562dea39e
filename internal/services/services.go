// package services defines the external collaborators of the playlist splitter
//
// Spotify (playlist provider), Last.fm (genre tags)
package services

import (
	"context"

	"github.com/desertthunder/plsplit/internal/models"
	"golang.org/x/oauth2"
)

// PageFetcher reads one page of a playlist's entries.
type PageFetcher interface {
	// PlaylistPage returns up to limit entries starting at offset.
	// An empty page marks the end of the playlist.
	PlaylistPage(ctx context.Context, playlistID string, offset, limit int) ([]models.TrackPayload, error)
}

// PlaylistWriter creates playlists and appends tracks to them.
type PlaylistWriter interface {
	// CreatePlaylist creates a playlist owned by owner and returns its ID.
	CreatePlaylist(ctx context.Context, owner, name string, public bool) (string, error)

	// AddTracks appends trackIDs to the playlist in a single request.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Provider is the full playlist provider capability.
type Provider interface {
	PageFetcher
	PlaylistWriter

	// CurrentUserID returns the account the provider is acting as.
	CurrentUserID(ctx context.Context) (string, error)
}

// OAuthService extends a provider with the authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// TagLookup returns the genre tags the catalogue associates with a track.
//
// An unknown track yields an empty list, not an error.
type TagLookup interface {
	LookupTags(ctx context.Context, artist, title string) ([]string, error)
}
