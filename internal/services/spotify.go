// Spotify implementation of [Provider]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyBaseURL     = "https://api.spotify.com/v1/"
	spotifyAccountsURL = "https://accounts.spotify.com"
	defaultRedirectURI = "http://localhost:8888/callback/"
)

// SpotifyService implements [Provider] and [OAuthService] on top of the zmb3/spotify client.
//
// Reads work with either a user token or the client credentials grant.
// Creating playlists and adding tracks require a user token.
type SpotifyService struct {
	config   *oauth2.Config
	baseURL  string
	client   *spotify.Client
	tokens   oauth2.TokenSource
	userAuth bool
	logger   *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithAPIBaseURL points the Web API client at url.
func WithAPIBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		s.baseURL = url
	}
}

// WithAccountsURL points the authorize and token endpoints at url.
func WithAccountsURL(url string) SpotifyOption {
	return func(s *SpotifyService) {
		url = strings.TrimSuffix(url, "/")
		s.config.Endpoint = oauth2.Endpoint{AuthURL: url + "/authorize", TokenURL: url + "/api/token"}
	}
}

// WithSpotifyLogger sets the logger used for request diagnostics.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes: []string{
				spotifyauth.ScopePlaylistReadPrivate,
				spotifyauth.ScopePlaylistModifyPublic,
				spotifyauth.ScopePlaylistModifyPrivate,
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAccountsURL + "/authorize",
				TokenURL: spotifyAccountsURL + "/api/token",
			},
		},
		baseURL: spotifyBaseURL,
		logger:  shared.NewLogger(nil),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration used for the authorization code flow.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// OAuthenticate binds the service to a user token. Expired tokens are refreshed on demand.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: no user token", shared.ErrNotAuthenticated)
	}

	s.tokens = s.config.TokenSource(ctx, token)
	s.client = spotify.New(oauth2.NewClient(ctx, s.tokens), spotify.WithBaseURL(s.baseURL))
	s.userAuth = true
	return nil
}

// AuthenticateClient binds the service to an app-only token from the client credentials grant.
func (s *SpotifyService) AuthenticateClient(ctx context.Context) error {
	cc := &clientcredentials.Config{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		TokenURL:     s.config.Endpoint.TokenURL,
	}

	tokens := cc.TokenSource(ctx)
	if _, err := tokens.Token(); err != nil {
		return fmt.Errorf("%w: client credentials: %w", shared.ErrAuthFailed, err)
	}

	s.tokens = tokens
	s.client = spotify.New(oauth2.NewClient(ctx, tokens), spotify.WithBaseURL(s.baseURL))
	s.userAuth = false
	return nil
}

// Token returns the current user token, which may have been refreshed since [SpotifyService.OAuthenticate].
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if !s.userAuth || s.tokens == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.tokens.Token()
}

// PlaylistPage fetches one page of playlist entries.
func (s *SpotifyService) PlaylistPage(ctx context.Context, playlistID string, offset, limit int) ([]models.TrackPayload, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: call OAuthenticate or AuthenticateClient first", shared.ErrNotAuthenticated)
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, apiError(err, "playlist %s at offset %d", playlistID, offset)
	}

	s.logger.Debug("fetched playlist page", "playlist", playlistID, "offset", offset, "items", len(page.Items))

	payloads := make([]models.TrackPayload, 0, len(page.Items))
	for _, item := range page.Items {
		payloads = append(payloads, toPayload(item))
	}
	return payloads, nil
}

// CreatePlaylist creates a playlist for owner and returns its ID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, owner, name string, public bool) (string, error) {
	if err := s.requireUser(); err != nil {
		return "", err
	}

	playlist, err := s.client.CreatePlaylistForUser(ctx, owner, name, "", public, false)
	if err != nil {
		return "", apiError(err, "create playlist %q", name)
	}
	return string(playlist.ID), nil
}

// AddTracks appends trackIDs to the playlist in one request. Spotify accepts at most 100 per call.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if len(trackIDs) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return apiError(err, "add %d tracks to %s", len(ids), playlistID)
	}
	return nil
}

// CurrentUserID returns the ID of the user the token belongs to.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	if err := s.requireUser(); err != nil {
		return "", err
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", apiError(err, "current user")
	}
	return user.ID, nil
}

func (s *SpotifyService) requireUser() error {
	if s.client == nil || !s.userAuth {
		return fmt.Errorf("%w: playlist changes need a user token, run plsplit auth", shared.ErrNotAuthenticated)
	}
	return nil
}

func toPayload(item spotify.PlaylistItem) models.TrackPayload {
	payload := models.TrackPayload{AddedAt: item.AddedAt}

	track := item.Track.Track
	if track == nil {
		return payload
	}

	artists := make([]models.PayloadArtist, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, models.PayloadArtist{ID: string(a.ID), Name: a.Name})
	}

	payload.Track = &models.PayloadTrack{
		ID:      string(track.ID),
		Name:    track.Name,
		Artists: artists,
	}
	return payload
}

// apiError classifies a client error: 401 responses become [shared.ErrNotAuthenticated], everything else [shared.ErrAPIRequest].
func apiError(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)

	var se spotify.Error
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s: %w", shared.ErrNotAuthenticated, what, err)
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, what, err)
}
