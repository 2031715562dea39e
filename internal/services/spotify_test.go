package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/plsplit/internal/shared"
	"golang.org/x/oauth2"
)

var credentials = map[string]string{
	"client_id":     "test_client_id",
	"client_secret": "test_client_secret",
}

const playlistPageJSON = `{
  "items": [
    {"added_at": "2024-01-01T00:00:00Z", "track": {"type": "track", "id": "t1", "name": "Xtal",
      "artists": [{"id": "a1", "name": "Aphex Twin"}, {"id": "a2", "name": "Guest"}]}},
    {"added_at": "2024-01-02T00:00:00Z", "track": {"type": "episode", "id": "e1", "name": "A Podcast"}},
    {"added_at": "2024-01-03T00:00:00Z", "is_local": true, "track": {"type": "track", "id": "", "name": "Local File",
      "artists": [{"name": "Me"}]}}
  ],
  "limit": 100, "offset": 0, "total": 3
}`

// fakeSpotify is a minimal Web API and accounts server.
type fakeSpotify struct {
	mu      sync.Mutex
	auth    []string
	queries []string
	created []map[string]any
	added   [][]string
	tokens  int
}

func (f *fakeSpotify) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/api/token":
		f.tokens++
		fmt.Fprint(w, `{"access_token":"app-token","token_type":"bearer","expires_in":3600}`)
		return
	case strings.HasPrefix(r.URL.Path, "/v1/"):
		f.auth = append(f.auth, r.Header.Get("Authorization"))
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/playlists/pl1/tracks":
		f.queries = append(f.queries, r.URL.RawQuery)
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, playlistPageJSON)
			return
		}
		fmt.Fprint(w, `{"items": [], "limit": 100, "offset": 100, "total": 3}`)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/playlists/unauthorized/tracks":
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"status": 401, "message": "The access token expired"}}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/playlists/"):
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"status": 404, "message": "Not found."}}`)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/me":
		fmt.Fprint(w, `{"id": "tester", "display_name": "Tester"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/users/tester/playlists":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.created = append(f.created, body)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "new1", "name": "Techno"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/playlists/new1/tracks":
		var body struct {
			URIs []string `json:"uris"`
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		f.added = append(f.added, body.URIs)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"snapshot_id": "snap"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"status": 404, "message": "No route"}}`)
	}
}

func newTestSpotify(t *testing.T) (*SpotifyService, *fakeSpotify) {
	t.Helper()
	fake := &fakeSpotify{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := NewSpotifyService(credentials, WithAPIBaseURL(srv.URL+"/v1"), WithAccountsURL(srv.URL))
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}
	return svc, fake
}

func userToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "user-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.GetOAuthConfig().RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect uri, got %s", srv.GetOAuthConfig().RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("GetAuthURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(credentials)
		authURL := srv.GetAuthURL("state123")

		for _, want := range []string{
			"https://accounts.spotify.com/authorize",
			"state=state123",
			"client_id=test_client_id",
			"playlist-modify-private",
		} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL %s missing %s", authURL, want)
			}
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		srv, _ := NewSpotifyService(credentials)
		ctx := context.Background()

		if _, err := srv.PlaylistPage(ctx, "pl1", 0, 100); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := srv.OAuthenticate(ctx, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for nil token, got %v", err)
		}
		if _, err := srv.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated from Token, got %v", err)
		}
	})

	t.Run("PlaylistPage", func(t *testing.T) {
		svc, fake := newTestSpotify(t)
		ctx := context.Background()
		if err := svc.OAuthenticate(ctx, userToken()); err != nil {
			t.Fatalf("OAuthenticate() error = %v", err)
		}

		items, err := svc.PlaylistPage(ctx, "pl1", 0, 100)
		if err != nil {
			t.Fatalf("PlaylistPage() error = %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}

		first := items[0]
		if first.Track == nil || first.Track.ID != "t1" || first.Track.Name != "Xtal" {
			t.Errorf("unexpected first item %+v", first.Track)
		}
		if len(first.Track.Artists) != 2 || first.Track.Artists[0].Name != "Aphex Twin" {
			t.Errorf("unexpected artists %+v", first.Track.Artists)
		}
		if items[1].Track != nil {
			t.Errorf("expected episode to have no track, got %+v", items[1].Track)
		}
		if items[2].Track == nil || items[2].Track.ID != "" {
			t.Errorf("expected local track without id, got %+v", items[2].Track)
		}

		if !strings.Contains(fake.queries[0], "limit=100") || !strings.Contains(fake.queries[0], "offset=0") {
			t.Errorf("expected limit and offset in query, got %s", fake.queries[0])
		}
		if fake.auth[0] != "Bearer user-token" {
			t.Errorf("expected user token, got %s", fake.auth[0])
		}

		empty, err := svc.PlaylistPage(ctx, "pl1", 100, 100)
		if err != nil {
			t.Fatalf("PlaylistPage() error = %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected empty page, got %d", len(empty))
		}
	})

	t.Run("PlaylistPage Errors", func(t *testing.T) {
		svc, _ := newTestSpotify(t)
		ctx := context.Background()
		svc.OAuthenticate(ctx, userToken())

		if _, err := svc.PlaylistPage(ctx, "missing", 0, 100); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if _, err := svc.PlaylistPage(ctx, "unauthorized", 0, 100); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Client Credentials", func(t *testing.T) {
		svc, fake := newTestSpotify(t)
		ctx := context.Background()

		if err := svc.AuthenticateClient(ctx); err != nil {
			t.Fatalf("AuthenticateClient() error = %v", err)
		}

		if _, err := svc.PlaylistPage(ctx, "pl1", 0, 100); err != nil {
			t.Fatalf("PlaylistPage() error = %v", err)
		}
		if fake.tokens != 1 {
			t.Errorf("expected one token request, got %d", fake.tokens)
		}
		if fake.auth[0] != "Bearer app-token" {
			t.Errorf("expected app token, got %s", fake.auth[0])
		}

		if _, err := svc.CreatePlaylist(ctx, "tester", "Techno", false); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected writes to need a user token, got %v", err)
		}
	})

	t.Run("Create And Add", func(t *testing.T) {
		svc, fake := newTestSpotify(t)
		ctx := context.Background()
		svc.OAuthenticate(ctx, userToken())

		owner, err := svc.CurrentUserID(ctx)
		if err != nil {
			t.Fatalf("CurrentUserID() error = %v", err)
		}
		if owner != "tester" {
			t.Errorf("expected tester, got %s", owner)
		}

		id, err := svc.CreatePlaylist(ctx, owner, "Techno", true)
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}
		if id != "new1" {
			t.Errorf("expected new1, got %s", id)
		}
		if fake.created[0]["name"] != "Techno" || fake.created[0]["public"] != true {
			t.Errorf("unexpected create body %+v", fake.created[0])
		}

		if err := svc.AddTracks(ctx, id, []string{"t1", "t2"}); err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
		if len(fake.added) != 1 {
			t.Fatalf("expected 1 add request, got %d", len(fake.added))
		}
		if strings.Join(fake.added[0], ",") != "spotify:track:t1,spotify:track:t2" {
			t.Errorf("unexpected uris %v", fake.added[0])
		}

		if err := svc.AddTracks(ctx, id, nil); err != nil {
			t.Fatalf("AddTracks() with no ids error = %v", err)
		}
		if len(fake.added) != 1 {
			t.Errorf("expected no request for empty add, got %d", len(fake.added))
		}

		token, err := svc.Token()
		if err != nil || token.AccessToken != "user-token" {
			t.Errorf("Token() = %v, %v", token, err)
		}
	})
}
