package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./plsplit.db" {
			t.Errorf("expected database path ./plsplit.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.LastFM.BaseURL != "https://www.last.fm/music" {
			t.Errorf("expected lastfm base url https://www.last.fm/music, got %s", config.LastFM.BaseURL)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Credentials.Spotify.Token() != nil {
			t.Error("expected no cached token in default config")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[lastfm]
base_url = "http://127.0.0.1:9999/music"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.LastFM.BaseURL != "http://127.0.0.1:9999/music" {
			t.Errorf("expected overridden lastfm url, got %s", config.LastFM.BaseURL)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected unset server port to keep default 8888, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.RedirectURI != "http://localhost:8888/callback/" {
			t.Errorf("expected default redirect uri, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SaveConfig round trips the token", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()

		expiry := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
		if err := config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		token := loaded.Credentials.Spotify.Token()
		if token == nil {
			t.Fatal("expected token after reload")
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})

	t.Run("Update keeps refresh token when omitted", func(t *testing.T) {
		sc := SpotifyConfig{RefreshToken: "keep"}
		if err := sc.Update(&oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if sc.RefreshToken != "keep" {
			t.Errorf("expected refresh token to be kept, got %s", sc.RefreshToken)
		}
		if err := sc.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv(EnvClientID, "env_id")
		t.Setenv(EnvClientSecret, "env_secret")
		t.Setenv(EnvRedirectURI, "")
		t.Setenv(EnvUsername, "someone")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		sc := config.Credentials.Spotify
		if sc.ClientID != "env_id" || sc.ClientSecret != "env_secret" {
			t.Errorf("expected env credentials, got %s/%s", sc.ClientID, sc.ClientSecret)
		}
		if sc.RedirectURI != "http://localhost:8888/callback/" {
			t.Errorf("empty variable should not override, got %s", sc.RedirectURI)
		}
		if sc.Username != "someone" {
			t.Errorf("expected username someone, got %s", sc.Username)
		}
	})

	t.Run("dotenv file", func(t *testing.T) {
		t.Setenv(EnvClientID, "")
		os.Unsetenv(EnvClientID)

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte(EnvClientID+"=from_file\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		if err := ApplyEnv(config, envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Credentials.Spotify.ClientID != "from_file" {
			t.Errorf("expected client id from dotenv file, got %s", config.Credentials.Spotify.ClientID)
		}
	})
}
