package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/plsplit/internal/server"
	"github.com/desertthunder/plsplit/internal/services"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/desertthunder/plsplit/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	spotifyConfig := r.config.Credentials.Spotify
	if spotifyConfig.ClientID == "" || spotifyConfig.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or through %s and %s",
			shared.ErrMissingArgument, r.configPath, shared.EnvClientID, shared.EnvClientSecret)
	}

	spotifyService, err := services.NewSpotifyService(spotifyConfig.Map(), services.WithSpotifyLogger(r.logger))
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, spotifyService, cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if err := spotifyService.OAuthenticate(ctx, token); err != nil {
		return err
	}
	if r.config.Credentials.Spotify.Username == "" {
		if user, err := spotifyService.CurrentUserID(ctx); err == nil {
			r.config.Credentials.Spotify.Username = user
		} else {
			r.logger.Warn("failed to fetch user profile", "error", err)
		}
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("%s", ui.Styles.OK("Authorization successful"))
	r.writePlain("%s\n", ui.Styles.OK("Tokens saved to "+r.configPath))
	if user := r.config.Credentials.Spotify.Username; user != "" {
		r.writeField("User", user)
	}
	r.writePlain("\n%s\n", ui.Styles.Help("You can now use: plsplit split --playlist <id> --genre <genre> --name <name>"))
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, noBrowser bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", serverAddr, "routes", router.Patterns())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("%s", ui.Styles.Warn("Could not open browser automatically."))
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
