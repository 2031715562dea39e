package server

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/plsplit/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultCallbackPath is served when the redirect URL has no path.
const DefaultCallbackPath = "/callback"

// OAuthResult is the outcome of one authorization: a token or an error wrapping [shared.ErrAuthFailed].
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>plsplit authorized</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
           display: flex; align-items: center; justify-content: center; height: 100vh;
           margin: 0; background: #f5f5f5; }
    main { text-align: center; background: white; padding: 2rem; border-radius: 8px; }
    h1 { color: #1DB954; margin: 0 0 1rem 0; }
    p { color: #666; margin: 0; }
  </style>
</head>
<body>
  <main>
    <h1>✓ plsplit is authorized</h1>
    <p>The token expires {{.Expiry.Format "15:04"}} and refreshes on its own. You can close this window.</p>
  </main>
</body>
</html>
`))

// OAuthHandler receives the authorization code redirect, exchanges the code and
// publishes a single [OAuthResult]. Only the first callback is honoured.
type OAuthHandler struct {
	config *oauth2.Config
	state  string
	path   string

	handled atomic.Bool
	once    sync.Once
	results chan OAuthResult
}

// NewOAuthHandler serves the path of config.RedirectURL and accepts callbacks carrying state.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		path:    callbackPath(config.RedirectURL),
		results: make(chan OAuthResult, 1),
	}
}

func callbackPath(redirectURL string) string {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return DefaultCallbackPath
	}
	return u.Path
}

func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.reject(w, http.StatusBadRequest, "Invalid state parameter", "invalid state parameter")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.reject(w, http.StatusBadRequest, "Authorization failed",
			fmt.Sprintf("%s - %s", query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.reject(w, http.StatusInternalServerError, "Token exchange failed", "token exchange failed: "+err.Error())
		return
	}

	h.Send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	successPage.Execute(w, token)
}

func (h *OAuthHandler) reject(w http.ResponseWriter, status int, page, reason string) {
	h.Send(OAuthResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, reason)})
	http.Error(w, page, status)
}

// Send publishes result unless one was already sent.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
