package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/shared"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func oauthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8888/callback/",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes follow redirect URL", func(t *testing.T) {
		tests := []struct {
			redirect string
			want     string
		}{
			{redirect: "http://localhost:8888/callback/", want: "/callback/"},
			{redirect: "http://127.0.0.1:3000/auth/spotify", want: "/auth/spotify"},
			{redirect: "http://localhost:8888", want: DefaultCallbackPath},
			{redirect: "", want: DefaultCallbackPath},
		}

		for _, tt := range tests {
			h := NewOAuthHandler(&oauth2.Config{RedirectURL: tt.redirect}, "state")
			if got := h.Routes(); len(got) != 1 || got[0] != tt.want {
				t.Errorf("Routes() for %q = %v, want %s", tt.redirect, got, tt.want)
			}
		}
	})

	t.Run("Successful exchange", func(t *testing.T) {
		ts := newTokenServer(t)
		h := NewOAuthHandler(oauthConfig(ts.URL), "xyz")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?state=xyz&code=good-code", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access" || result.Token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})

	t.Run("Invalid state", func(t *testing.T) {
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?state=evil&code=good-code", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("Access denied", func(t *testing.T) {
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?state=xyz&error=access_denied", nil))

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("Exchange failure", func(t *testing.T) {
		ts := newTokenServer(t)
		h := NewOAuthHandler(oauthConfig(ts.URL), "xyz")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?state=xyz&code=bad-code", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("Second callback rejected", func(t *testing.T) {
		ts := newTokenServer(t)
		h := NewOAuthHandler(oauthConfig(ts.URL), "xyz")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback/?state=xyz&code=good-code", nil))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?state=xyz&code=good-code", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", w.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Body.String() != "pong" {
			t.Errorf("unexpected body %q", w.Body.String())
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})

	t.Run("Middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Handler registration", func(t *testing.T) {
		router := NewBasicRouter()
		h := NewOAuthHandler(oauthConfig("http://unused"), "xyz")
		router.Handler(h)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?state=nope", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected callback route to be registered, got %d", w.Code)
		}
		if got := router.Patterns(); len(got) != 1 || got[0] != "GET /callback/" {
			t.Errorf("unexpected patterns %v", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestLogger", func(t *testing.T) {
		var buf strings.Builder
		logger := log.New(&buf)

		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback/?code=secret", nil))

		if w.Code != http.StatusTeapot {
			t.Errorf("expected status to pass through, got %d", w.Code)
		}
		out := buf.String()
		if !strings.Contains(out, "418") || !strings.Contains(out, "/callback/") {
			t.Errorf("expected status and path in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("query string leaked into log: %q", out)
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		handler := Recoverer(log.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
	})
}
