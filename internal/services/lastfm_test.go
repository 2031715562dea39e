package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/shared"
	th "github.com/desertthunder/plsplit/internal/testing"
)

const tagPageHTML = `<!DOCTYPE html>
<html><body>
<section>
  <ol class="big-tags">
    <li class="big-tags-item-wrap"><h3 class="big-tags-item-name"><a class="link-block-target" href="/tag/idm">idm</a></h3></li>
    <li class="big-tags-item-wrap"><h3 class="big-tags-item-name"><a class="link-block-target" href="/tag/ambient">
      Ambient Techno
    </a></h3></li>
    <li class="big-tags-item-wrap"><h3 class="big-tags-item-name"><a class="link-block-target" href="/tag/x"> </a></h3></li>
  </ol>
  <a class="other-link" href="/tag/nope">not a tag</a>
</section>
</body></html>`

func newTestScraper(t *testing.T, handler http.HandlerFunc) (*LastFMScraper, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLastFMScraper(srv.URL+"/music", "plsplit-test", log.New(io.Discard)), srv
}

func TestLastFMScraper(t *testing.T) {
	t.Run("TagsURL", func(t *testing.T) {
		s := NewLastFMScraper("https://www.last.fm/music/", "", nil)

		tc := []struct {
			artist, title, want string
		}{
			{"Aphex Twin", "Xtal", "https://www.last.fm/music/Aphex+Twin/_/Xtal/+tags"},
			{"AC/DC", "T.N.T.", "https://www.last.fm/music/AC%2FDC/_/T.N.T./+tags"},
			{"Sigur Rós", "Hoppípolla", "https://www.last.fm/music/Sigur+R%C3%B3s/_/Hopp%C3%ADpolla/+tags"},
			{"Simon & Garfunkel", "1+1", "https://www.last.fm/music/Simon+&+Garfunkel/_/1%2B1/+tags"},
		}
		for _, tt := range tc {
			if got := s.TagsURL(tt.artist, tt.title); got != tt.want {
				t.Errorf("TagsURL(%q, %q) = %s, want %s", tt.artist, tt.title, got, tt.want)
			}
		}
	})

	t.Run("LookupTags", func(t *testing.T) {
		var gotPath, gotAgent string
		s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			gotAgent = r.Header.Get("User-Agent")
			fmt.Fprint(w, tagPageHTML)
		})

		tags, err := s.LookupTags(context.Background(), "Aphex Twin", "Xtal")
		if err != nil {
			t.Fatalf("LookupTags() error = %v", err)
		}

		want := []string{"idm", "Ambient Techno"}
		if !reflect.DeepEqual(tags, want) {
			t.Errorf("LookupTags() = %v, want %v", tags, want)
		}
		if gotPath != "/music/Aphex+Twin/_/Xtal/+tags" {
			t.Errorf("unexpected request path %s", gotPath)
		}
		if gotAgent != "plsplit-test" {
			t.Errorf("unexpected user agent %s", gotAgent)
		}
	})

	t.Run("Unknown Track", func(t *testing.T) {
		s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		tags, err := s.LookupTags(context.Background(), "Nobody", "Nothing")
		if err != nil {
			t.Fatalf("expected no error for unknown track, got %v", err)
		}
		if tags == nil || len(tags) != 0 {
			t.Errorf("expected empty tag list, got %v", tags)
		}
	})

	t.Run("Page Without Tags", func(t *testing.T) {
		s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body><p>No tags yet</p></body></html>")
		})

		tags, err := s.LookupTags(context.Background(), "Burial", "Untitled")
		if err != nil {
			t.Fatalf("LookupTags() error = %v", err)
		}
		if len(tags) != 0 {
			t.Errorf("expected no tags, got %v", tags)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		if _, err := s.LookupTags(context.Background(), "Aphex Twin", "Xtal"); !errors.Is(err, shared.ErrTagLookup) {
			t.Errorf("expected ErrTagLookup, got %v", err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		s, srv := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()

		if _, err := s.LookupTags(context.Background(), "Aphex Twin", "Xtal"); !errors.Is(err, shared.ErrTagLookup) {
			t.Errorf("expected ErrTagLookup, got %v", err)
		}
	})
}

// memoryCache is an in-memory [TagCache].
type memoryCache struct {
	entries map[string][]string
	getErr  error
	puts    int
}

func (m *memoryCache) Get(artist, title string) ([]string, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	tags, ok := m.entries[artist+"|"+title]
	return tags, ok, nil
}

func (m *memoryCache) Put(artist, title string, tags []string) error {
	m.puts++
	m.entries[artist+"|"+title] = tags
	return nil
}

func TestCachedTagLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("Hit After Miss", func(t *testing.T) {
		next := th.NewMockTagLookup()
		next.Tags["Xtal - Aphex Twin"] = []string{"idm"}
		cache := &memoryCache{entries: map[string][]string{}}
		lookup := NewCachedTagLookup(next, cache, log.New(io.Discard))

		for range 2 {
			tags, err := lookup.LookupTags(ctx, "Aphex Twin", "Xtal")
			if err != nil {
				t.Fatalf("LookupTags() error = %v", err)
			}
			if !reflect.DeepEqual(tags, []string{"idm"}) {
				t.Errorf("LookupTags() = %v", tags)
			}
		}

		if len(next.Calls) != 1 {
			t.Errorf("expected one upstream lookup, got %d", len(next.Calls))
		}
		if cache.puts != 1 {
			t.Errorf("expected one cache write, got %d", cache.puts)
		}
	})

	t.Run("Errors Are Not Cached", func(t *testing.T) {
		next := th.NewMockTagLookup()
		next.Errors["Xtal - Aphex Twin"] = shared.ErrTagLookup
		cache := &memoryCache{entries: map[string][]string{}}
		lookup := NewCachedTagLookup(next, cache, log.New(io.Discard))

		if _, err := lookup.LookupTags(ctx, "Aphex Twin", "Xtal"); !errors.Is(err, shared.ErrTagLookup) {
			t.Errorf("expected ErrTagLookup, got %v", err)
		}
		if cache.puts != 0 {
			t.Errorf("expected no cache write, got %d", cache.puts)
		}
	})

	t.Run("Broken Cache Falls Through", func(t *testing.T) {
		next := th.NewMockTagLookup()
		next.Tags["Xtal - Aphex Twin"] = []string{"idm"}
		cache := &memoryCache{entries: map[string][]string{}, getErr: errors.New("disk on fire")}
		lookup := NewCachedTagLookup(next, cache, log.New(io.Discard))

		tags, err := lookup.LookupTags(ctx, "Aphex Twin", "Xtal")
		if err != nil {
			t.Fatalf("LookupTags() error = %v", err)
		}
		if len(tags) != 1 {
			t.Errorf("expected upstream tags, got %v", tags)
		}
	})
}
