// Last.fm implementation of [TagLookup]
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/go-resty/resty/v2"
)

const (
	lastFMBaseURL   = "https://www.last.fm/music"
	lastFMTagAnchor = "a.link-block-target"
)

// LastFMScraper reads a track's tags from its public "+tags" page on last.fm.
type LastFMScraper struct {
	client  *resty.Client
	baseURL string
	logger  *log.Logger
}

// NewLastFMScraper creates a scraper rooted at baseURL (the site's /music path).
func NewLastFMScraper(baseURL, userAgent string, logger *log.Logger) *LastFMScraper {
	if baseURL == "" {
		baseURL = lastFMBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client := resty.New().SetTimeout(30 * time.Second)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	return &LastFMScraper{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// TagsURL returns the tag page address for a track.
func (s *LastFMScraper) TagsURL(artist, title string) string {
	return fmt.Sprintf("%s/%s/_/%s/+tags", s.baseURL, pathSegment(artist), pathSegment(title))
}

// LookupTags fetches the tag page for (artist, title) and returns the tag names in page order.
//
// A 404 means the catalogue does not know the track and yields no tags.
func (s *LastFMScraper) LookupTags(ctx context.Context, artist, title string) ([]string, error) {
	target := s.TagsURL(artist, title)

	resp, err := s.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - %s: %w", shared.ErrTagLookup, title, artist, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		s.logger.Warn("track not found on last.fm", "track", title, "artist", artist)
		return []string{}, nil
	case !resp.IsSuccess():
		return nil, fmt.Errorf("%w: %s - %s: status %d", shared.ErrTagLookup, title, artist, resp.StatusCode())
	}

	tags, err := parseTags(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %s - %s: %w", shared.ErrTagLookup, title, artist, err)
	}

	s.logger.Debug("fetched tags", "track", title, "artist", artist, "tags", len(tags))
	return tags, nil
}

func parseTags(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tag page: %w", err)
	}

	tags := []string{}
	doc.Find(lastFMTagAnchor).Each(func(_ int, sel *goquery.Selection) {
		if tag := strings.TrimSpace(sel.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})
	return tags, nil
}

// pathSegment escapes s for a last.fm URL, where spaces are written as "+".
func pathSegment(s string) string {
	escaped := strings.ReplaceAll(url.PathEscape(s), "+", "%2B")
	return strings.ReplaceAll(escaped, "%20", "+")
}
