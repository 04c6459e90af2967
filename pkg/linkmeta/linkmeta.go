// Package linkmeta extracts track metadata from streaming-platform track
// pages by fetching the page and parsing its HTML <title> tag.
package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"tuneclip/pkg/fuzzy"
)

const (
	// crawlerUserAgent is the user agent string used for all page fetches.
	crawlerUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// acceptHeader is the accept header used for all page fetches.
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	// maxReadSize limits how much of a page body is read.
	maxReadSize = 512 * 1024
	// defaultHTTPTimeout is the timeout for page fetches.
	defaultHTTPTimeout = 15 * time.Second
	// maxHTTPRedirects is the maximum number of redirects to follow.
	maxHTTPRedirects = 5
)

var (
	// ErrTooManyRedirects is returned when too many redirects are encountered.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrNoTitle is returned when the page has no usable <title> tag.
	ErrNoTitle = errors.New("no title tag found in page")
)

var (
	titleTagRegex   = regexp.MustCompile(`<title[^>]*>([^<]+)</title>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// titleRule is one substitution in the title cleanup chain.
type titleRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// titleRules are applied strictly in order. The Apple Music rewrite runs
// first because its suffix carries the artist name, which the generic
// suffix strippers below would otherwise discard.
var titleRules = []titleRule{
	{
		pattern:     regexp.MustCompile(`(?i)^(.+?)\s*[-–—]\s*Song by\s+(.+?)\s*[-–—]\s*Apple Music\s*$`),
		replacement: "$1 by $2",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\s*[|\-–—]\s*(?:Spotify|Deezer|Tidal|Apple Music|YouTube Music|Amazon Music(?:\s+Unlimited)?)\s*$`),
		replacement: "",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\s*[-–—]?\s*song and lyrics by\s+`),
		replacement: " by ",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\s+from\s+["\x{201c}].*$`),
		replacement: "",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\s*[-–—]\s*(?:Single|Album|EP)\s*$`),
		replacement: "",
	},
	{
		pattern:     regexp.MustCompile(`^[\s\-–—•·‣◦\x{200b}\x{200e}\x{200f}\x{feff}]+`),
		replacement: "",
	},
}

// Client fetches streaming-platform pages and extracts track metadata.
type Client struct {
	http *http.Client
}

// NewClient creates a new link metadata client.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultHTTPTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxHTTPRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
	}
}

// Resolve fetches the page behind a streaming link and returns the track
// and artist parsed from its title tag. The artist is empty when the
// cleaned title has no recognizable separator.
func (c *Client) Resolve(ctx context.Context, pageURL string) (track, artist string, err error) {
	body, err := c.fetchHTML(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	title := ExtractTitle(body)
	if title == "" {
		return "", "", ErrNoTitle
	}

	track, artist = fuzzy.SplitTrackArtist(CleanTitle(title))
	if track == "" {
		return "", "", ErrNoTitle
	}

	return track, artist, nil
}

// fetchHTML fetches page content with browser headers and a size limit.
func (c *Client) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", crawlerUserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	limitedReader := io.LimitReader(resp.Body, maxReadSize)
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(bodyBytes), nil
}

// ExtractTitle pulls the entity-decoded contents of the first <title> tag.
func ExtractTitle(htmlBody string) string {
	matches := titleTagRegex.FindStringSubmatch(htmlBody)
	if len(matches) < 2 {
		return ""
	}

	return html.UnescapeString(matches[1])
}

// CleanTitle strips platform decorations from a page title by applying
// the substitution rules in order.
func CleanTitle(title string) string {
	for _, rule := range titleRules {
		title = rule.pattern.ReplaceAllString(title, rule.replacement)
	}

	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(title, " "))
}
