// Package text provides text parsing and URL classification for incoming
// chat messages.
package text

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"tuneclip/internal/core"
)

var (
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// dspDomains is the hard-coded set of supported streaming services.
	// Links from these hosts are resolved via their page title.
	dspDomains = map[string]string{
		"open.spotify.com":  core.PlatformSpotify,
		"spotify.com":       core.PlatformSpotify,
		"deezer.com":        core.PlatformDeezer,
		"link.deezer.com":   core.PlatformDeezer,
		"music.apple.com":   core.PlatformAppleMusic,
		"itunes.apple.com":  core.PlatformAppleMusic,
		"tidal.com":         core.PlatformTidal,
		"listen.tidal.com":  core.PlatformTidal,
		"music.youtube.com": core.PlatformYouTubeMusic,
	}

	youtubeDomains = map[string]bool{
		"youtube.com": true,
		"youtu.be":    true,
	}
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseMessage normalizes raw message text, extracts URLs and classifies
// the request.
func (p *Parser) ParseMessage(text string) core.InputMessage {
	text = p.normalizeText(text)
	urls := p.extractURLs(text)

	msg := core.InputMessage{
		Type: p.classifyMessage(urls),
		Text: text,
		URLs: urls,
	}
	if len(urls) > 0 {
		msg.Platform = Platform(urls[0])
		msg.CollectionKind = CollectionKind(urls[0])
	}

	return msg
}

func (p *Parser) normalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = norm.NFKC.String(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return text
}

func (p *Parser) extractURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	var cleanURLs []string

	for _, match := range matches {
		if cleanURL := p.cleanURL(match); cleanURL != "" {
			cleanURLs = append(cleanURLs, cleanURL)
		}
	}

	return cleanURLs
}

func (p *Parser) cleanURL(rawURL string) string {
	rawURL = strings.TrimRight(rawURL, ".,!?;)")

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	q := u.Query()
	for _, param := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si"} {
		q.Del(param)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (p *Parser) classifyMessage(urls []string) core.MessageType {
	if len(urls) == 0 {
		return core.MessageTypeFreeText
	}

	// One link at a time; the first URL decides the request type.
	u := urls[0]

	if IsDSPURL(u) {
		return core.MessageTypeDSPLink
	}
	if IsYouTubeURL(u) {
		return core.MessageTypeDirectURL
	}

	return core.MessageTypeNonMusicLink
}

// IsDSPURL reports whether the URL belongs to a supported streaming
// service.
func IsDSPURL(rawURL string) bool {
	return Platform(rawURL) != ""
}

// Platform returns the streaming service name for a URL, or "" when the
// host is not a recognized service. Regional Amazon Music domains
// (music.amazon.com, music.amazon.de, ...) are matched by prefix.
func Platform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	hostname := strings.ToLower(u.Hostname())
	hostname = strings.TrimPrefix(hostname, "www.")

	if platform, ok := dspDomains[hostname]; ok {
		return platform
	}
	if strings.HasPrefix(hostname, "music.amazon.") {
		return core.PlatformAmazonMusic
	}

	return ""
}

// IsYouTubeURL reports whether the URL is a plain YouTube link (not
// YouTube Music, which classifies as a DSP link).
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	hostname = strings.TrimPrefix(hostname, "www.")
	hostname = strings.TrimPrefix(hostname, "m.")

	return youtubeDomains[hostname]
}

// CollectionKind returns "album" or "playlist" when the URL points at a
// multi-track collection rather than a single track, and "" otherwise.
func CollectionKind(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	path := strings.ToLower(u.Path)
	switch {
	case strings.Contains(path, "/album/"):
		// Apple Music track links live under /album/ with an ?i= track
		// ID; those are single tracks, not collections.
		if u.Query().Get("i") != "" {
			return ""
		}
		return "album"
	case strings.Contains(path, "/playlist/"):
		return "playlist"
	}

	return ""
}
