// Package fuzzy provides query cleanup and the relevance matching rules
// used to accept or reject search results against a requested track.
package fuzzy

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex       = regexp.MustCompile(`(?i)\((?:feat|ft)\..*?\)`)
	nonWordRegex    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// CleanQuery turns raw request text into a search query: hyphens become
// spaces, "(feat. X)" / "(ft. X)" annotations are dropped, whitespace is
// collapsed.
func CleanQuery(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "-", " ")
	text = featRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// Normalize lowercases text and strips everything except word characters
// and spaces, so that titles from different sources compare cleanly.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonWordRegex.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}

// SplitTrackArtist splits a cleaned query into (track, artist) on the
// first " - ", " by " or " – " separator. When no separator is present
// the whole string is the track and artist is empty.
func SplitTrackArtist(query string) (track, artist string) {
	for _, sep := range []string{" - ", " by ", " – "} {
		if idx := strings.Index(query, sep); idx > 0 {
			return strings.TrimSpace(query[:idx]), strings.TrimSpace(query[idx+len(sep):])
		}
	}

	return strings.TrimSpace(query), ""
}
