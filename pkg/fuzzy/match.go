package fuzzy

import "strings"

// shortTitleLimit is the length (after normalization) at or below which a
// track name alone is considered too generic to accept without the artist
// also appearing in the result title.
const shortTitleLimit = 3

// StrictMatch reports whether a search result title is an acceptable
// match for the requested track and (optionally) artist.
//
// Both sides are normalized before comparison. Very short track names
// ("40", "XO") match far too many unrelated results, so when the cleaned
// track is at most three characters the artist must also be present in
// the result title. For longer track names a supplied artist is a soft
// preference only: the title itself is distinctive enough.
func StrictMatch(resultTitle, track, artist string) bool {
	title := Normalize(resultTitle)
	wantTrack := Normalize(track)

	if title == "" || wantTrack == "" {
		return false
	}

	trackMatches := strings.Contains(title, wantTrack)

	if artist != "" {
		wantArtist := Normalize(artist)
		artistMatches := wantArtist != "" && strings.Contains(title, wantArtist)

		if len(wantTrack) <= shortTitleLimit {
			return trackMatches && artistMatches
		}
		if trackMatches {
			return artistMatches || len(wantTrack) > shortTitleLimit
		}
		return false
	}

	return trackMatches
}
