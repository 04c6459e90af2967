package fuzzy

import "testing"

func TestStrictMatch_ShortTitles(t *testing.T) {
	tests := []struct {
		name        string
		resultTitle string
		track       string
		artist      string
		want        bool
	}{
		{
			name:        "short title without artist in result",
			resultTitle: "40 - Someone Else",
			track:       "40",
			artist:      "Kijan Boone",
			want:        false,
		},
		{
			name:        "short title with artist in result",
			resultTitle: "40 - Kijan Boone",
			track:       "40",
			artist:      "Kijan Boone",
			want:        true,
		},
		{
			name:        "short title exact no artist supplied",
			resultTitle: "40",
			track:       "40",
			artist:      "",
			want:        true,
		},
		{
			name:        "three char boundary requires artist",
			resultTitle: "XO (Official Audio)",
			track:       "XO",
			artist:      "Beyonce",
			want:        false,
		},
		{
			name:        "four chars after cleanup is long enough",
			resultTitle: "Hello (Live at the BBC)",
			track:       "Hello",
			artist:      "Adele",
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictMatch(tt.resultTitle, tt.track, tt.artist); got != tt.want {
				t.Errorf("StrictMatch(%q, %q, %q) = %v, want %v",
					tt.resultTitle, tt.track, tt.artist, got, tt.want)
			}
		})
	}
}

func TestStrictMatch_LongTitles(t *testing.T) {
	tests := []struct {
		name        string
		resultTitle string
		track       string
		artist      string
		want        bool
	}{
		{
			name:        "long title with wrong artist still accepted",
			resultTitle: "Bohemian Rhapsody (Live)",
			track:       "Bohemian Rhapsody",
			artist:      "Someone Else",
			want:        true,
		},
		{
			name:        "long title track not contained",
			resultTitle: "Another Song Entirely",
			track:       "Bohemian Rhapsody",
			artist:      "Queen",
			want:        false,
		},
		{
			name:        "punctuation stripped before comparison",
			resultTitle: "Don't Stop Me Now!!!",
			track:       "dont stop me now",
			artist:      "",
			want:        true,
		},
		{
			name:        "empty result title",
			resultTitle: "",
			track:       "Bohemian Rhapsody",
			artist:      "",
			want:        false,
		},
		{
			name:        "empty track",
			resultTitle: "Bohemian Rhapsody",
			track:       "",
			artist:      "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictMatch(tt.resultTitle, tt.track, tt.artist); got != tt.want {
				t.Errorf("StrictMatch(%q, %q, %q) = %v, want %v",
					tt.resultTitle, tt.track, tt.artist, got, tt.want)
			}
		})
	}
}

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hyphens become spaces", "artist - track", "artist track"},
		{"feat removed", "Song (feat. Somebody) extra", "Song extra"},
		{"ft removed case insensitive", "Song (FT. Somebody)", "Song"},
		{"whitespace collapsed", "  a\t b   c ", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanQuery(tt.input); got != tt.want {
				t.Errorf("CleanQuery(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitTrackArtist(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantTrack  string
		wantArtist string
	}{
		{"dash separator", "Track Name - Artist Name", "Track Name", "Artist Name"},
		{"by separator", "Track Name by Artist Name", "Track Name", "Artist Name"},
		{"no separator", "Just A Track", "Just A Track", ""},
		{"en dash separator", "Track – Artist", "Track", "Artist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, artist := SplitTrackArtist(tt.input)
			if track != tt.wantTrack || artist != tt.wantArtist {
				t.Errorf("SplitTrackArtist(%q) = (%q, %q), want (%q, %q)",
					tt.input, track, artist, tt.wantTrack, tt.wantArtist)
			}
		})
	}
}
