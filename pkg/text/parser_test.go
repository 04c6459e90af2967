package text

import (
	"testing"

	"tuneclip/internal/core"
)

func TestParseMessage_Classification(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name string
		text string
		want core.MessageType
	}{
		{
			name: "free text",
			text: "bohemian rhapsody queen",
			want: core.MessageTypeFreeText,
		},
		{
			name: "spotify track link",
			text: "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv",
			want: core.MessageTypeDSPLink,
		},
		{
			name: "deezer link",
			text: "https://www.deezer.com/track/3135556",
			want: core.MessageTypeDSPLink,
		},
		{
			name: "apple music link",
			text: "https://music.apple.com/us/album/xyz/123?i=456",
			want: core.MessageTypeDSPLink,
		},
		{
			name: "tidal link",
			text: "https://tidal.com/browse/track/77646168",
			want: core.MessageTypeDSPLink,
		},
		{
			name: "youtube music is a DSP link",
			text: "https://music.youtube.com/watch?v=fJ9rUzIMcZQ",
			want: core.MessageTypeDSPLink,
		},
		{
			name: "amazon music regional domain",
			text: "https://music.amazon.de/albums/B0C1?trackAsin=B0C2",
			want: core.MessageTypeDSPLink,
		},
		{
			name: "bare youtube link is direct",
			text: "https://www.youtube.com/watch?v=fJ9rUzIMcZQ",
			want: core.MessageTypeDirectURL,
		},
		{
			name: "youtu.be short link is direct",
			text: "https://youtu.be/fJ9rUzIMcZQ",
			want: core.MessageTypeDirectURL,
		},
		{
			name: "random link is non-music",
			text: "check this https://example.com/article",
			want: core.MessageTypeNonMusicLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := parser.ParseMessage(tt.text)
			if msg.Type != tt.want {
				t.Errorf("ParseMessage(%q).Type = %v, want %v", tt.text, msg.Type, tt.want)
			}
		})
	}
}

func TestCleanURL_TrackingParams(t *testing.T) {
	parser := NewParser()

	msg := parser.ParseMessage("https://open.spotify.com/track/abc?si=xyz&utm_source=share")
	if len(msg.URLs) != 1 {
		t.Fatalf("expected 1 URL, got %d", len(msg.URLs))
	}
	if msg.URLs[0] != "https://open.spotify.com/track/abc" {
		t.Errorf("tracking params not stripped: %s", msg.URLs[0])
	}
}

func TestCollectionKind(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"spotify album", "https://open.spotify.com/album/abc", "album"},
		{"spotify playlist", "https://open.spotify.com/playlist/abc", "playlist"},
		{"deezer playlist", "https://www.deezer.com/en/playlist/123", "playlist"},
		{"single track", "https://open.spotify.com/track/abc", ""},
		{"apple track inside album", "https://music.apple.com/us/album/xyz/123?i=456", ""},
		{"apple album without track id", "https://music.apple.com/us/album/xyz/123", "album"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollectionKind(tt.url); got != tt.want {
				t.Errorf("CollectionKind(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://open.spotify.com/track/abc", core.PlatformSpotify},
		{"https://music.amazon.com/tracks/B0C1", core.PlatformAmazonMusic},
		{"https://music.amazon.co.uk/tracks/B0C1", core.PlatformAmazonMusic},
		{"https://example.com/track", ""},
	}

	for _, tt := range tests {
		if got := Platform(tt.url); got != tt.want {
			t.Errorf("Platform(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
