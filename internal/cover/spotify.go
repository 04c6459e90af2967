package cover

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifySource finds album art through the Spotify catalog using the
// client-credentials flow.
type SpotifySource struct {
	cache *tokenCache
}

// NewSpotifySource creates the Spotify cover tier. Callers should only
// register it when credentials are configured.
func NewSpotifySource(clientID, clientSecret string) *SpotifySource {
	return &SpotifySource{
		cache: newTokenCache(&clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}),
	}
}

func (s *SpotifySource) Name() string {
	return "spotify"
}

// CoverURL searches the catalog for the track and returns the largest
// album image.
func (s *SpotifySource) CoverURL(ctx context.Context, track, artist string) (string, error) {
	token, err := s.cache.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("spotify token: %w", err)
	}

	client := spotify.New(spotifyauth.New().Client(ctx, token))

	query := track
	if artist != "" {
		query = fmt.Sprintf("track:%s artist:%s", track, artist)
	}

	results, err := client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("spotify search: %w", err)
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return "", errors.New("no spotify results")
	}

	images := results.Tracks.Tracks[0].Album.Images
	if len(images) == 0 {
		return "", errors.New("spotify result has no album images")
	}

	return images[0].URL, nil
}
