package cover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// deezerAPIURL is the keyless Deezer catalog search endpoint.
const deezerAPIURL = "https://api.deezer.com/search"

// DeezerSource finds album art through the keyless Deezer catalog.
type DeezerSource struct {
	searchURL string
	http      *http.Client
}

// NewDeezerSource creates the Deezer cover tier.
func NewDeezerSource(httpClient *http.Client) *DeezerSource {
	return &DeezerSource{
		searchURL: deezerAPIURL,
		http:      httpClient,
	}
}

func (s *DeezerSource) Name() string {
	return "deezer"
}

type deezerCoverResponse struct {
	Data []struct {
		Album struct {
			CoverXL  string `json:"cover_xl"`
			CoverBig string `json:"cover_big"`
		} `json:"album"`
	} `json:"data"`
}

// CoverURL searches the catalog and returns the largest album cover of
// the top hit.
func (s *DeezerSource) CoverURL(ctx context.Context, track, artist string) (string, error) {
	query := track
	if artist != "" {
		query = track + " " + artist
	}

	reqURL := fmt.Sprintf("%s?q=%s", s.searchURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "", err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deezer search returned status %d", resp.StatusCode)
	}

	var result deezerCoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode deezer response: %w", err)
	}

	if len(result.Data) == 0 {
		return "", errors.New("no deezer results")
	}

	album := result.Data[0].Album
	if album.CoverXL != "" {
		return album.CoverXL, nil
	}
	if album.CoverBig != "" {
		return album.CoverBig, nil
	}

	return "", errors.New("deezer result has no cover")
}
