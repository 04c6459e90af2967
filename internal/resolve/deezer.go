package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"go.uber.org/zap"

	"tuneclip/internal/core"
	"tuneclip/internal/ytdlp"
)

// deezerSearchURL is the public Deezer catalog search endpoint.
const deezerSearchURL = "https://api.deezer.com/search"

// DeezerSource resolves via the Deezer catalog API and downloads through
// an ARL session cookie. It is only active when an ARL is configured.
// Catalog top results are trusted: no relevance filter is applied.
type DeezerSource struct {
	arl       string
	searchURL string
	http      *http.Client
	prober    Prober
	logger    *zap.Logger
}

// NewDeezerSource creates the Deezer tier. An empty arl disables it.
func NewDeezerSource(arl string, httpClient *http.Client, prober Prober, logger *zap.Logger) *DeezerSource {
	return &DeezerSource{
		arl:       arl,
		searchURL: deezerSearchURL,
		http:      httpClient,
		prober:    prober,
		logger:    logger,
	}
}

func (s *DeezerSource) Name() string {
	return "deezer"
}

type deezerSearchResponse struct {
	Data []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"data"`
}

func (s *DeezerSource) Resolve(ctx context.Context, q core.QueryContext) (*core.TrackMeta, error) {
	if s.arl == "" {
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s?q=%s", s.searchURL, url.QueryEscape(q.Query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deezer search returned status %d", resp.StatusCode)
	}

	var result deezerSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode deezer response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, nil
	}

	hit := result.Data[0]
	trackURL := hit.Link
	if trackURL == "" {
		trackURL = fmt.Sprintf("https://www.deezer.com/track/%d", hit.ID)
	}

	cookieFile, err := ytdlp.WriteDeezerCookieFile(s.arl)
	if err != nil {
		return nil, fmt.Errorf("failed to write deezer cookie file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(cookieFile); removeErr != nil {
			s.logger.Warn("Failed to remove deezer cookie file",
				zap.String("path", cookieFile),
				zap.Error(removeErr))
		}
	}()

	return s.prober.Probe(ctx, trackURL, ytdlp.Options{CookieFile: cookieFile})
}
