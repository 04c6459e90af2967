package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"tuneclip/internal/core"
	"tuneclip/internal/ytdlp"
	"tuneclip/pkg/fuzzy"
)

const (
	// archiveSearchURL is the Internet Archive full-text search endpoint.
	archiveSearchURL = "https://archive.org/advancedsearch.php"
	// archiveDetailsURL is the base URL for item detail pages.
	archiveDetailsURL = "https://archive.org/details/"
	// archiveMaxResults is how many ranked candidates are considered.
	archiveMaxResults = 5
)

// ArchiveSource resolves via the Internet Archive. Up to five candidates
// ranked by download count are checked in order and the first relevant
// title wins.
type ArchiveSource struct {
	searchURL string
	http      *http.Client
	prober    Prober
	logger    *zap.Logger
}

// NewArchiveSource creates the Internet Archive tier.
func NewArchiveSource(httpClient *http.Client, prober Prober, logger *zap.Logger) *ArchiveSource {
	return &ArchiveSource{
		searchURL: archiveSearchURL,
		http:      httpClient,
		prober:    prober,
		logger:    logger,
	}
}

func (s *ArchiveSource) Name() string {
	return "archive"
}

type archiveSearchResponse struct {
	Response struct {
		Docs []struct {
			Identifier string `json:"identifier"`
			Title      string `json:"title"`
		} `json:"docs"`
	} `json:"response"`
}

func (s *ArchiveSource) Resolve(ctx context.Context, q core.QueryContext) (*core.TrackMeta, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s AND mediatype:(audio)", q.Query))
	params.Add("fl[]", "identifier")
	params.Add("fl[]", "title")
	params.Add("sort[]", "downloads desc")
	params.Set("rows", fmt.Sprintf("%d", archiveMaxResults))
	params.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+params.Encode(), http.NoBody)
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
		return nil, fmt.Errorf("archive search returned status %d", resp.StatusCode)
	}

	var result archiveSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode archive response: %w", err)
	}

	for _, doc := range result.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		if !fuzzy.StrictMatch(doc.Title, q.Track, q.Artist) {
			s.logger.Debug("Archive candidate rejected",
				zap.String("identifier", doc.Identifier),
				zap.String("title", doc.Title))
			continue
		}

		return s.prober.Probe(ctx, archiveDetailsURL+doc.Identifier, ytdlp.Options{})
	}

	return nil, nil
}
