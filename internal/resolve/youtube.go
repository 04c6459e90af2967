package resolve

import (
	"context"

	"go.uber.org/zap"

	"tuneclip/internal/core"
	"tuneclip/internal/ytdlp"
)

// YouTubeSource resolves via YouTube's scoped search. Search results are
// trusted: no relevance filter is applied to this tier.
type YouTubeSource struct {
	prober Prober
	logger *zap.Logger
}

// NewYouTubeSource creates the YouTube tier.
func NewYouTubeSource(prober Prober, logger *zap.Logger) *YouTubeSource {
	return &YouTubeSource{
		prober: prober,
		logger: logger,
	}
}

func (s *YouTubeSource) Name() string {
	return "youtube"
}

func (s *YouTubeSource) Resolve(ctx context.Context, q core.QueryContext) (*core.TrackMeta, error) {
	s.logger.Debug("Searching YouTube", zap.String("query", q.Query))

	return s.prober.Probe(ctx, ytdlp.SearchPrefixYouTube+q.Query, ytdlp.Options{
		ExtractorArgs: ytdlp.ExtractorArgsYouTubeAndroid,
	})
}
