package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tuneclip/internal/core"
	"tuneclip/internal/ytdlp"
	"tuneclip/pkg/fuzzy"
)

// minSoundCloudDuration rejects SoundCloud previews, which are shorter
// than full tracks.
const minSoundCloudDuration = 45 * time.Second

// SoundCloudSource resolves via SoundCloud's scoped search. Results are
// filtered against the original request context and by duration.
type SoundCloudSource struct {
	prober Prober
	logger *zap.Logger
}

// NewSoundCloudSource creates the SoundCloud tier.
func NewSoundCloudSource(prober Prober, logger *zap.Logger) *SoundCloudSource {
	return &SoundCloudSource{
		prober: prober,
		logger: logger,
	}
}

func (s *SoundCloudSource) Name() string {
	return "soundcloud"
}

func (s *SoundCloudSource) Resolve(ctx context.Context, q core.QueryContext) (*core.TrackMeta, error) {
	meta, err := s.prober.Probe(ctx, ytdlp.SearchPrefixSoundCloud+q.Query, ytdlp.Options{})
	if err != nil || meta == nil {
		return nil, err
	}

	if !fuzzy.StrictMatch(meta.Title, q.Track, q.Artist) {
		s.logger.Info("SoundCloud result rejected as irrelevant",
			zap.String("title", meta.Title),
			zap.String("track", q.Track),
			zap.String("artist", q.Artist))
		return nil, nil
	}

	if meta.Duration < minSoundCloudDuration {
		s.logger.Info("SoundCloud result rejected as preview",
			zap.String("title", meta.Title),
			zap.Duration("duration", meta.Duration))
		return nil, nil
	}

	return meta, nil
}
