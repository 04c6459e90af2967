// Package resolve locates a playable source for a song request by trying
// a fixed sequence of backends and stopping at the first acceptable hit.
package resolve

import (
	"context"

	"go.uber.org/zap"

	"tuneclip/internal/core"
	"tuneclip/internal/ytdlp"
)

// Prober fetches track metadata for a URL or site-scoped search target.
// Satisfied by ytdlp.Runner.
type Prober interface {
	Probe(ctx context.Context, target string, opts ytdlp.Options) (*core.TrackMeta, error)
}

// Source is one backend tier. A (nil, nil) return means "no acceptable
// match here, try the next tier".
type Source interface {
	Name() string
	Resolve(ctx context.Context, q core.QueryContext) (*core.TrackMeta, error)
}

// Pipeline runs sources strictly in order and returns the first match.
type Pipeline struct {
	sources []Source
	logger  *zap.Logger
}

// NewPipeline creates a Pipeline trying the given sources in order.
func NewPipeline(logger *zap.Logger, sources ...Source) *Pipeline {
	return &Pipeline{
		sources: sources,
		logger:  logger,
	}
}

// Resolve tries each source in order. A source error is recoverable and
// falls through to the next tier; only exhaustion of every tier is
// reported, as core.ErrNoMatchFound.
func (p *Pipeline) Resolve(ctx context.Context, q core.QueryContext) (*core.TrackMeta, error) {
	for _, source := range p.sources {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		p.logger.Info("Trying source",
			zap.String("source", source.Name()),
			zap.String("query", q.Query))

		meta, err := source.Resolve(ctx, q)
		if err != nil {
			p.logger.Warn("Source failed, falling through",
				zap.String("source", source.Name()),
				zap.Error(err))
			continue
		}
		if meta == nil {
			p.logger.Info("Source returned no match",
				zap.String("source", source.Name()))
			continue
		}

		meta.Source = source.Name()
		p.logger.Info("Source matched",
			zap.String("source", source.Name()),
			zap.String("title", meta.Title),
			zap.String("url", meta.URL))

		return meta, nil
	}

	return nil, core.ErrNoMatchFound
}
