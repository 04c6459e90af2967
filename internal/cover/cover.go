// Package cover resolves album artwork for a request, independently of
// how the audio itself gets resolved.
package cover

import (
	"context"

	"go.uber.org/zap"
)

// Selection is the chosen artwork and the tier that produced it.
type Selection struct {
	URL    string
	Source string
}

// Tier is one artwork lookup backend.
type Tier interface {
	Name() string
	CoverURL(ctx context.Context, track, artist string) (string, error)
}

// Resolver tries tiers in order and falls back to a placeholder image
// when every tier fails.
type Resolver struct {
	tiers          []Tier
	placeholderURL string
	logger         *zap.Logger
}

// NewResolver creates a Resolver trying the given tiers in order.
func NewResolver(placeholderURL string, logger *zap.Logger, tiers ...Tier) *Resolver {
	return &Resolver{
		tiers:          tiers,
		placeholderURL: placeholderURL,
		logger:         logger,
	}
}

// Resolve returns artwork for the track. Tier failures are silent and
// fall through; the placeholder is only used when all tiers fail.
func (r *Resolver) Resolve(ctx context.Context, track, artist string) Selection {
	for _, tier := range r.tiers {
		coverURL, err := tier.CoverURL(ctx, track, artist)
		if err != nil {
			r.logger.Debug("Cover tier failed, falling through",
				zap.String("tier", tier.Name()),
				zap.Error(err))
			continue
		}
		if coverURL == "" {
			continue
		}

		return Selection{URL: coverURL, Source: tier.Name()}
	}

	return Selection{URL: r.placeholderURL, Source: "placeholder"}
}
