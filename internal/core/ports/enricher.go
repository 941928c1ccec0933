package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// FeatureEnricher fills in feature entries for tracks whose batch feature
// lookup came back empty, using whatever local analysis is available.
// It is strictly best-effort: entries it cannot derive stay absent.
type FeatureEnricher interface {
	EnrichMissing(ctx context.Context, tracks []domain.Track, features map[string]domain.AudioFeatures)
}
