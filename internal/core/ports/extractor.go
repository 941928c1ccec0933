package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// VibeExtractor turns a free-text vibe description into structured
// parameters. It never fails: on any internal error it returns
// domain.DefaultVibeParameters().
type VibeExtractor interface {
	ExtractVibe(ctx context.Context, prompt string) domain.VibeParameters
}
