package services

import (
	"context"

	"github.com/tbourn/echome-x/internal/llm"
)

// RecentWindow caches the last few turns per twin. *cache.RecentTurns
// implements it. Every method is best effort: callers fall back to the
// database on any error.
type RecentWindow interface {
	Get(ctx context.Context, twinID string) ([]llm.Turn, bool, error)
	Fill(ctx context.Context, twinID string, turns []llm.Turn) error
	Push(ctx context.Context, twinID string, t llm.Turn) error
	Forget(ctx context.Context, twinID string) error
}
