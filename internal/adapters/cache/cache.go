// Package cache stores generated proposals keyed by team.
package cache

import (
	"context"
	"time"

	"github.com/okian/sportplanner/internal/domain/types"
)

// Backend names reported on cache metrics.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Default limits.
const (
	DefaultMaxSize = 1024
	DefaultTTL     = 5 * time.Minute
)

// ProposalCache holds the latest proposal per team.
type ProposalCache interface {
	// Get returns the cached proposal and whether it was present and fresh.
	Get(ctx context.Context, teamID int64) (*types.ProposalResponse, bool, error)
	// Set stores resp for teamID, replacing any previous entry.
	Set(ctx context.Context, teamID int64, resp *types.ProposalResponse) error
	// Invalidate drops the entry for teamID.
	Invalidate(ctx context.Context, teamID int64) error
	// Len reports the number of stored entries.
	Len(ctx context.Context) (int64, error)
	Close() error
}
