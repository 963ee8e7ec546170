// Package interpretation resolves the most specific coach or category
// override of a concept's metadata.
package interpretation

import (
	"context"
	"fmt"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// Match names the scope that produced a resolution.
type Match string

// Matches in precedence order.
const (
	MatchTeam          Match = "team"
	MatchCategoryLevel Match = "category_level"
	MatchCategory      Match = "category"
	MatchLevel         Match = "level"
	MatchNone          Match = "none"
)

// rule is one precedence level: a predicate over a stored row given the
// scope being resolved.
type rule struct {
	match Match
	pred  func(row *model.Interpretation, s model.Scope) bool
}

// rules are evaluated in order; the first level with any matching row wins.
var rules = []rule{
	{MatchTeam, func(row *model.Interpretation, s model.Scope) bool {
		return eq(row.TeamID, s.TeamID)
	}},
	{MatchCategoryLevel, func(row *model.Interpretation, s model.Scope) bool {
		return row.TeamID == nil && eq(row.TeamCategoryID, s.TeamCategoryID) && eq(row.TeamLevelID, s.TeamLevelID)
	}},
	{MatchCategory, func(row *model.Interpretation, s model.Scope) bool {
		return row.TeamID == nil && row.TeamLevelID == nil && eq(row.TeamCategoryID, s.TeamCategoryID)
	}},
	{MatchLevel, func(row *model.Interpretation, s model.Scope) bool {
		return row.TeamID == nil && row.TeamCategoryID == nil && eq(row.TeamLevelID, s.TeamLevelID)
	}},
}

// eq is true only when both sides are set and equal.
func eq(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// Resolve picks the override for conceptID from rows. Rows for other
// concepts are ignored. Within one precedence level the most recently
// created row wins (ties broken by the higher id). Returns nil and
// MatchNone when nothing applies; callers then use the concept defaults.
func Resolve(rows []model.Interpretation, conceptID int64, scope model.Scope) (*model.Interpretation, Match) {
	if scope.Empty() {
		return nil, MatchNone
	}
	for _, r := range rules {
		var best *model.Interpretation
		for i := range rows {
			row := &rows[i]
			if row.ConceptID != conceptID || !r.pred(row, scope) {
				continue
			}
			if best == nil || newer(row, best) {
				best = row
			}
		}
		if best != nil {
			out := *best
			return &out, r.match
		}
	}
	return nil, MatchNone
}

func newer(a, b *model.Interpretation) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Source supplies stored interpretation rows for a concept.
type Source interface {
	InterpretationsForConcept(ctx context.Context, conceptID int64) ([]model.Interpretation, error)
}

// Resolver fetches rows from a Source and applies Resolve.
type Resolver struct {
	source Source
	logger logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver over source.
func NewResolver(source Source, opts ...Option) *Resolver {
	r := &Resolver{source: source}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("interpretation")
	}
	return r
}

// Resolve returns the most specific override for conceptID in scope, or nil.
func (r *Resolver) Resolve(ctx context.Context, conceptID int64, scope model.Scope) (*model.Interpretation, error) {
	rows, err := r.source.InterpretationsForConcept(ctx, conceptID)
	if err != nil {
		metrics.RecordErrorByComponent("interpretation", "source_error")
		return nil, fmt.Errorf("load interpretations for concept %d: %w", conceptID, err)
	}
	in, match := Resolve(rows, conceptID, scope)
	metrics.RecordInterpretationResolution(string(match))
	r.logger.Debug(ctx, "interpretation resolved",
		logger.Int64("conceptID", conceptID),
		logger.String("match", string(match)),
	)
	return in, nil
}

// ResolveMany resolves every concept in ids for one scope. Concepts without
// an override are absent from the result.
func (r *Resolver) ResolveMany(ctx context.Context, ids []int64, scope model.Scope) (map[int64]*model.Interpretation, error) {
	out := make(map[int64]*model.Interpretation, len(ids))
	for _, id := range ids {
		in, err := r.Resolve(ctx, id, scope)
		if err != nil {
			return nil, err
		}
		if in != nil {
			out[id] = in
		}
	}
	return out, nil
}
