// Package session packs plan concepts into a single session's time budget.
package session

import (
	"cmp"
	"slices"

	"github.com/okian/sportplanner/internal/domain/model"
)

// DefaultConceptMinutes is used when neither the candidate nor the caller
// gives a duration.
const DefaultConceptMinutes = 15

// Candidate is a concept competing for session time.
type Candidate struct {
	ConceptID      int64
	DifficultyRank int
	// ProgressWeight breaks rank ties; heavier first.
	ProgressWeight float64
	// DurationMinutes overrides the default duration when > 0.
	DurationMinutes int
}

// CandidateFor builds a Candidate from a concept.
func CandidateFor(c model.Concept) Candidate {
	return Candidate{
		ConceptID:      c.ID,
		DifficultyRank: c.DifficultyRank,
		ProgressWeight: float64(c.ProgressWeight),
	}
}

// Build orders candidates easiest first (difficulty rank ascending, progress
// weight descending, id ascending) and takes them in that order while the
// running total stays within budget. Candidates that alone exceed the budget
// are dropped up front; after that the walk stops at the first candidate
// that does not fit. Order in the result is 0-based.
func Build(candidates []Candidate, budget, defaultDuration int) []model.SessionConcept {
	if defaultDuration <= 0 {
		defaultDuration = DefaultConceptMinutes
	}
	if budget <= 0 {
		return []model.SessionConcept{}
	}

	type sized struct {
		Candidate
		minutes int
	}
	pool := make([]sized, 0, len(candidates))
	for _, c := range candidates {
		m := c.DurationMinutes
		if m <= 0 {
			m = defaultDuration
		}
		if m > budget {
			continue
		}
		pool = append(pool, sized{Candidate: c, minutes: m})
	}
	slices.SortStableFunc(pool, func(a, b sized) int {
		return cmp.Or(
			cmp.Compare(a.DifficultyRank, b.DifficultyRank),
			cmp.Compare(b.ProgressWeight, a.ProgressWeight),
			cmp.Compare(a.ConceptID, b.ConceptID),
		)
	})

	out := make([]model.SessionConcept, 0, len(pool))
	used := 0
	for _, c := range pool {
		if used+c.minutes > budget {
			break
		}
		used += c.minutes
		out = append(out, model.SessionConcept{ConceptID: c.ConceptID, Order: len(out), DurationMinutes: c.minutes})
	}
	return out
}
