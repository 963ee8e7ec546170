// Package repository provides the read-only catalog the planning engine
// works from: teams, concepts, categories, interpretations and schedules.
package repository

import (
	"context"

	"github.com/okian/sportplanner/internal/domain/model"
)

// Store is the catalog consumed by the engine. Lookups by id return an
// error matching model.ErrNotFound when the entity does not exist.
type Store interface {
	Team(ctx context.Context, id int64) (*model.Team, error)
	TeamIDs(ctx context.Context) ([]int64, error)
	ConceptsBySport(ctx context.Context, sportID int64) ([]model.Concept, error)
	ConceptsByIDs(ctx context.Context, ids []int64) ([]model.Concept, error)
	Categories(ctx context.Context) ([]model.ConceptCategory, error)
	InterpretationsForConcept(ctx context.Context, conceptID int64) ([]model.Interpretation, error)
	Schedule(ctx context.Context, id int64) (*model.ScheduleDefinition, error)

	// Counts reports catalog sizes by entity kind.
	Counts(ctx context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Entity kinds reported by Counts.
const (
	CountTeams           = "teams"
	CountConcepts        = "concepts"
	CountCategories      = "categories"
	CountInterpretations = "interpretations"
	CountSchedules       = "schedules"
)
