package session

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/schedule"
	"github.com/okian/sportplanner/internal/validation"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// Catalog is the read-only data needed to plan a session.
type Catalog interface {
	Schedule(ctx context.Context, id int64) (*model.ScheduleDefinition, error)
	Team(ctx context.Context, id int64) (*model.Team, error)
	ConceptsByIDs(ctx context.Context, ids []int64) ([]model.Concept, error)
}

// Resolver finds interpretations for a set of concepts.
type Resolver interface {
	ResolveMany(ctx context.Context, ids []int64, scope model.Scope) (map[int64]*model.Interpretation, error)
}

// Request describes the session to fill.
type Request struct {
	StartAt         time.Time `json:"startAt" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"gt=0"`
	// AvailableTimeMinutes is the budget for concepts; 0 means the whole
	// duration.
	AvailableTimeMinutes int `json:"availableTimeMinutes" validate:"gte=0,ltefield=DurationMinutes"`
	// SuggestedOnly skips concepts whose interpretation marks them as not
	// suggested for this team.
	SuggestedOnly bool `json:"suggestedOnly"`
}

// Budget returns the minutes available for concepts.
func (r Request) Budget() int {
	if r.AvailableTimeMinutes > 0 {
		return r.AvailableTimeMinutes
	}
	return r.DurationMinutes
}

// Planner builds session plans from a schedule's plan concepts.
type Planner struct {
	catalog         Catalog
	resolver        Resolver
	defaultDuration int
	newID           func() uuid.UUID
	log             logger.Logger
}

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithDefaultDuration sets the per-concept duration before interpretation.
func WithDefaultDuration(minutes int) Option {
	return func(p *Planner) {
		if minutes > 0 {
			p.defaultDuration = minutes
		}
	}
}

// WithIDGenerator sets the session id source.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(p *Planner) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithLogger sets the planner logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPlanner creates a Planner.
func NewPlanner(catalog Catalog, resolver Resolver, opts ...Option) *Planner {
	p := &Planner{
		catalog:         catalog,
		resolver:        resolver,
		defaultDuration: DefaultConceptMinutes,
		newID:           uuid.New,
		log:             logger.Named("session"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateFromPlan fills one session of schedule scheduleID with the
// schedule's plan concepts. Interpretations resolved for the schedule's
// team scale each concept's duration and progress weight.
func (p *Planner) CreateFromPlan(ctx context.Context, scheduleID int64, req Request) (*model.SessionPlan, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	def, err := p.catalog.Schedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if def == nil {
		return nil, model.NotFound(model.KindSchedule, scheduleID)
	}
	team, err := p.catalog.Team(ctx, def.TeamID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	concepts, err := p.catalog.ConceptsByIDs(ctx, def.PlanConceptIDs)
	if err != nil {
		return nil, fmt.Errorf("load plan concepts: %w", err)
	}
	interps, err := p.resolver.ResolveMany(ctx, def.PlanConceptIDs, model.ScopeFor(team))
	if err != nil {
		metrics.RecordErrorByComponent("session", "interpretation")
		return nil, err
	}

	candidates := make([]Candidate, 0, len(concepts))
	for _, c := range concepts {
		cand := CandidateFor(c)
		cand.DurationMinutes = p.defaultDuration
		if in := interps[c.ID]; in != nil {
			if req.SuggestedOnly && !in.IsSuggested {
				continue
			}
			cand.DurationMinutes = scaleMinutes(p.defaultDuration, in.DurationMultiplier)
			if in.PriorityMultiplier > 0 {
				cand.ProgressWeight *= in.PriorityMultiplier
			}
		}
		candidates = append(candidates, cand)
	}

	budget := req.Budget()
	plan := &model.SessionPlan{
		ID:                   p.newID(),
		ScheduleID:           def.ID,
		TeamID:               def.TeamID,
		Date:                 schedule.Day(req.StartAt),
		StartTime:            req.StartAt.Format("15:04"),
		DurationMinutes:      req.DurationMinutes,
		AvailableTimeMinutes: budget,
		Concepts:             Build(candidates, budget, p.defaultDuration),
	}

	metrics.RecordSessionBuilt(len(plan.Concepts), float64(plan.AllocatedMinutes())/float64(budget))
	p.log.Debug(ctx, "session planned",
		logger.Int64("schedule_id", scheduleID),
		logger.String("session_id", plan.ID.String()),
		logger.Int("candidates", len(candidates)),
		logger.Int("allocated", len(plan.Concepts)),
		logger.Int("minutes", plan.AllocatedMinutes()),
	)
	return plan, nil
}

// scaleMinutes applies an interpretation multiplier, rounding to the
// nearest minute and never going below one.
func scaleMinutes(base int, multiplier float64) int {
	if multiplier <= 0 {
		return base
	}
	return max(1, int(math.Round(float64(base)*multiplier)))
}
