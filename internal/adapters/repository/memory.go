package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/sportplanner/internal/domain/interpretation"
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/schedule"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// catalog is one immutable, fully validated generation of the data.
type catalog struct {
	teams           map[int64]model.Team
	concepts        map[int64]model.Concept
	bySport         map[int64][]int64
	categories      []model.ConceptCategory
	interpretations map[int64][]model.Interpretation
	schedules       map[int64]model.ScheduleDefinition
}

func emptyCatalog() *catalog {
	return &catalog{
		teams:           map[int64]model.Team{},
		concepts:        map[int64]model.Concept{},
		bySport:         map[int64][]int64{},
		interpretations: map[int64][]model.Interpretation{},
		schedules:       map[int64]model.ScheduleDefinition{},
	}
}

// MemoryStore is an in-memory Store. Load swaps in a whole new catalog, so
// readers never observe a half-loaded state.
type MemoryStore struct {
	mu  sync.RWMutex
	cur *catalog
	log logger.Logger
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{cur: emptyCatalog(), log: logger.Named("repository")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load validates seed and replaces the current catalog with it. On error
// the previous catalog stays in place.
func (s *MemoryStore) Load(ctx context.Context, seed *Seed) error {
	next, err := build(seed)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()

	counts := next.counts()
	for kind, n := range counts {
		metrics.UpdateCatalogSize(kind, n)
	}
	s.log.Info(ctx, "catalog loaded",
		logger.Int(CountTeams, counts[CountTeams]),
		logger.Int(CountConcepts, counts[CountConcepts]),
		logger.Int(CountCategories, counts[CountCategories]),
		logger.Int(CountInterpretations, counts[CountInterpretations]),
		logger.Int(CountSchedules, counts[CountSchedules]),
	)
	return nil
}

func (s *MemoryStore) snapshot() *catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

//nolint:gocyclo // one pass of checks per entity kind
func build(seed *Seed) (*catalog, error) {
	c := emptyCatalog()

	teamCategories := make(map[int64]model.TeamCategory, len(seed.TeamCategories))
	for _, tc := range seed.TeamCategories {
		if _, dup := teamCategories[tc.ID]; dup {
			return nil, fmt.Errorf("team category %d: %w", tc.ID, ErrDuplicateID)
		}
		teamCategories[tc.ID] = tc
	}
	teamLevels := make(map[int64]model.TeamLevel, len(seed.TeamLevels))
	for _, tl := range seed.TeamLevels {
		if _, dup := teamLevels[tl.ID]; dup {
			return nil, fmt.Errorf("team level %d: %w", tl.ID, ErrDuplicateID)
		}
		teamLevels[tl.ID] = tl
	}

	for _, st := range seed.Teams {
		if _, dup := c.teams[st.ID]; dup {
			return nil, fmt.Errorf("team %d: %w", st.ID, ErrDuplicateID)
		}
		team := model.Team{
			ID:                    st.ID,
			Name:                  st.Name,
			SportID:               st.SportID,
			CurrentTechnicalLevel: st.TechnicalLevel,
			CurrentTacticalLevel:  st.TacticalLevel,
		}
		if st.CategoryID != nil {
			tc, ok := teamCategories[*st.CategoryID]
			if !ok {
				return nil, fmt.Errorf("team %d category %d: %w", st.ID, *st.CategoryID, ErrUnknownReference)
			}
			team.Category = &tc
		}
		if st.LevelID != nil {
			tl, ok := teamLevels[*st.LevelID]
			if !ok {
				return nil, fmt.Errorf("team %d level %d: %w", st.ID, *st.LevelID, ErrUnknownReference)
			}
			team.Level = &tl
		}
		c.teams[st.ID] = team
	}

	if err := checkCategories(seed.Categories); err != nil {
		return nil, err
	}
	c.categories = slices.Clone(seed.Categories)

	for _, cp := range seed.Concepts {
		if _, dup := c.concepts[cp.ID]; dup {
			return nil, fmt.Errorf("concept %d: %w", cp.ID, ErrDuplicateID)
		}
		c.concepts[cp.ID] = cp
		c.bySport[cp.SportID] = append(c.bySport[cp.SportID], cp.ID)
	}

	for _, in := range seed.Interpretations {
		in = interpretation.WithDefaults(in)
		if err := interpretation.Validate(&in); err != nil {
			return nil, fmt.Errorf("interpretation %d: %w", in.ID, err)
		}
		if _, ok := c.concepts[in.ConceptID]; !ok {
			return nil, fmt.Errorf("interpretation %d concept %d: %w", in.ID, in.ConceptID, ErrUnknownReference)
		}
		c.interpretations[in.ConceptID] = append(c.interpretations[in.ConceptID], in)
	}

	for _, ss := range seed.Schedules {
		def := ss.Definition()
		if _, dup := c.schedules[def.ID]; dup {
			return nil, fmt.Errorf("schedule %d: %w", def.ID, ErrDuplicateID)
		}
		if err := schedule.ValidateDefinition(&def); err != nil {
			return nil, fmt.Errorf("schedule %d: %w", def.ID, err)
		}
		if _, ok := c.teams[def.TeamID]; !ok {
			return nil, fmt.Errorf("schedule %d team %d: %w", def.ID, def.TeamID, ErrUnknownReference)
		}
		for _, id := range def.PlanConceptIDs {
			if _, ok := c.concepts[id]; !ok {
				return nil, fmt.Errorf("schedule %d concept %d: %w", def.ID, id, ErrUnknownReference)
			}
		}
		c.schedules[def.ID] = def
	}
	return c, nil
}

// checkCategories rejects duplicate ids, dangling parents and cycles.
func checkCategories(categories []model.ConceptCategory) error {
	parent := make(map[int64]*int64, len(categories))
	for _, cat := range categories {
		if _, dup := parent[cat.ID]; dup {
			return fmt.Errorf("category %d: %w", cat.ID, ErrDuplicateID)
		}
		parent[cat.ID] = cat.ParentID
	}
	for _, cat := range categories {
		seen := map[int64]struct{}{cat.ID: {}}
		for p := cat.ParentID; p != nil; p = parent[*p] {
			if _, ok := parent[*p]; !ok {
				return fmt.Errorf("category %d parent %d: %w", cat.ID, *p, ErrUnknownReference)
			}
			if _, loop := seen[*p]; loop {
				return fmt.Errorf("category %d: %w", cat.ID, ErrCategoryCycle)
			}
			seen[*p] = struct{}{}
		}
	}
	return nil
}

func (c *catalog) counts() map[string]int {
	n := 0
	for _, rows := range c.interpretations {
		n += len(rows)
	}
	return map[string]int{
		CountTeams:           len(c.teams),
		CountConcepts:        len(c.concepts),
		CountCategories:      len(c.categories),
		CountInterpretations: n,
		CountSchedules:       len(c.schedules),
	}
}

// Team returns a copy of the team with id.
func (s *MemoryStore) Team(_ context.Context, id int64) (*model.Team, error) {
	t, ok := s.snapshot().teams[id]
	if !ok {
		return nil, model.NotFound(model.KindTeam, id)
	}
	return &t, nil
}

// TeamIDs returns all team ids in ascending order.
func (s *MemoryStore) TeamIDs(context.Context) ([]int64, error) {
	teams := s.snapshot().teams
	ids := make([]int64, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// ConceptsBySport returns the sport's concepts in id order.
func (s *MemoryStore) ConceptsBySport(_ context.Context, sportID int64) ([]model.Concept, error) {
	c := s.snapshot()
	ids := slices.Sorted(slices.Values(c.bySport[sportID]))
	out := make([]model.Concept, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.concepts[id])
	}
	return out, nil
}

// ConceptsByIDs returns the known concepts among ids, in the order given.
func (s *MemoryStore) ConceptsByIDs(_ context.Context, ids []int64) ([]model.Concept, error) {
	c := s.snapshot()
	out := make([]model.Concept, 0, len(ids))
	for _, id := range ids {
		if cp, ok := c.concepts[id]; ok {
			out = append(out, cp)
		}
	}
	return out, nil
}

// Categories returns the full category table.
func (s *MemoryStore) Categories(context.Context) ([]model.ConceptCategory, error) {
	return slices.Clone(s.snapshot().categories), nil
}

// InterpretationsForConcept returns every stored override for conceptID.
func (s *MemoryStore) InterpretationsForConcept(_ context.Context, conceptID int64) ([]model.Interpretation, error) {
	return slices.Clone(s.snapshot().interpretations[conceptID]), nil
}

// Schedule returns a copy of the schedule with id.
func (s *MemoryStore) Schedule(_ context.Context, id int64) (*model.ScheduleDefinition, error) {
	def, ok := s.snapshot().schedules[id]
	if !ok {
		return nil, model.NotFound(model.KindSchedule, id)
	}
	def.Slots = slices.Clone(def.Slots)
	def.PlanConceptIDs = slices.Clone(def.PlanConceptIDs)
	return &def, nil
}

// Counts reports catalog sizes.
func (s *MemoryStore) Counts(context.Context) (map[string]int, error) {
	return s.snapshot().counts(), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
