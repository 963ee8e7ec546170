// Package proposal scores a team's eligible concepts and groups them into
// suggested and optional recommendations.
package proposal

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/sportplanner/internal/domain/category"
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/scoring"
	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/internal/validation"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// Labels for concepts outside the category taxonomy.
const (
	GeneralSection    = "General"
	UncategorizedPath = "Uncategorized"
)

// Catalog is the read-only data the engine needs. Team returns an error
// matching model.ErrNotFound for an unknown id.
type Catalog interface {
	Team(ctx context.Context, id int64) (*model.Team, error)
	ConceptsBySport(ctx context.Context, sportID int64) ([]model.Concept, error)
	Categories(ctx context.Context) ([]model.ConceptCategory, error)
}

// Request parameterizes one proposal run.
type Request struct {
	TeamID             int64   `json:"teamId" validate:"gt=0"`
	ExcludeCategoryIDs []int64 `json:"excludeCategoryIds,omitempty"`
	LevelOffset        int     `json:"levelOffset" validate:"gte=-10,lte=10"`
	// SectionFocus keeps concepts whose category or an ancestor has this name.
	SectionFocus string `json:"sectionFocus,omitempty"`
	// MaxConcepts caps the suggested list, keeping the highest scores. 0 means no cap.
	MaxConcepts           int    `json:"maxConcepts,omitempty" validate:"gte=0"`
	RestrictToLevelWindow bool   `json:"restrictToLevelWindow,omitempty"`
	OwnerID               *int64 `json:"ownerId,omitempty"`
}

// Engine generates proposals. It keeps no per-request state.
type Engine struct {
	catalog Catalog
	scorer  *scoring.Scorer
	log     logger.Logger
	now     func() time.Time
}

// NewEngine creates an Engine over catalog.
func NewEngine(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		scorer:  scoring.New(),
		log:     logger.Named("proposal"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate builds the proposal for req.TeamID. An unknown team is an error
// matching model.ErrNotFound.
func (e *Engine) Generate(ctx context.Context, req Request) (*types.ProposalResponse, error) {
	start := time.Now()
	resp, err := e.generate(ctx, req)
	if err != nil {
		metrics.RecordProposalFailed()
		if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrValidation) {
			metrics.RecordErrorByComponent("proposal", "catalog")
		}
		return nil, err
	}

	md := resp.Metadata
	metrics.RecordProposalGenerated(float64(time.Since(start).Microseconds())/1000.0,
		md.FilteredConceptsCount, md.SuggestedCount, md.OptionalCount)
	e.log.Debug(ctx, "proposal generated",
		logger.Int64("team_id", req.TeamID),
		logger.Int("available", md.TotalAvailableConcepts),
		logger.Int("suggested", md.SuggestedCount),
		logger.Int("optional", md.OptionalCount),
	)
	return resp, nil
}

// ForTeam generates a default proposal for teamID, returning nil and no
// error when the team does not exist. Ids below one never name a team.
func (e *Engine) ForTeam(ctx context.Context, teamID int64) (*types.ProposalResponse, error) {
	if teamID <= 0 {
		return nil, nil
	}
	resp, err := e.Generate(ctx, Request{TeamID: teamID})
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return resp, err
}

func (e *Engine) generate(ctx context.Context, req Request) (*types.ProposalResponse, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	team, err := e.catalog.Team(ctx, req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	if team == nil {
		return nil, model.NotFound(model.KindTeam, req.TeamID)
	}
	concepts, err := e.catalog.ConceptsBySport(ctx, team.SportID)
	if err != nil {
		return nil, fmt.Errorf("load concepts: %w", err)
	}
	categories, err := e.catalog.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	tree := category.NewTree(categories)

	eligible := filterEligible(concepts, team, tree, req)

	expected := scoring.ExpectedDevelopmentLevel(team.Category)
	minLevel, maxLevel := scoring.LevelWindow(expected, team.CurrentTechnicalLevel, team.CurrentTacticalLevel, req.LevelOffset)

	candidates := eligible
	if req.RestrictToLevelWindow {
		candidates = make([]model.Concept, 0, len(eligible))
		for _, c := range eligible {
			if !c.HasDevelopmentLevel() || (c.Level() >= minLevel && c.Level() <= maxLevel) {
				candidates = append(candidates, c)
			}
		}
	}

	var suggested, optional []types.ScoredConcept
	total := 0.0
	for _, c := range candidates {
		r := e.scorer.Score(scoring.Input{Concept: c, Team: *team, LevelOffset: req.LevelOffset, ExpectedLevel: expected})
		total += r.Score
		sc := types.ScoredConcept{
			Concept:      c,
			Score:        r.Score,
			Priority:     r.Priority,
			Tag:          r.Tag,
			Reason:       r.Reason,
			TechDistance: r.TechDistance,
			TacDistance:  r.TacDistance,
		}
		if r.Suggested() {
			suggested = append(suggested, sc)
		} else {
			optional = append(optional, sc)
		}
	}

	if req.MaxConcepts > 0 && len(suggested) > req.MaxConcepts {
		slices.SortFunc(suggested, byScore)
		suggested = suggested[:req.MaxConcepts]
	}

	avg := 0.0
	if len(candidates) > 0 {
		avg = total / float64(len(candidates))
	}

	return &types.ProposalResponse{
		Team: *team,
		Metadata: types.ProposalMetadata{
			TotalAvailableConcepts:   len(eligible),
			FilteredConceptsCount:    len(candidates),
			SuggestedCount:           len(suggested),
			OptionalCount:            len(optional),
			AverageScore:             avg,
			ExpectedDevelopmentLevel: expected,
			MinLevelWindow:           minLevel,
			MaxLevelWindow:           maxLevel,
			LevelOffset:              req.LevelOffset,
		},
		SuggestedGroups: group(suggested, tree),
		OptionalGroups:  group(optional, tree),
		GeneratedAt:     e.now().UTC(),
	}, nil
}

// filterEligible keeps active concepts of the team's sport that the
// requester may see, outside any excluded subtree and inside the section
// focus when one is given.
func filterEligible(concepts []model.Concept, team *model.Team, tree *category.Tree, req Request) []model.Concept {
	excluded := tree.Subtree(req.ExcludeCategoryIDs)
	out := make([]model.Concept, 0, len(concepts))
	for _, c := range concepts {
		if !c.IsActive || c.SportID != team.SportID {
			continue
		}
		if c.OwnerID != nil && (req.OwnerID == nil || *c.OwnerID != *req.OwnerID) {
			continue
		}
		if c.CategoryID != nil {
			if _, skip := excluded[*c.CategoryID]; skip {
				continue
			}
		}
		if req.SectionFocus != "" && (c.CategoryID == nil || !tree.HasLineageNamed(*c.CategoryID, req.SectionFocus)) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// group buckets concepts by category. Groups are ordered by section then
// path; concepts inside a group by descending score.
func group(concepts []types.ScoredConcept, tree *category.Tree) []types.ProposalGroup {
	idx := make(map[int64]int)
	groups := make([]types.ProposalGroup, 0)
	for _, sc := range concepts {
		var id int64
		if sc.Concept.CategoryID != nil {
			id = *sc.Concept.CategoryID
		}
		i, ok := idx[id]
		if !ok {
			section, path := GeneralSection, UncategorizedPath
			if root, found := tree.Root(id); found {
				section = root.Name
				path = tree.PathLabel(id)
			}
			groups = append(groups, types.ProposalGroup{Section: section, CategoryID: id, CategoryPath: path})
			i = len(groups) - 1
			idx[id] = i
		}
		groups[i].Concepts = append(groups[i].Concepts, sc)
	}

	for i := range groups {
		slices.SortFunc(groups[i].Concepts, byScore)
	}
	slices.SortFunc(groups, func(a, b types.ProposalGroup) int {
		return cmp.Or(
			cmp.Compare(a.Section, b.Section),
			cmp.Compare(a.CategoryPath, b.CategoryPath),
			cmp.Compare(a.CategoryID, b.CategoryID),
		)
	})
	return groups
}

func byScore(a, b types.ScoredConcept) int {
	return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Concept.ID, b.Concept.ID))
}
