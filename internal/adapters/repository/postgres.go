package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Pool defaults.
const (
	defaultMaxConns    = 10
	defaultMinConns    = 2
	defaultMaxLifetime = 30 * time.Minute
)

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = min(int32(defaultMinConns), poolConfig.MaxConns)
	if cfg.MinConns > 0 {
		poolConfig.MinConns = min(cfg.MinConns, poolConfig.MaxConns)
	}
	poolConfig.MaxConnLifetime = defaultMaxLifetime
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, log: logger.Named("postgres")}
	if cfg.EnsureSchema {
		if _, err := pool.Exec(ctx, schemaSQL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		s.log.Info(ctx, "catalog schema ensured")
	}
	return s, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Team loads a team with its category and level.
func (s *PostgresStore) Team(ctx context.Context, id int64) (*model.Team, error) {
	const query = `
		SELECT t.id, t.name, t.sport_id, t.technical_level, t.tactical_level,
		       c.id, c.name, c.min_age, c.max_age, c.sport_id,
		       l.id, l.name, l.rank
		FROM teams t
		LEFT JOIN team_categories c ON c.id = t.team_category_id
		LEFT JOIN team_levels l ON l.id = t.team_level_id
		WHERE t.id = $1`

	var (
		t               model.Team
		catID, catSport *int64
		catName         *string
		minAge, maxAge  *int
		levelID         *int64
		levelName       *string
		levelRank       *int
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.SportID, &t.CurrentTechnicalLevel, &t.CurrentTacticalLevel,
		&catID, &catName, &minAge, &maxAge, &catSport,
		&levelID, &levelName, &levelRank,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.KindTeam, id)
		}
		return nil, fmt.Errorf("query team %d: %w", id, err)
	}
	if catID != nil {
		t.Category = &model.TeamCategory{ID: *catID, Name: deref(catName), MinAge: minAge, MaxAge: maxAge, SportID: deref(catSport)}
	}
	if levelID != nil {
		t.Level = &model.TeamLevel{ID: *levelID, Name: deref(levelName), Rank: deref(levelRank)}
	}
	return &t, nil
}

// TeamIDs returns all team ids in ascending order.
func (s *PostgresStore) TeamIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query team ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan team ids: %w", err)
	}
	return ids, nil
}

const conceptColumns = `id, name, category_id, sport_id, technical_difficulty, tactical_complexity,
	development_level, progress_weight, difficulty_rank, is_active, owner_id`

func scanConcept(row pgx.CollectableRow) (model.Concept, error) {
	var (
		c     model.Concept
		level *string
	)
	err := row.Scan(&c.ID, &c.Name, &c.CategoryID, &c.SportID, &c.TechnicalDifficulty, &c.TacticalComplexity,
		&level, &c.ProgressWeight, &c.DifficultyRank, &c.IsActive, &c.OwnerID)
	if err != nil {
		return c, err
	}
	if level != nil && *level != "" {
		var dl model.DevelopmentLevel
		if err := dl.UnmarshalText([]byte(*level)); err != nil {
			return c, fmt.Errorf("concept %d: %w", c.ID, err)
		}
		c.DevelopmentLevel = &dl
	}
	return c, nil
}

// ConceptsBySport returns the sport's concepts in id order.
func (s *PostgresStore) ConceptsBySport(ctx context.Context, sportID int64) ([]model.Concept, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+conceptColumns+` FROM concepts WHERE sport_id = $1 ORDER BY id`, sportID)
	if err != nil {
		return nil, fmt.Errorf("query concepts for sport %d: %w", sportID, err)
	}
	concepts, err := pgx.CollectRows(rows, scanConcept)
	if err != nil {
		return nil, fmt.Errorf("scan concepts: %w", err)
	}
	return concepts, nil
}

// ConceptsByIDs returns the known concepts among ids, in the order given.
func (s *PostgresStore) ConceptsByIDs(ctx context.Context, ids []int64) ([]model.Concept, error) {
	if len(ids) == 0 {
		return []model.Concept{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+conceptColumns+` FROM concepts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	found, err := pgx.CollectRows(rows, scanConcept)
	if err != nil {
		return nil, fmt.Errorf("scan concepts: %w", err)
	}
	byID := make(map[int64]model.Concept, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]model.Concept, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Categories returns the full category table.
func (s *PostgresStore) Categories(ctx context.Context) ([]model.ConceptCategory, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, parent_id FROM concept_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	cats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ConceptCategory, error) {
		var c model.ConceptCategory
		err := row.Scan(&c.ID, &c.Name, &c.ParentID)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return cats, nil
}

// InterpretationsForConcept returns every stored override for conceptID.
func (s *PostgresStore) InterpretationsForConcept(ctx context.Context, conceptID int64) ([]model.Interpretation, error) {
	const query = `
		SELECT id, concept_id, team_id, team_category_id, team_level_id,
		       duration_multiplier, priority_multiplier, is_suggested, notes, created_at
		FROM concept_interpretations
		WHERE concept_id = $1`

	rows, err := s.pool.Query(ctx, query, conceptID)
	if err != nil {
		return nil, fmt.Errorf("query interpretations for concept %d: %w", conceptID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Interpretation, error) {
		var in model.Interpretation
		err := row.Scan(&in.ID, &in.ConceptID, &in.TeamID, &in.TeamCategoryID, &in.TeamLevelID,
			&in.DurationMultiplier, &in.PriorityMultiplier, &in.IsSuggested, &in.Notes, &in.CreatedAt)
		return in, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan interpretations: %w", err)
	}
	return out, nil
}

// Schedule loads a schedule and its slots.
func (s *PostgresStore) Schedule(ctx context.Context, id int64) (*model.ScheduleDefinition, error) {
	var def model.ScheduleDefinition
	err := s.pool.QueryRow(ctx,
		`SELECT id, team_id, name, start_date, end_date, plan_concept_ids FROM schedules WHERE id = $1`, id,
	).Scan(&def.ID, &def.TeamID, &def.Name, &def.StartDate, &def.EndDate, &def.PlanConceptIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.KindSchedule, id)
		}
		return nil, fmt.Errorf("query schedule %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT day_of_week, start_time, end_time FROM schedule_slots WHERE schedule_id = $1 ORDER BY day_of_week`, id)
	if err != nil {
		return nil, fmt.Errorf("query slots for schedule %d: %w", id, err)
	}
	def.Slots, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ScheduleSlot, error) {
		var (
			sl  model.ScheduleSlot
			day int16
		)
		err := row.Scan(&day, &sl.StartTime, &sl.EndTime)
		sl.Weekday = time.Weekday(day)
		return sl, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan slots: %w", err)
	}
	return &def, nil
}

// Counts reports catalog sizes.
func (s *PostgresStore) Counts(ctx context.Context) (map[string]int, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM teams),
		       (SELECT COUNT(*) FROM concepts),
		       (SELECT COUNT(*) FROM concept_categories),
		       (SELECT COUNT(*) FROM concept_interpretations),
		       (SELECT COUNT(*) FROM schedules)`

	var teams, concepts, categories, interps, schedules int
	if err := s.pool.QueryRow(ctx, query).Scan(&teams, &concepts, &categories, &interps, &schedules); err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	return map[string]int{
		CountTeams:           teams,
		CountConcepts:        concepts,
		CountCategories:      categories,
		CountInterpretations: interps,
		CountSchedules:       schedules,
	}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
