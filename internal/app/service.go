// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportplanner/internal/adapters/cache"
	"github.com/okian/sportplanner/internal/adapters/http/api"
	"github.com/okian/sportplanner/internal/adapters/mq/queue"
	"github.com/okian/sportplanner/internal/adapters/mq/worker"
	"github.com/okian/sportplanner/internal/adapters/repository"
	"github.com/okian/sportplanner/internal/domain/interpretation"
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/proposal"
	"github.com/okian/sportplanner/internal/domain/schedule"
	"github.com/okian/sportplanner/internal/domain/session"
	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// Service implements the API dependencies for the planning engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	cache    cache.ProposalCache
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	resolver *interpretation.Resolver
	engine   *proposal.Engine
	expander *schedule.Expander
	planner  *session.Planner

	// Configuration
	workerCount    int
	queueSize      int
	cacheSize      int
	cacheTTL       time.Duration
	conceptMinutes int
	warmCache      bool
	now            func() time.Time

	// State
	started  bool
	stopPool context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the catalog. The service closes it on Stop. Defaults to an
// empty in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache sets the proposal cache. The service closes it on Stop. Defaults
// to an in-memory cache sized by WithCacheSize and WithCacheTTL.
func WithCache(c cache.ProposalCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the refresh queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheSize bounds the default in-memory cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithCacheTTL sets how long cached proposals stay fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithDefaultConceptMinutes sets a concept's session length before any
// interpretation scales it.
func WithDefaultConceptMinutes(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.conceptMinutes = minutes
		}
	}
}

// WithWarmCache enqueues a refresh for every known team on Start.
func WithWarmCache(enabled bool) Option {
	return func(s *Service) {
		s.warmCache = enabled
	}
}

// WithClock sets the time source for refresh jobs and proposals.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		cacheSize:      cache.DefaultMaxSize,
		cacheTTL:       cache.DefaultTTL,
		conceptMinutes: session.DefaultConceptMinutes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the domain components and starts the refresh workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting planning service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Warn(ctx, "no store configured, using an empty in-memory catalog")
	}
	if err := s.store.Ping(ctx); err != nil {
		if cErr := s.closeBackends(); cErr != nil {
			s.logger.Warn(ctx, "closing backends after failed start", logger.Error(cErr))
		}
		return fmt.Errorf("ping store: %w", err)
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(cache.WithMaxSize(s.cacheSize), cache.WithTTL(s.cacheTTL))
	}

	s.resolver = interpretation.NewResolver(s.store)
	s.engine = proposal.NewEngine(s.store, proposal.WithClock(s.now))
	s.expander = schedule.NewExpander(s.store)
	s.planner = session.NewPlanner(s.store, s.resolver, session.WithDefaultDuration(s.conceptMinutes))

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s.cache)
	// Workers outlive ctx so Stop can drain queued refreshes.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPool = cancel
	s.pool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "planning service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("cacheTTL", s.cacheTTL),
	)

	if s.warmCache {
		s.warm(ctx)
	}
	return nil
}

// warm queues a refresh for every team until the queue fills up.
func (s *Service) warm(ctx context.Context) {
	ids, err := s.store.TeamIDs(ctx)
	if err != nil {
		s.logger.Warn(ctx, "cache warm-up skipped", logger.Error(err))
		return
	}
	queued := 0
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, s.newJob(id)); err != nil {
			s.logger.Warn(ctx, "cache warm-up stopped early",
				logger.Int("queued", queued),
				logger.Int("teams", len(ids)),
				logger.Error(err),
			)
			return
		}
		queued++
	}
	s.logger.Info(ctx, "cache warm-up queued", logger.Int("teams", queued))
}

// Stop drains the workers and closes the cache and store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping planning service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop workers: %w", err))
	}
	s.stopPool()
	if err := s.closeBackends(); err != nil {
		errs = append(errs, err)
	}

	s.started = false
	s.logger.Info(ctx, "planning service stopped")
	return errors.Join(errs...)
}

// closeBackends releases the cache and the store. Either may be nil when
// Start failed early.
func (s *Service) closeBackends() error {
	var errs []error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) newJob(teamID int64) queue.Job {
	return model.RefreshJob{ID: uuid.New(), TeamID: teamID, RequestedAt: s.now()}
}

// GenerateProposals runs the engine for a custom request. Results are not
// cached since they depend on request parameters.
func (s *Service) GenerateProposals(ctx context.Context, req proposal.Request) (*types.ProposalResponse, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.engine.Generate(ctx, req)
}

// ProposalsForTeam returns the default proposal for teamID, from the cache
// when fresh. A cache failure falls through to the engine.
func (s *Service) ProposalsForTeam(ctx context.Context, teamID int64) (*types.ProposalResponse, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}

	resp, ok, err := s.cache.Get(ctx, teamID)
	if err != nil {
		s.logger.Warn(ctx, "proposal cache read failed", logger.Int64("team_id", teamID), logger.Error(err))
	} else if ok {
		return resp, nil
	}

	resp, err = s.engine.ForTeam(ctx, teamID)
	if err != nil || resp == nil {
		return resp, err
	}
	if err := s.cache.Set(ctx, teamID, resp); err != nil {
		s.logger.Warn(ctx, "proposal cache write failed", logger.Int64("team_id", teamID), logger.Error(err))
	}
	return resp, nil
}

// RequestRefresh queues a background regeneration of teamID's cached
// proposal. A full or closed queue is reported as backpressure.
func (s *Service) RequestRefresh(ctx context.Context, teamID int64) (uuid.UUID, error) {
	const op = "service.request_refresh"
	if !s.running() {
		return uuid.Nil, ErrNotStarted
	}
	if teamID <= 0 {
		return uuid.Nil, model.Invalid("teamId", "must be a positive integer")
	}
	if _, err := s.store.Team(ctx, teamID); err != nil {
		return uuid.Nil, err
	}

	job := s.newJob(teamID)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return uuid.Nil, api.WrapKind(op, api.ErrBackpressure, err)
		}
		return uuid.Nil, err
	}
	s.logger.Debug(ctx, "refresh queued",
		logger.String("job_id", job.ID.String()),
		logger.Int64("team_id", teamID),
	)
	return job.ID, nil
}

// Occurrences expands a schedule between two dates, both inclusive.
func (s *Service) Occurrences(ctx context.Context, scheduleID int64, from, to time.Time) ([]types.Occurrence, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.expander.Generate(ctx, scheduleID, from, to)
}

// CreateSession fills a session from the schedule's plan concepts.
func (s *Service) CreateSession(ctx context.Context, scheduleID int64, req session.Request) (*model.SessionPlan, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.planner.CreateFromPlan(ctx, scheduleID, req)
}

// ResolveInterpretation returns the most specific override of conceptID
// for scope, or nil when none applies. A scope naming only a team is
// widened with the team's current category and level.
func (s *Service) ResolveInterpretation(ctx context.Context, conceptID int64, scope model.Scope) (*model.Interpretation, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	if scope.TeamID != nil && scope.TeamCategoryID == nil && scope.TeamLevelID == nil {
		team, err := s.store.Team(ctx, *scope.TeamID)
		if err != nil {
			return nil, err
		}
		scope = model.ScopeFor(team)
	}
	return s.resolver.Resolve(ctx, conceptID, scope)
}

// Ping checks the catalog backend.
func (s *Service) Ping(ctx context.Context) error {
	if !s.running() {
		return ErrNotStarted
	}
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":   s.started,
		"queueSize": s.queueSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = queueLen
	metrics.UpdateQueueSize(queueLen)

	if n, err := s.cache.Len(ctx); err == nil {
		stats["cachedProposals"] = n
	} else {
		s.logger.Warn(ctx, "cache size unavailable", logger.Error(err))
	}

	if counts, err := s.store.Counts(ctx); err == nil {
		stats["catalog"] = counts
		for kind, n := range counts {
			metrics.UpdateCatalogSize(kind, n)
		}
	} else {
		s.logger.Warn(ctx, "catalog counts unavailable", logger.Error(err))
	}
	return stats
}
