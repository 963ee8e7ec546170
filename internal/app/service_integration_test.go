package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sportplanner/internal/adapters/http/api"
	"github.com/okian/sportplanner/internal/adapters/repository"
	service "github.com/okian/sportplanner/internal/app"
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/proposal"
	"github.com/okian/sportplanner/internal/domain/session"
	"github.com/okian/sportplanner/internal/domain/types"
)

func seededStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	seed, err := repository.LoadSeedFile(catalogPath)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	store := repository.NewMemoryStore()
	if err := store.Load(context.Background(), seed); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

// tickingClock advances one second per reading so every generation gets a
// distinct timestamp.
func tickingClock() func() time.Time {
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service over the test catalog", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(
			service.WithStore(seededStore(t)),
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithClock(tickingClock()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a team's proposal is requested twice", func() {
			first, err := svc.ProposalsForTeam(ctx, 1)
			So(err, ShouldBeNil)
			second, err := svc.ProposalsForTeam(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then the second answer should come from the cache", func() {
				So(first, ShouldNotBeNil)
				So(second.GeneratedAt, ShouldEqual, first.GeneratedAt)
				So(svc.GetStats(ctx)["cachedProposals"], ShouldEqual, int64(1))
			})
		})

		Convey("When an unknown team's proposal is requested", func() {
			resp, err := svc.ProposalsForTeam(ctx, 999)

			Convey("Then there should be no proposal and no error", func() {
				So(err, ShouldBeNil)
				So(resp, ShouldBeNil)
			})
		})

		Convey("When a custom proposal is generated", func() {
			resp, err := svc.GenerateProposals(ctx, proposal.Request{TeamID: 1, ExcludeCategoryIDs: []int64{3}})

			Convey("Then it should skip the excluded subtree and bypass the cache", func() {
				So(err, ShouldBeNil)
				for _, sc := range append(resp.Suggested(), flattenOptional(resp)...) {
					So(sc.Concept.ID, ShouldNotEqual, 101)
				}
				So(svc.GetStats(ctx)["cachedProposals"], ShouldEqual, int64(0))
			})
		})

		Convey("When a refresh is requested", func() {
			first, err := svc.ProposalsForTeam(ctx, 1)
			So(err, ShouldBeNil)

			jobID, err := svc.RequestRefresh(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then the cache should eventually hold a newer proposal", func() {
				So(jobID.String(), ShouldNotBeEmpty)
				deadline := time.Now().Add(5 * time.Second)
				var latest *types.ProposalResponse
				for time.Now().Before(deadline) {
					latest, err = svc.ProposalsForTeam(ctx, 1)
					So(err, ShouldBeNil)
					if latest.GeneratedAt.After(first.GeneratedAt) {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(latest.GeneratedAt, ShouldHappenAfter, first.GeneratedAt)
			})
		})

		Convey("When a refresh is requested for an unknown team", func() {
			_, err := svc.RequestRefresh(ctx, 999)

			Convey("Then it should be not found", func() {
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a schedule is expanded over its first week", func() {
			from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
			occ, err := svc.Occurrences(ctx, 1, from, from.AddDate(0, 0, 6))

			Convey("Then Monday and Wednesday should be listed", func() {
				So(err, ShouldBeNil)
				So(occ, ShouldHaveLength, 2)
				So(occ[0].Date.Weekday(), ShouldEqual, time.Monday)
				So(occ[1].Date.Weekday(), ShouldEqual, time.Wednesday)
			})
		})

		Convey("When a 30 minute session is planned", func() {
			plan, err := svc.CreateSession(ctx, 1, session.Request{
				StartAt:         time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC),
				DurationMinutes: 30,
			})

			Convey("Then the two easiest concepts should fill it", func() {
				So(err, ShouldBeNil)
				So(plan.TeamID, ShouldEqual, 1)
				So(plan.Concepts, ShouldHaveLength, 2)
				So(plan.Concepts[0].ConceptID, ShouldEqual, 102)
				So(plan.Concepts[1].ConceptID, ShouldEqual, 100)
				So(plan.AllocatedMinutes(), ShouldEqual, 30)
			})
		})

		Convey("When an interpretation is resolved", func() {
			u10, u14 := int64(10), int64(14)
			hit, err := svc.ResolveInterpretation(ctx, 100, model.Scope{TeamCategoryID: &u10})
			So(err, ShouldBeNil)
			miss, err := svc.ResolveInterpretation(ctx, 100, model.Scope{TeamCategoryID: &u14})
			So(err, ShouldBeNil)

			Convey("Then only the matching category should get the override", func() {
				So(hit, ShouldNotBeNil)
				So(hit.ID, ShouldEqual, 1)
				So(miss, ShouldBeNil)
			})
		})

		Convey("When an interpretation is resolved for a team alone", func() {
			green, red, ghost := int64(3), int64(2), int64(999)
			assigned, err := svc.ResolveInterpretation(ctx, 100, model.Scope{TeamID: &green})
			So(err, ShouldBeNil)
			unassigned, err := svc.ResolveInterpretation(ctx, 100, model.Scope{TeamID: &red})
			So(err, ShouldBeNil)
			_, unknownErr := svc.ResolveInterpretation(ctx, 100, model.Scope{TeamID: &ghost})

			Convey("Then the team's current category decides the override", func() {
				So(assigned, ShouldNotBeNil)
				So(assigned.ID, ShouldEqual, 1)
				So(unassigned, ShouldBeNil)
				So(errors.Is(unknownErr, model.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a single worker stuck on a slow cache and a queue of one", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		slow := newBlockingCache()
		svc := service.New(
			service.WithStore(seededStore(t)),
			service.WithCache(slow),
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		defer slow.release()

		_, err := svc.RequestRefresh(ctx, 1)
		So(err, ShouldBeNil)
		<-slow.entered

		Convey("When refreshes keep arriving", func() {
			// The worker's feeder holds at most one job and the queue one
			// more, so the third request cannot fit.
			var accepted int
			for i := range 3 {
				if _, err = svc.RequestRefresh(ctx, int64(i+1)); err != nil {
					break
				}
				accepted++
			}

			Convey("Then one should be rejected as backpressure", func() {
				So(accepted, ShouldBeLessThan, 3)
				So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			})
		})
	})
}

func flattenOptional(resp *types.ProposalResponse) []types.ScoredConcept {
	var out []types.ScoredConcept
	for _, g := range resp.OptionalGroups {
		out = append(out, g.Concepts...)
	}
	return out
}

// blockingCache misses every read and holds writers until released.
type blockingCache struct {
	entered  chan struct{}
	unblock  chan struct{}
	once     sync.Once
	announce sync.Once
}

func newBlockingCache() *blockingCache {
	return &blockingCache{entered: make(chan struct{}), unblock: make(chan struct{})}
}

func (c *blockingCache) release() { c.once.Do(func() { close(c.unblock) }) }

func (c *blockingCache) Get(context.Context, int64) (*types.ProposalResponse, bool, error) {
	return nil, false, nil
}

func (c *blockingCache) Set(ctx context.Context, _ int64, _ *types.ProposalResponse) error {
	c.announce.Do(func() { close(c.entered) })
	select {
	case <-c.unblock:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *blockingCache) Invalidate(context.Context, int64) error { return nil }
func (c *blockingCache) Len(context.Context) (int64, error)      { return 0, nil }
func (c *blockingCache) Close() error                             { return nil }
