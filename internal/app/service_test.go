package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sportplanner/internal/adapters/cache"
	"github.com/okian/sportplanner/internal/adapters/repository"
	service "github.com/okian/sportplanner/internal/app"
	"github.com/okian/sportplanner/internal/config"
	"github.com/okian/sportplanner/internal/domain/proposal"
	"github.com/okian/sportplanner/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const catalogPath = "../adapters/repository/testdata/catalog.yaml"

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report itself as stopped", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats(context.Background())["started"], ShouldEqual, false)
		})

		Convey("Then every operation should refuse to run", func() {
			ctx := context.Background()
			_, err := svc.GenerateProposals(ctx, proposal.Request{TeamID: 1})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.ProposalsForTeam(ctx, 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.RequestRefresh(ctx, 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(svc.Ping(ctx), service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.Ping(ctx), ShouldBeNil)
			})

			Convey("And a second start should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stats should describe the running components", func() {
				stats := svc.GetStats(ctx)
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 8)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["cachedProposals"], ShouldEqual, int64(0))
				So(stats["catalog"], ShouldNotBeNil)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			err := svc.Stop(ctx)

			Convey("Then it should be marked as stopped", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
			})

			Convey("And stopping again should be a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

// unreachableStore fails every ping and counts Close calls.
type unreachableStore struct {
	*repository.MemoryStore
	closed atomic.Int32
}

func (s *unreachableStore) Ping(context.Context) error { return errors.New("connection refused") }

func (s *unreachableStore) Close() error {
	s.closed.Add(1)
	return nil
}

type countingCache struct {
	*cache.MemoryCache
	closed atomic.Int32
}

func (c *countingCache) Close() error {
	c.closed.Add(1)
	return c.MemoryCache.Close()
}

func TestService_StartFailure(t *testing.T) {
	Convey("Given a service whose store cannot be reached", t, func() {
		ctx := context.Background()
		store := &unreachableStore{MemoryStore: repository.NewMemoryStore()}
		c := &countingCache{MemoryCache: cache.NewMemoryCache()}
		svc := service.New(service.WithStore(store), service.WithCache(c))

		err := svc.Start(ctx)

		Convey("Then start fails and the opened backends are released", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection refused")
			So(store.closed.Load(), ShouldEqual, 1)
			So(c.closed.Load(), ShouldEqual, 1)
			So(svc.GetStats(ctx)["started"], ShouldEqual, false)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given a config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WarmCache = false

		Convey("When the memory backend has a seed file", func() {
			cfg.SeedPath = catalogPath
			svc, err := service.Open(ctx, cfg)
			So(err, ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then the catalog should be loaded", func() {
				resp, err := svc.ProposalsForTeam(ctx, 1)
				So(err, ShouldBeNil)
				So(resp, ShouldNotBeNil)
				So(resp.Team.Name, ShouldEqual, "U14 Blue")
			})
		})

		Convey("When the seed file does not exist", func() {
			cfg.SeedPath = "testdata/missing.yaml"
			_, err := service.Open(ctx, cfg)

			Convey("Then Open should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
