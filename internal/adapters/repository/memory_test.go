package repository_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/sportplanner/internal/adapters/repository"
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func loadTestdata(t *testing.T) *repository.MemoryStore {
	t.Helper()
	seed, err := repository.LoadSeedFile("testdata/catalog.yaml")
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	store := repository.NewMemoryStore()
	if err := store.Load(context.Background(), seed); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

func TestSeed(t *testing.T) {
	Convey("Given the test catalog file", t, func() {
		seed, err := repository.LoadSeedFile("testdata/catalog.yaml")
		So(err, ShouldBeNil)

		Convey("Then development levels decode from strings and numbers", func() {
			So(seed.Concepts[0].Level(), ShouldEqual, 4)
			So(seed.Concepts[1].Level(), ShouldEqual, 6)
		})

		Convey("Then slot days decode from names and numbers", func() {
			def := seed.Schedules[0].Definition()
			So(def.Slots[0].Weekday, ShouldEqual, time.Monday)
			So(def.Slots[1].Weekday, ShouldEqual, time.Wednesday)
			So(def.StartDate.Format("2006-01-02"), ShouldEqual, "2025-09-01")
		})
	})

	Convey("Given malformed seeds", t, func() {
		Convey("When a field is unknown", func() {
			_, err := repository.ParseSeed(strings.NewReader("teams:\n  - id: 1\n    colour: blue\n"))
			So(err, ShouldNotBeNil)
		})

		Convey("When a weekday is not a day", func() {
			_, err := repository.ParseSeed(strings.NewReader("schedules:\n  - id: 1\n    slots:\n      - day: someday\n"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown weekday")
		})

		Convey("When the document is empty", func() {
			seed, err := repository.ParseSeed(strings.NewReader(""))
			So(err, ShouldBeNil)
			So(seed.Teams, ShouldBeEmpty)
		})

		Convey("When the file is missing", func() {
			_, err := repository.LoadSeedFile("testdata/missing.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMemoryStore_Reads(t *testing.T) {
	Convey("Given a loaded memory store", t, func() {
		ctx := context.Background()
		store := loadTestdata(t)

		Convey("When reading a team", func() {
			team, err := store.Team(ctx, 1)

			Convey("Then its category and level are resolved", func() {
				So(err, ShouldBeNil)
				So(team.Name, ShouldEqual, "U14 Blue")
				So(team.Category.Name, ShouldEqual, "U14")
				So(*team.Category.MinAge, ShouldEqual, 13)
				So(team.Level.Rank, ShouldEqual, 3)
			})
		})

		Convey("When reading a team without category", func() {
			team, err := store.Team(ctx, 2)

			Convey("Then the accessors report none", func() {
				So(err, ShouldBeNil)
				So(team.CategoryID(), ShouldBeNil)
				So(team.LevelID(), ShouldBeNil)
			})
		})

		Convey("When reading an unknown team", func() {
			_, err := store.Team(ctx, 999)

			Convey("Then a not found error is returned", func() {
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing", func() {
			ids, _ := store.TeamIDs(ctx)
			bySport, _ := store.ConceptsBySport(ctx, 1)
			none, _ := store.ConceptsBySport(ctx, 2)
			byIDs, _ := store.ConceptsByIDs(ctx, []int64{102, 999, 100})
			cats, _ := store.Categories(ctx)
			interps, _ := store.InterpretationsForConcept(ctx, 100)

			Convey("Then results are complete and ordered", func() {
				So(ids, ShouldResemble, []int64{1, 2, 3})
				So(bySport, ShouldHaveLength, 3)
				So(bySport[0].ID, ShouldEqual, int64(100))
				So(none, ShouldBeEmpty)
				So(byIDs, ShouldHaveLength, 2)
				So(byIDs[0].ID, ShouldEqual, int64(102))
				So(cats, ShouldHaveLength, 4)
				So(interps, ShouldHaveLength, 1)
				So(interps[0].DurationMultiplier, ShouldEqual, 1.5)
			})
		})

		Convey("When reading a schedule", func() {
			def, err := store.Schedule(ctx, 1)
			So(err, ShouldBeNil)
			def.PlanConceptIDs[0] = 0
			again, _ := store.Schedule(ctx, 1)

			Convey("Then callers get their own copy", func() {
				So(again.PlanConceptIDs, ShouldResemble, []int64{101, 100, 102})
			})
		})

		Convey("When counting", func() {
			counts, err := store.Counts(ctx)

			Convey("Then every kind is reported", func() {
				So(err, ShouldBeNil)
				So(counts[repository.CountTeams], ShouldEqual, 3)
				So(counts[repository.CountConcepts], ShouldEqual, 3)
				So(counts[repository.CountCategories], ShouldEqual, 4)
				So(counts[repository.CountInterpretations], ShouldEqual, 1)
				So(counts[repository.CountSchedules], ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStore_LoadValidation(t *testing.T) {
	Convey("Given a store with a valid catalog", t, func() {
		ctx := context.Background()
		store := loadTestdata(t)

		Convey("When loading a catalog with a category cycle", func() {
			err := store.Load(ctx, &repository.Seed{Categories: []model.ConceptCategory{
				{ID: 1, Name: "A", ParentID: model.Int64(2)},
				{ID: 2, Name: "B", ParentID: model.Int64(1)},
			}})

			Convey("Then it is rejected and the old catalog stays", func() {
				So(errors.Is(err, repository.ErrCategoryCycle), ShouldBeTrue)
				_, terr := store.Team(ctx, 1)
				So(terr, ShouldBeNil)
			})
		})

		Convey("When a team references an unknown category", func() {
			err := store.Load(ctx, &repository.Seed{Teams: []repository.SeedTeam{{ID: 1, CategoryID: model.Int64(5)}}})
			So(errors.Is(err, repository.ErrUnknownReference), ShouldBeTrue)
		})

		Convey("When a category parent is missing", func() {
			err := store.Load(ctx, &repository.Seed{Categories: []model.ConceptCategory{{ID: 1, ParentID: model.Int64(9)}}})
			So(errors.Is(err, repository.ErrUnknownReference), ShouldBeTrue)
		})

		Convey("When ids repeat", func() {
			err := store.Load(ctx, &repository.Seed{Concepts: []model.Concept{{ID: 1}, {ID: 1}}})
			So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
		})

		Convey("When an interpretation has no scope", func() {
			err := store.Load(ctx, &repository.Seed{
				Concepts:        []model.Concept{{ID: 1}},
				Interpretations: []model.Interpretation{{ID: 1, ConceptID: 1}},
			})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a schedule has no slots", func() {
			err := store.Load(ctx, &repository.Seed{
				Teams: []repository.SeedTeam{{ID: 1}},
				Schedules: []repository.SeedSchedule{{
					ID: 1, TeamID: 1,
					StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
					EndDate:   time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
				}},
			})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}
