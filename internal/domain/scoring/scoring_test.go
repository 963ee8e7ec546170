package scoring_test

import (
	"testing"

	"github.com/okian/sportplanner/internal/domain/model"
	scoring "github.com/okian/sportplanner/internal/domain/scoring"
	"github.com/okian/sportplanner/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func u14Team() model.Team {
	return model.Team{
		ID: 1, CurrentTechnicalLevel: 5, CurrentTacticalLevel: 5,
		Category: &model.TeamCategory{ID: 14, Name: "U14", MinAge: model.Int(13), MaxAge: model.Int(14)},
	}
}

func u10Team() model.Team {
	return model.Team{
		ID: 2, CurrentTechnicalLevel: 2, CurrentTacticalLevel: 2,
		Category: &model.TeamCategory{ID: 10, Name: "U10", MinAge: model.Int(9), MaxAge: model.Int(10)},
	}
}

func concept(tech, tac, level int) model.Concept {
	return model.Concept{ID: 1, TechnicalDifficulty: tech, TacticalComplexity: tac, DevelopmentLevel: model.Level(level), IsActive: true}
}

func TestScorer_Thresholds(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.New()

		Convey("When a U14 team at 5/5 meets a matching level-4 concept", func() {
			r := s.Score(scoring.Input{Concept: concept(5, 5, 4), Team: u14Team()})

			Convey("Then it is suggested", func() {
				So(r.Score, ShouldAlmostEqual, 0.975, tolerance)
				So(r.Suggested(), ShouldBeTrue)
				So(r.Priority, ShouldEqual, types.PriorityStandard)
				So(r.Tag, ShouldEqual, types.TagOwn)
			})
		})

		Convey("When a U10 team at 2/2 meets an advanced level-6 concept", func() {
			r := s.Score(scoring.Input{Concept: concept(9, 9, 6), Team: u10Team()})

			Convey("Then it falls well below the threshold", func() {
				So(r.Score, ShouldAlmostEqual, 0.215, tolerance)
				So(r.Suggested(), ShouldBeFalse)
				So(r.TechDistance, ShouldEqual, 7)
				So(r.Tag, ShouldEqual, types.TagAspirational)
			})
		})

		Convey("When comparing distance 0 with distance 4", func() {
			team := model.Team{CurrentTechnicalLevel: 5, CurrentTacticalLevel: 5}
			near := s.Score(scoring.Input{Concept: concept(5, 5, 3), Team: team})
			far := s.Score(scoring.Input{Concept: concept(9, 9, 3), Team: team})

			Convey("Then the matching concept scores strictly higher", func() {
				So(near.Score, ShouldBeGreaterThan, far.Score)
				So(far.Score, ShouldBeLessThan, scoring.SuggestedThreshold)
			})
		})

		Convey("When a concept is exactly one level harder", func() {
			team := model.Team{CurrentTechnicalLevel: 5, CurrentTacticalLevel: 5}
			r := s.Score(scoring.Input{Concept: concept(6, 6, 3), Team: team})

			Convey("Then it is Progressive and still suggested", func() {
				So(r.Priority, ShouldEqual, types.PriorityProgressive)
				So(r.Score, ShouldBeGreaterThanOrEqualTo, scoring.SuggestedThreshold)
				So(r.Score, ShouldAlmostEqual, 0.9325, tolerance)
			})
		})

		Convey("When the level offset raises the team's effective level", func() {
			team := model.Team{CurrentTechnicalLevel: 4, CurrentTacticalLevel: 4}
			r := s.Score(scoring.Input{Concept: concept(5, 5, 3), Team: team, LevelOffset: 1})

			Convey("Then distances are measured from the effective level", func() {
				So(r.TechDistance, ShouldEqual, 0)
				So(r.TacDistance, ShouldEqual, 0)
				So(r.Priority, ShouldEqual, types.PriorityStandard)
			})
		})

		Convey("When a young team meets a purely technical concept", func() {
			r := s.Score(scoring.Input{Concept: concept(2, 0, 2), Team: u10Team()})

			Convey("Then the bonus is applied and the score is clamped", func() {
				So(r.Score, ShouldEqual, 1.0)
			})
		})

		Convey("When the concept has no development level", func() {
			c := concept(5, 5, 0)
			c.DevelopmentLevel = nil
			r := s.Score(scoring.Input{Concept: c, Team: u14Team()})

			Convey("Then the development share is neutral", func() {
				So(r.Score, ShouldAlmostEqual, 0.85+0.05+0.025, tolerance)
				So(r.Tag, ShouldEqual, types.TagOwn)
			})
		})

		Convey("When the team has a level", func() {
			team := u14Team()
			team.Level = &model.TeamLevel{ID: 1, Rank: 3}
			r3 := s.Score(scoring.Input{Concept: concept(5, 5, 4), Team: team})
			team.Level.Rank = 9
			r9 := s.Score(scoring.Input{Concept: concept(5, 5, 4), Team: team})

			Convey("Then the bonus grows with rank up to its cap", func() {
				So(r3.Score, ShouldAlmostEqual, 0.95+0.04, tolerance)
				So(r9.Score, ShouldAlmostEqual, 1.0, tolerance)
			})
		})
	})
}

func TestScorer_Options(t *testing.T) {
	Convey("Given a scorer with a steeper curve and no development weight", t, func() {
		curve := scoring.DefaultCurve
		curve.OptimalChallenge = 0.5
		s := scoring.New(scoring.WithCurve(curve), scoring.WithDevelopmentWeight(0), scoring.WithTeamLevelBonus(0, 0))
		team := model.Team{CurrentTechnicalLevel: 5, CurrentTacticalLevel: 5}

		Convey("Then a +1 concept loses its suggestion", func() {
			r := s.Score(scoring.Input{Concept: concept(6, 6, 3), Team: team})
			So(r.Score, ShouldAlmostEqual, 0.425, tolerance)
			So(r.Suggested(), ShouldBeFalse)
		})
	})

	Convey("Given a scorer without the pure technical bonus", t, func() {
		s := scoring.New(scoring.WithPureTechnicalBonus(0, 0))

		Convey("Then a young team's tactic-free concept is not boosted", func() {
			r := s.Score(scoring.Input{Concept: concept(2, 0, 2), Team: u10Team()})
			So(r.Score, ShouldAlmostEqual, 0.75+0.10+0.10+0.025, tolerance)
		})
	})
}

func TestCurve(t *testing.T) {
	Convey("Given the default curve", t, func() {
		c := scoring.DefaultCurve

		Convey("Then it peaks at zero and favours +1 over -1", func() {
			So(c.Match(0), ShouldEqual, 1.0)
			So(c.Match(1), ShouldBeGreaterThan, c.Match(-1))
			So(c.Match(1), ShouldBeGreaterThanOrEqualTo, scoring.SuggestedThreshold)
		})

		Convey("Then it decays past three levels either way", func() {
			So(c.Match(4), ShouldEqual, 0.2)
			So(c.Match(12), ShouldEqual, 0.2)
			So(c.Match(-4), ShouldEqual, 0.3)
			So(c.Match(-3), ShouldBeGreaterThan, c.Match(-4))
			So(c.Match(3), ShouldBeGreaterThan, c.Match(4))
		})
	})
}

func TestExpectedDevelopmentLevel(t *testing.T) {
	Convey("Given team categories", t, func() {
		So(scoring.ExpectedDevelopmentLevel(nil), ShouldEqual, 3)
		So(scoring.ExpectedDevelopmentLevel(&model.TeamCategory{MinAge: model.Int(7)}), ShouldEqual, 1)
		So(scoring.ExpectedDevelopmentLevel(&model.TeamCategory{MinAge: model.Int(9)}), ShouldEqual, 2)
		So(scoring.ExpectedDevelopmentLevel(&model.TeamCategory{MinAge: model.Int(13)}), ShouldEqual, 4)
		So(scoring.ExpectedDevelopmentLevel(&model.TeamCategory{MinAge: model.Int(19)}), ShouldEqual, 6)
		So(scoring.ExpectedDevelopmentLevel(&model.TeamCategory{Name: "Cadet B"}), ShouldEqual, 5)
		So(scoring.ExpectedDevelopmentLevel(&model.TeamCategory{Name: "Veterans"}), ShouldEqual, 3)
	})
}

func TestLevelWindow(t *testing.T) {
	Convey("Given teams of different strength", t, func() {
		Convey("Then an average team gets one stage either side", func() {
			lo, hi := scoring.LevelWindow(4, 5, 5, 0)
			So(lo, ShouldEqual, 3)
			So(hi, ShouldEqual, 5)
		})

		Convey("Then a weak team reaches back", func() {
			lo, hi := scoring.LevelWindow(2, 2, 2, 0)
			So(lo, ShouldEqual, 1)
			So(hi, ShouldEqual, 2)
		})

		Convey("Then a strong team is capped at the top stage", func() {
			lo, hi := scoring.LevelWindow(6, 10, 10, 0)
			So(lo, ShouldEqual, 5)
			So(hi, ShouldEqual, 6)
		})

		Convey("Then a positive offset widens the top", func() {
			_, hi := scoring.LevelWindow(3, 5, 5, 1)
			So(hi, ShouldEqual, 5)
		})
	})
}

func TestTagFor(t *testing.T) {
	Convey("Given a concept below the expected stage", t, func() {
		c := concept(2, 2, 2)

		Convey("Then a weak team needs reinforcement", func() {
			So(scoring.TagFor(&c, 4, 2, 2), ShouldEqual, types.TagReinforcement)
		})

		Convey("Then a capable team inherits it", func() {
			So(scoring.TagFor(&c, 4, 6, 6), ShouldEqual, types.TagInherited)
		})
	})
}

func TestReason(t *testing.T) {
	Convey("Given a matching concept", t, func() {
		c := concept(5, 5, 4)
		So(scoring.Reason(&c, 0, 0, 4), ShouldEqual, "Technical level fits, tactical level fits, ideal development stage")
	})

	Convey("Given a tactic-free concept far above the team", t, func() {
		c := concept(9, 0, 6)
		So(scoring.Reason(&c, 5, -3, 2), ShouldEqual, "Technical level too advanced")
	})
}
