// Package scoring computes how suitable a concept is for a team. Every
// function here is pure; the tunable parts live in Curve and the Scorer
// options.
package scoring

import (
	"math"
	"strings"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/types"
)

// SuggestedThreshold splits suggested from optional concepts. Fixed.
const SuggestedThreshold = 0.70

// Default weights.
const (
	defaultDevelopmentWeight = 0.10
	defaultTeamLevelWeight   = 0.05
	defaultTeamLevelStep     = 0.02
	defaultPureTechBonus     = 0.15
	defaultPureTechMaxAge    = 12
	neutralMatch             = 0.5
	lowLevelTeamAverage      = 4.0

	// Expected development levels are on a 1..6 scale.
	minDevelopmentLevel     = 1
	maxDevelopmentLevel     = 6
	defaultDevelopmentLevel = 3

	// Each windowStep points of average team level away from windowNeutral
	// shifts the level window by one stage.
	windowNeutral = 5.0
	windowStep    = 2.5
)

// Curve maps a signed distance (required - current) to a match in [0,1]. It
// peaks at 0, stays high at +1 and decays past three levels either way.
type Curve struct {
	TooEasy          float64 // d < -3
	Easy             float64 // d == -3
	Comfortable      float64 // d == -2
	Foundation       float64 // d == -1
	Perfect          float64 // d == 0
	OptimalChallenge float64 // d == +1
	Stretch          float64 // d == +2
	Challenging      float64 // d == +3
	TooHard          float64 // d > +3
}

// DefaultCurve is calibrated so that a matching concept scores well above
// SuggestedThreshold and one four or more levels away scores well below.
var DefaultCurve = Curve{
	TooEasy:          0.30,
	Easy:             0.50,
	Comfortable:      0.70,
	Foundation:       0.85,
	Perfect:          1.00,
	OptimalChallenge: 0.95,
	Stretch:          0.75,
	Challenging:      0.50,
	TooHard:          0.20,
}

// Match returns the curve value for distance d.
func (c Curve) Match(d int) float64 {
	switch {
	case d < -3:
		return c.TooEasy
	case d == -3:
		return c.Easy
	case d == -2:
		return c.Comfortable
	case d == -1:
		return c.Foundation
	case d == 0:
		return c.Perfect
	case d == 1:
		return c.OptimalChallenge
	case d == 2:
		return c.Stretch
	case d == 3:
		return c.Challenging
	default:
		return c.TooHard
	}
}

// Weights are the technical and tactical shares of the score.
type Weights struct {
	Technical float64
	Tactical  float64
}

// WeightsByAge favours technique for young teams and tactics for older ones.
func WeightsByAge(minAge *int) Weights {
	if minAge == nil {
		return Weights{0.50, 0.35}
	}
	switch age := *minAge; {
	case age <= 8:
		return Weights{0.80, 0.05}
	case age <= 10:
		return Weights{0.75, 0.10}
	case age <= 12:
		return Weights{0.65, 0.20}
	case age <= 14:
		return Weights{0.50, 0.35}
	case age <= 16:
		return Weights{0.40, 0.45}
	default:
		return Weights{0.35, 0.50}
	}
}

// ExpectedDevelopmentLevel maps a team category to the curriculum stage it
// should be working on: by minimum age first, then by name, else the middle.
func ExpectedDevelopmentLevel(c *model.TeamCategory) int {
	if c == nil {
		return defaultDevelopmentLevel
	}
	if c.MinAge != nil {
		switch age := *c.MinAge; {
		case age <= 8:
			return 1
		case age <= 10:
			return 2
		case age <= 12:
			return 3
		case age <= 14:
			return 4
		case age <= 16:
			return 5
		default:
			return 6
		}
	}
	name := strings.ToLower(c.Name)
	for _, p := range namePatterns {
		for _, token := range p.tokens {
			if strings.Contains(name, token) {
				return p.level
			}
		}
	}
	return defaultDevelopmentLevel
}

var namePatterns = []struct {
	tokens []string
	level  int
}{
	{[]string{"mini", "school"}, 1},
	{[]string{"u10", "pre"}, 2},
	{[]string{"u12"}, 3},
	{[]string{"u14"}, 4},
	{[]string{"u16", "cadet"}, 5},
	{[]string{"junior", "senior"}, 6},
}

// LevelWindow returns the range of development levels appropriate for a
// team: stronger teams reach higher, weaker teams reach back further.
func LevelWindow(expected, technical, tactical, offset int) (minLevel, maxLevel int) {
	avg := float64(technical+tactical) / 2
	adjustment := (avg-windowNeutral)/windowStep + float64(offset)

	if adjustment >= 0 {
		minLevel = max(minDevelopmentLevel, expected-1)
		maxLevel = min(maxDevelopmentLevel, expected+int(math.Ceil(adjustment))+1)
	} else {
		minLevel = max(minDevelopmentLevel, expected+int(math.Floor(adjustment))-1)
		maxLevel = expected
	}
	if maxLevel-minLevel < 1 {
		maxLevel = min(maxDevelopmentLevel, minLevel+1)
	}
	return minLevel, maxLevel
}

// Input is everything needed to score one concept for one team.
type Input struct {
	Concept     model.Concept
	Team        model.Team
	LevelOffset int
	// ExpectedLevel overrides the category-derived expected development
	// level when > 0.
	ExpectedLevel int
}

// Result is the outcome of scoring a concept.
type Result struct {
	Score        float64
	TechDistance int
	TacDistance  int
	Priority     types.Priority
	Tag          types.Tag
	Reason       string
}

// Suggested reports whether the score clears SuggestedThreshold.
func (r Result) Suggested() bool { return r.Score >= SuggestedThreshold }

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithCurve replaces the distance curve.
func WithCurve(c Curve) Option {
	return func(s *Scorer) { s.curve = c }
}

// WithDevelopmentWeight sets the share of the development level match.
func WithDevelopmentWeight(w float64) Option {
	return func(s *Scorer) {
		if w >= 0 {
			s.developmentWeight = w
		}
	}
}

// WithTeamLevelBonus sets the per-rank bonus step and its cap.
func WithTeamLevelBonus(step, limit float64) Option {
	return func(s *Scorer) {
		if step >= 0 && limit >= 0 {
			s.teamLevelStep = step
			s.teamLevelWeight = limit
		}
	}
}

// WithPureTechnicalBonus sets the bonus for tactic-free concepts given to
// teams whose minimum age is at most maxAge.
func WithPureTechnicalBonus(bonus float64, maxAge int) Option {
	return func(s *Scorer) {
		if bonus >= 0 {
			s.pureTechBonus = bonus
			s.pureTechMaxAge = maxAge
		}
	}
}

// Scorer scores concepts. It holds only immutable parameters and is safe
// for concurrent use.
type Scorer struct {
	curve             Curve
	developmentWeight float64
	teamLevelWeight   float64
	teamLevelStep     float64
	pureTechBonus     float64
	pureTechMaxAge    int
}

// New creates a Scorer with the default calibration.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		curve:             DefaultCurve,
		developmentWeight: defaultDevelopmentWeight,
		teamLevelWeight:   defaultTeamLevelWeight,
		teamLevelStep:     defaultTeamLevelStep,
		pureTechBonus:     defaultPureTechBonus,
		pureTechMaxAge:    defaultPureTechMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the suitability of in.Concept for in.Team.
func (s *Scorer) Score(in Input) Result {
	c := &in.Concept
	team := &in.Team
	expected := in.ExpectedLevel
	if expected <= 0 {
		expected = ExpectedDevelopmentLevel(team.Category)
	}

	technical := team.CurrentTechnicalLevel + in.LevelOffset
	tactical := team.CurrentTacticalLevel + in.LevelOffset
	techDist := c.TechnicalDifficulty - technical
	tacDist := c.TacticalComplexity - tactical

	w := WeightsByAge(team.MinAge())
	score := s.curve.Match(techDist) * w.Technical

	// A concept without tactical content puts no tactical barrier up.
	if c.TacticalComplexity == 0 {
		score += w.Tactical
	} else {
		score += s.curve.Match(tacDist) * w.Tactical
	}

	if c.HasDevelopmentLevel() {
		score += s.curve.Match(c.Level()-expected) * s.developmentWeight
	} else {
		score += neutralMatch * s.developmentWeight
	}

	if team.Level != nil {
		score += math.Min(float64(team.Level.Rank-1)*s.teamLevelStep, s.teamLevelWeight)
	} else {
		score += neutralMatch * s.teamLevelWeight
	}

	if age := team.MinAge(); age != nil && *age <= s.pureTechMaxAge && c.TacticalComplexity == 0 {
		score += s.pureTechBonus
	}

	return Result{
		Score:        clamp(score),
		TechDistance: techDist,
		TacDistance:  tacDist,
		Priority:     PriorityFor(c, techDist, tacDist),
		Tag:          TagFor(c, expected, technical, tactical),
		Reason:       Reason(c, techDist, tacDist, expected),
	}
}

// PriorityFor tags concepts exactly one level above the team as
// Progressive. Tactical distance only counts for concepts with tactical
// content.
func PriorityFor(c *model.Concept, techDist, tacDist int) types.Priority {
	if techDist == 1 || (c.TacticalComplexity > 0 && tacDist == 1) {
		return types.PriorityProgressive
	}
	return types.PriorityStandard
}

// TagFor relates a concept's stage to the team's expected stage.
func TagFor(c *model.Concept, expected, technical, tactical int) types.Tag {
	if !c.HasDevelopmentLevel() {
		return types.TagOwn
	}
	diff := c.Level() - expected
	lowLevelTeam := float64(technical+tactical)/2 < lowLevelTeamAverage
	switch {
	case diff == 0:
		return types.TagOwn
	case diff < 0 && lowLevelTeam:
		return types.TagReinforcement
	case diff < 0:
		return types.TagInherited
	default:
		return types.TagAspirational
	}
}

// Reason builds a short human-readable explanation of a score.
func Reason(c *model.Concept, techDist, tacDist, expected int) string {
	reasons := make([]string, 0, 3)
	reasons = append(reasons, describe(techDist, "technical"))
	if c.TacticalComplexity > 0 {
		reasons = append(reasons, describe(tacDist, "tactical"))
	}
	if c.HasDevelopmentLevel() {
		switch c.Level() - expected {
		case 0:
			reasons = append(reasons, "ideal development stage")
		case 1:
			reasons = append(reasons, "natural next stage")
		}
	}
	out := strings.Join(reasons, ", ")
	return strings.ToUpper(out[:1]) + out[1:]
}

func describe(d int, aspect string) string {
	switch {
	case d >= -1 && d <= 1:
		return aspect + " level fits"
	case d < -1:
		return aspect + " level already mastered"
	case d == 2:
		return "achievable " + aspect + " stretch"
	default:
		return aspect + " level too advanced"
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
