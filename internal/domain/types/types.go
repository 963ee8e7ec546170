// Package types contains the result shapes produced by the planning engine.
package types

import (
	"time"

	"github.com/okian/sportplanner/internal/domain/model"
)

// Priority is an informational tag attached to a scored concept.
type Priority string

// Priority values.
const (
	PriorityStandard    Priority = "Standard"
	PriorityProgressive Priority = "Progressive"
)

// Tag relates a concept's development level to the team's expected stage.
type Tag string

// Tag values.
const (
	TagOwn           Tag = "Own"
	TagInherited     Tag = "Inherited"
	TagReinforcement Tag = "Reinforcement"
	TagAspirational  Tag = "Aspirational"
)

// ScoredConcept is a concept with its suitability for one team.
type ScoredConcept struct {
	Concept      model.Concept `json:"concept"`
	Score        float64       `json:"score"`
	Priority     Priority      `json:"priorityTag"`
	Tag          Tag           `json:"tag"`
	Reason       string        `json:"reason"`
	TechDistance int           `json:"technicalDistance"`
	TacDistance  int           `json:"tacticalDistance"`
}

// ProposalGroup collects scored concepts sharing a category. Section is the
// top-level ancestor; CategoryPath is the "Root > ... > Leaf" label.
type ProposalGroup struct {
	Section      string          `json:"section"`
	CategoryID   int64           `json:"categoryId"`
	CategoryPath string          `json:"categoryPath"`
	Concepts     []ScoredConcept `json:"concepts"`
}

// ProposalMetadata summarises a proposal run.
type ProposalMetadata struct {
	TotalAvailableConcepts   int     `json:"totalAvailableConcepts"`
	FilteredConceptsCount    int     `json:"filteredConceptsCount"`
	SuggestedCount           int     `json:"suggestedCount"`
	OptionalCount            int     `json:"optionalCount"`
	AverageScore             float64 `json:"averageScore"`
	ExpectedDevelopmentLevel int     `json:"expectedDevelopmentLevel"`
	MinLevelWindow           int     `json:"minLevelWindow"`
	MaxLevelWindow           int     `json:"maxLevelWindow"`
	LevelOffset              int     `json:"levelOffset"`
}

// ProposalResponse is the grouped recommendation for one team.
type ProposalResponse struct {
	Team            model.Team       `json:"team"`
	Metadata        ProposalMetadata `json:"metadata"`
	SuggestedGroups []ProposalGroup  `json:"suggestedGroups"`
	OptionalGroups  []ProposalGroup  `json:"optionalGroups"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// Suggested flattens the suggested groups.
func (r *ProposalResponse) Suggested() []ScoredConcept {
	return flatten(r.SuggestedGroups)
}

// Optional flattens the optional groups.
func (r *ProposalResponse) Optional() []ScoredConcept {
	return flatten(r.OptionalGroups)
}

func flatten(groups []ProposalGroup) []ScoredConcept {
	var out []ScoredConcept
	for _, g := range groups {
		out = append(out, g.Concepts...)
	}
	return out
}

// Occurrence is one dated training slot produced by expanding a schedule.
// Date is midnight UTC of the calendar day; StartsAt adds the slot time.
type Occurrence struct {
	Date      time.Time    `json:"date"`
	StartsAt  time.Time    `json:"startsAt"`
	Weekday   time.Weekday `json:"dayOfWeek"`
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime,omitempty"`
}
