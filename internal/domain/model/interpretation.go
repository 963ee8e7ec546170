package model

import "time"

// Interpretation is a scoped override of a concept's duration, priority and
// suggestion flag. At least one of TeamID, TeamCategoryID, TeamLevelID is set.
type Interpretation struct {
	ID                 int64     `json:"id" yaml:"id"`
	ConceptID          int64     `json:"conceptId" yaml:"concept_id" validate:"gt=0"`
	TeamID             *int64    `json:"teamId,omitempty" yaml:"team_id"`
	TeamCategoryID     *int64    `json:"teamCategoryId,omitempty" yaml:"team_category_id"`
	TeamLevelID        *int64    `json:"teamLevelId,omitempty" yaml:"team_level_id"`
	DurationMultiplier float64   `json:"durationMultiplier" yaml:"duration_multiplier" validate:"gt=0"`
	PriorityMultiplier float64   `json:"priorityMultiplier" yaml:"priority_multiplier" validate:"gt=0"`
	IsSuggested        bool      `json:"isSuggested" yaml:"is_suggested"`
	Notes              string    `json:"notes,omitempty" yaml:"notes"`
	CreatedAt          time.Time `json:"createdAt" yaml:"created_at"`
}

// Scope identifies who an interpretation is being resolved for. Any field
// may be nil.
type Scope struct {
	TeamID         *int64 `json:"teamId,omitempty"`
	TeamCategoryID *int64 `json:"teamCategoryId,omitempty"`
	TeamLevelID    *int64 `json:"teamLevelId,omitempty"`
}

// ScopeFor builds the resolution scope of a team from its current
// category and level assignment.
func ScopeFor(t *Team) Scope {
	if t == nil {
		return Scope{}
	}
	id := t.ID
	return Scope{TeamID: &id, TeamCategoryID: t.CategoryID(), TeamLevelID: t.LevelID()}
}

// Empty reports whether no scope field is set.
func (s Scope) Empty() bool {
	return s.TeamID == nil && s.TeamCategoryID == nil && s.TeamLevelID == nil
}
