package interpretation

import (
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/validation"
)

// Validate applies the write-side rules for a new override: a positive
// concept id, both multipliers strictly positive, and at least one scope.
func Validate(in *model.Interpretation) error {
	if in == nil {
		return model.Invalid("interpretation", "is required")
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.TeamID == nil && in.TeamCategoryID == nil && in.TeamLevelID == nil {
		return model.Invalid("scope", "at least one of teamId, teamCategoryId or teamLevelId is required")
	}
	return nil
}

// WithDefaults fills zero multipliers with 1.0, the neutral value.
func WithDefaults(in model.Interpretation) model.Interpretation {
	if in.DurationMultiplier == 0 {
		in.DurationMultiplier = 1.0
	}
	if in.PriorityMultiplier == 0 {
		in.PriorityMultiplier = 1.0
	}
	return in
}
