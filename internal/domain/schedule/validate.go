package schedule

import (
	"fmt"
	"time"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/validation"
)

// ValidateDefinition checks a schedule before it is stored: a non-empty,
// ordered date range and one well-formed slot per weekday.
func ValidateDefinition(def *model.ScheduleDefinition) error {
	if err := validation.Struct(def); err != nil {
		return err
	}
	if Day(def.StartDate).After(Day(def.EndDate)) {
		return model.Invalid("startDate", "must not be after endDate")
	}
	seen := make(map[time.Weekday]struct{}, len(def.Slots))
	for i, s := range def.Slots {
		if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
			return model.Invalid(fmt.Sprintf("slots[%d].dayOfWeek", i), "must be between 0 and 6")
		}
		if _, dup := seen[s.Weekday]; dup {
			return model.Invalid(fmt.Sprintf("slots[%d].dayOfWeek", i), s.Weekday.String()+" is already scheduled")
		}
		seen[s.Weekday] = struct{}{}
		if s.EndTime != "" && clockMinutes(s.EndTime) <= clockMinutes(s.StartTime) {
			return model.Invalid(fmt.Sprintf("slots[%d].endTime", i), "must be after startTime")
		}
	}
	return nil
}
