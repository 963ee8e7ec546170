package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleSlot is one weekly training slot. Times are "HH:MM".
type ScheduleSlot struct {
	Weekday   time.Weekday `json:"dayOfWeek" yaml:"day_of_week"`
	StartTime string       `json:"startTime" yaml:"start_time" validate:"required,clock"`
	EndTime   string       `json:"endTime,omitempty" yaml:"end_time" validate:"omitempty,clock"`
}

// ScheduleDefinition is a weekly recurrence bounded by an inclusive date range.
type ScheduleDefinition struct {
	ID             int64          `json:"id" yaml:"id"`
	TeamID         int64          `json:"teamId" yaml:"team_id"`
	Name           string         `json:"name,omitempty" yaml:"name"`
	StartDate      time.Time      `json:"startDate" yaml:"start_date" validate:"required"`
	EndDate        time.Time      `json:"endDate" yaml:"end_date" validate:"required"`
	Slots          []ScheduleSlot `json:"slots" yaml:"slots" validate:"required,min=1,dive"`
	PlanConceptIDs []int64        `json:"planConceptIds" yaml:"plan_concept_ids"`
}

// SessionConcept is one allocated concept inside a session.
type SessionConcept struct {
	ConceptID       int64 `json:"conceptId"`
	Order           int   `json:"order"`
	DurationMinutes int   `json:"durationMinutes"`
}

// SessionPlan is the time-budgeted content of a single training session.
type SessionPlan struct {
	ID                   uuid.UUID        `json:"id"`
	ScheduleID           int64            `json:"scheduleId"`
	TeamID               int64            `json:"teamId"`
	Date                 time.Time        `json:"date"`
	StartTime            string           `json:"startTime"`
	DurationMinutes      int              `json:"durationMinutes"`
	AvailableTimeMinutes int              `json:"availableTimeMinutes"`
	Concepts             []SessionConcept `json:"concepts"`
}

// AllocatedMinutes is the sum of all assigned concept durations.
func (p *SessionPlan) AllocatedMinutes() int {
	total := 0
	for _, c := range p.Concepts {
		total += c.DurationMinutes
	}
	return total
}
