// Package schedule expands weekly training schedules into dated occurrences.
package schedule

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// DateLayout is the calendar date format accepted at the edges.
const DateLayout = "2006-01-02"

// Source loads schedule definitions. Unknown ids yield an error matching
// model.ErrNotFound.
type Source interface {
	Schedule(ctx context.Context, id int64) (*model.ScheduleDefinition, error)
}

// Day truncates t to midnight UTC of its own calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Occurrences lazily yields every slot of def falling on a day in
// [from, to] intersected with [def.StartDate, def.EndDate], in ascending
// order. Both ends are inclusive. The sequence can be ranged over any
// number of times.
func Occurrences(def *model.ScheduleDefinition, from, to time.Time) iter.Seq[types.Occurrence] {
	start := maxTime(Day(def.StartDate), Day(from))
	end := minTime(Day(def.EndDate), Day(to))

	byDay := make(map[time.Weekday][]model.ScheduleSlot, len(def.Slots))
	for _, s := range def.Slots {
		byDay[s.Weekday] = append(byDay[s.Weekday], s)
	}
	for wd := range byDay {
		slices.SortStableFunc(byDay[wd], func(a, b model.ScheduleSlot) int {
			return cmp.Compare(clockMinutes(a.StartTime), clockMinutes(b.StartTime))
		})
	}

	return func(yield func(types.Occurrence) bool) {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			for _, s := range byDay[d.Weekday()] {
				occ := types.Occurrence{
					Date:      d,
					StartsAt:  d.Add(time.Duration(clockMinutes(s.StartTime)) * time.Minute),
					Weekday:   d.Weekday(),
					StartTime: s.StartTime,
					EndTime:   s.EndTime,
				}
				if !yield(occ) {
					return
				}
			}
		}
	}
}

// Dates collects the distinct calendar days of seq.
func Dates(seq iter.Seq[types.Occurrence]) []time.Time {
	var out []time.Time
	for o := range seq {
		if n := len(out); n == 0 || !out[n-1].Equal(o.Date) {
			out = append(out, o.Date)
		}
	}
	return out
}

// Expander resolves schedules by id and expands them.
type Expander struct {
	source Source
	log    logger.Logger
}

// Option applies a configuration option to the Expander.
type Option func(*Expander)

// WithLogger sets the expander logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Expander) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExpander creates an Expander over source.
func NewExpander(source Source, opts ...Option) *Expander {
	e := &Expander{source: source, log: logger.Named("schedule")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate returns the occurrences of schedule id between from and to.
// from after to is a validation error; an unknown schedule is not found.
func (e *Expander) Generate(ctx context.Context, id int64, from, to time.Time) ([]types.Occurrence, error) {
	if Day(from).After(Day(to)) {
		return nil, model.Invalid("from", "must not be after to")
	}
	def, err := e.source.Schedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if def == nil {
		return nil, model.NotFound(model.KindSchedule, id)
	}

	out := slices.Collect(Occurrences(def, from, to))
	metrics.RecordOccurrences(len(out))
	e.log.Debug(ctx, "occurrences generated",
		logger.Int64("schedule_id", id),
		logger.String("from", Day(from).Format(DateLayout)),
		logger.String("to", Day(to).Format(DateLayout)),
		logger.Int("count", len(out)),
	)
	return out, nil
}

// clockMinutes converts "HH:MM" to minutes past midnight. Malformed input
// yields 0; definitions are validated before they reach the expander.
func clockMinutes(s string) int {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil {
		return 0
	}
	return hh*60 + mm
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
