package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/sportplanner/internal/domain/model"
)

// Seed is the YAML catalog loaded into a MemoryStore.
type Seed struct {
	TeamCategories  []model.TeamCategory    `yaml:"team_categories"`
	TeamLevels      []model.TeamLevel       `yaml:"team_levels"`
	Teams           []SeedTeam              `yaml:"teams"`
	Categories      []model.ConceptCategory `yaml:"categories"`
	Concepts        []model.Concept         `yaml:"concepts"`
	Interpretations []model.Interpretation  `yaml:"interpretations"`
	Schedules       []SeedSchedule          `yaml:"schedules"`
}

// SeedTeam references its category and level by id.
type SeedTeam struct {
	ID             int64  `yaml:"id"`
	Name           string `yaml:"name"`
	SportID        int64  `yaml:"sport_id"`
	TechnicalLevel int    `yaml:"technical_level"`
	TacticalLevel  int    `yaml:"tactical_level"`
	CategoryID     *int64 `yaml:"category_id"`
	LevelID        *int64 `yaml:"level_id"`
}

// SeedSchedule is a schedule whose slot days may be written as names.
type SeedSchedule struct {
	ID             int64      `yaml:"id"`
	TeamID         int64      `yaml:"team_id"`
	Name           string     `yaml:"name"`
	StartDate      time.Time  `yaml:"start_date"`
	EndDate        time.Time  `yaml:"end_date"`
	Slots          []SeedSlot `yaml:"slots"`
	PlanConceptIDs []int64    `yaml:"plan_concept_ids"`
}

// SeedSlot is one weekly slot.
type SeedSlot struct {
	Day       Weekday `yaml:"day"`
	StartTime string  `yaml:"start_time"`
	EndTime   string  `yaml:"end_time"`
}

// Weekday decodes either 0-6 (Sunday = 0) or an English day name.
type Weekday time.Weekday

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *Weekday) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: weekday must be a scalar", node.Line)
	}
	v := strings.TrimSpace(node.Value)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return fmt.Errorf("line %d: weekday %d out of range", node.Line, n)
		}
		*w = Weekday(n)
		return nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(v, name) || strings.EqualFold(v, name[:3]) {
			*w = Weekday(d)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown weekday %q", node.Line, v)
}

// Definition converts the seed schedule into its domain form.
func (s SeedSchedule) Definition() model.ScheduleDefinition {
	slots := make([]model.ScheduleSlot, 0, len(s.Slots))
	for _, sl := range s.Slots {
		slots = append(slots, model.ScheduleSlot{
			Weekday:   time.Weekday(sl.Day),
			StartTime: sl.StartTime,
			EndTime:   sl.EndTime,
		})
	}
	return model.ScheduleDefinition{
		ID:             s.ID,
		TeamID:         s.TeamID,
		Name:           s.Name,
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		Slots:          slots,
		PlanConceptIDs: append([]int64(nil), s.PlanConceptIDs...),
	}
}

// ParseSeed decodes a YAML catalog. Unknown fields are rejected.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile reads and decodes the catalog at path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer f.Close()
	return ParseSeed(f)
}
