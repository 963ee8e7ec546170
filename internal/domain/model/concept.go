// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// DevelopmentLevel is the curriculum stage of a concept (1 = most basic).
// It decodes from either a JSON/YAML number or a numeric string ("4").
type DevelopmentLevel int

// UnmarshalText accepts a numeric string.
func (l *DevelopmentLevel) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*l = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("development level %q: %w", s, err)
	}
	*l = DevelopmentLevel(n)
	return nil
}

// UnmarshalJSON accepts both 4 and "4".
func (l *DevelopmentLevel) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if string(b) == "null" {
		return nil
	}
	return l.UnmarshalText(b)
}

// Concept is an atomic skill or tactic in a sport's curriculum.
type Concept struct {
	ID                  int64             `json:"id" yaml:"id"`
	Name                string            `json:"name" yaml:"name"`
	CategoryID          *int64            `json:"categoryId,omitempty" yaml:"category_id"`
	SportID             int64             `json:"sportId" yaml:"sport_id"`
	TechnicalDifficulty int               `json:"technicalDifficulty" yaml:"technical_difficulty"`
	TacticalComplexity  int               `json:"tacticalComplexity" yaml:"tactical_complexity"`
	DevelopmentLevel    *DevelopmentLevel `json:"developmentLevel,omitempty" yaml:"development_level"`
	ProgressWeight      int               `json:"progressWeight" yaml:"progress_weight"`
	DifficultyRank      int               `json:"difficultyRank" yaml:"difficulty_rank"`
	IsActive            bool              `json:"isActive" yaml:"is_active"`
	// OwnerID is nil for system concepts.
	OwnerID *int64 `json:"ownerId,omitempty" yaml:"owner_id"`
}

// HasDevelopmentLevel reports whether a usable development level is set.
func (c *Concept) HasDevelopmentLevel() bool {
	return c.DevelopmentLevel != nil && *c.DevelopmentLevel > 0
}

// Level returns the development level or 0 when unset.
func (c *Concept) Level() int {
	if !c.HasDevelopmentLevel() {
		return 0
	}
	return int(*c.DevelopmentLevel)
}

// ConceptCategory is a node of the concept taxonomy.
type ConceptCategory struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	ParentID *int64 `json:"parentId,omitempty" yaml:"parent_id"`
}

// Int64 returns a pointer to v. Handy for optional references.
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Level returns a pointer to a DevelopmentLevel.
func Level(v int) *DevelopmentLevel {
	l := DevelopmentLevel(v)
	return &l
}
