package model

// TeamCategory is an age band a team competes in (e.g. U10, U14).
type TeamCategory struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	MinAge  *int   `json:"minAge,omitempty" yaml:"min_age"`
	MaxAge  *int   `json:"maxAge,omitempty" yaml:"max_age"`
	SportID int64  `json:"sportId,omitempty" yaml:"sport_id"`
}

// TeamLevel is a competitive level; Rank 1 is the lowest.
type TeamLevel struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Rank int    `json:"rank" yaml:"rank"`
}

// Team is the profile the engine scores concepts against.
type Team struct {
	ID                    int64         `json:"id"`
	Name                  string        `json:"name"`
	SportID               int64         `json:"sportId"`
	CurrentTechnicalLevel int           `json:"currentTechnicalLevel"`
	CurrentTacticalLevel  int           `json:"currentTacticalLevel"`
	Category              *TeamCategory `json:"category,omitempty"`
	Level                 *TeamLevel    `json:"level,omitempty"`
}

// CategoryID returns the assigned category id, or nil.
func (t *Team) CategoryID() *int64 {
	if t == nil || t.Category == nil {
		return nil
	}
	id := t.Category.ID
	return &id
}

// LevelID returns the assigned level id, or nil.
func (t *Team) LevelID() *int64 {
	if t == nil || t.Level == nil {
		return nil
	}
	id := t.Level.ID
	return &id
}

// MinAge returns the category's minimum age, or nil.
func (t *Team) MinAge() *int {
	if t == nil || t.Category == nil {
		return nil
	}
	return t.Category.MinAge
}
