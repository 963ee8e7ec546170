package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshJob asks for a team's proposal to be regenerated in the background.
type RefreshJob struct {
	ID          uuid.UUID `json:"id"`
	TeamID      int64     `json:"teamId"`
	RequestedAt time.Time `json:"requestedAt"`
}
