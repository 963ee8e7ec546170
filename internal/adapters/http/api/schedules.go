package api

import (
	"net/http"
	"time"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/schedule"
	"github.com/okian/sportplanner/internal/domain/session"
)

// handleOccurrences handles GET /api/v1/schedules/{scheduleId}/occurrences.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	const op = "api.occurrences"
	scheduleID, err := pathID(r, "scheduleId")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	from, err := queryDate(r, "from")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	occurrences, err := s.deps.Occurrences(r.Context(), scheduleID, from, to)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, occurrences)
}

// handleCreateSession handles POST /api/v1/schedules/{scheduleId}/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	scheduleID, err := pathID(r, "scheduleId")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	var req session.Request
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	plan, err := s.deps.CreateSession(r.Context(), scheduleID, req)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// queryDate reads a required YYYY-MM-DD query parameter as UTC midnight.
func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, model.Invalid(name, "is required")
	}
	t, err := time.Parse(schedule.DateLayout, raw)
	if err != nil {
		return time.Time{}, model.Invalid(name, "must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}
