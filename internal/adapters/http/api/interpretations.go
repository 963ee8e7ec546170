package api

import (
	"net/http"

	"github.com/okian/sportplanner/internal/domain/model"
)

// handleResolveInterpretation handles
// GET /api/v1/concepts/{conceptId}/interpretation. No applicable override
// answers 204.
func (s *Server) handleResolveInterpretation(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve_interpretation"
	conceptID, err := pathID(r, "conceptId")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	var scope model.Scope
	for name, dst := range map[string]**int64{
		"teamId":         &scope.TeamID,
		"teamCategoryId": &scope.TeamCategoryID,
		"teamLevelId":    &scope.TeamLevelID,
	} {
		if *dst, err = queryID(r, name); err != nil {
			s.writeError(w, r, Wrap(op, err))
			return
		}
	}
	in, err := s.deps.ResolveInterpretation(r.Context(), conceptID, scope)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	if in == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
