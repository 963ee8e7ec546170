package api

import (
	"net/http"

	"github.com/okian/sportplanner/internal/domain/proposal"
)

// handleGenerateProposals handles POST /api/v1/proposals.
func (s *Server) handleGenerateProposals(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_proposals"
	var req proposal.Request
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := s.deps.GenerateProposals(r.Context(), req)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTeamProposals handles GET /api/v1/teams/{teamId}/proposals.
// An unknown team has no proposal and answers 204.
func (s *Server) handleTeamProposals(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_proposals"
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	resp, err := s.deps.ProposalsForTeam(r.Context(), teamID)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefreshProposals handles POST /api/v1/teams/{teamId}/proposals/refresh.
func (s *Server) handleRefreshProposals(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh_proposals"
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	jobID, err := s.deps.RequestRefresh(r.Context(), teamID)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted", JobID: jobID, TeamID: teamID})
}
