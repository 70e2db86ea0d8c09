package api

import (
	"net/http"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

type sendVerifyCodeRequest struct {
	UserName string `json:"userName"`
}

func (s *Server) handleSendVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req sendVerifyCodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.authService.SendVerifyCode(r.Context(), req.UserName); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

type authenticateRequest struct {
	UserName string `json:"userName"`
	Code     string `json:"code"`
}

type authenticateResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	token, err := s.authService.Authenticate(r.Context(), req.UserName, req.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, authenticateResponse{Token: token})
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type teamResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	team, err := s.teamService.CreateTeam(r.Context(), requesterID(r), req.Name)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, teamResponse{ID: team.ID, Name: team.Name})
}

func (s *Server) handleMyTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.teamService.MyTeams(r.Context(), requesterID(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	resp := make([]teamResponse, 0, len(teams))
	for _, team := range teams {
		resp = append(resp, teamResponse{ID: team.ID, Name: team.Name})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type renameTeamRequest struct {
	TeamName string `json:"teamName"`
	NewName  string `json:"newName"`
}

func (s *Server) handleRenameTeam(w http.ResponseWriter, r *http.Request) {
	var req renameTeamRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.teamService.RenameTeam(r.Context(), requesterID(r), req.TeamName, req.NewName); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

type teamNameRequest struct {
	TeamName string `json:"teamName"`
}

func (s *Server) handleSendInviteRequest(w http.ResponseWriter, r *http.Request) {
	var req teamNameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.teamService.SendInviteRequest(r.Context(), requesterID(r), req.TeamName); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

type memberRequest struct {
	MemberID int64 `json:"memberId"`
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.teamService.AcceptInvite(r.Context(), requesterID(r), req.MemberID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeclineInvite(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.teamService.DeclineInvite(r.Context(), requesterID(r), req.MemberID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	var req teamNameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.teamService.LeaveTeam(r.Context(), requesterID(r), req.TeamName); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

type startVotingRequest struct {
	TeamName string `json:"teamName"`
	Title    string `json:"title"`
}

type votingResponse struct {
	ID     int64  `json:"id"`
	TeamID int64  `json:"teamId"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func newVotingResponse(v *domain.Voting) votingResponse {
	return votingResponse{
		ID:     v.ID,
		TeamID: v.TeamID,
		Title:  v.Title,
		Status: string(v.Status),
	}
}

func (s *Server) handleStartVoting(w http.ResponseWriter, r *http.Request) {
	var req startVotingRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	voting, err := s.votingService.StartVoting(r.Context(), requesterID(r), req.TeamName, req.Title)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, newVotingResponse(voting))
}

type voteRequest struct {
	VotingID int64  `json:"votingId"`
	Value    string `json:"value"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.votingService.CastVote(r.Context(), requesterID(r), req.VotingID, req.Value); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

type votingIDRequest struct {
	VotingID int64 `json:"votingId"`
}

func (s *Server) handleFinishVoting(w http.ResponseWriter, r *http.Request) {
	var req votingIDRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.votingService.FinishVoting(r.Context(), requesterID(r), req.VotingID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleResendVoting(w http.ResponseWriter, r *http.Request) {
	var req votingIDRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.votingService.ResendVotingMessage(r.Context(), requesterID(r), req.VotingID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetActiveVoting(w http.ResponseWriter, r *http.Request) {
	teamName := r.URL.Query().Get("teamName")

	voting, err := s.votingService.GetActiveVoting(r.Context(), requesterID(r), teamName)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newVotingResponse(voting))
}
