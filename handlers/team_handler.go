package handlers

import (
	"context"
	"net/http"

	"github.com/scrimworks/scrimbot/services"
)

// TeamHandler exposes the register-channel team commands. Every route is
// keyed by the register channel id; a channel that is not a register channel
// resolves to nothing and the request 404s.
type TeamHandler struct {
	teamService  services.TeamService
	scrimService services.ScrimService
}

func NewTeamHandler(ts services.TeamService, ss services.ScrimService) *TeamHandler {
	return &TeamHandler{teamService: ts, scrimService: ss}
}

// staticConfirmer answers the leave confirmation from a flag the client sent
// up front, standing in for an interactive yes/no prompt.
type staticConfirmer bool

func (c staticConfirmer) Confirm(_ context.Context, _ int64, _ string) (bool, error) {
	return bool(c), nil
}

func (h *TeamHandler) resolveScrim(w http.ResponseWriter, r *http.Request) (int, bool) {
	channelID, err := getInt64FromURL(r, "channelID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, false
	}

	scrim, err := h.scrimService.ResolveRegisterChannel(r.Context(), channelID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return 0, false
	}
	return scrim.ID, true
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	scrimID, ok := h.resolveScrim(w, r)
	if !ok {
		return
	}

	var input struct {
		UserID int64  `json:"user_id"`
		Name   string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID < 1 || input.Name == "" {
		errorResponse(w, r, http.StatusBadRequest, "user_id and name are required")
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), scrimID, input.UserID, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// The join code goes only to the captain who created the team.
	response := jsonResponse{
		"team":      team,
		"join_code": team.Secret,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	scrimID, ok := h.resolveScrim(w, r)
	if !ok {
		return
	}

	var input struct {
		UserID int64  `json:"user_id"`
		Secret string `json:"secret"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID < 1 || input.Secret == "" {
		errorResponse(w, r, http.StatusBadRequest, "user_id and secret are required")
		return
	}

	team, err := h.teamService.JoinTeam(r.Context(), scrimID, input.UserID, input.Secret)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	scrimID, ok := h.resolveScrim(w, r)
	if !ok {
		return
	}

	var input struct {
		UserID  int64 `json:"user_id"`
		Confirm bool  `json:"confirm"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID < 1 {
		errorResponse(w, r, http.StatusBadRequest, "user_id is required")
		return
	}

	team, err := h.teamService.LeaveTeam(r.Context(), scrimID, input.UserID, staticConfirmer(input.Confirm))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
