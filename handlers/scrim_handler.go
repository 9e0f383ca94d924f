package handlers

import (
	"net/http"
	"strconv"

	"github.com/scrimworks/scrimbot/services"
)

type ScrimHandler struct {
	scrimService services.ScrimService
}

func NewScrimHandler(ss services.ScrimService) *ScrimHandler {
	return &ScrimHandler{scrimService: ss}
}

func guildIDFromQuery(r *http.Request) (int64, bool) {
	guildID, err := strconv.ParseInt(r.URL.Query().Get("guild_id"), 10, 64)
	return guildID, err == nil && guildID > 0
}

func (h *ScrimHandler) ListScrims(w http.ResponseWriter, r *http.Request) {
	guildID, ok := guildIDFromQuery(r)
	if !ok {
		errorResponse(w, r, http.StatusBadRequest, "guild_id query parameter is required")
		return
	}

	scrims, err := h.scrimService.ListScrims(r.Context(), guildID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scrims": scrims}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SearchScrims powers name autocomplete: trigram-ranked matches, at most ten.
func (h *ScrimHandler) SearchScrims(w http.ResponseWriter, r *http.Request) {
	guildID, ok := guildIDFromQuery(r)
	if !ok {
		errorResponse(w, r, http.StatusBadRequest, "guild_id query parameter is required")
		return
	}

	scrims, err := h.scrimService.SearchScrims(r.Context(), guildID, r.URL.Query().Get("q"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scrims": scrims}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScrimHandler) GetScrim(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scrim, err := h.scrimService.GetScrim(r.Context(), scrimID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scrim": scrim}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScrimHandler) DeleteScrim(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	guildID, ok := guildIDFromQuery(r)
	if !ok {
		errorResponse(w, r, http.StatusBadRequest, "guild_id query parameter is required")
		return
	}

	if err := h.scrimService.DeleteScrim(r.Context(), scrimID, guildID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
