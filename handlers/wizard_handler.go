package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scrimworks/scrimbot/models"
	"github.com/scrimworks/scrimbot/services"
	"github.com/scrimworks/scrimbot/wizard"
)

// WizardHandler drives the configuration wizard over HTTP. Every step
// submission loads the session from the store, applies one state machine
// method and saves the result back, so a draft survives a process restart.
type WizardHandler struct {
	store        wizard.Store
	scrimService services.ScrimService
}

func NewWizardHandler(store wizard.Store, ss services.ScrimService) *WizardHandler {
	return &WizardHandler{store: store, scrimService: ss}
}

func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		GuildID int64 `json:"guild_id"`
		OwnerID int64 `json:"owner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GuildID < 1 || input.OwnerID < 1 {
		errorResponse(w, r, http.StatusBadRequest, "guild_id and owner_id are required")
		return
	}

	session := wizard.NewSession(input.GuildID, input.OwnerID)
	if err := h.store.Save(r.Context(), session); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WizardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitStep applies one wizard step to the stored session. The step name in
// the URL selects which state machine method runs; choice steps record the
// selection without advancing, and "proceed" moves past them.
func (h *WizardHandler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input struct {
		Name            string `json:"name"`
		OrganizerRole   string `json:"organizer_role"`
		ParticipantRole string `json:"participant_role"`

		TournamentType string `json:"tournament_type"`
		BracketType    string `json:"bracket_type"`
		BestOf         int    `json:"best_of"`

		OpeningDate string `json:"opening_date"`
		OpeningTime string `json:"opening_time"`
		ClosingDate string `json:"closing_date"`
		ClosingTime string `json:"closing_time"`

		Date string `json:"date"`
		Time string `json:"time"`

		TeamCap     string `json:"teamcap"`
		Prize       string `json:"prize"`
		Rules       string `json:"rules"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	switch chi.URLParam(r, "step") {
	case "basic":
		err = session.SubmitBasic(input.Name, input.OrganizerRole, input.ParticipantRole)
	case "tournament_type":
		err = session.SelectTournamentType(models.TournamentType(input.TournamentType))
	case "bracket":
		err = session.SelectBracketType(models.BracketType(input.BracketType))
	case "best_of":
		err = session.SelectBestOf(models.BestOf(input.BestOf))
	case "proceed":
		err = session.Proceed()
	case "registration_timing":
		err = session.SubmitRegistrationTiming(input.OpeningDate, input.OpeningTime, input.ClosingDate, input.ClosingTime)
	case "scrim_timing":
		err = session.SubmitScrimTiming(input.Date, input.Time)
	case "info":
		err = session.SubmitInfo(input.TeamCap, input.Prize, input.Rules, input.Description)
	default:
		errorResponse(w, r, http.StatusNotFound, "unknown wizard step")
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.store.Save(r.Context(), session); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Confirm runs the final validation, provisions the platform resources and
// inserts the scrim. On provisioning failure the stored session stays at the
// confirm step so the organizer can retry.
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	scrim, err := session.Confirm()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = h.scrimService.CreateScrim(r.Context(), scrim, session.Draft.OrganizerRoleName, session.Draft.ParticipantRoleName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.store.Delete(r.Context(), session.ID); err != nil {
		slog.Warn("failed to delete committed wizard session",
			slog.String("session_id", session.ID),
			slog.Any("error", err))
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"scrim": scrim}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
