package wizard

import (
	"fmt"

	"github.com/scrimworks/scrimbot/models"
)

// Draft accumulates tournament parameters across the wizard steps. Raw date
// and time strings are kept verbatim so a reopened form can show the last
// input, valid or not, as its default.
type Draft struct {
	ScrimName           string `json:"scrim_name"`
	OrganizerRoleName   string `json:"organizer_role_name"`
	ParticipantRoleName string `json:"participant_role_name"`

	TournamentType *models.TournamentType `json:"tournament_type,omitempty"`
	BracketType    *models.BracketType    `json:"bracket_type,omitempty"`
	BestOf         *models.BestOf         `json:"best_of,omitempty"`

	TeamCap     int    `json:"teamcap"`
	MaxTeamSize int    `json:"max_team_size"`
	Prize       string `json:"prize"`
	Rules       string `json:"rules"`
	Description string `json:"description"`

	DateInput string `json:"date_input"`
	TimeInput string `json:"time_input"`

	RegistrationOpeningDateInput string `json:"registration_opening_date_input"`
	RegistrationOpeningTimeInput string `json:"registration_opening_time_input"`
	RegistrationClosingDateInput string `json:"registration_closing_date_input"`
	RegistrationClosingTimeInput string `json:"registration_closing_time_input"`
}

const (
	datePlaceholder = "1111-11-11"
	timePlaceholder = "00:00"
)

func newDraft() Draft {
	return Draft{
		OrganizerRoleName:            "Organizer",
		ParticipantRoleName:          "Participant",
		TeamCap:                      5,
		MaxTeamSize:                  10,
		DateInput:                    datePlaceholder,
		TimeInput:                    timePlaceholder,
		RegistrationOpeningDateInput: datePlaceholder,
		RegistrationOpeningTimeInput: timePlaceholder,
		RegistrationClosingDateInput: datePlaceholder,
		RegistrationClosingTimeInput: timePlaceholder,
	}
}

// ValidationError reports one malformed field. Value echoes the raw input so
// the caller can re-render the form with it, and Reason states the corrective
// action.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
