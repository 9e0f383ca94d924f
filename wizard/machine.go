package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/scrimworks/scrimbot/models"
)

// Step names one state of the configuration wizard. Steps are strictly
// ordered; each is reachable only through the prior step's successful
// submission, and there is no backward navigation once a step is confirmed.
type Step string

const (
	StepBasic              Step = "basic"
	StepTournamentType     Step = "tournament_type"
	StepBracket            Step = "bracket"
	StepBestOf             Step = "best_of"
	StepRegistrationTiming Step = "registration_timing"
	StepScrimTiming        Step = "scrim_timing"
	StepInfo               Step = "info"
	StepConfirm            Step = "confirm"
	StepCommitted          Step = "committed"
)

var (
	ErrWrongStep      = errors.New("operation not valid at the current wizard step")
	ErrIncompleteStep = errors.New("current step is missing a required choice")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Session is one wizard run, owned by a single organizer. All mutation goes
// through the Submit/Select/Proceed methods, which enforce the step order.
type Session struct {
	ID      string `json:"id"`
	GuildID int64  `json:"guild_id"`
	OwnerID int64  `json:"owner_id"`
	Step    Step   `json:"step"`
	Draft   Draft  `json:"draft"`

	CreatedAt time.Time `json:"created_at"`
}

func NewSession(guildID, ownerID int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		OwnerID:   ownerID,
		Step:      StepBasic,
		Draft:     newDraft(),
		CreatedAt: time.Now().UTC(),
	}
}

func (s *Session) require(step Step) error {
	if s.Step != step {
		return fmt.Errorf("%w: at %q, expected %q", ErrWrongStep, s.Step, step)
	}
	return nil
}

// SubmitBasic records the tournament name and the two role names.
func (s *Session) SubmitBasic(name, organizerRole, participantRole string) error {
	if err := s.require(StepBasic); err != nil {
		return err
	}
	if l := len(name); l < 1 || l > 100 {
		return &ValidationError{Field: "name", Value: name, Reason: "enter a name between 1 and 100 characters"}
	}
	if l := len(organizerRole); l < 3 || l > 50 {
		return &ValidationError{Field: "organizer_role", Value: organizerRole, Reason: "enter a role name between 3 and 50 characters"}
	}
	if l := len(participantRole); l < 3 || l > 50 {
		return &ValidationError{Field: "participant_role", Value: participantRole, Reason: "enter a role name between 3 and 50 characters"}
	}
	s.Draft.ScrimName = name
	s.Draft.OrganizerRoleName = organizerRole
	s.Draft.ParticipantRoleName = participantRole
	s.Step = StepTournamentType
	return nil
}

// SelectTournamentType sets the choice without advancing; the caller may
// re-select before proceeding, as with the original button rows.
func (s *Session) SelectTournamentType(t models.TournamentType) error {
	if err := s.require(StepTournamentType); err != nil {
		return err
	}
	switch t {
	case models.TournamentSolo, models.TournamentDuo, models.TournamentTeam:
	default:
		return &ValidationError{Field: "tournament_type", Value: string(t), Reason: "choose solo, duo or team"}
	}
	s.Draft.TournamentType = &t
	return nil
}

func (s *Session) SelectBracketType(b models.BracketType) error {
	if err := s.require(StepBracket); err != nil {
		return err
	}
	switch b {
	case models.BracketSingleElimination, models.BracketDoubleElimination,
		models.BracketRoundRobin, models.BracketSwiss:
	default:
		return &ValidationError{Field: "bracket_type", Value: string(b), Reason: "choose a supported bracket type"}
	}
	s.Draft.BracketType = &b
	return nil
}

func (s *Session) SelectBestOf(b models.BestOf) error {
	if err := s.require(StepBestOf); err != nil {
		return err
	}
	switch b {
	case models.BestOf1, models.BestOf3, models.BestOf5:
	default:
		return &ValidationError{Field: "best_of", Value: strconv.Itoa(int(b)), Reason: "choose best of 1, 3 or 5"}
	}
	s.Draft.BestOf = &b
	return nil
}

// Proceed advances past a choice step once its selection is made.
func (s *Session) Proceed() error {
	switch s.Step {
	case StepTournamentType:
		if s.Draft.TournamentType == nil {
			return ErrIncompleteStep
		}
		s.Step = StepBracket
	case StepBracket:
		if s.Draft.BracketType == nil {
			return ErrIncompleteStep
		}
		s.Step = StepBestOf
	case StepBestOf:
		if s.Draft.BestOf == nil {
			return ErrIncompleteStep
		}
		s.Step = StepRegistrationTiming
	default:
		return fmt.Errorf("%w: %q has no proceed action", ErrWrongStep, s.Step)
	}
	return nil
}

// SubmitRegistrationTiming validates the four free-text timing fields. The
// raw values are stored before validation so a retry re-opens the form
// pre-filled with the rejected input; the first invalid field aborts the
// whole submission and the step does not advance.
func (s *Session) SubmitRegistrationTiming(openingDate, openingTime, closingDate, closingTime string) error {
	if err := s.require(StepRegistrationTiming); err != nil {
		return err
	}
	s.Draft.RegistrationOpeningDateInput = openingDate
	s.Draft.RegistrationOpeningTimeInput = openingTime
	s.Draft.RegistrationClosingDateInput = closingDate
	s.Draft.RegistrationClosingTimeInput = closingTime

	if err := validateDate("opening_date", openingDate); err != nil {
		return err
	}
	if err := validateTime("opening_time", openingTime); err != nil {
		return err
	}
	if err := validateDate("closing_date", closingDate); err != nil {
		return err
	}
	if err := validateTime("closing_time", closingTime); err != nil {
		return err
	}
	s.Step = StepScrimTiming
	return nil
}

func (s *Session) SubmitScrimTiming(date, timeOfDay string) error {
	if err := s.require(StepScrimTiming); err != nil {
		return err
	}
	s.Draft.DateInput = date
	s.Draft.TimeInput = timeOfDay

	if err := validateDate("date", date); err != nil {
		return err
	}
	if err := validateTime("time", timeOfDay); err != nil {
		return err
	}
	s.Step = StepInfo
	return nil
}

// SubmitInfo records prize, rules, description and, for TEAM tournaments
// only, the team cap. For other tournament types the team cap input is not
// part of the form and is ignored here.
func (s *Session) SubmitInfo(teamCap, prize, rules, description string) error {
	if err := s.require(StepInfo); err != nil {
		return err
	}
	forTeam := s.Draft.TournamentType != nil && *s.Draft.TournamentType == models.TournamentTeam
	n := s.Draft.TeamCap
	if forTeam {
		var err error
		n, err = strconv.Atoi(teamCap)
		if err != nil {
			return &ValidationError{Field: "teamcap", Value: teamCap, Reason: "team cap must be a valid integer"}
		}
		if n < 3 {
			return &ValidationError{Field: "teamcap", Value: teamCap, Reason: "team cap must be at least 3"}
		}
		if n > 10 {
			return &ValidationError{Field: "teamcap", Value: teamCap, Reason: "team cap must not exceed 10"}
		}
	}
	if len(prize) > 50 {
		return &ValidationError{Field: "prize", Value: prize, Reason: "prize must be at most 50 characters"}
	}
	if len(rules) > 500 {
		return &ValidationError{Field: "rules", Value: rules, Reason: "rules must be at most 500 characters"}
	}
	if len(description) > 200 {
		return &ValidationError{Field: "description", Value: description, Reason: "description must be at most 200 characters"}
	}
	s.Draft.TeamCap = n
	s.Draft.Prize = prize
	s.Draft.Rules = rules
	s.Draft.Description = description
	s.Step = StepConfirm
	return nil
}

// Confirm runs the final cross-field validation and produces the scrim to
// persist. Provisioned resource ids stay nil; the scrim service fills them
// in before the record is inserted.
func (s *Session) Confirm() (*models.Scrim, error) {
	if err := s.require(StepConfirm); err != nil {
		return nil, err
	}

	scrimTime, err := combineUTC(s.Draft.DateInput, s.Draft.TimeInput)
	if err != nil {
		return nil, &ValidationError{Field: "time", Value: s.Draft.DateInput + " " + s.Draft.TimeInput, Reason: "re-enter the scrim date and time"}
	}
	opening, err := combineUTC(s.Draft.RegistrationOpeningDateInput, s.Draft.RegistrationOpeningTimeInput)
	if err != nil {
		return nil, &ValidationError{Field: "registration_opening", Value: s.Draft.RegistrationOpeningDateInput, Reason: "re-enter the registration opening date and time"}
	}
	closing, err := combineUTC(s.Draft.RegistrationClosingDateInput, s.Draft.RegistrationClosingTimeInput)
	if err != nil {
		return nil, &ValidationError{Field: "registration_closing", Value: s.Draft.RegistrationClosingDateInput, Reason: "re-enter the registration closing date and time"}
	}
	if !closing.After(opening) {
		return nil, &ValidationError{
			Field:  "registration_closing",
			Value:  closing.Format(dateLayout + " " + timeLayout),
			Reason: "registration must close after it opens",
		}
	}
	if scrimTime.Before(opening) {
		return nil, &ValidationError{
			Field:  "time",
			Value:  scrimTime.Format(dateLayout + " " + timeLayout),
			Reason: "the scrim cannot start before registration opens",
		}
	}

	scrim := &models.Scrim{
		Name:                    s.Draft.ScrimName,
		GuildID:                 s.GuildID,
		Time:                    scrimTime,
		RegistrationOpeningTime: opening,
		RegistrationClosingTime: closing,
		TeamCap:                 s.Draft.TeamCap,
		MaxTeamSize:             s.Draft.MaxTeamSize,
		BestOf:                  *s.Draft.BestOf,
		TournamentType:          *s.Draft.TournamentType,
		BracketType:             *s.Draft.BracketType,
		Prize:                   optional(s.Draft.Prize),
		Rules:                   optional(s.Draft.Rules),
		Description:             optional(s.Draft.Description),
	}
	s.Step = StepCommitted
	return scrim, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func validateDate(field, value string) error {
	if _, err := time.Parse(dateLayout, value); err != nil {
		return &ValidationError{Field: field, Value: value, Reason: "enter the date as YYYY-MM-DD, for example 2025-07-30"}
	}
	return nil
}

func validateTime(field, value string) error {
	if _, err := time.Parse(timeLayout, value); err != nil {
		return &ValidationError{Field: field, Value: value, Reason: "enter the time as HH:MM, for example 14:30"}
	}
	return nil
}

func combineUTC(date, timeOfDay string) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+timeOfDay, time.UTC)
}
