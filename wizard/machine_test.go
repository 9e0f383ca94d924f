package wizard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimworks/scrimbot/models"
)

func advanceToInfo(t *testing.T, tournamentType models.TournamentType) *Session {
	t.Helper()
	s := NewSession(100, 200)
	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))
	require.NoError(t, s.SelectTournamentType(tournamentType))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SelectBracketType(models.BracketSingleElimination))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SelectBestOf(models.BestOf3))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SubmitRegistrationTiming("2025-07-01", "10:00", "2025-07-10", "18:00"))
	require.NoError(t, s.SubmitScrimTiming("2025-07-12", "14:30"))
	return s
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(100, 200)

	assert.Equal(t, StepBasic, s.Step)
	assert.Equal(t, "Organizer", s.Draft.OrganizerRoleName)
	assert.Equal(t, "Participant", s.Draft.ParticipantRoleName)
	assert.Equal(t, 5, s.Draft.TeamCap)
	assert.Equal(t, 10, s.Draft.MaxTeamSize)
	assert.Equal(t, "1111-11-11", s.Draft.DateInput)
	assert.Equal(t, "00:00", s.Draft.TimeInput)
}

func TestStepOrderIsEnforced(t *testing.T) {
	s := NewSession(100, 200)

	// Nothing beyond the first step is reachable on a fresh session.
	assert.ErrorIs(t, s.SelectBracketType(models.BracketSingleElimination), ErrWrongStep)
	assert.ErrorIs(t, s.SubmitRegistrationTiming("2025-07-01", "10:00", "2025-07-10", "18:00"), ErrWrongStep)
	assert.ErrorIs(t, s.SubmitInfo("5", "", "", ""), ErrWrongStep)
	_, err := s.Confirm()
	assert.ErrorIs(t, err, ErrWrongStep)

	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))
	assert.Equal(t, StepTournamentType, s.Step)

	// The bracket choice is still gated on the tournament type step.
	assert.ErrorIs(t, s.SelectBracketType(models.BracketSingleElimination), ErrWrongStep)
}

func TestNoBackwardNavigation(t *testing.T) {
	s := NewSession(100, 200)
	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))
	require.NoError(t, s.SelectTournamentType(models.TournamentTeam))
	require.NoError(t, s.Proceed())

	// Once past a step, resubmitting it is rejected.
	assert.ErrorIs(t, s.SubmitBasic("Other Name", "Organizer", "Participant"), ErrWrongStep)
	assert.ErrorIs(t, s.SelectTournamentType(models.TournamentSolo), ErrWrongStep)
	assert.Equal(t, "Summer Cup", s.Draft.ScrimName)
}

func TestProceedRequiresSelection(t *testing.T) {
	s := NewSession(100, 200)
	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))

	assert.ErrorIs(t, s.Proceed(), ErrIncompleteStep)
	assert.Equal(t, StepTournamentType, s.Step)

	// Re-selecting before proceeding is allowed; the last choice wins.
	require.NoError(t, s.SelectTournamentType(models.TournamentSolo))
	require.NoError(t, s.SelectTournamentType(models.TournamentTeam))
	require.NoError(t, s.Proceed())
	assert.Equal(t, StepBracket, s.Step)
	assert.Equal(t, models.TournamentTeam, *s.Draft.TournamentType)
}

func TestSubmitBasicValidation(t *testing.T) {
	s := NewSession(100, 200)

	err := s.SubmitBasic("", "Organizer", "Participant")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	err = s.SubmitBasic("Summer Cup", "ab", "Participant")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "organizer_role", ve.Field)

	// The failed submissions must not advance the step.
	assert.Equal(t, StepBasic, s.Step)
}

func TestRegistrationTimingValidation(t *testing.T) {
	cases := []struct {
		name        string
		openingDate string
		openingTime string
		wantField   string
	}{
		{"valid date and time", "2025-07-30", "14:30", ""},
		{"impossible date", "2025-13-40", "14:30", "opening_date"},
		{"wrong date format", "07/30/2025", "14:30", "opening_date"},
		{"empty date", "", "14:30", "opening_date"},
		{"wrong time format", "2025-07-30", "2:30pm", "opening_time"},
		{"out of range time", "2025-07-30", "25:00", "opening_time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(100, 200)
			require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))
			require.NoError(t, s.SelectTournamentType(models.TournamentTeam))
			require.NoError(t, s.Proceed())
			require.NoError(t, s.SelectBracketType(models.BracketRoundRobin))
			require.NoError(t, s.Proceed())
			require.NoError(t, s.SelectBestOf(models.BestOf1))
			require.NoError(t, s.Proceed())

			err := s.SubmitRegistrationTiming(tc.openingDate, tc.openingTime, "2025-08-01", "18:00")
			if tc.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, StepScrimTiming, s.Step)
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.wantField, ve.Field)
			assert.Equal(t, StepRegistrationTiming, s.Step)

			// The rejected raw input is retained for the reopened form.
			assert.Equal(t, tc.openingDate, s.Draft.RegistrationOpeningDateInput)
			assert.Equal(t, tc.openingTime, s.Draft.RegistrationOpeningTimeInput)
		})
	}
}

func TestSubmitInfoTeamCap(t *testing.T) {
	cases := []struct {
		teamCap string
		valid   bool
	}{
		{"3", true},
		{"10", true},
		{"7", true},
		{"2", false},
		{"11", false},
		{"abc", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run("teamcap "+tc.teamCap, func(t *testing.T) {
			s := advanceToInfo(t, models.TournamentTeam)
			err := s.SubmitInfo(tc.teamCap, "", "", "")
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, StepConfirm, s.Step)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "teamcap", ve.Field)
			assert.Equal(t, tc.teamCap, ve.Value)
			assert.Equal(t, StepInfo, s.Step)
		})
	}
}

func TestSubmitInfoRejectionLeavesDraftUntouched(t *testing.T) {
	s := advanceToInfo(t, models.TournamentTeam)

	// A valid team cap paired with an oversized prize rejects the whole
	// submission without applying any field.
	err := s.SubmitInfo("8", strings.Repeat("x", 51), "", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "prize", ve.Field)

	assert.Equal(t, 5, s.Draft.TeamCap)
	assert.Empty(t, s.Draft.Prize)
	assert.Equal(t, StepInfo, s.Step)

	require.NoError(t, s.SubmitInfo("8", "Medal", "", ""))
	assert.Equal(t, 8, s.Draft.TeamCap)
}

func TestSubmitInfoTeamCapIgnoredForSolo(t *testing.T) {
	s := advanceToInfo(t, models.TournamentSolo)

	// For non-team tournaments the cap field is not part of the form.
	require.NoError(t, s.SubmitInfo("", "Medal", "", ""))
	assert.Equal(t, 5, s.Draft.TeamCap)
	assert.Equal(t, StepConfirm, s.Step)
}

func TestConfirmBuildsScrim(t *testing.T) {
	s := advanceToInfo(t, models.TournamentTeam)
	require.NoError(t, s.SubmitInfo("8", "Medal", "No smurfing", "Weekly scrim"))

	scrim, err := s.Confirm()
	require.NoError(t, err)
	require.NotNil(t, scrim)

	assert.Equal(t, "Summer Cup", scrim.Name)
	assert.Equal(t, int64(100), scrim.GuildID)
	assert.Equal(t, 8, scrim.TeamCap)
	assert.Equal(t, models.TournamentTeam, scrim.TournamentType)
	assert.Equal(t, models.BracketSingleElimination, scrim.BracketType)
	assert.Equal(t, models.BestOf3, scrim.BestOf)
	assert.Equal(t, time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC), scrim.RegistrationOpeningTime)
	assert.Equal(t, time.Date(2025, 7, 10, 18, 0, 0, 0, time.UTC), scrim.RegistrationClosingTime)
	assert.Equal(t, time.Date(2025, 7, 12, 14, 30, 0, 0, time.UTC), scrim.Time)
	require.NotNil(t, scrim.Prize)
	assert.Equal(t, "Medal", *scrim.Prize)

	assert.Equal(t, StepCommitted, s.Step)

	// A committed session cannot be confirmed again.
	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestConfirmEmptyOptionalFieldsAreNil(t *testing.T) {
	s := advanceToInfo(t, models.TournamentDuo)
	require.NoError(t, s.SubmitInfo("", "", "", ""))

	scrim, err := s.Confirm()
	require.NoError(t, err)
	assert.Nil(t, scrim.Prize)
	assert.Nil(t, scrim.Rules)
	assert.Nil(t, scrim.Description)
}

func TestConfirmRejectsClosingBeforeOpening(t *testing.T) {
	s := NewSession(100, 200)
	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))
	require.NoError(t, s.SelectTournamentType(models.TournamentSolo))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SelectBracketType(models.BracketSwiss))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SelectBestOf(models.BestOf5))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SubmitRegistrationTiming("2025-07-10", "18:00", "2025-07-01", "10:00"))
	require.NoError(t, s.SubmitScrimTiming("2025-07-12", "14:30"))
	require.NoError(t, s.SubmitInfo("", "", "", ""))

	_, err := s.Confirm()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "registration_closing", ve.Field)
	assert.Equal(t, StepConfirm, s.Step)
}

func TestConfirmRejectsScrimBeforeRegistrationOpens(t *testing.T) {
	s := NewSession(100, 200)
	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))
	require.NoError(t, s.SelectTournamentType(models.TournamentSolo))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SelectBracketType(models.BracketSwiss))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SelectBestOf(models.BestOf5))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.SubmitRegistrationTiming("2025-07-01", "10:00", "2025-07-10", "18:00"))
	require.NoError(t, s.SubmitScrimTiming("2025-06-30", "14:30"))
	require.NoError(t, s.SubmitInfo("", "", "", ""))

	_, err := s.Confirm()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "time", ve.Field)
}

func TestSelectRejectsUnknownValues(t *testing.T) {
	s := NewSession(100, 200)
	require.NoError(t, s.SubmitBasic("Summer Cup", "Organizer", "Participant"))

	var ve *ValidationError
	require.ErrorAs(t, s.SelectTournamentType("squad"), &ve)
	assert.Equal(t, "tournament_type", ve.Field)

	require.NoError(t, s.SelectTournamentType(models.TournamentTeam))
	require.NoError(t, s.Proceed())
	require.ErrorAs(t, s.SelectBracketType("ladder"), &ve)
	assert.Equal(t, "bracket_type", ve.Field)

	require.NoError(t, s.SelectBracketType(models.BracketDoubleElimination))
	require.NoError(t, s.Proceed())
	require.ErrorAs(t, s.SelectBestOf(models.BestOf(2)), &ve)
	assert.Equal(t, "best_of", ve.Field)
}
