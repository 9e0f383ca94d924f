package models

import "time"

// TournamentType mirrors the participation shape of a scrim.
type TournamentType string

const (
	TournamentSolo TournamentType = "solo"
	TournamentDuo  TournamentType = "duo"
	TournamentTeam TournamentType = "team"
)

// BracketType names the bracket shape used once the scrim runs. No bracket
// generation happens here; the value is carried for display and export.
type BracketType string

const (
	BracketSingleElimination BracketType = "single_elimination"
	BracketDoubleElimination BracketType = "double_elimination"
	BracketRoundRobin        BracketType = "round_robin"
	BracketSwiss             BracketType = "swiss"
)

// BestOf is the series length of a match. Valid values are 1, 3 and 5.
type BestOf int

const (
	BestOf1 BestOf = 1
	BestOf3 BestOf = 3
	BestOf5 BestOf = 5
)

// Scrim is a tournament instance scoped to one guild. Configuration fields
// are immutable after creation; only RegistrationOpen is mutated (by the
// lifecycle scheduler) and the row is removed by an explicit delete.
type Scrim struct {
	ID                      int            `json:"id" db:"id"`
	Name                    string         `json:"name" db:"name"`
	GuildID                 int64          `json:"guild_id" db:"guild_id"`
	Time                    time.Time      `json:"time" db:"scrim_time"`
	RegistrationOpeningTime time.Time      `json:"registration_opening_time" db:"registration_opening_time"`
	RegistrationClosingTime time.Time      `json:"registration_closing_time" db:"registration_closing_time"`
	TeamCap                 int            `json:"teamcap" db:"teamcap"`
	MaxTeamSize             int            `json:"max_team_size" db:"max_team_size"`
	BestOf                  BestOf         `json:"best_of" db:"best_of"`
	TournamentType          TournamentType `json:"tournament_type" db:"tournament_type"`
	BracketType             BracketType    `json:"bracket_type" db:"bracket_type"`

	Prize       *string `json:"prize,omitempty" db:"prize"`
	Rules       *string `json:"rules,omitempty" db:"rules"`
	Description *string `json:"description,omitempty" db:"description"`

	// Provisioned resource ids, nullable until provisioning completes.
	CategoryID             *int64 `json:"category_id,omitempty" db:"category_id"`
	AdminChannelID         *int64 `json:"admin_channel_id,omitempty" db:"admin_channel_id"`
	LogsChannelID          *int64 `json:"logs_channel_id,omitempty" db:"logs_channel_id"`
	RegisterChannelID      *int64 `json:"register_channel_id,omitempty" db:"register_channel_id"`
	AnnouncementsChannelID *int64 `json:"announcements_channel_id,omitempty" db:"announcements_channel_id"`
	OrganizerRoleID        *int64 `json:"organizer_role_id,omitempty" db:"organizer_role_id"`
	ParticipantRoleID      *int64 `json:"participant_role_id,omitempty" db:"participant_role_id"`

	RegistrationOpen bool      `json:"registration_open" db:"registration_open"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
