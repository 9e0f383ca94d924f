package models

import "time"

// Team belongs to exactly one scrim. The captain is always also a member;
// CreateTeam inserts both rows. Teams die only with their scrim (cascade).
type Team struct {
	ID        int       `json:"id" db:"id"`
	ScrimID   int       `json:"scrim_id" db:"scrim_id"`
	Name      string    `json:"name" db:"name"`
	CaptainID int64     `json:"captain_id" db:"captain_id"`
	MaxSize   int       `json:"max_size" db:"max_size"`
	Secret    string    `json:"-" db:"secret"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}

type TeamMember struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	ScrimID   int       `json:"scrim_id" db:"scrim_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
