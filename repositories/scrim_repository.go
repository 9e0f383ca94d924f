package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scrimworks/scrimbot/models"
)

var (
	ErrScrimNotFound = errors.New("scrim not found")
)

type ScrimRepository interface {
	Create(ctx context.Context, scrim *models.Scrim) error
	GetByID(ctx context.Context, id int) (*models.Scrim, error)
	GetByIDInGuild(ctx context.Context, id int, guildID int64) (*models.Scrim, error)
	GetByRegisterChannelID(ctx context.Context, channelID int64) (*models.Scrim, error)
	ListByGuild(ctx context.Context, guildID int64) ([]models.Scrim, error)

	// SearchByName returns the guild's scrims ranked by trigram similarity
	// to query, newest first among ties. An empty query ranks everything.
	SearchByName(ctx context.Context, guildID int64, query string, limit int) ([]models.Scrim, error)

	// ListRegistrationOpenable selects scrims whose registration window
	// contains now but whose flag has not been flipped yet. The flag is the
	// single source of truth for "side effect already applied", so a scrim
	// flipped by an in-flight transition drops out of the next selection.
	ListRegistrationOpenable(ctx context.Context, now time.Time) ([]*models.Scrim, error)
	ListRegistrationClosable(ctx context.Context, now time.Time) ([]*models.Scrim, error)
	SetRegistrationOpen(ctx context.Context, exec SQLExecutor, id int, open bool) error

	Delete(ctx context.Context, id int) error
}

type postgresScrimRepository struct {
	db *sql.DB
}

func NewPostgresScrimRepository(db *sql.DB) ScrimRepository {
	return &postgresScrimRepository{db: db}
}

func (r *postgresScrimRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const scrimColumns = `
	id, name, guild_id, scrim_time, registration_opening_time, registration_closing_time,
	teamcap, max_team_size, best_of, tournament_type, bracket_type,
	prize, rules, description,
	category_id, admin_channel_id, logs_channel_id, register_channel_id,
	announcements_channel_id, organizer_role_id, participant_role_id,
	registration_open, created_at`

func scanScrim(row interface{ Scan(...interface{}) error }, s *models.Scrim) error {
	return row.Scan(
		&s.ID, &s.Name, &s.GuildID, &s.Time, &s.RegistrationOpeningTime, &s.RegistrationClosingTime,
		&s.TeamCap, &s.MaxTeamSize, &s.BestOf, &s.TournamentType, &s.BracketType,
		&s.Prize, &s.Rules, &s.Description,
		&s.CategoryID, &s.AdminChannelID, &s.LogsChannelID, &s.RegisterChannelID,
		&s.AnnouncementsChannelID, &s.OrganizerRoleID, &s.ParticipantRoleID,
		&s.RegistrationOpen, &s.CreatedAt,
	)
}

func (r *postgresScrimRepository) Create(ctx context.Context, s *models.Scrim) error {
	query := `
		INSERT INTO scrims (
			name, guild_id, scrim_time, registration_opening_time, registration_closing_time,
			teamcap, max_team_size, best_of, tournament_type, bracket_type,
			prize, rules, description,
			category_id, admin_channel_id, logs_channel_id, register_channel_id,
			announcements_channel_id, organizer_role_id, participant_role_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, registration_open, created_at`

	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.GuildID, s.Time, s.RegistrationOpeningTime, s.RegistrationClosingTime,
		s.TeamCap, s.MaxTeamSize, s.BestOf, s.TournamentType, s.BracketType,
		s.Prize, s.Rules, s.Description,
		s.CategoryID, s.AdminChannelID, s.LogsChannelID, s.RegisterChannelID,
		s.AnnouncementsChannelID, s.OrganizerRoleID, s.ParticipantRoleID,
	).Scan(&s.ID, &s.RegistrationOpen, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert scrim: %w", err)
	}
	return nil
}

func (r *postgresScrimRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.Scrim, error) {
	query := `SELECT` + scrimColumns + ` FROM scrims WHERE ` + where
	s := &models.Scrim{}
	err := scanScrim(r.db.QueryRowContext(ctx, query, args...), s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScrimNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresScrimRepository) GetByID(ctx context.Context, id int) (*models.Scrim, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *postgresScrimRepository) GetByIDInGuild(ctx context.Context, id int, guildID int64) (*models.Scrim, error) {
	return r.getOne(ctx, `id = $1 AND guild_id = $2`, id, guildID)
}

func (r *postgresScrimRepository) GetByRegisterChannelID(ctx context.Context, channelID int64) (*models.Scrim, error) {
	return r.getOne(ctx, `register_channel_id = $1`, channelID)
}

func (r *postgresScrimRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Scrim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scrims := make([]models.Scrim, 0)
	for rows.Next() {
		var s models.Scrim
		if err := scanScrim(rows, &s); err != nil {
			return nil, err
		}
		scrims = append(scrims, s)
	}
	return scrims, rows.Err()
}

func (r *postgresScrimRepository) ListByGuild(ctx context.Context, guildID int64) ([]models.Scrim, error) {
	query := `SELECT` + scrimColumns + ` FROM scrims WHERE guild_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, guildID)
}

func (r *postgresScrimRepository) SearchByName(ctx context.Context, guildID int64, query string, limit int) ([]models.Scrim, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT` + scrimColumns + `
		FROM scrims
		WHERE guild_id = $1`
	args := []interface{}{guildID, query}
	if query != "" {
		q += ` AND similarity(lower(name), lower($2)) > 0.3`
	}
	q += `
		ORDER BY similarity(name, $2) DESC, id DESC
		LIMIT $3`
	args = append(args, limit)
	return r.list(ctx, q, args...)
}

func (r *postgresScrimRepository) ListRegistrationOpenable(ctx context.Context, now time.Time) ([]*models.Scrim, error) {
	query := `SELECT` + scrimColumns + `
		FROM scrims
		WHERE registration_opening_time <= $1
		  AND registration_closing_time >= $1
		  AND NOT registration_open`
	return r.listPtr(ctx, query, now)
}

func (r *postgresScrimRepository) ListRegistrationClosable(ctx context.Context, now time.Time) ([]*models.Scrim, error) {
	query := `SELECT` + scrimColumns + `
		FROM scrims
		WHERE registration_closing_time <= $1
		  AND registration_open`
	return r.listPtr(ctx, query, now)
}

func (r *postgresScrimRepository) listPtr(ctx context.Context, query string, args ...interface{}) ([]*models.Scrim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scrims []*models.Scrim
	for rows.Next() {
		var s models.Scrim
		if err := scanScrim(rows, &s); err != nil {
			return nil, err
		}
		scrims = append(scrims, &s)
	}
	return scrims, rows.Err()
}

func (r *postgresScrimRepository) SetRegistrationOpen(ctx context.Context, exec SQLExecutor, id int, open bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE scrims SET registration_open = $1 WHERE id = $2`, open, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScrimNotFound)
}

func (r *postgresScrimRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scrims WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScrimNotFound)
}
