package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/scrimworks/scrimbot/models"
)

var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamNameConflict    = errors.New("team name already taken in this scrim")
	ErrTeamCaptainConflict = errors.New("user already captains a team in this scrim")
	ErrTeamSecretConflict  = errors.New("team secret conflict")
	ErrTeamScrimInvalid    = errors.New("team scrim reference invalid")
	ErrMemberNotFound      = errors.New("team member not found")
	ErrMemberConflict      = errors.New("user already has a team in this scrim")
)

type TeamRepository interface {
	// Create inserts the team together with its captain's membership row in
	// one transaction. The unique indexes are the authority on name, secret,
	// captaincy and one-membership-per-scrim conflicts.
	Create(ctx context.Context, team *models.Team) error

	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetBySecret(ctx context.Context, secret string) (*models.Team, error)
	SecretExists(ctx context.Context, secret string) (bool, error)

	// NameExists and CaptainExists mirror the unique indexes so the service
	// can report conflicts in a fixed order before attempting the insert.
	NameExists(ctx context.Context, scrimID int, name string) (bool, error)
	CaptainExists(ctx context.Context, scrimID int, captainID int64) (bool, error)

	// ListByScrimWithMembers loads every team of a scrim including members,
	// used for the roster archive on scrim deletion.
	ListByScrimWithMembers(ctx context.Context, scrimID int) ([]models.Team, error)

	GetMember(ctx context.Context, scrimID int, userID int64) (*models.TeamMember, error)
	AddMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, id int) error
	CountMembers(ctx context.Context, teamID int) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO teams (scrim_id, name, captain_id, max_size, secret)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		team.ScrimID, team.Name, team.CaptainID, team.MaxSize, team.Secret,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return r.handleTeamError(err)
	}

	member := models.TeamMember{TeamID: team.ID, ScrimID: team.ScrimID, UserID: team.CaptainID}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO team_members (team_id, scrim_id, user_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		member.TeamID, member.ScrimID, member.UserID,
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		return r.handleTeamError(err)
	}
	team.Members = []models.TeamMember{member}

	return tx.Commit()
}

func (r *postgresTeamRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.Team, error) {
	query := `SELECT id, scrim_id, name, captain_id, max_size, secret, created_at FROM teams WHERE ` + where
	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.ScrimID, &t.Name, &t.CaptainID, &t.MaxSize, &t.Secret, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *postgresTeamRepository) GetBySecret(ctx context.Context, secret string) (*models.Team, error) {
	return r.getOne(ctx, `secret = $1`, secret)
}

func (r *postgresTeamRepository) SecretExists(ctx context.Context, secret string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE lower(secret) = lower($1))`, secret,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresTeamRepository) NameExists(ctx context.Context, scrimID int, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE scrim_id = $1 AND lower(name) = lower($2))`,
		scrimID, name,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresTeamRepository) CaptainExists(ctx context.Context, scrimID int, captainID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE scrim_id = $1 AND captain_id = $2)`,
		scrimID, captainID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresTeamRepository) ListByScrimWithMembers(ctx context.Context, scrimID int) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, scrim_id, name, captain_id, max_size, secret, created_at
		 FROM teams WHERE scrim_id = $1 ORDER BY id`, scrimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	index := make(map[int]int)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.ScrimID, &t.Name, &t.CaptainID, &t.MaxSize, &t.Secret, &t.CreatedAt); err != nil {
			return nil, err
		}
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := r.db.QueryContext(ctx,
		`SELECT id, team_id, scrim_id, user_id, created_at
		 FROM team_members WHERE scrim_id = $1 ORDER BY id`, scrimID)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var m models.TeamMember
		if err := memberRows.Scan(&m.ID, &m.TeamID, &m.ScrimID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[m.TeamID]; ok {
			teams[i].Members = append(teams[i].Members, m)
		}
	}
	return teams, memberRows.Err()
}

func (r *postgresTeamRepository) GetMember(ctx context.Context, scrimID int, userID int64) (*models.TeamMember, error) {
	m := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, team_id, scrim_id, user_id, created_at
		 FROM team_members WHERE scrim_id = $1 AND user_id = $2`, scrimID, userID,
	).Scan(&m.ID, &m.TeamID, &m.ScrimID, &m.UserID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO team_members (team_id, scrim_id, user_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		member.TeamID, member.ScrimID, member.UserID,
	).Scan(&member.ID, &member.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresTeamRepository) CountMembers(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM team_members WHERE team_id = $1`, teamID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			switch pqErr.Constraint {
			case "teams_scrim_id_lower_name_key":
				return ErrTeamNameConflict
			case "teams_scrim_id_captain_id_key":
				return ErrTeamCaptainConflict
			case "teams_secret_key":
				return ErrTeamSecretConflict
			case "team_members_scrim_id_user_id_key":
				return ErrMemberConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "teams_scrim_id_fkey", "team_members_scrim_id_fkey":
				return ErrTeamScrimInvalid
			case "team_members_team_id_fkey":
				return ErrTeamNotFound
			}
		}
	}
	return err
}
