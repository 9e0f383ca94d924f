package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/scrimworks/scrimbot/events"
	"github.com/scrimworks/scrimbot/models"
	"github.com/scrimworks/scrimbot/platform"
	"github.com/scrimworks/scrimbot/repositories"
)

const secretLength = 16

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type TeamService interface {
	CreateTeam(ctx context.Context, scrimID int, userID int64, name string) (*models.Team, error)
	JoinTeam(ctx context.Context, scrimID int, userID int64, secret string) (*models.Team, error)

	// LeaveTeam deletes the caller's membership after an explicit yes from
	// the confirmer. A timeout and an explicit cancel are equivalent: no
	// action is taken and ErrLeaveNotConfirmed is returned.
	LeaveTeam(ctx context.Context, scrimID int, userID int64, confirmer platform.Confirmer) (*models.Team, error)
}

type teamService struct {
	teamRepo    repositories.TeamRepository
	scrimRepo   repositories.ScrimRepository
	provisioner platform.Provisioner
	hub         *events.Hub
	logger      *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	scrimRepo repositories.ScrimRepository,
	provisioner platform.Provisioner,
	hub *events.Hub,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:    teamRepo,
		scrimRepo:   scrimRepo,
		provisioner: provisioner,
		hub:         hub,
		logger:      logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, scrimID int, userID int64, name string) (*models.Team, error) {
	scrim, err := s.scrimRepo.GetByID(ctx, scrimID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrScrimNotFound
		}
		return nil, fmt.Errorf("failed to load scrim %d: %w", scrimID, err)
	}

	// Pre-checks in a fixed order: duplicate name, then captaincy, then
	// membership. The unique indexes remain the authority if a concurrent
	// request slips past them.
	taken, err := s.teamRepo.NameExists(ctx, scrimID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}
	if taken {
		return nil, ErrDuplicateTeamName
	}

	captain, err := s.teamRepo.CaptainExists(ctx, scrimID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check captaincy: %w", err)
	}
	if captain {
		return nil, ErrAlreadyCaptain
	}

	if _, err := s.teamRepo.GetMember(ctx, scrimID, userID); err == nil {
		return nil, ErrAlreadyParticipant
	} else if !errors.Is(err, repositories.ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	team := &models.Team{
		ScrimID:   scrimID,
		Name:      name,
		CaptainID: userID,
		MaxSize:   scrim.MaxTeamSize,
	}

	for {
		secret, err := s.uniqueSecret(ctx)
		if err != nil {
			return nil, err
		}
		team.Secret = secret

		err = s.teamRepo.Create(ctx, team)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repositories.ErrTeamSecretConflict):
			// Lost the race on the secret index; generate a fresh one.
			continue
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrDuplicateTeamName
		case errors.Is(err, repositories.ErrTeamCaptainConflict):
			return nil, ErrAlreadyCaptain
		case errors.Is(err, repositories.ErrMemberConflict):
			return nil, ErrAlreadyParticipant
		case errors.Is(err, repositories.ErrTeamScrimInvalid):
			return nil, ErrScrimNotFound
		default:
			return nil, fmt.Errorf("failed to create team: %w", err)
		}
	}

	// The ledger write is committed; a failed role grant must not fail the
	// operation.
	if scrim.ParticipantRoleID != nil {
		if err := s.provisioner.GrantRole(ctx, scrim.GuildID, userID, *scrim.ParticipantRoleID); err != nil {
			s.logger.Warn("failed to grant participant role",
				slog.Int("scrim_id", scrimID),
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
	}

	s.logActivity(ctx, scrim, fmt.Sprintf("Created team **%s** (code: `%s`)", team.Name, team.Secret))
	s.hub.BroadcastToRoom(strconv.Itoa(scrimID), events.Message{Type: events.TypeTeamCreated, Payload: team})

	return team, nil
}

func (s *teamService) JoinTeam(ctx context.Context, scrimID int, userID int64, secret string) (*models.Team, error) {
	scrim, err := s.scrimRepo.GetByID(ctx, scrimID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrScrimNotFound
		}
		return nil, fmt.Errorf("failed to load scrim %d: %w", scrimID, err)
	}

	team, err := s.teamRepo.GetBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrInvalidJoinCode
		}
		return nil, fmt.Errorf("failed to look up team by code: %w", err)
	}
	if team.ScrimID != scrimID {
		return nil, ErrInvalidJoinCode
	}

	if _, err := s.teamRepo.GetMember(ctx, scrimID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, repositories.ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	count, err := s.teamRepo.CountMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count team members: %w", err)
	}
	if count >= team.MaxSize {
		return nil, ErrTeamFull
	}

	member := &models.TeamMember{TeamID: team.ID, ScrimID: scrimID, UserID: userID}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrMemberConflict) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}

	s.logActivity(ctx, scrim, fmt.Sprintf("User %d joined team **%s**", userID, team.Name))
	s.hub.BroadcastToRoom(strconv.Itoa(scrimID), events.Message{Type: events.TypeTeamMemberJoined, Payload: member})

	return team, nil
}

func (s *teamService) LeaveTeam(ctx context.Context, scrimID int, userID int64, confirmer platform.Confirmer) (*models.Team, error) {
	scrim, err := s.scrimRepo.GetByID(ctx, scrimID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrScrimNotFound
		}
		return nil, fmt.Errorf("failed to load scrim %d: %w", scrimID, err)
	}

	member, err := s.teamRepo.GetMember(ctx, scrimID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotAMember
		}
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}

	team, err := s.teamRepo.GetByID(ctx, member.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", member.TeamID, err)
	}

	if team.CaptainID == userID {
		return nil, ErrCaptainCannotLeave
	}

	ok, err := confirmer.Confirm(ctx, userID, fmt.Sprintf("You are about to leave the team %q. Do you want to proceed?", team.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to confirm leave: %w", err)
	}
	if !ok {
		return nil, ErrLeaveNotConfirmed
	}

	if err := s.teamRepo.RemoveMember(ctx, member.ID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotAMember
		}
		return nil, fmt.Errorf("failed to remove team member: %w", err)
	}

	s.logActivity(ctx, scrim, fmt.Sprintf("User %d left team **%s**", userID, team.Name))
	s.hub.BroadcastToRoom(strconv.Itoa(scrimID), events.Message{Type: events.TypeTeamMemberLeft, Payload: member})

	return team, nil
}

func (s *teamService) logActivity(ctx context.Context, scrim *models.Scrim, message string) {
	if scrim.LogsChannelID == nil {
		return
	}
	if err := s.provisioner.Announce(ctx, *scrim.LogsChannelID, message); err != nil {
		s.logger.Warn("failed to post activity log",
			slog.Int("scrim_id", scrim.ID),
			slog.Any("error", err))
	}
}

// uniqueSecret generates join codes until it finds one absent from the
// ledger. The loop is bounded only by success; with a 62^16 space a
// collision re-roll is effectively theoretical.
func (s *teamService) uniqueSecret(ctx context.Context) (string, error) {
	for {
		secret, err := randomString(secretLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		exists, err := s.teamRepo.SecretExists(ctx, secret)
		if err != nil {
			return "", fmt.Errorf("failed to check join code uniqueness: %w", err)
		}
		if !exists {
			return secret, nil
		}
	}
}

func randomString(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = secretAlphabet[n.Int64()]
	}
	return string(out), nil
}
