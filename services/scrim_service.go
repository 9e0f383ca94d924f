package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/scrimworks/scrimbot/events"
	"github.com/scrimworks/scrimbot/models"
	"github.com/scrimworks/scrimbot/platform"
	"github.com/scrimworks/scrimbot/repositories"
	"github.com/scrimworks/scrimbot/storage"
)

type ScrimService interface {
	// CreateScrim provisions the roles and channels for a confirmed draft
	// and then inserts the scrim record. Provisioning failure is fatal:
	// nothing is persisted.
	CreateScrim(ctx context.Context, scrim *models.Scrim, organizerRoleName, participantRoleName string) error

	GetScrim(ctx context.Context, id int) (*models.Scrim, error)
	ListScrims(ctx context.Context, guildID int64) ([]models.Scrim, error)
	SearchScrims(ctx context.Context, guildID int64, query string) ([]models.Scrim, error)
	ResolveRegisterChannel(ctx context.Context, channelID int64) (*models.Scrim, error)

	// DeleteScrim archives the roster, tears down the provisioned
	// resources (best effort) and removes the record; teams and members go
	// with it by cascade.
	DeleteScrim(ctx context.Context, id int, guildID int64) error
}

type scrimService struct {
	scrimRepo   repositories.ScrimRepository
	teamRepo    repositories.TeamRepository
	provisioner platform.Provisioner
	archiver    storage.Archiver // nil disables roster archiving
	hub         *events.Hub
	logger      *slog.Logger
}

func NewScrimService(
	scrimRepo repositories.ScrimRepository,
	teamRepo repositories.TeamRepository,
	provisioner platform.Provisioner,
	archiver storage.Archiver,
	hub *events.Hub,
	logger *slog.Logger,
) ScrimService {
	return &scrimService{
		scrimRepo:   scrimRepo,
		teamRepo:    teamRepo,
		provisioner: provisioner,
		archiver:    archiver,
		hub:         hub,
		logger:      logger,
	}
}

func (s *scrimService) CreateScrim(ctx context.Context, scrim *models.Scrim, organizerRoleName, participantRoleName string) error {
	organizerRoleID, err := s.provisioner.CreateRole(ctx, scrim.GuildID, organizerRoleName)
	if err != nil {
		return fmt.Errorf("%w: organizer role: %w", ErrProvisioningFailed, err)
	}
	participantRoleID, err := s.provisioner.CreateRole(ctx, scrim.GuildID, participantRoleName)
	if err != nil {
		return fmt.Errorf("%w: participant role: %w", ErrProvisioningFailed, err)
	}
	scrim.OrganizerRoleID = &organizerRoleID
	scrim.ParticipantRoleID = &participantRoleID

	// Staff channels: hidden from everyone, open to organizers and the bot.
	staffOnly := []platform.Overwrite{
		{Principal: platform.Everyone(), Read: false, Send: false},
		{Principal: platform.Bot(), Read: true, Send: true},
		{Principal: platform.Role(organizerRoleID), Read: true, Send: true},
	}

	categoryID, err := s.provisioner.CreateCategory(ctx, scrim.GuildID, scrim.Name+" - Tournament", staffOnly)
	if err != nil {
		return fmt.Errorf("%w: category: %w", ErrProvisioningFailed, err)
	}
	scrim.CategoryID = &categoryID

	adminID, err := s.provisioner.CreateTextChannel(ctx, scrim.GuildID, categoryID, "admin", staffOnly)
	if err != nil {
		return fmt.Errorf("%w: admin channel: %w", ErrProvisioningFailed, err)
	}
	scrim.AdminChannelID = &adminID

	logsID, err := s.provisioner.CreateTextChannel(ctx, scrim.GuildID, categoryID, "logs", staffOnly)
	if err != nil {
		return fmt.Errorf("%w: logs channel: %w", ErrProvisioningFailed, err)
	}
	scrim.LogsChannelID = &logsID

	// The register channel stays hidden until the open sweep flips it.
	registerID, err := s.provisioner.CreateTextChannel(ctx, scrim.GuildID, categoryID, "register", []platform.Overwrite{
		{Principal: platform.Everyone(), Read: false, Send: false},
		{Principal: platform.Bot(), Read: true, Send: true},
	})
	if err != nil {
		return fmt.Errorf("%w: register channel: %w", ErrProvisioningFailed, err)
	}
	scrim.RegisterChannelID = &registerID

	announcementsID, err := s.provisioner.CreateTextChannel(ctx, scrim.GuildID, categoryID, "announcements", []platform.Overwrite{
		{Principal: platform.Everyone(), Read: true, Send: false},
		{Principal: platform.Bot(), Read: true, Send: true},
	})
	if err != nil {
		return fmt.Errorf("%w: announcements channel: %w", ErrProvisioningFailed, err)
	}
	scrim.AnnouncementsChannelID = &announcementsID

	if err := s.scrimRepo.Create(ctx, scrim); err != nil {
		return fmt.Errorf("failed to persist scrim: %w", err)
	}

	s.logger.Info("scrim created",
		slog.Int("scrim_id", scrim.ID),
		slog.Int64("guild_id", scrim.GuildID),
		slog.String("name", scrim.Name))
	return nil
}

func (s *scrimService) GetScrim(ctx context.Context, id int) (*models.Scrim, error) {
	scrim, err := s.scrimRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrScrimNotFound
		}
		return nil, err
	}
	return scrim, nil
}

func (s *scrimService) ListScrims(ctx context.Context, guildID int64) ([]models.Scrim, error) {
	return s.scrimRepo.ListByGuild(ctx, guildID)
}

func (s *scrimService) SearchScrims(ctx context.Context, guildID int64, query string) ([]models.Scrim, error) {
	return s.scrimRepo.SearchByName(ctx, guildID, query, 10)
}

func (s *scrimService) ResolveRegisterChannel(ctx context.Context, channelID int64) (*models.Scrim, error) {
	scrim, err := s.scrimRepo.GetByRegisterChannelID(ctx, channelID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrNotRegisterChannel
		}
		return nil, err
	}
	return scrim, nil
}

// rosterArchive is the JSON snapshot parked in object storage before a
// scrim's teams are cascaded away.
type rosterArchive struct {
	Scrim      *models.Scrim `json:"scrim"`
	Teams      []models.Team `json:"teams"`
	ArchivedAt time.Time     `json:"archived_at"`
}

func (s *scrimService) DeleteScrim(ctx context.Context, id int, guildID int64) error {
	scrim, err := s.scrimRepo.GetByIDInGuild(ctx, id, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return ErrScrimNotFound
		}
		return err
	}

	if s.archiver != nil {
		teams, err := s.teamRepo.ListByScrimWithMembers(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load roster for archive", slog.Int("scrim_id", id), slog.Any("error", err))
		} else {
			key := fmt.Sprintf("archives/%d/scrim-%d.json", guildID, id)
			archive := rosterArchive{Scrim: scrim, Teams: teams, ArchivedAt: time.Now().UTC()}
			if err := s.archiver.PutJSON(ctx, key, archive); err != nil {
				s.logger.Warn("failed to archive roster", slog.Int("scrim_id", id), slog.Any("error", err))
			}
		}
	}

	for _, roleID := range []*int64{scrim.OrganizerRoleID, scrim.ParticipantRoleID} {
		if roleID == nil {
			continue
		}
		if err := s.provisioner.DeleteRole(ctx, guildID, *roleID); err != nil {
			s.logger.Warn("failed to delete role",
				slog.Int("scrim_id", id),
				slog.Int64("role_id", *roleID),
				slog.Any("error", err))
		}
	}

	channels := []*int64{
		scrim.AdminChannelID,
		scrim.LogsChannelID,
		scrim.RegisterChannelID,
		scrim.AnnouncementsChannelID,
		scrim.CategoryID,
	}
	for _, channelID := range channels {
		if channelID == nil {
			continue
		}
		if err := s.provisioner.DeleteChannel(ctx, *channelID); err != nil {
			s.logger.Warn("failed to delete channel",
				slog.Int("scrim_id", id),
				slog.Int64("channel_id", *channelID),
				slog.Any("error", err))
		}
	}

	if err := s.scrimRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return ErrScrimNotFound
		}
		return fmt.Errorf("failed to delete scrim %d: %w", id, err)
	}

	s.hub.BroadcastToRoom(strconv.Itoa(id), events.Message{Type: events.TypeScrimDeleted, Payload: map[string]int{"scrim_id": id}})
	s.logger.Info("scrim deleted", slog.Int("scrim_id", id), slog.Int64("guild_id", guildID))
	return nil
}
