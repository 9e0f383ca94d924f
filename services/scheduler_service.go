package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scrimworks/scrimbot/events"
	"github.com/scrimworks/scrimbot/models"
	"github.com/scrimworks/scrimbot/platform"
	"github.com/scrimworks/scrimbot/repositories"
)

// maxConcurrentTransitions caps the per-sweep fan-out so a backlog of due
// scrims cannot flood the platform API.
const maxConcurrentTransitions = 8

type SchedulerService interface {
	// Run sweeps on every tick until ctx is cancelled. Sweep errors are
	// logged, never returned; a failed transition is retried naturally on
	// the next tick because the registration flag was not flipped.
	Run(ctx context.Context, interval time.Duration)

	RunOpenSweep(ctx context.Context, now time.Time)
	RunCloseSweep(ctx context.Context, now time.Time)
}

type schedulerService struct {
	scrimRepo   repositories.ScrimRepository
	provisioner platform.Provisioner
	hub         *events.Hub
	logger      *slog.Logger
}

func NewSchedulerService(
	scrimRepo repositories.ScrimRepository,
	provisioner platform.Provisioner,
	hub *events.Hub,
	logger *slog.Logger,
) SchedulerService {
	return &schedulerService{
		scrimRepo:   scrimRepo,
		provisioner: provisioner,
		hub:         hub,
		logger:      logger,
	}
}

func (s *schedulerService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("registration scheduler started", slog.Duration("interval", interval))

	for {
		now := time.Now().UTC()
		s.RunOpenSweep(ctx, now)
		s.RunCloseSweep(ctx, now)

		select {
		case <-ctx.Done():
			s.logger.Info("registration scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *schedulerService) RunOpenSweep(ctx context.Context, now time.Time) {
	scrims, err := s.scrimRepo.ListRegistrationOpenable(ctx, now)
	if err != nil {
		s.logger.Error("open sweep: failed to list due scrims", slog.Any("error", err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTransitions)
	for _, scrim := range scrims {
		scrim := scrim
		g.Go(func() error {
			if err := s.openRegistration(gctx, scrim); err != nil {
				s.logger.Error("failed to open registration",
					slog.Int("scrim_id", scrim.ID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	g.Wait()
}

func (s *schedulerService) RunCloseSweep(ctx context.Context, now time.Time) {
	scrims, err := s.scrimRepo.ListRegistrationClosable(ctx, now)
	if err != nil {
		s.logger.Error("close sweep: failed to list due scrims", slog.Any("error", err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTransitions)
	for _, scrim := range scrims {
		scrim := scrim
		g.Go(func() error {
			if err := s.closeRegistration(gctx, scrim); err != nil {
				s.logger.Error("failed to close registration",
					slog.Int("scrim_id", scrim.ID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	g.Wait()
}

// openRegistration makes the register channel visible and writable and only
// then flips the flag. If the channel edit fails the flag stays false and the
// next sweep picks the scrim up again.
func (s *schedulerService) openRegistration(ctx context.Context, scrim *models.Scrim) error {
	if scrim.RegisterChannelID == nil || scrim.ParticipantRoleID == nil {
		s.logger.Warn("scrim missing register channel or participant role, skipping",
			slog.Int("scrim_id", scrim.ID))
		return nil
	}

	overwrites := []platform.Overwrite{
		{Principal: platform.Everyone(), Read: true, Send: true},
		{Principal: platform.Role(*scrim.ParticipantRoleID), Read: true, Send: true},
		{Principal: platform.Bot(), Read: true, Send: true},
	}
	if err := s.provisioner.EditChannelAccess(ctx, scrim.GuildID, *scrim.RegisterChannelID, overwrites); err != nil {
		return fmt.Errorf("failed to unlock register channel: %w", err)
	}

	if err := s.scrimRepo.SetRegistrationOpen(ctx, nil, scrim.ID, true); err != nil {
		return fmt.Errorf("failed to mark registration open: %w", err)
	}

	s.announce(ctx, scrim, fmt.Sprintf("Registration for **%s** is now open.", scrim.Name))
	s.hub.BroadcastToRoom(strconv.Itoa(scrim.ID), events.Message{
		Type:    events.TypeRegistrationOpened,
		Payload: map[string]int{"scrim_id": scrim.ID},
	})

	s.logger.Info("registration opened", slog.Int("scrim_id", scrim.ID), slog.String("name", scrim.Name))
	return nil
}

func (s *schedulerService) closeRegistration(ctx context.Context, scrim *models.Scrim) error {
	if scrim.RegisterChannelID == nil || scrim.ParticipantRoleID == nil {
		s.logger.Warn("scrim missing register channel or participant role, skipping",
			slog.Int("scrim_id", scrim.ID))
		return nil
	}

	overwrites := []platform.Overwrite{
		{Principal: platform.Everyone(), Read: false, Send: false},
		{Principal: platform.Role(*scrim.ParticipantRoleID), Read: false, Send: false},
		{Principal: platform.Bot(), Read: true, Send: true},
	}
	if err := s.provisioner.EditChannelAccess(ctx, scrim.GuildID, *scrim.RegisterChannelID, overwrites); err != nil {
		return fmt.Errorf("failed to lock register channel: %w", err)
	}

	if err := s.scrimRepo.SetRegistrationOpen(ctx, nil, scrim.ID, false); err != nil {
		return fmt.Errorf("failed to mark registration closed: %w", err)
	}

	s.announce(ctx, scrim, fmt.Sprintf("Registration for **%s** is now closed.", scrim.Name))
	s.hub.BroadcastToRoom(strconv.Itoa(scrim.ID), events.Message{
		Type:    events.TypeRegistrationClosed,
		Payload: map[string]int{"scrim_id": scrim.ID},
	})

	s.logger.Info("registration closed", slog.Int("scrim_id", scrim.ID), slog.String("name", scrim.Name))
	return nil
}

func (s *schedulerService) announce(ctx context.Context, scrim *models.Scrim, message string) {
	if scrim.LogsChannelID == nil {
		return
	}
	if err := s.provisioner.Announce(ctx, *scrim.LogsChannelID, message); err != nil {
		s.logger.Warn("failed to announce registration transition",
			slog.Int("scrim_id", scrim.ID),
			slog.Any("error", err))
	}
}
