package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimworks/scrimbot/events"
	"github.com/scrimworks/scrimbot/models"
	"github.com/scrimworks/scrimbot/platform"
)

func setupScheduler(t *testing.T) (SchedulerService, *fakeScrimRepo, *fakeProvisioner) {
	t.Helper()
	scrimRepo := newFakeScrimRepo()
	provisioner := newFakeProvisioner()
	hub := events.NewHub(testLogger())
	svc := NewSchedulerService(scrimRepo, provisioner, hub, testLogger())
	return svc, scrimRepo, provisioner
}

func seedSweepScrim(repo *fakeScrimRepo, opening, closing time.Time, open bool) *models.Scrim {
	registerChannel := int64(400)
	logsChannel := int64(401)
	participantRole := int64(402)
	return repo.add(&models.Scrim{
		Name:                    "Summer Cup",
		GuildID:                 100,
		RegistrationOpeningTime: opening,
		RegistrationClosingTime: closing,
		RegistrationOpen:        open,
		RegisterChannelID:       &registerChannel,
		LogsChannelID:           &logsChannel,
		ParticipantRoleID:       &participantRole,
	})
}

func TestOpenSweepFlipsDueScrims(t *testing.T) {
	svc, scrimRepo, provisioner := setupScheduler(t)
	now := time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)

	due := seedSweepScrim(scrimRepo, now.Add(-time.Hour), now.Add(time.Hour), false)
	early := seedSweepScrim(scrimRepo, now.Add(time.Hour), now.Add(2*time.Hour), false)

	svc.RunOpenSweep(context.Background(), now)

	updated, err := scrimRepo.GetByID(context.Background(), due.ID)
	require.NoError(t, err)
	assert.True(t, updated.RegistrationOpen)

	untouched, err := scrimRepo.GetByID(context.Background(), early.ID)
	require.NoError(t, err)
	assert.False(t, untouched.RegistrationOpen)

	// The register channel was unlocked for everyone.
	edit, ok := provisioner.edits[*due.RegisterChannelID]
	require.True(t, ok)
	var everyoneRead bool
	for _, row := range edit {
		if row.Principal.Kind == platform.PrincipalEveryone {
			everyoneRead = row.Read && row.Send
		}
	}
	assert.True(t, everyoneRead)

	require.Len(t, provisioner.posts, 1)
	assert.Contains(t, provisioner.posts[0], "open")
}

func TestOpenSweepIsIdempotentAcrossRuns(t *testing.T) {
	svc, scrimRepo, provisioner := setupScheduler(t)
	now := time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)

	seedSweepScrim(scrimRepo, now.Add(-time.Hour), now.Add(time.Hour), false)

	svc.RunOpenSweep(context.Background(), now)
	svc.RunOpenSweep(context.Background(), now.Add(time.Minute))

	// The flag dropped the scrim from the second selection: one announcement.
	assert.Len(t, provisioner.posts, 1)
}

func TestOpenSweepRetriesAfterChannelEditFailure(t *testing.T) {
	svc, scrimRepo, provisioner := setupScheduler(t)
	now := time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)

	scrim := seedSweepScrim(scrimRepo, now.Add(-time.Hour), now.Add(time.Hour), false)

	provisioner.editErr = errors.New("rate limited")
	svc.RunOpenSweep(context.Background(), now)

	// The flip happens only after the channel edit succeeds.
	updated, err := scrimRepo.GetByID(context.Background(), scrim.ID)
	require.NoError(t, err)
	assert.False(t, updated.RegistrationOpen)
	assert.Empty(t, provisioner.posts)

	provisioner.editErr = nil
	svc.RunOpenSweep(context.Background(), now.Add(time.Minute))

	updated, err = scrimRepo.GetByID(context.Background(), scrim.ID)
	require.NoError(t, err)
	assert.True(t, updated.RegistrationOpen)
}

func TestCloseSweep(t *testing.T) {
	svc, scrimRepo, provisioner := setupScheduler(t)
	now := time.Date(2025, 7, 10, 18, 0, 0, 0, time.UTC)

	due := seedSweepScrim(scrimRepo, now.Add(-48*time.Hour), now.Add(-time.Minute), true)
	stillOpen := seedSweepScrim(scrimRepo, now.Add(-48*time.Hour), now.Add(time.Hour), true)

	svc.RunCloseSweep(context.Background(), now)

	closed, err := scrimRepo.GetByID(context.Background(), due.ID)
	require.NoError(t, err)
	assert.False(t, closed.RegistrationOpen)

	open, err := scrimRepo.GetByID(context.Background(), stillOpen.ID)
	require.NoError(t, err)
	assert.True(t, open.RegistrationOpen)

	// The register channel was locked again, with the bot keeping access.
	edit, ok := provisioner.edits[*due.RegisterChannelID]
	require.True(t, ok)
	for _, row := range edit {
		switch row.Principal.Kind {
		case platform.PrincipalEveryone, platform.PrincipalRole:
			assert.False(t, row.Read)
			assert.False(t, row.Send)
		case platform.PrincipalBot:
			assert.True(t, row.Read)
		}
	}
}

func TestCloseSweepIgnoresNeverOpenedScrims(t *testing.T) {
	svc, scrimRepo, provisioner := setupScheduler(t)
	now := time.Date(2025, 7, 10, 18, 0, 0, 0, time.UTC)

	// Window already past, but registration was never opened: nothing to close.
	seedSweepScrim(scrimRepo, now.Add(-48*time.Hour), now.Add(-time.Hour), false)

	svc.RunCloseSweep(context.Background(), now)
	assert.Empty(t, provisioner.posts)
	assert.Empty(t, provisioner.edits)
}

func TestSweepSkipsScrimsWithoutProvisionedResources(t *testing.T) {
	svc, scrimRepo, provisioner := setupScheduler(t)
	now := time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)

	scrim := scrimRepo.add(&models.Scrim{
		Name:                    "Broken",
		GuildID:                 100,
		RegistrationOpeningTime: now.Add(-time.Hour),
		RegistrationClosingTime: now.Add(time.Hour),
	})

	svc.RunOpenSweep(context.Background(), now)

	// Nothing to edit, nothing flipped.
	updated, err := scrimRepo.GetByID(context.Background(), scrim.ID)
	require.NoError(t, err)
	assert.False(t, updated.RegistrationOpen)
	assert.Empty(t, provisioner.edits)
}

func TestBoundaryTimesAreInclusive(t *testing.T) {
	svc, scrimRepo, _ := setupScheduler(t)
	now := time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)

	// opening == now is due; closing == now keeps the window open too.
	atBoundary := seedSweepScrim(scrimRepo, now, now.Add(time.Hour), false)
	svc.RunOpenSweep(context.Background(), now)

	updated, err := scrimRepo.GetByID(context.Background(), atBoundary.ID)
	require.NoError(t, err)
	assert.True(t, updated.RegistrationOpen)

	closingNow := seedSweepScrim(scrimRepo, now.Add(-time.Hour), now, true)
	svc.RunCloseSweep(context.Background(), now)

	closed, err := scrimRepo.GetByID(context.Background(), closingNow.ID)
	require.NoError(t, err)
	assert.False(t, closed.RegistrationOpen)
}
