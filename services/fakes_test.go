package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/scrimworks/scrimbot/models"
	"github.com/scrimworks/scrimbot/platform"
	"github.com/scrimworks/scrimbot/repositories"
)

type fakeScrimRepo struct {
	mu     sync.Mutex
	nextID int
	scrims map[int]*models.Scrim
}

func newFakeScrimRepo() *fakeScrimRepo {
	return &fakeScrimRepo{nextID: 1, scrims: make(map[int]*models.Scrim)}
}

func (r *fakeScrimRepo) add(s *models.Scrim) *models.Scrim {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	r.scrims[s.ID] = s
	return s
}

func (r *fakeScrimRepo) Create(_ context.Context, s *models.Scrim) error {
	r.add(s)
	return nil
}

func (r *fakeScrimRepo) GetByID(_ context.Context, id int) (*models.Scrim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scrims[id]
	if !ok {
		return nil, repositories.ErrScrimNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeScrimRepo) GetByIDInGuild(ctx context.Context, id int, guildID int64) (*models.Scrim, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.GuildID != guildID {
		return nil, repositories.ErrScrimNotFound
	}
	return s, nil
}

func (r *fakeScrimRepo) GetByRegisterChannelID(_ context.Context, channelID int64) (*models.Scrim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scrims {
		if s.RegisterChannelID != nil && *s.RegisterChannelID == channelID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repositories.ErrScrimNotFound
}

func (r *fakeScrimRepo) ListByGuild(_ context.Context, guildID int64) ([]models.Scrim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Scrim, 0)
	for _, s := range r.scrims {
		if s.GuildID == guildID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeScrimRepo) SearchByName(_ context.Context, guildID int64, query string, limit int) ([]models.Scrim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Scrim, 0)
	for _, s := range r.scrims {
		if s.GuildID == guildID && strings.Contains(strings.ToLower(s.Name), strings.ToLower(query)) {
			out = append(out, *s)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeScrimRepo) ListRegistrationOpenable(_ context.Context, now time.Time) ([]*models.Scrim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Scrim
	for _, s := range r.scrims {
		if !s.RegistrationOpeningTime.After(now) && !s.RegistrationClosingTime.Before(now) && !s.RegistrationOpen {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeScrimRepo) ListRegistrationClosable(_ context.Context, now time.Time) ([]*models.Scrim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Scrim
	for _, s := range r.scrims {
		if !s.RegistrationClosingTime.After(now) && s.RegistrationOpen {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeScrimRepo) SetRegistrationOpen(_ context.Context, _ repositories.SQLExecutor, id int, open bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scrims[id]
	if !ok {
		return repositories.ErrScrimNotFound
	}
	s.RegistrationOpen = open
	return nil
}

func (r *fakeScrimRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scrims[id]; !ok {
		return repositories.ErrScrimNotFound
	}
	delete(r.scrims, id)
	return nil
}

type fakeTeamRepo struct {
	mu           sync.Mutex
	nextTeamID   int
	nextMemberID int
	teams        map[int]*models.Team
	members      map[int]*models.TeamMember
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		nextTeamID:   1,
		nextMemberID: 1,
		teams:        make(map[int]*models.Team),
		members:      make(map[int]*models.TeamMember),
	}
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ScrimID == team.ScrimID && strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
		if t.ScrimID == team.ScrimID && t.CaptainID == team.CaptainID {
			return repositories.ErrTeamCaptainConflict
		}
		if t.Secret == team.Secret {
			return repositories.ErrTeamSecretConflict
		}
	}
	for _, m := range r.members {
		if m.ScrimID == team.ScrimID && m.UserID == team.CaptainID {
			return repositories.ErrMemberConflict
		}
	}

	team.ID = r.nextTeamID
	r.nextTeamID++
	copied := *team
	r.teams[team.ID] = &copied

	member := models.TeamMember{ID: r.nextMemberID, TeamID: team.ID, ScrimID: team.ScrimID, UserID: team.CaptainID}
	r.nextMemberID++
	r.members[member.ID] = &member
	team.Members = []models.TeamMember{member}
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) GetBySecret(_ context.Context, secret string) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.Secret == secret {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) SecretExists(_ context.Context, secret string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if strings.EqualFold(t.Secret, secret) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) NameExists(_ context.Context, scrimID int, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ScrimID == scrimID && strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) CaptainExists(_ context.Context, scrimID int, captainID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ScrimID == scrimID && t.CaptainID == captainID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) ListByScrimWithMembers(_ context.Context, scrimID int) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Team, 0)
	for _, t := range r.teams {
		if t.ScrimID != scrimID {
			continue
		}
		copied := *t
		for _, m := range r.members {
			if m.TeamID == t.ID {
				copied.Members = append(copied.Members, *m)
			}
		}
		out = append(out, copied)
	}
	return out, nil
}

func (r *fakeTeamRepo) GetMember(_ context.Context, scrimID int, userID int64) (*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ScrimID == scrimID && m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMemberNotFound
}

func (r *fakeTeamRepo) AddMember(_ context.Context, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ScrimID == member.ScrimID && m.UserID == member.UserID {
			return repositories.ErrMemberConflict
		}
	}
	member.ID = r.nextMemberID
	r.nextMemberID++
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return repositories.ErrMemberNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeTeamRepo) CountMembers(_ context.Context, teamID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.members {
		if m.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

// fakeProvisioner hands out sequential resource ids and records channel
// access edits. editErr, when set, fails EditChannelAccess.
type fakeProvisioner struct {
	mu      sync.Mutex
	nextID  int64
	edits   map[int64][]platform.Overwrite
	grants  []int64
	posts   []string
	editErr error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{nextID: 1000, edits: make(map[int64][]platform.Overwrite)}
}

func (p *fakeProvisioner) allocate() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	return p.nextID
}

func (p *fakeProvisioner) CreateRole(_ context.Context, _ int64, _ string) (int64, error) {
	return p.allocate(), nil
}

func (p *fakeProvisioner) CreateCategory(_ context.Context, _ int64, _ string, _ []platform.Overwrite) (int64, error) {
	return p.allocate(), nil
}

func (p *fakeProvisioner) CreateTextChannel(_ context.Context, _, _ int64, _ string, _ []platform.Overwrite) (int64, error) {
	return p.allocate(), nil
}

func (p *fakeProvisioner) EditChannelAccess(_ context.Context, _, channelID int64, overwrites []platform.Overwrite) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.editErr != nil {
		return p.editErr
	}
	p.edits[channelID] = overwrites
	return nil
}

func (p *fakeProvisioner) DeleteRole(_ context.Context, _, _ int64) error { return nil }

func (p *fakeProvisioner) DeleteChannel(_ context.Context, _ int64) error { return nil }

func (p *fakeProvisioner) GrantRole(_ context.Context, _, userID, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grants = append(p.grants, userID)
	return nil
}

func (p *fakeProvisioner) Announce(_ context.Context, _ int64, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, message)
	return nil
}

type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, _ int64, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}
