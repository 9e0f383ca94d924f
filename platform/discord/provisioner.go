package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/scrimworks/scrimbot/platform"
)

// Provisioner implements platform.Provisioner against the Discord REST API.
type Provisioner struct {
	session *discordgo.Session
	botID   int64
}

func NewProvisioner(session *discordgo.Session) (*Provisioner, error) {
	self, err := session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bot identity: %w", err)
	}
	botID, err := strconv.ParseInt(self.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected bot id %q: %w", self.ID, err)
	}
	return &Provisioner{session: session, botID: botID}, nil
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func (p *Provisioner) overwrites(guildID int64, rows []platform.Overwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(rows))
	for _, row := range rows {
		var po discordgo.PermissionOverwrite
		switch row.Principal.Kind {
		case platform.PrincipalEveryone:
			// The @everyone role shares the guild id.
			po.ID = id(guildID)
			po.Type = discordgo.PermissionOverwriteTypeRole
		case platform.PrincipalBot:
			po.ID = id(p.botID)
			po.Type = discordgo.PermissionOverwriteTypeMember
		case platform.PrincipalRole:
			po.ID = id(row.Principal.RoleID)
			po.Type = discordgo.PermissionOverwriteTypeRole
		}
		if row.Read {
			po.Allow |= discordgo.PermissionViewChannel
		} else {
			po.Deny |= discordgo.PermissionViewChannel
		}
		if row.Send {
			po.Allow |= discordgo.PermissionSendMessages
		} else {
			po.Deny |= discordgo.PermissionSendMessages
		}
		out = append(out, &po)
	}
	return out
}

func (p *Provisioner) CreateRole(ctx context.Context, guildID int64, name string) (int64, error) {
	role, err := p.session.GuildRoleCreate(id(guildID), &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, wrapErr(err)
	}
	return strconv.ParseInt(role.ID, 10, 64)
}

func (p *Provisioner) CreateCategory(ctx context.Context, guildID int64, name string, rows []platform.Overwrite) (int64, error) {
	ch, err := p.session.GuildChannelCreateComplex(id(guildID), discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: p.overwrites(guildID, rows),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, wrapErr(err)
	}
	return strconv.ParseInt(ch.ID, 10, 64)
}

func (p *Provisioner) CreateTextChannel(ctx context.Context, guildID, categoryID int64, name string, rows []platform.Overwrite) (int64, error) {
	ch, err := p.session.GuildChannelCreateComplex(id(guildID), discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             id(categoryID),
		PermissionOverwrites: p.overwrites(guildID, rows),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, wrapErr(err)
	}
	return strconv.ParseInt(ch.ID, 10, 64)
}

func (p *Provisioner) EditChannelAccess(ctx context.Context, guildID, channelID int64, rows []platform.Overwrite) error {
	_, err := p.session.ChannelEditComplex(id(channelID), &discordgo.ChannelEdit{
		PermissionOverwrites: p.overwrites(guildID, rows),
	}, discordgo.WithContext(ctx))
	return wrapErr(err)
}

func (p *Provisioner) DeleteRole(ctx context.Context, guildID, roleID int64) error {
	return wrapErr(p.session.GuildRoleDelete(id(guildID), id(roleID), discordgo.WithContext(ctx)))
}

func (p *Provisioner) DeleteChannel(ctx context.Context, channelID int64) error {
	_, err := p.session.ChannelDelete(id(channelID), discordgo.WithContext(ctx))
	return wrapErr(err)
}

func (p *Provisioner) GrantRole(ctx context.Context, guildID, userID, roleID int64) error {
	return wrapErr(p.session.GuildMemberRoleAdd(id(guildID), id(userID), id(roleID), discordgo.WithContext(ctx)))
}

func (p *Provisioner) Announce(ctx context.Context, channelID int64, message string) error {
	_, err := p.session.ChannelMessageSend(id(channelID), message, discordgo.WithContext(ctx))
	return wrapErr(err)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case 403:
			return fmt.Errorf("%w: %v", platform.ErrPermissionDenied, err)
		case 404:
			return fmt.Errorf("%w: %v", platform.ErrNotFound, err)
		}
	}
	return err
}
