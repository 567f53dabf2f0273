package botcore

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
)

const (
	statsInterval    = 10 * time.Second
	roleSyncInterval = 5 * time.Minute
)

// statsLoop refreshes the guild snapshot the /api/discord endpoints serve.
func (b *Bot) statsLoop(ctx context.Context) error {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if !b.ready.Load() {
			continue
		}
		if err := b.refreshStats(ctx); err != nil {
			b.logger.Warn("refreshing guild stats", zap.Error(err))
		}
	}
}

func (b *Bot) refreshStats(ctx context.Context) error {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return err
	}

	online := make(map[string]bool, len(guild.Presences))
	for _, p := range guild.Presences {
		if p.Status != discordgo.StatusOffline {
			online[p.User.ID] = true
		}
	}

	snapshot := bridge.StatsSnapshot{
		Total:           guild.MemberCount,
		CEOOnline:       []bridge.MemberInfo{},
		ManagerOnline:   []bridge.MemberInfo{},
		CommunityOnline: []bridge.MemberInfo{},
		LastUpdate:      time.Now().UTC(),
	}

	for _, member := range guild.Members {
		if member.User.Bot || !online[member.User.ID] {
			continue
		}
		snapshot.Online++

		info := b.memberInfo(ctx, member)
		switch {
		case hasRoleID(member.Roles, b.checker.CEORoleID()):
			snapshot.CEOOnline = append(snapshot.CEOOnline, info)
		case hasRoleID(member.Roles, b.checker.ManagerRoleID()):
			snapshot.ManagerOnline = append(snapshot.ManagerOnline, info)
		case hasRoleID(member.Roles, b.checker.MemberRoleID()):
			snapshot.CommunityOnline = append(snapshot.CommunityOnline, info)
		}
	}

	b.statsMu.Lock()
	b.stats = snapshot
	b.statsMu.Unlock()
	return nil
}

// memberInfo builds the snapshot entry for one member, enriched from the
// users collection when the member has logged into the site.
func (b *Bot) memberInfo(ctx context.Context, member *discordgo.Member) bridge.MemberInfo {
	displayName := member.Nick
	if displayName == "" {
		displayName = member.User.Username
	}

	info := bridge.MemberInfo{
		DisplayName: displayName,
		Username:    member.User.Username,
		DiscordID:   member.User.ID,
		Avatar:      member.User.Avatar,
	}
	if member.User.Discriminator != "0" {
		info.Discriminator = member.User.Discriminator
	}

	u, err := b.users.ByDiscordID(ctx, member.User.ID)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			b.logger.Debug("loading user for stats", zap.String("discord_id", member.User.ID), zap.Error(err))
		}
		return info
	}

	info.Level = u.Level
	info.XP = u.XP
	info.Badges = u.Badges
	perms := b.checker.PermissionsFor(u)
	info.Permissions = map[string]bool{
		"is_admin":                perms.IsAdmin,
		"is_ceo":                  perms.IsCEO,
		"is_manager":              perms.IsManager,
		"can_manage_applications": perms.CanManageApplications,
	}
	return info
}

// roleSyncLoop mirrors guild role IDs into the users collection so the
// HTTP layer authorizes against fresh data between logins.
func (b *Bot) roleSyncLoop(ctx context.Context) error {
	ticker := time.NewTicker(roleSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if !b.ready.Load() {
			continue
		}
		if err := b.syncRoles(ctx); err != nil {
			b.logger.Warn("syncing guild roles", zap.Error(err))
		}
	}
}

func (b *Bot) syncRoles(ctx context.Context) error {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return err
	}

	var synced int
	for _, member := range guild.Members {
		if member.User.Bot {
			continue
		}
		roles := member.Roles
		if roles == nil {
			roles = []string{}
		}
		// Members who never logged into the site have no user document;
		// SetGuildRoles matches zero documents for them, which is fine.
		if err := b.users.SetGuildRoles(ctx, member.User.ID, roles); err != nil {
			b.logger.Warn("syncing member roles",
				zap.String("discord_id", member.User.ID), zap.Error(err))
			continue
		}
		synced++
	}
	b.logger.Debug("guild roles synced", zap.Int("members", synced))
	return nil
}

func hasRoleID(roles []string, id string) bool {
	if id == "" {
		return false
	}
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}

func formatMemberCount(n int) string {
	return fmt.Sprintf("%d members", n)
}
