package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// OnMemberJoined reconciles record state when a member (re-)enters the
// guild: presence and ban slot are reset, the join is appended to
// history, and an outstanding restriction or a role restore is
// re-applied per guild policy. Restrictions are never lifted here.
func (e *Engine) OnMemberJoined(ctx context.Context, guild domain.GuildID, m domain.Member) error {
	unlock := e.locks.lock(guild, m.User)
	defer unlock()

	cfg := e.settings.Guild(guild)
	rec := e.store.Get(guild, m.User)
	now := e.clock.Now()

	rec.Present = true
	rec.BannedUntil = nil

	if len(rec.LeftAt) > 0 {
		for _, t := range rec.JoinedAt {
			if t.Equal(m.JoinedAt) {
				// A second join with no leave in between cannot happen
				// under a correct feed.
				return &core.InvariantError{Guild: guild, User: m.User, Detail: "duplicate join without intervening leave"}
			}
		}
		rec.JoinedAt = append(rec.JoinedAt, m.JoinedAt)
	} else if len(rec.JoinedAt) == 0 {
		rec.JoinedAt = append(rec.JoinedAt, m.JoinedAt)
	}
	e.store.MarkDirty(guild)

	if rec.Restricted(now) {
		if cfg.HasMuteRole() {
			if err := e.roster.GrantRole(ctx, guild, m.User, cfg.MuteRole, auditReason(domain.SystemActor, "restriction outstanding on rejoin")); err != nil {
				return fmt.Errorf("re-apply mute role: %w", err)
			}
		}
		// The one case saved roles come back while the member stays
		// restricted: the guild never strips roles at mute time, so the
		// snapshot is a mirror of what the member held before leaving.
		if !cfg.RemoveRolesOnMute && cfg.RestoreRolesOnRejoin && len(rec.SavedRoles) > 0 {
			if err := e.roster.GrantRoles(ctx, guild, m.User, rec.SavedRoles, auditReason(domain.SystemActor, "role restore on rejoin")); err != nil {
				return fmt.Errorf("restore roles: %w", err)
			}
		}
		log.Info().Str("module", "app.reconcile").Str("guild", string(guild)).Str("user", string(m.User)).Msg("restriction re-applied on rejoin")
		return nil
	}

	if cfg.RestoreRolesOnRejoin && len(rec.SavedRoles) > 0 {
		if err := e.roster.GrantRoles(ctx, guild, m.User, rec.SavedRoles, auditReason(domain.SystemActor, "role restore on rejoin")); err != nil {
			return fmt.Errorf("restore roles: %w", err)
		}
		log.Info().Str("module", "app.reconcile").Str("guild", string(guild)).Str("user", string(m.User)).Msg("roles restored on rejoin")
	}
	return nil
}

// OnMemberLeft marks the member gone and appends to leave history.
func (e *Engine) OnMemberLeft(ctx context.Context, guild domain.GuildID, user domain.UserID, at time.Time) error {
	unlock := e.locks.lock(guild, user)
	defer unlock()

	rec := e.store.Get(guild, user)
	rec.Present = false
	rec.LeftAt = append(rec.LeftAt, at)
	e.store.MarkDirty(guild)
	log.Debug().Str("module", "app.reconcile").Str("guild", string(guild)).Str("user", string(user)).Msg("member left")
	return nil
}

// OnMemberRolesUpdated keeps the saved-role mirror fresh while the
// member is not muted. While a mute is in flight the snapshot is
// frozen, otherwise the strip/grant churn of the mute itself would
// overwrite what we intend to restore.
func (e *Engine) OnMemberRolesUpdated(ctx context.Context, guild domain.GuildID, m domain.Member) error {
	unlock := e.locks.lock(guild, m.User)
	defer unlock()

	cfg := e.settings.Guild(guild)
	rec := e.store.Get(guild, m.User)
	now := e.clock.Now()

	if rec.Restricted(now) || (cfg.HasMuteRole() && m.HasRole(cfg.MuteRole)) {
		return nil
	}
	rec.SavedRoles = snapshotRoles(m.Roles, guild, cfg.MuteRole)
	e.store.MarkDirty(guild)
	return nil
}
