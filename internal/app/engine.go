package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// maxNativeTimeout is the platform ceiling for native timeouts.
const maxNativeTimeout = 28 * 24 * time.Hour

// permanentBanUntil stands in for "no automatic unban".
var permanentBanUntil = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// Engine is the member restriction state machine. All transitions for
// one (guild, member) are serialized through a keyed lock; external
// side effects are applied before the record is mutated, so a failed
// platform call never leaves the record ahead of reality.
type Engine struct {
	store    *core.MemberStore
	roster   core.Roster
	settings core.Settings
	clock    core.Clock
	locks    memberLocks
}

func NewEngine(store *core.MemberStore, roster core.Roster, settings core.Settings, clock core.Clock) *Engine {
	return &Engine{store: store, roster: roster, settings: settings, clock: clock}
}

func auditReason(actor domain.UserID, reason string) string {
	return fmt.Sprintf("(%s) %s", actor, reason)
}

// Mute restricts a member, via the configured mute role when the guild
// has one, otherwise via a platform-native timeout. A zero duration is
// only valid for role mutes and means "no auto-expiry".
func (e *Engine) Mute(ctx context.Context, guild domain.GuildID, m domain.Member, d time.Duration, actor domain.UserID, reason string) error {
	unlock := e.locks.lock(guild, m.User)
	defer unlock()

	cfg := e.settings.Guild(guild)
	now := e.clock.Now()
	if (cfg.HasMuteRole() && m.HasRole(cfg.MuteRole)) || m.TimedOut(now) {
		return core.ErrAlreadyMuted
	}

	rec := e.store.Get(guild, m.User)
	audit := auditReason(actor, reason)

	if cfg.HasMuteRole() {
		if cfg.RemoveRolesOnMute {
			saved := snapshotRoles(m.Roles, guild, cfg.MuteRole)
			if len(saved) > 0 {
				if err := e.roster.RevokeRoles(ctx, guild, m.User, saved, audit); err != nil {
					return fmt.Errorf("strip roles: %w", err)
				}
				rec.SavedRoles = saved
				e.store.MarkDirty(guild)
			}
		}
		if err := e.roster.GrantRole(ctx, guild, m.User, cfg.MuteRole, audit); err != nil {
			return fmt.Errorf("apply mute role: %w", err)
		}
		if d > 0 {
			until := now.Add(d)
			rec.RestrictedUntil = &until
		} else {
			rec.RestrictedUntil = nil
		}
		e.store.MarkDirty(guild)
		log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(m.User)).
			Str("actor", string(actor)).Dur("duration", d).Msg("member role-muted")
		return nil
	}

	if d <= 0 || d > maxNativeTimeout {
		return core.ErrDurationOutOfRange
	}
	if m.Bot {
		return core.ErrBotTimeout
	}
	until := now.Add(d)
	if err := e.roster.SetTimeout(ctx, guild, m.User, until, audit); err != nil {
		return fmt.Errorf("set native timeout: %w", err)
	}
	rec.RestrictedUntil = &until
	e.store.MarkDirty(guild)
	log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(m.User)).
		Str("actor", string(actor)).Time("until", until).Msg("member timed out")
	return nil
}

// Unmute lifts whichever mute mechanism is active. Restored roles are
// granted before the mute role is dropped, matching the order the
// member regains visibility in.
func (e *Engine) Unmute(ctx context.Context, guild domain.GuildID, m domain.Member, actor domain.UserID, reason string) error {
	unlock := e.locks.lock(guild, m.User)
	defer unlock()
	return e.unmuteLocked(ctx, guild, m, actor, reason)
}

func (e *Engine) unmuteLocked(ctx context.Context, guild domain.GuildID, m domain.Member, actor domain.UserID, reason string) error {
	cfg := e.settings.Guild(guild)
	now := e.clock.Now()
	rec := e.store.Get(guild, m.User)
	audit := auditReason(actor, reason)

	if cfg.HasMuteRole() && m.HasRole(cfg.MuteRole) {
		if len(rec.SavedRoles) > 0 {
			if err := e.roster.GrantRoles(ctx, guild, m.User, rec.SavedRoles, audit); err != nil {
				return fmt.Errorf("restore roles: %w", err)
			}
			// Cleared exactly once, here: a later unmute must never
			// re-apply a stale snapshot.
			rec.SavedRoles = nil
			e.store.MarkDirty(guild)
		}
		if err := e.roster.RevokeRole(ctx, guild, m.User, cfg.MuteRole, audit); err != nil {
			return fmt.Errorf("remove mute role: %w", err)
		}
		rec.RestrictedUntil = nil
		e.store.MarkDirty(guild)
		log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(m.User)).
			Str("actor", string(actor)).Msg("member unmuted")
		return nil
	}

	if m.TimedOut(now) {
		if err := e.roster.ClearTimeout(ctx, guild, m.User, audit); err != nil {
			return fmt.Errorf("clear native timeout: %w", err)
		}
		rec.RestrictedUntil = nil
		e.store.MarkDirty(guild)
		log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(m.User)).
			Str("actor", string(actor)).Msg("native timeout cleared")
		return nil
	}

	return core.ErrNotMuted
}

// Expire is the scheduler's callback surface: lift a restriction whose
// deadline has elapsed. Behaves as an unmute with the system actor.
// Calling it again after it succeeded rejects with ErrNotMuted.
func (e *Engine) Expire(ctx context.Context, guild domain.GuildID, user domain.UserID) error {
	unlock := e.locks.lock(guild, user)
	defer unlock()

	rec := e.store.Get(guild, user)
	now := e.clock.Now()
	if rec.RestrictedUntil == nil {
		return core.ErrNotMuted
	}
	if now.Before(*rec.RestrictedUntil) {
		return core.ErrRestrictionActive
	}

	if !rec.Present {
		// Nothing to lift remotely; the rejoin reconciler will not
		// re-apply an elapsed restriction either.
		rec.RestrictedUntil = nil
		e.store.MarkDirty(guild)
		return nil
	}

	m, err := e.roster.FetchMember(ctx, guild, user)
	if err != nil {
		return fmt.Errorf("fetch member: %w", err)
	}
	err = e.unmuteLocked(ctx, guild, m, domain.SystemActor, "mute expired")
	if errors.Is(err, core.ErrNotMuted) {
		// Lifted out of band; retire the deadline so the sweeper
		// stops revisiting.
		rec.RestrictedUntil = nil
		e.store.MarkDirty(guild)
		return nil
	}
	return err
}

// Ban records and applies a ban. Zero duration is permanent. The
// target does not have to be a current member.
func (e *Engine) Ban(ctx context.Context, guild domain.GuildID, user domain.UserID, d time.Duration, actor domain.UserID, reason string) error {
	unlock := e.locks.lock(guild, user)
	defer unlock()

	rec := e.store.Get(guild, user)
	now := e.clock.Now()
	if rec.Banned(now) {
		return core.ErrAlreadyBanned
	}
	if err := e.roster.Ban(ctx, guild, user, auditReason(actor, reason)); err != nil {
		return fmt.Errorf("ban: %w", err)
	}
	until := permanentBanUntil
	if d > 0 {
		until = now.Add(d)
	}
	rec.BannedUntil = &until
	e.store.MarkDirty(guild)
	log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(user)).
		Str("actor", string(actor)).Dur("duration", d).Msg("member banned")
	return nil
}

func (e *Engine) Unban(ctx context.Context, guild domain.GuildID, user domain.UserID, actor domain.UserID, reason string) error {
	unlock := e.locks.lock(guild, user)
	defer unlock()

	rec := e.store.Get(guild, user)
	if rec.BannedUntil == nil {
		return core.ErrNotBanned
	}
	if err := e.roster.Unban(ctx, guild, user, auditReason(actor, reason)); err != nil {
		return fmt.Errorf("unban: %w", err)
	}
	rec.BannedUntil = nil
	e.store.MarkDirty(guild)
	log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(user)).
		Str("actor", string(actor)).Msg("member unbanned")
	return nil
}

// LiftElapsedBan is the ban counterpart of Expire.
func (e *Engine) LiftElapsedBan(ctx context.Context, guild domain.GuildID, user domain.UserID) error {
	unlock := e.locks.lock(guild, user)
	defer unlock()

	rec := e.store.Get(guild, user)
	now := e.clock.Now()
	if rec.BannedUntil == nil {
		return core.ErrNotBanned
	}
	if now.Before(*rec.BannedUntil) {
		return core.ErrRestrictionActive
	}
	if err := e.roster.Unban(ctx, guild, user, auditReason(domain.SystemActor, "ban expired")); err != nil {
		return fmt.Errorf("unban: %w", err)
	}
	rec.BannedUntil = nil
	e.store.MarkDirty(guild)
	log.Info().Str("module", "app.engine").Str("guild", string(guild)).Str("user", string(user)).Msg("elapsed ban lifted")
	return nil
}
