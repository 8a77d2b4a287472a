package core

import (
	"context"
	"time"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// Roster is the platform REST surface the engine drives restriction
// side effects through. Owned by the adapter; every call may fail with
// a transient or permission error and is never retried here.
type Roster interface {
	FetchMember(ctx context.Context, guild domain.GuildID, user domain.UserID) (domain.Member, error)
	GrantRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID, reason string) error
	GrantRoles(ctx context.Context, guild domain.GuildID, user domain.UserID, roles []domain.RoleID, reason string) error
	RevokeRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID, reason string) error
	RevokeRoles(ctx context.Context, guild domain.GuildID, user domain.UserID, roles []domain.RoleID, reason string) error
	SetTimeout(ctx context.Context, guild domain.GuildID, user domain.UserID, until time.Time, reason string) error
	ClearTimeout(ctx context.Context, guild domain.GuildID, user domain.UserID, reason string) error
	Ban(ctx context.Context, guild domain.GuildID, user domain.UserID, reason string) error
	Unban(ctx context.Context, guild domain.GuildID, user domain.UserID, reason string) error
}

// AuditSource queries the platform action log. RecentEntry returns the
// single most recent entry of the given action type, ok=false when the
// log has none yet.
type AuditSource interface {
	RecentEntry(ctx context.Context, guild domain.GuildID, action domain.AuditAction) (domain.AuditEntry, bool, error)
}

// Settings resolves the read-only moderation policy for a guild.
type Settings interface {
	Guild(guild domain.GuildID) domain.GuildSettings
}

// Clock exists so tests can drive restriction boundaries.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
