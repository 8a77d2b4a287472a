package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

const (
	testGuild = domain.GuildID("100")
	muteRole  = domain.RoleID("900")
)

func newTestEngine(cfg domain.GuildSettings) (*Engine, *fakeRoster, *fakeClock, *core.MemberStore) {
	roster := &fakeRoster{}
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := core.NewMemberStore()
	return NewEngine(store, roster, fakeSettings{cfg: cfg}, clock), roster, clock, store
}

func TestMuteRoleBased(t *testing.T) {
	ctx := context.Background()

	t.Run("mute then unmute restores the exact prior role set", func(t *testing.T) {
		e, roster, _, _ := newTestEngine(domain.GuildSettings{MuteRole: muteRole, RemoveRolesOnMute: true})
		m := domain.Member{
			User:  "42",
			Roles: []domain.RoleID{domain.RoleID(testGuild), "r1", "r2"},
		}

		require.NoError(t, e.Mute(ctx, testGuild, m, 10*time.Minute, "op", "spam"))
		assert.Equal(t, []domain.RoleID{"r1", "r2"}, roster.revoked)
		assert.Equal(t, []domain.RoleID{muteRole}, roster.granted)

		rec := e.Record(testGuild, "42")
		assert.Equal(t, []domain.RoleID{"r1", "r2"}, rec.SavedRoles)
		require.NotNil(t, rec.RestrictedUntil)

		muted := domain.Member{User: "42", Roles: []domain.RoleID{domain.RoleID(testGuild), muteRole}}
		require.NoError(t, e.Unmute(ctx, testGuild, muted, "op", "appealed"))

		// saved roles granted back, then the mute role dropped
		assert.Equal(t, []domain.RoleID{muteRole, "r1", "r2"}, roster.granted)
		assert.Equal(t, []domain.RoleID{"r1", "r2", muteRole}, roster.revoked)

		rec = e.Record(testGuild, "42")
		assert.Nil(t, rec.SavedRoles)
		assert.Nil(t, rec.RestrictedUntil)
	})

	t.Run("zero duration means indefinite", func(t *testing.T) {
		e, roster, _, _ := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		m := domain.Member{User: "42", Roles: []domain.RoleID{domain.RoleID(testGuild), "r1"}}

		require.NoError(t, e.Mute(ctx, testGuild, m, 0, "op", "spam"))
		assert.Equal(t, []domain.RoleID{muteRole}, roster.granted)
		assert.Empty(t, roster.revoked)

		rec := e.Record(testGuild, "42")
		assert.Nil(t, rec.RestrictedUntil)
		assert.Empty(t, rec.SavedRoles)
	})

	t.Run("already muted is rejected", func(t *testing.T) {
		e, roster, _, _ := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		m := domain.Member{User: "42", Roles: []domain.RoleID{muteRole}}

		err := e.Mute(ctx, testGuild, m, time.Minute, "op", "spam")
		assert.ErrorIs(t, err, core.ErrAlreadyMuted)
		assert.True(t, core.IsValidation(err))
		assert.Empty(t, roster.granted)
	})

	t.Run("failed role grant commits nothing", func(t *testing.T) {
		e, roster, _, _ := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		roster.grantErr = errors.New("boom")
		m := domain.Member{User: "42"}

		err := e.Mute(ctx, testGuild, m, time.Minute, "op", "spam")
		require.Error(t, err)
		assert.False(t, core.IsValidation(err))

		rec := e.Record(testGuild, "42")
		assert.Nil(t, rec.RestrictedUntil)
	})
}

func TestMuteNativeTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("ten minutes sets a timeout", func(t *testing.T) {
		e, roster, clock, _ := newTestEngine(domain.GuildSettings{})
		m := domain.Member{User: "7"}

		require.NoError(t, e.Mute(ctx, testGuild, m, 10*time.Minute, "op", "spam"))
		require.Len(t, roster.timeouts, 1)
		assert.Equal(t, clock.now.Add(10*time.Minute), roster.timeouts[0])

		rec := e.Record(testGuild, "7")
		require.NotNil(t, rec.RestrictedUntil)
		assert.Equal(t, clock.now.Add(10*time.Minute), *rec.RestrictedUntil)
	})

	t.Run("40 days exceeds the ceiling", func(t *testing.T) {
		e, _, _, _ := newTestEngine(domain.GuildSettings{})
		err := e.Mute(ctx, testGuild, domain.Member{User: "7"}, 40*24*time.Hour, "op", "spam")
		assert.ErrorIs(t, err, core.ErrDurationOutOfRange)
	})

	t.Run("zero duration requires a mute role", func(t *testing.T) {
		e, _, _, _ := newTestEngine(domain.GuildSettings{})
		err := e.Mute(ctx, testGuild, domain.Member{User: "7"}, 0, "op", "spam")
		assert.ErrorIs(t, err, core.ErrDurationOutOfRange)
	})

	t.Run("bots cannot be timed out", func(t *testing.T) {
		e, _, _, _ := newTestEngine(domain.GuildSettings{})
		err := e.Mute(ctx, testGuild, domain.Member{User: "7", Bot: true}, time.Minute, "op", "spam")
		assert.ErrorIs(t, err, core.ErrBotTimeout)
	})

	t.Run("active timeout rejects a second mute, elapsed one does not", func(t *testing.T) {
		e, _, clock, _ := newTestEngine(domain.GuildSettings{})
		active := clock.now.Add(time.Minute)
		err := e.Mute(ctx, testGuild, domain.Member{User: "7", TimedOutUntil: &active}, time.Minute, "op", "x")
		assert.ErrorIs(t, err, core.ErrAlreadyMuted)

		// until == now counts as expired, in the member's favor
		boundary := clock.now
		err = e.Mute(ctx, testGuild, domain.Member{User: "8", TimedOutUntil: &boundary}, time.Minute, "op", "x")
		assert.NoError(t, err)
	})
}

func TestUnmute(t *testing.T) {
	ctx := context.Background()

	t.Run("never muted member rejects with no side effects", func(t *testing.T) {
		e, roster, _, _ := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		err := e.Unmute(ctx, testGuild, domain.Member{User: "42"}, "op", "oops")
		assert.ErrorIs(t, err, core.ErrNotMuted)
		assert.Empty(t, roster.granted)
		assert.Empty(t, roster.revoked)
		assert.Zero(t, roster.cleared)
	})

	t.Run("native timeout is cleared", func(t *testing.T) {
		e, roster, clock, _ := newTestEngine(domain.GuildSettings{})
		until := clock.now.Add(time.Hour)
		m := domain.Member{User: "7", TimedOutUntil: &until}
		require.NoError(t, e.Unmute(ctx, testGuild, m, "op", "appealed"))
		assert.Equal(t, 1, roster.cleared)
	})
}

func TestExpire(t *testing.T) {
	ctx := context.Background()

	t.Run("elapsed restriction is lifted once, second call rejects", func(t *testing.T) {
		e, roster, clock, store := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		past := clock.now.Add(-time.Minute)
		rec := store.Get(testGuild, "42")
		rec.RestrictedUntil = &past
		rec.SavedRoles = []domain.RoleID{"r1"}
		roster.member = domain.Member{User: "42", Roles: []domain.RoleID{muteRole}}

		require.NoError(t, e.Expire(ctx, testGuild, "42"))
		assert.Equal(t, []domain.RoleID{"r1"}, roster.granted)
		assert.Equal(t, []domain.RoleID{muteRole}, roster.revoked)

		err := e.Expire(ctx, testGuild, "42")
		assert.ErrorIs(t, err, core.ErrNotMuted)
	})

	t.Run("future restriction is left alone", func(t *testing.T) {
		e, _, clock, store := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		future := clock.now.Add(time.Hour)
		store.Get(testGuild, "42").RestrictedUntil = &future

		err := e.Expire(ctx, testGuild, "42")
		assert.ErrorIs(t, err, core.ErrRestrictionActive)
	})

	t.Run("boundary equal to now expires", func(t *testing.T) {
		e, roster, clock, store := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		at := clock.now
		store.Get(testGuild, "42").RestrictedUntil = &at
		roster.member = domain.Member{User: "42", Roles: []domain.RoleID{muteRole}}

		assert.NoError(t, e.Expire(ctx, testGuild, "42"))
	})

	t.Run("absent member just retires the deadline", func(t *testing.T) {
		e, roster, clock, store := newTestEngine(domain.GuildSettings{MuteRole: muteRole})
		past := clock.now.Add(-time.Minute)
		rec := store.Get(testGuild, "42")
		rec.RestrictedUntil = &past
		rec.Present = false

		require.NoError(t, e.Expire(ctx, testGuild, "42"))
		assert.Empty(t, roster.revoked)
		assert.Nil(t, e.Record(testGuild, "42").RestrictedUntil)
	})
}

func TestBanLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("ban, double ban, unban", func(t *testing.T) {
		e, roster, _, _ := newTestEngine(domain.GuildSettings{})
		require.NoError(t, e.Ban(ctx, testGuild, "42", time.Hour, "op", "raid"))
		assert.Equal(t, 1, roster.bans)

		err := e.Ban(ctx, testGuild, "42", time.Hour, "op", "raid")
		assert.ErrorIs(t, err, core.ErrAlreadyBanned)

		require.NoError(t, e.Unban(ctx, testGuild, "42", "op", "appealed"))
		assert.Equal(t, 1, roster.unbans)

		err = e.Unban(ctx, testGuild, "42", "op", "again")
		assert.ErrorIs(t, err, core.ErrNotBanned)
	})

	t.Run("elapsed ban is lifted by the sweeper surface", func(t *testing.T) {
		e, roster, clock, store := newTestEngine(domain.GuildSettings{})
		past := clock.now.Add(-time.Hour)
		store.Get(testGuild, "42").BannedUntil = &past

		require.NoError(t, e.LiftElapsedBan(ctx, testGuild, "42"))
		assert.Equal(t, 1, roster.unbans)
		assert.ErrorIs(t, e.LiftElapsedBan(ctx, testGuild, "42"), core.ErrNotBanned)
	})

	t.Run("permanent ban never elapses", func(t *testing.T) {
		e, _, _, _ := newTestEngine(domain.GuildSettings{})
		require.NoError(t, e.Ban(ctx, testGuild, "42", 0, "op", "raid"))
		assert.ErrorIs(t, e.LiftElapsedBan(ctx, testGuild, "42"), core.ErrRestrictionActive)
	})
}
