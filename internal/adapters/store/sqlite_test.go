package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	until := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	recs := []domain.MemberRecord{
		{
			UserID:          "u1",
			Present:         true,
			JoinedAt:        []time.Time{until.Add(-time.Hour)},
			RestrictedUntil: &until,
			SavedRoles:      []domain.RoleID{"r1", "r2"},
		},
		{UserID: "u2", Present: false, LeftAt: []time.Time{until}},
	}
	require.NoError(t, s.SaveGuild(ctx, "g1", recs))

	// upsert replaces, never duplicates
	recs[0].SavedRoles = []domain.RoleID{"r1"}
	require.NoError(t, s.SaveGuild(ctx, "g1", recs))

	ms := core.NewMemberStore()
	require.NoError(t, s.LoadAll(ctx, ms))

	got := ms.Get("g1", "u1")
	assert.True(t, got.Present)
	assert.Equal(t, []domain.RoleID{"r1"}, got.SavedRoles)
	require.NotNil(t, got.RestrictedUntil)
	assert.True(t, got.RestrictedUntil.Equal(until))

	u2 := ms.Get("g1", "u2")
	assert.False(t, u2.Present)
	assert.Len(t, u2.LeftAt, 1)
}

func TestSettingsProvider(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p := NewSettingsProvider(s)

	// unknown guild falls back to the zero policy
	assert.Equal(t, domain.GuildSettings{}, p.Guild("g1"))

	cfg := domain.GuildSettings{MuteRole: "900", RemoveRolesOnMute: true, RestoreRolesOnRejoin: true}
	require.NoError(t, p.Save(ctx, "g2", cfg))
	assert.Equal(t, cfg, p.Guild("g2"))

	// survives a cold cache
	fresh := NewSettingsProvider(s)
	assert.Equal(t, cfg, fresh.Guild("g2"))
}
