package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

func TestSnapshotRoles(t *testing.T) {
	roles := []domain.RoleID{domain.RoleID(testGuild), "r1", muteRole, "r2"}

	got := snapshotRoles(roles, testGuild, muteRole)
	assert.Equal(t, []domain.RoleID{"r1", "r2"}, got)

	// without a configured mute role, only the guild pseudo-role drops
	got = snapshotRoles(roles, testGuild, "")
	assert.Equal(t, []domain.RoleID{"r1", muteRole, "r2"}, got)

	assert.Empty(t, snapshotRoles([]domain.RoleID{domain.RoleID(testGuild)}, testGuild, muteRole))
}
