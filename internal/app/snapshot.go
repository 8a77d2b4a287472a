package app

import "github.com/neroduckale/TestifyBoyfriend/internal/domain"

// snapshotRoles captures the role set to restore after a mute: the
// member's current roles minus the guild's own id (the implicit
// everyone pseudo-role, never explicitly grantable) and minus the mute
// role itself.
func snapshotRoles(roles []domain.RoleID, guild domain.GuildID, muteRole domain.RoleID) []domain.RoleID {
	out := make([]domain.RoleID, 0, len(roles))
	for _, r := range roles {
		if r == domain.RoleID(guild) || (muteRole != "" && r == muteRole) {
			continue
		}
		out = append(out, r)
	}
	return out
}
