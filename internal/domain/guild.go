package domain

// GuildSettings is the per-guild moderation policy, read-only to the
// engine. An empty MuteRole means the platform-native timeout is the
// only mute mechanism.
type GuildSettings struct {
	MuteRole             RoleID
	RemoveRolesOnMute    bool
	RestoreRolesOnRejoin bool
}

// HasMuteRole reports whether role-based muting is configured.
func (s GuildSettings) HasMuteRole() bool { return s.MuteRole != "" }
