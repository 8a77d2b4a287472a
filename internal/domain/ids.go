package domain

// Platform snowflakes are opaque strings; the engine never parses them.
type (
	GuildID   string
	UserID    string
	RoleID    string
	ChannelID string
	MessageID string
)

// SystemActor marks transitions triggered by the service itself
// (restriction expiry) rather than by an operator.
const SystemActor UserID = "system"
