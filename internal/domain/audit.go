package domain

import "time"

// AuditAction is the platform action-log entry type we correlate on.
type AuditAction string

const (
	AuditMessageDelete AuditAction = "message_delete"
	AuditMessageEdit   AuditAction = "message_edit"
)

// AuditEntry is one platform action-log row. ActorID is who performed
// the action, TargetID who it was performed on.
type AuditEntry struct {
	ID        string
	Action    AuditAction
	ChannelID ChannelID
	ActorID   UserID
	TargetID  UserID
	CreatedAt time.Time
}

// ContentMutation is a reported message deletion or edit whose true
// actor the platform does not name.
type ContentMutation struct {
	Action    AuditAction
	ChannelID ChannelID
	MessageID MessageID
	Author    UserID
	At        time.Time
}
