package domain

import "time"

// MemberRecord is the per-guild lifecycle record for one member.
// Owned by the member store; created lazily, never deleted — a member
// who left is only marked not present.
type MemberRecord struct {
	UserID          UserID      `json:"user_id"`
	Present         bool        `json:"present"`
	JoinedAt        []time.Time `json:"joined_at,omitempty"`
	LeftAt          []time.Time `json:"left_at,omitempty"`
	RestrictedUntil *time.Time  `json:"restricted_until,omitempty"`
	BannedUntil     *time.Time  `json:"banned_until,omitempty"`
	SavedRoles      []RoleID    `json:"saved_roles,omitempty"`
}

// Restricted reports whether a durationed restriction is still active.
// The boundary counts in the member's favor: until == now is expired.
func (r *MemberRecord) Restricted(now time.Time) bool {
	return r.RestrictedUntil != nil && now.Before(*r.RestrictedUntil)
}

func (r *MemberRecord) Banned(now time.Time) bool {
	return r.BannedUntil != nil && now.Before(*r.BannedUntil)
}

// Member is a live snapshot of a guild member as reported by the
// platform. Handlers pass it in; the engine only fetches one itself
// for scheduler-triggered expiry.
type Member struct {
	User          UserID
	Roles         []RoleID
	Bot           bool
	JoinedAt      time.Time
	TimedOutUntil *time.Time
}

func (m Member) HasRole(r RoleID) bool {
	for _, have := range m.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// TimedOut reports an active platform-native timeout, same inclusive
// boundary rule as MemberRecord.Restricted.
func (m Member) TimedOut(now time.Time) bool {
	return m.TimedOutUntil != nil && now.Before(*m.TimedOutUntil)
}
