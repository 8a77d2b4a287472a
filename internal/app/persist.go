package app

import (
	"slices"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// Record returns a copy of one member's record, taken under the
// per-member lock.
func (e *Engine) Record(guild domain.GuildID, user domain.UserID) domain.MemberRecord {
	unlock := e.locks.lock(guild, user)
	defer unlock()
	rec := e.store.Get(guild, user)
	cp := *rec
	cp.JoinedAt = slices.Clone(rec.JoinedAt)
	cp.LeftAt = slices.Clone(rec.LeftAt)
	cp.SavedRoles = slices.Clone(rec.SavedRoles)
	if rec.RestrictedUntil != nil {
		t := *rec.RestrictedUntil
		cp.RestrictedUntil = &t
	}
	if rec.BannedUntil != nil {
		t := *rec.BannedUntil
		cp.BannedUntil = &t
	}
	return cp
}

// SnapshotGuild copies every record of a guild, giving the persistence
// flusher a consistent view without it ever touching live records.
func (e *Engine) SnapshotGuild(guild domain.GuildID) []domain.MemberRecord {
	users := e.store.Users(guild)
	out := make([]domain.MemberRecord, 0, len(users))
	for _, u := range users {
		out = append(out, e.Record(guild, u))
	}
	return out
}
