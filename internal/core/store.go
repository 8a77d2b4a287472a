package core

import (
	"sync"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
	"github.com/rs/zerolog/log"
)

// guildRecords holds one guild's member records. Records are mutated
// in place by the engine under its per-member lock; this mutex only
// guards the map itself.
type guildRecords struct {
	mu      sync.RWMutex
	members map[domain.UserID]*domain.MemberRecord
}

// MemberStore is the per-guild member record registry. Records are
// created lazily on first reference and never removed. The store also
// tracks which guilds have unflushed mutations for the persistence
// collaborator.
type MemberStore struct {
	mu     sync.RWMutex
	guilds map[domain.GuildID]*guildRecords

	dirtyMu sync.Mutex
	dirty   map[domain.GuildID]struct{}
}

func NewMemberStore() *MemberStore {
	return &MemberStore{
		guilds: make(map[domain.GuildID]*guildRecords),
		dirty:  make(map[domain.GuildID]struct{}),
	}
}

func (s *MemberStore) guild(g domain.GuildID) *guildRecords {
	s.mu.RLock()
	gr, ok := s.guilds[g]
	s.mu.RUnlock()
	if ok {
		return gr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gr, ok = s.guilds[g]; ok {
		return gr
	}
	gr = &guildRecords{members: make(map[domain.UserID]*domain.MemberRecord)}
	s.guilds[g] = gr
	log.Debug().Str("module", "core.store").Str("guild", string(g)).Msg("guild registered")
	return gr
}

// Get returns the record for (guild, user), creating a default
// "unrestricted, present" record on first reference.
func (s *MemberStore) Get(g domain.GuildID, u domain.UserID) *domain.MemberRecord {
	gr := s.guild(g)
	gr.mu.RLock()
	rec, ok := gr.members[u]
	gr.mu.RUnlock()
	if ok {
		return rec
	}
	gr.mu.Lock()
	defer gr.mu.Unlock()
	if rec, ok = gr.members[u]; ok {
		return rec
	}
	rec = &domain.MemberRecord{UserID: u, Present: true}
	gr.members[u] = rec
	return rec
}

// Put installs a record loaded from persistence, replacing any
// lazily-created one. Boot-time only.
func (s *MemberStore) Put(g domain.GuildID, rec *domain.MemberRecord) {
	gr := s.guild(g)
	gr.mu.Lock()
	gr.members[rec.UserID] = rec
	gr.mu.Unlock()
}

// Guilds lists every guild the store has records for.
func (s *MemberStore) Guilds() []domain.GuildID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GuildID, 0, len(s.guilds))
	for g := range s.guilds {
		out = append(out, g)
	}
	return out
}

// Users lists the member ids known for a guild. Callers that then read
// records must take the engine's per-member lock.
func (s *MemberStore) Users(g domain.GuildID) []domain.UserID {
	gr := s.guild(g)
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	out := make([]domain.UserID, 0, len(gr.members))
	for u := range gr.members {
		out = append(out, u)
	}
	return out
}

// Records snapshots the guild's record pointers for the persistence
// flusher.
func (s *MemberStore) Records(g domain.GuildID) []*domain.MemberRecord {
	gr := s.guild(g)
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	out := make([]*domain.MemberRecord, 0, len(gr.members))
	for _, rec := range gr.members {
		out = append(out, rec)
	}
	return out
}

// MarkDirty flags a guild as having unflushed mutations. Callers never
// block on durability; the flusher drains at its own pace.
func (s *MemberStore) MarkDirty(g domain.GuildID) {
	s.dirtyMu.Lock()
	s.dirty[g] = struct{}{}
	s.dirtyMu.Unlock()
}

// DrainDirty returns and clears the set of guilds flagged since the
// last drain.
func (s *MemberStore) DrainDirty() []domain.GuildID {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	out := make([]domain.GuildID, 0, len(s.dirty))
	for g := range s.dirty {
		out = append(out, g)
	}
	s.dirty = make(map[domain.GuildID]struct{})
	return out
}
