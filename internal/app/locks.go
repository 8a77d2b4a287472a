package app

import (
	"hash/fnv"
	"sync"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

const lockShards = 64

// memberLocks serializes state transitions per (guild, member) without
// a global lock. Two members hashing to the same shard contend, which
// is harmless; the same member always hits the same shard.
type memberLocks struct {
	shards [lockShards]sync.Mutex
}

func (l *memberLocks) shard(g domain.GuildID, u domain.UserID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(g))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(u))
	return &l.shards[h.Sum32()%lockShards]
}

// lock acquires the member's shard and returns the unlock func.
func (l *memberLocks) lock(g domain.GuildID, u domain.UserID) func() {
	mu := l.shard(g, u)
	mu.Lock()
	return mu.Unlock
}
