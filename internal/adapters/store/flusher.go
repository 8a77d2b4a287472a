package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// snapshotter hands out consistent record copies; satisfied by
// app.Engine.
type snapshotter interface {
	SnapshotGuild(domain.GuildID) []domain.MemberRecord
}

// Flusher drains dirty guilds to sqlite on an interval. A failed write
// re-marks the guild so the next tick retries; the engine is never
// blocked or notified.
type Flusher struct {
	db       *Store
	members  *core.MemberStore
	snap     snapshotter
	interval time.Duration
}

func NewFlusher(db *Store, members *core.MemberStore, snap snapshotter, interval time.Duration) *Flusher {
	return &Flusher{db: db, members: members, snap: snap, interval: interval}
}

func (f *Flusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	log.Info().Str("module", "store.flusher").Dur("interval", f.interval).Msg("flusher started")
	for {
		select {
		case <-ctx.Done():
			// Final drain with a fresh context so shutdown still writes.
			f.flush(context.Background())
			log.Info().Str("module", "store.flusher").Msg("flusher stopped")
			return ctx.Err()
		case <-ticker.C:
			f.flush(ctx)
		}
	}
}

func (f *Flusher) flush(ctx context.Context) {
	for _, guild := range f.members.DrainDirty() {
		recs := f.snap.SnapshotGuild(guild)
		if err := f.db.SaveGuild(ctx, guild, recs); err != nil {
			log.Error().Err(err).Str("module", "store.flusher").Str("guild", string(guild)).Msg("flush failed, re-marking")
			f.members.MarkDirty(guild)
			continue
		}
		log.Debug().Str("module", "store.flusher").Str("guild", string(guild)).Int("records", len(recs)).Msg("guild flushed")
	}
}
