package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// Sweeper periodically invokes the engine's expiry transitions for
// every known member. It owns no state of its own; the engine
// revalidates every deadline under the member lock, so a stale sweep
// is harmless.
type Sweeper struct {
	engine   *Engine
	store    *core.MemberStore
	interval time.Duration
}

func NewSweeper(engine *Engine, store *core.MemberStore, interval time.Duration) *Sweeper {
	return &Sweeper{engine: engine, store: store, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("interval", s.interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			for _, guild := range s.store.Guilds() {
				s.sweepGuild(ctx, guild)
			}
		}
	}
}

func (s *Sweeper) sweepGuild(ctx context.Context, guild domain.GuildID) {
	for _, user := range s.store.Users(guild) {
		if err := s.engine.Expire(ctx, guild, user); err != nil && !core.IsValidation(err) {
			log.Error().Err(err).Str("module", "app.sweeper").Str("guild", string(guild)).
				Str("user", string(user)).Msg("expiry failed")
		}
		if err := s.engine.LiftElapsedBan(ctx, guild, user); err != nil && !core.IsValidation(err) {
			log.Error().Err(err).Str("module", "app.sweeper").Str("guild", string(guild)).
				Str("user", string(user)).Msg("ban lift failed")
		}
	}
}
