package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// The action log is eventually consistent with the event feed; an
// entry older than this is assumed to belong to some other action.
// Derived from observed platform delivery latency — do not tune
// casually.
const attributionWindow = 2 * time.Second

// auditQueryTimeout bounds the correlation query itself; a slow log is
// treated the same as an empty one.
const auditQueryTimeout = 3 * time.Second

// Correlator resolves the true actor of an ambiguously-reported
// content mutation by cross-referencing the platform action log.
// Read-only with respect to the member store.
type Correlator struct {
	audit core.AuditSource
	clock core.Clock
}

func NewCorrelator(audit core.AuditSource, clock core.Clock) *Correlator {
	return &Correlator{audit: audit, clock: clock}
}

// ResolveActor returns who actually deleted/edited the content. The
// most recent matching log entry is accepted only if it is fresh and
// recorded against the content's author; anything else falls back to
// the author. A false self-attribution beats a false accusation.
func (c *Correlator) ResolveActor(ctx context.Context, guild domain.GuildID, ev domain.ContentMutation) domain.UserID {
	ctx, cancel := context.WithTimeout(ctx, auditQueryTimeout)
	defer cancel()

	entry, ok, err := c.audit.RecentEntry(ctx, guild, ev.Action)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.attribution").Str("guild", string(guild)).Msg("audit query failed, self-attributing")
		return ev.Author
	}
	if !ok {
		return ev.Author
	}

	now := c.clock.Now()
	if now.Sub(entry.CreatedAt) > attributionWindow {
		return ev.Author
	}
	if entry.ChannelID != ev.ChannelID || entry.TargetID != ev.Author {
		return ev.Author
	}
	log.Debug().Str("module", "app.attribution").Str("guild", string(guild)).
		Str("actor", string(entry.ActorID)).Str("author", string(ev.Author)).Msg("mutation attributed via action log")
	return entry.ActorID
}
