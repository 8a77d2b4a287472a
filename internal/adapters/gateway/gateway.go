// Package gateway consumes the platform's push event feed over a
// websocket and dispatches events into the moderation engine. Events
// for different members may be handled concurrently; the engine's
// per-member locking is the only ordering guarantee.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/app"
	"github.com/neroduckale/TestifyBoyfriend/internal/core"
)

const reconnectDelay = 5 * time.Second

type Consumer struct {
	url        string
	token      string
	engine     *app.Engine
	correlator *app.Correlator
}

func NewConsumer(url, token string, engine *app.Engine, correlator *app.Correlator) *Consumer {
	return &Consumer{url: url, token: token, engine: engine, correlator: correlator}
}

// Run dials the feed and consumes until ctx is done, reconnecting on
// connection loss.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("module", "gateway").Msg("feed connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	session := uuid.NewString()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Str("module", "gateway").Str("session", session).Str("url", c.url).Msg("feed connected")

	identify, _ := json.Marshal(map[string]string{"type": "identify", "token": c.token, "session": session})
	if err := conn.WriteMessage(websocket.TextMessage, identify); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(ctx, data)
	}
}

func (c *Consumer) handle(ctx context.Context, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "gateway").Msg("bad json")
		return
	}

	var err error
	switch env.Type {
	case "member_join":
		err = c.handleMemberJoin(ctx, data)
	case "member_leave":
		err = c.handleMemberLeave(ctx, data)
	case "member_roles_update":
		err = c.handleRolesUpdate(ctx, data)
	case "message_delete", "message_edit":
		err = c.handleContentMutation(ctx, data)
	case "pong", "ack":
	default:
		log.Warn().Str("module", "gateway").Str("type", env.Type).Msg("unknown event")
	}

	switch {
	case err == nil:
	case core.IsInvariant(err):
		// Fatal for this one event only; the member's record is left
		// as-is and the feed keeps flowing.
		log.Error().Err(err).Str("module", "gateway").Str("type", env.Type).Msg("invariant violation, event dropped")
	case core.IsValidation(err):
		log.Debug().Err(err).Str("module", "gateway").Str("type", env.Type).Msg("event rejected")
	default:
		log.Error().Err(err).Str("module", "gateway").Str("type", env.Type).Msg("event handling failed")
	}
}
