package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

type memberEvent struct {
	Guild    string     `json:"guild_id"`
	User     string     `json:"user_id"`
	Roles    []string   `json:"roles"`
	Bot      bool       `json:"bot"`
	JoinedAt time.Time  `json:"joined_at"`
	At       time.Time  `json:"at"`
	TimedOut *time.Time `json:"communication_disabled_until"`
}

func (e memberEvent) member() domain.Member {
	m := domain.Member{
		User:          domain.UserID(e.User),
		Bot:           e.Bot,
		JoinedAt:      e.JoinedAt,
		TimedOutUntil: e.TimedOut,
	}
	for _, r := range e.Roles {
		m.Roles = append(m.Roles, domain.RoleID(r))
	}
	return m
}

func (c *Consumer) handleMemberJoin(ctx context.Context, data []byte) error {
	var ev memberEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	return c.engine.OnMemberJoined(ctx, domain.GuildID(ev.Guild), ev.member())
}

func (c *Consumer) handleMemberLeave(ctx context.Context, data []byte) error {
	var ev memberEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return c.engine.OnMemberLeft(ctx, domain.GuildID(ev.Guild), domain.UserID(ev.User), at)
}

func (c *Consumer) handleRolesUpdate(ctx context.Context, data []byte) error {
	var ev memberEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	return c.engine.OnMemberRolesUpdated(ctx, domain.GuildID(ev.Guild), ev.member())
}

type contentEvent struct {
	Type    string    `json:"type"`
	Guild   string    `json:"guild_id"`
	Channel string    `json:"channel_id"`
	Message string    `json:"message_id"`
	Author  string    `json:"author_id"`
	At      time.Time `json:"at"`
}

func (c *Consumer) handleContentMutation(ctx context.Context, data []byte) error {
	var ev contentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	action := domain.AuditMessageDelete
	if ev.Type == "message_edit" {
		action = domain.AuditMessageEdit
	}
	mut := domain.ContentMutation{
		Action:    action,
		ChannelID: domain.ChannelID(ev.Channel),
		MessageID: domain.MessageID(ev.Message),
		Author:    domain.UserID(ev.Author),
		At:        ev.At,
	}
	actor := c.correlator.ResolveActor(ctx, domain.GuildID(ev.Guild), mut)
	log.Info().Str("module", "gateway").Str("guild", ev.Guild).Str("channel", ev.Channel).
		Str("message", ev.Message).Str("author", ev.Author).Str("actor", string(actor)).
		Str("action", string(action)).Msg("content mutation attributed")
	return nil
}
