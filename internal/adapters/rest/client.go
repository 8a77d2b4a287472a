package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// ErrPermission marks a 403 from the platform: the bot lacks the
// permission for the attempted side effect. Not transient; retrying
// will not help.
var ErrPermission = errors.New("missing permission")

// Client implements core.Roster and core.AuditSource against the
// platform REST API. It performs no retries; transient failures are
// surfaced to the engine per its failure policy.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

type memberPayload struct {
	User struct {
		ID  string `json:"id"`
		Bot bool   `json:"bot"`
	} `json:"user"`
	Roles         []string   `json:"roles"`
	JoinedAt      time.Time  `json:"joined_at"`
	TimedOutUntil *time.Time `json:"communication_disabled_until"`
}

func (c *Client) FetchMember(ctx context.Context, guild domain.GuildID, user domain.UserID) (domain.Member, error) {
	var p memberPayload
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/members/%s", guild, user), "", nil, &p)
	if err != nil {
		return domain.Member{}, err
	}
	m := domain.Member{
		User:          domain.UserID(p.User.ID),
		Bot:           p.User.Bot,
		JoinedAt:      p.JoinedAt,
		TimedOutUntil: p.TimedOutUntil,
	}
	for _, r := range p.Roles {
		m.Roles = append(m.Roles, domain.RoleID(r))
	}
	return m, nil
}

func (c *Client) GrantRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID, reason string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guild, user, role), reason, nil, nil)
}

func (c *Client) RevokeRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID, reason string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guild, user, role), reason, nil, nil)
}

func (c *Client) GrantRoles(ctx context.Context, guild domain.GuildID, user domain.UserID, roles []domain.RoleID, reason string) error {
	for _, r := range roles {
		if err := c.GrantRole(ctx, guild, user, r, reason); err != nil {
			return fmt.Errorf("grant role %s: %w", r, err)
		}
	}
	return nil
}

func (c *Client) RevokeRoles(ctx context.Context, guild domain.GuildID, user domain.UserID, roles []domain.RoleID, reason string) error {
	for _, r := range roles {
		if err := c.RevokeRole(ctx, guild, user, r, reason); err != nil {
			return fmt.Errorf("revoke role %s: %w", r, err)
		}
	}
	return nil
}

func (c *Client) SetTimeout(ctx context.Context, guild domain.GuildID, user domain.UserID, until time.Time, reason string) error {
	body := map[string]any{"communication_disabled_until": until.Format(time.RFC3339)}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/guilds/%s/members/%s", guild, user), reason, body, nil)
}

func (c *Client) ClearTimeout(ctx context.Context, guild domain.GuildID, user domain.UserID, reason string) error {
	body := map[string]any{"communication_disabled_until": nil}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/guilds/%s/members/%s", guild, user), reason, body, nil)
}

func (c *Client) Ban(ctx context.Context, guild domain.GuildID, user domain.UserID, reason string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/guilds/%s/bans/%s", guild, user), reason, nil, nil)
}

func (c *Client) Unban(ctx context.Context, guild domain.GuildID, user domain.UserID, reason string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/guilds/%s/bans/%s", guild, user), reason, nil, nil)
}

type auditPage struct {
	Entries []struct {
		ID        string    `json:"id"`
		Action    string    `json:"action_type"`
		ChannelID string    `json:"channel_id"`
		ActorID   string    `json:"actor_id"`
		TargetID  string    `json:"target_id"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"entries"`
}

func (c *Client) RecentEntry(ctx context.Context, guild domain.GuildID, action domain.AuditAction) (domain.AuditEntry, bool, error) {
	q := url.Values{"action_type": {string(action)}, "limit": {"1"}}
	var page auditPage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/audit-log?%s", guild, q.Encode()), "", nil, &page)
	if err != nil {
		return domain.AuditEntry{}, false, err
	}
	if len(page.Entries) == 0 {
		return domain.AuditEntry{}, false, nil
	}
	e := page.Entries[0]
	return domain.AuditEntry{
		ID:        e.ID,
		Action:    domain.AuditAction(e.Action),
		ChannelID: domain.ChannelID(e.ChannelID),
		ActorID:   domain.UserID(e.ActorID),
		TargetID:  domain.UserID(e.TargetID),
		CreatedAt: e.CreatedAt,
	}, true, nil
}

func (c *Client) do(ctx context.Context, method, path, reason string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", reason)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, ErrPermission)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
