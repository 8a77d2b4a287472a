// Package store persists member records and guild settings in sqlite.
// The engine never blocks on it; the flusher drains dirty guilds in
// the background.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/neroduckale/TestifyBoyfriend/internal/core"
	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
	guild_id TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	record   TEXT NOT NULL,
	PRIMARY KEY (guild_id, user_id)
);
CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id                TEXT PRIMARY KEY,
	mute_role               TEXT NOT NULL DEFAULT '',
	remove_roles_on_mute    INTEGER NOT NULL DEFAULT 0,
	restore_roles_on_rejoin INTEGER NOT NULL DEFAULT 0
);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// LoadAll hydrates the in-memory member store at boot.
func (s *Store) LoadAll(ctx context.Context, ms *core.MemberStore) error {
	rows, err := s.db.QueryContext(ctx, `SELECT guild_id, record FROM members`)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var guild, raw string
		if err := rows.Scan(&guild, &raw); err != nil {
			return fmt.Errorf("scan member row: %w", err)
		}
		var rec domain.MemberRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return fmt.Errorf("decode record for guild %s: %w", guild, err)
		}
		ms.Put(domain.GuildID(guild), &rec)
	}
	return rows.Err()
}

// SaveGuild upserts a guild's records. Records are never deleted:
// departed members stay on disk marked not present.
func (s *Store) SaveGuild(ctx context.Context, guild domain.GuildID, recs []domain.MemberRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO members (guild_id, user_id, record) VALUES (?, ?, ?)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET record = excluded.record`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range recs {
		raw, err := json.Marshal(&recs[i])
		if err != nil {
			return fmt.Errorf("encode record %s: %w", recs[i].UserID, err)
		}
		if _, err := stmt.ExecContext(ctx, string(guild), string(recs[i].UserID), string(raw)); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", guild, recs[i].UserID, err)
		}
	}
	return tx.Commit()
}

// SettingsProvider serves guild moderation policy from sqlite with an
// in-memory cache. Implements core.Settings; unknown guilds get the
// zero policy (native timeout only, no role juggling).
type SettingsProvider struct {
	store *Store

	mu    sync.RWMutex
	cache map[domain.GuildID]domain.GuildSettings
}

func NewSettingsProvider(store *Store) *SettingsProvider {
	return &SettingsProvider{store: store, cache: make(map[domain.GuildID]domain.GuildSettings)}
}

func (p *SettingsProvider) Guild(g domain.GuildID) domain.GuildSettings {
	p.mu.RLock()
	cfg, ok := p.cache[g]
	p.mu.RUnlock()
	if ok {
		return cfg
	}

	var muteRole string
	var removeRoles, restoreRoles bool
	err := p.store.db.QueryRow(`
		SELECT mute_role, remove_roles_on_mute, restore_roles_on_rejoin
		FROM guild_settings WHERE guild_id = ?`, string(g)).
		Scan(&muteRole, &removeRoles, &restoreRoles)
	if err == nil {
		cfg = domain.GuildSettings{
			MuteRole:             domain.RoleID(muteRole),
			RemoveRolesOnMute:    removeRoles,
			RestoreRolesOnRejoin: restoreRoles,
		}
	}

	p.mu.Lock()
	p.cache[g] = cfg
	p.mu.Unlock()
	return cfg
}

// Save writes a guild's policy and refreshes the cache.
func (p *SettingsProvider) Save(ctx context.Context, g domain.GuildID, cfg domain.GuildSettings) error {
	_, err := p.store.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, mute_role, remove_roles_on_mute, restore_roles_on_rejoin)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET
			mute_role = excluded.mute_role,
			remove_roles_on_mute = excluded.remove_roles_on_mute,
			restore_roles_on_rejoin = excluded.restore_roles_on_rejoin`,
		string(g), string(cfg.MuteRole), cfg.RemoveRolesOnMute, cfg.RestoreRolesOnRejoin)
	if err != nil {
		return fmt.Errorf("save settings for %s: %w", g, err)
	}
	p.mu.Lock()
	p.cache[g] = cfg
	p.mu.Unlock()
	return nil
}
