package app

import (
	"context"
	"sync"
	"time"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// fakeRoster records side effects in order and can be primed to fail.
type fakeRoster struct {
	mu       sync.Mutex
	granted  []domain.RoleID
	revoked  []domain.RoleID
	timeouts []time.Time
	cleared  int
	bans     int
	unbans   int

	member   domain.Member
	fetchErr error

	grantErr   error
	revokeErr  error
	timeoutErr error
	clearErr   error
	banErr     error
	unbanErr   error
}

func (f *fakeRoster) FetchMember(ctx context.Context, g domain.GuildID, u domain.UserID) (domain.Member, error) {
	if f.fetchErr != nil {
		return domain.Member{}, f.fetchErr
	}
	return f.member, nil
}

func (f *fakeRoster) GrantRole(ctx context.Context, g domain.GuildID, u domain.UserID, r domain.RoleID, reason string) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	f.mu.Lock()
	f.granted = append(f.granted, r)
	f.mu.Unlock()
	return nil
}

func (f *fakeRoster) GrantRoles(ctx context.Context, g domain.GuildID, u domain.UserID, roles []domain.RoleID, reason string) error {
	for _, r := range roles {
		if err := f.GrantRole(ctx, g, u, r, reason); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRoster) RevokeRole(ctx context.Context, g domain.GuildID, u domain.UserID, r domain.RoleID, reason string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.mu.Lock()
	f.revoked = append(f.revoked, r)
	f.mu.Unlock()
	return nil
}

func (f *fakeRoster) RevokeRoles(ctx context.Context, g domain.GuildID, u domain.UserID, roles []domain.RoleID, reason string) error {
	for _, r := range roles {
		if err := f.RevokeRole(ctx, g, u, r, reason); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRoster) SetTimeout(ctx context.Context, g domain.GuildID, u domain.UserID, until time.Time, reason string) error {
	if f.timeoutErr != nil {
		return f.timeoutErr
	}
	f.mu.Lock()
	f.timeouts = append(f.timeouts, until)
	f.mu.Unlock()
	return nil
}

func (f *fakeRoster) ClearTimeout(ctx context.Context, g domain.GuildID, u domain.UserID, reason string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
	return nil
}

func (f *fakeRoster) Ban(ctx context.Context, g domain.GuildID, u domain.UserID, reason string) error {
	if f.banErr != nil {
		return f.banErr
	}
	f.mu.Lock()
	f.bans++
	f.mu.Unlock()
	return nil
}

func (f *fakeRoster) Unban(ctx context.Context, g domain.GuildID, u domain.UserID, reason string) error {
	if f.unbanErr != nil {
		return f.unbanErr
	}
	f.mu.Lock()
	f.unbans++
	f.mu.Unlock()
	return nil
}

type fakeSettings struct {
	cfg domain.GuildSettings
}

func (f fakeSettings) Guild(domain.GuildID) domain.GuildSettings { return f.cfg }

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeAudit struct {
	entry domain.AuditEntry
	ok    bool
	err   error
}

func (f *fakeAudit) RecentEntry(ctx context.Context, g domain.GuildID, a domain.AuditAction) (domain.AuditEntry, bool, error) {
	return f.entry, f.ok, f.err
}
