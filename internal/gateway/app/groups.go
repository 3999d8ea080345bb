package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/domain"
)

// GroupDirectory caches the groups the account participates in, indexed
// by JID and by normalized subject. Refresh replaces the whole cache.
type GroupDirectory struct {
	client chatclient.Client
	logger *slog.Logger

	mu        sync.RWMutex
	byJID     map[string]domain.GroupInfo
	byName    map[string][]domain.GroupInfo
	updatedAt int64
}

func NewGroupDirectory(client chatclient.Client, logger *slog.Logger) *GroupDirectory {
	return &GroupDirectory{
		client: client,
		logger: logger.With("service", "GroupDirectory"),
		byJID:  map[string]domain.GroupInfo{},
		byName: map[string][]domain.GroupInfo{},
	}
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Refresh re-fetches the participating groups from the chat network.
func (d *GroupDirectory) Refresh(ctx context.Context) (int, error) {
	groups, err := d.client.ListGroups(ctx)
	if err != nil {
		return 0, err
	}

	byJID := make(map[string]domain.GroupInfo, len(groups))
	byName := make(map[string][]domain.GroupInfo, len(groups))
	for _, g := range groups {
		byJID[g.JID] = g
		key := normName(g.Subject)
		byName[key] = append(byName[key], g)
	}

	d.mu.Lock()
	d.byJID = byJID
	d.byName = byName
	d.updatedAt = domain.NowMillis()
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "group cache refreshed", "count", len(byJID))
	return len(byJID), nil
}

// FindByName matches a subject, exact matches first and then substring
// matches across all cached subjects.
func (d *GroupDirectory) FindByName(name string) []domain.GroupInfo {
	needle := normName(name)
	if needle == "" {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if exact := d.byName[needle]; len(exact) > 0 {
		out := make([]domain.GroupInfo, len(exact))
		copy(out, exact)
		return out
	}

	var matches []domain.GroupInfo
	for _, g := range d.byJID {
		if strings.Contains(normName(g.Subject), needle) {
			matches = append(matches, g)
		}
	}
	return matches
}

// All returns the cached groups and the refresh timestamp.
func (d *GroupDirectory) All() ([]domain.GroupInfo, int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.GroupInfo, 0, len(d.byJID))
	for _, g := range d.byJID {
		out = append(out, g)
	}
	return out, d.updatedAt
}
