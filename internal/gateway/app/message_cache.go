package app

import (
	"sort"
	"strings"
	"sync"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// MessageCache is a bounded in-memory mirror of the most recent messages.
// All read endpoints are served from here; the durable store is only read
// at startup to hydrate it.
type MessageCache struct {
	mu       sync.RWMutex
	limit    int
	messages []domain.MessageRecord
	index    map[string]int // message id -> position in messages
	chats    map[string]*domain.ChatSummary
}

func NewMessageCache(limit int) *MessageCache {
	if limit <= 0 {
		limit = 1500
	}
	return &MessageCache{
		limit: limit,
		index: make(map[string]int),
		chats: make(map[string]*domain.ChatSummary),
	}
}

// Upsert inserts a new record or patches an existing one by id. When the
// incoming record carries no media but the cached one does, the cached media
// is preserved so status patches cannot strip attachments.
func (c *MessageCache) Upsert(rec domain.MessageRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos, ok := c.index[rec.ID]; ok {
		if rec.Media == nil && c.messages[pos].Media != nil {
			rec.Media = c.messages[pos].Media
		}
		c.messages[pos] = rec
		c.touchChat(rec, false)
		return
	}

	c.messages = append(c.messages, rec)
	c.index[rec.ID] = len(c.messages) - 1
	if len(c.messages) > c.limit {
		c.messages = c.messages[len(c.messages)-c.limit:]
		c.rebuildIndex()
	}
	c.touchChat(rec, true)
}

// UpdateStatus patches the status of a cached record. A miss is not an
// error; the record may simply have been evicted.
func (c *MessageCache) UpdateStatus(id string, status domain.MessageStatus, statusTs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.index[id]
	if !ok {
		return
	}
	c.messages[pos].Status = status
	c.messages[pos].StatusTs = statusTs
	c.touchChat(c.messages[pos], false)
}

func (c *MessageCache) rebuildIndex() {
	c.index = make(map[string]int, len(c.messages))
	for i, m := range c.messages {
		c.index[m.ID] = i
	}
}

func (c *MessageCache) touchChat(rec domain.MessageRecord, fresh bool) {
	sum, ok := c.chats[rec.ChatJID]
	if !ok {
		sum = &domain.ChatSummary{ChatJID: rec.ChatJID, IsGroup: rec.IsGroup}
		c.chats[rec.ChatJID] = sum
	}
	if fresh {
		sum.Count++
	}
	act := rec.LastActivity()
	if act >= sum.LastTs {
		sum.LastTs = act
		sum.LastText = previewOf(rec)
		sum.LastSenderJID = rec.SenderJID
	}
}

func previewOf(rec domain.MessageRecord) string {
	if rec.Text != "" {
		return rec.Text
	}
	switch rec.Type {
	case domain.MessageTypeImage:
		return "[image]"
	case domain.MessageTypeDocument:
		name := ""
		if rec.Media != nil {
			name = rec.Media.FileName
		}
		return strings.TrimSpace("[document] " + name)
	}
	return ""
}

// Chats returns per-chat summaries sorted by last activity, newest first.
func (c *MessageCache) Chats() []domain.ChatSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ChatSummary, 0, len(c.chats))
	for _, s := range c.chats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastTs > out[j].LastTs })
	return out
}

// ChatMessages returns up to limit messages for a chat whose activity
// timestamp is strictly greater than since, oldest first.
func (c *MessageCache) ChatMessages(jid string, since int64, limit int) []domain.MessageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.MessageRecord, 0, 64)
	for _, m := range c.messages {
		if m.ChatJID != jid {
			continue
		}
		if m.LastActivity() <= since {
			continue
		}
		out = append(out, m)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Get returns a cached record by id.
func (c *MessageCache) Get(id string) (domain.MessageRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos, ok := c.index[id]
	if !ok {
		return domain.MessageRecord{}, false
	}
	return c.messages[pos], true
}

// Len reports how many records are currently cached.
func (c *MessageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}
