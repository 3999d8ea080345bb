package app

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// AutoReplyConfig drives the optional canned-reply responder.
type AutoReplyConfig struct {
	Enabled     bool
	Scope       string // all | dm | group
	MatchType   string // equals | contains | regex
	MatchValue  string
	ReplyText   string
	GroupPrefix string
	Cooldown    time.Duration
}

// AutoReplier sends a canned reply when an inbound message matches the
// configured trigger. Replies are rate limited per chat by a cooldown.
type AutoReplier struct {
	cfg    AutoReplyConfig
	sender *SendService
	logger *slog.Logger

	mu     sync.Mutex
	lastAt map[string]time.Time
	now    func() time.Time
}

func NewAutoReplier(cfg AutoReplyConfig, sender *SendService, logger *slog.Logger) *AutoReplier {
	return &AutoReplier{
		cfg:    cfg,
		sender: sender,
		logger: logger.With("service", "AutoReplier"),
		lastAt: map[string]time.Time{},
		now:    time.Now,
	}
}

// Handle inspects one inbound message and queues a reply when it matches.
func (a *AutoReplier) Handle(ctx context.Context, rec domain.MessageRecord, rawText string) {
	if !a.cfg.Enabled {
		return
	}
	if a.cfg.Scope == "dm" && rec.IsGroup {
		return
	}
	if a.cfg.Scope == "group" && !rec.IsGroup {
		return
	}

	text := rec.Text
	if rec.Type != domain.MessageTypeText {
		text = strings.TrimSpace(rawText)
	}
	if rec.IsGroup {
		stripped, ok := StripPrefix(a.cfg.GroupPrefix, text)
		if !ok || stripped == "" {
			return
		}
		text = stripped
	}
	if !a.matches(text) {
		return
	}

	a.mu.Lock()
	if last, ok := a.lastAt[rec.ChatJID]; ok && a.now().Sub(last) < a.cfg.Cooldown {
		a.mu.Unlock()
		return
	}
	a.lastAt[rec.ChatJID] = a.now()
	a.mu.Unlock()

	if _, err := a.sender.Queue(ctx, rec.ChatJID, domain.Payload{Text: a.cfg.ReplyText}, nil, "auto"); err != nil {
		a.logger.ErrorContext(ctx, "failed to queue auto reply", "chat_jid", rec.ChatJID, "error", err)
	}
}

// matches applies the configured trigger. A regex that does not compile
// never matches.
func (a *AutoReplier) matches(text string) bool {
	t := strings.TrimSpace(text)
	v := strings.TrimSpace(a.cfg.MatchValue)
	if t == "" || v == "" {
		return false
	}
	switch a.cfg.MatchType {
	case "equals":
		return strings.EqualFold(t, v)
	case "contains":
		return strings.Contains(strings.ToLower(t), strings.ToLower(v))
	case "regex":
		re, err := regexp.Compile("(?i)" + v)
		if err != nil {
			return false
		}
		return re.MatchString(t)
	}
	return false
}
