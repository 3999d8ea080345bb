package app

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// RuleEngine decides whether an inbound message is forwarded to the
// automation webhook. Rate-limit windows are in memory only; they reset
// on restart.
type RuleEngine struct {
	automations *AutomationService
	logger      *slog.Logger

	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

type rateWindow struct {
	start time.Time
	count int
}

func NewRuleEngine(automations *AutomationService, logger *slog.Logger) *RuleEngine {
	return &RuleEngine{
		automations: automations,
		logger:      logger.With("service", "RuleEngine"),
		windows:     make(map[string]*rateWindow),
		now:         time.Now,
	}
}

// ShouldForward runs the full decision pipeline for one inbound message.
// The checks run in a fixed order; note the rate-limit budget for the
// chat is consumed before the prefix gate is evaluated.
func (e *RuleEngine) ShouldForward(rec domain.MessageRecord, textForRules string) bool {
	cfg := e.automations.Config()
	if !cfg.Enabled || cfg.WebhookURL == "" {
		return e.decide(false)
	}

	rule := e.automations.EffectiveRule(rec.ChatJID)
	if !rule.Enabled {
		return e.decide(false)
	}

	// Safety gates
	if rec.IsGroup && !rule.Safety.AllowGroups {
		return e.decide(false)
	}
	if !rec.IsGroup && !rule.Safety.AllowDM {
		return e.decide(false)
	}
	if !rec.IsGroup && !rule.DMEnabled {
		return e.decide(false)
	}
	if rule.Safety.BlockMedia && rec.Type != domain.MessageTypeText {
		return e.decide(false)
	}

	// Global per-type switches
	switch rec.Type {
	case domain.MessageTypeText:
		if !cfg.Forward.Text {
			return e.decide(false)
		}
	case domain.MessageTypeImage:
		if !cfg.Forward.Image {
			return e.decide(false)
		}
	case domain.MessageTypeDocument:
		if !cfg.Forward.Document {
			return e.decide(false)
		}
	default:
		if !cfg.Forward.Other {
			return e.decide(false)
		}
	}

	if e.withinQuietHours(rule) {
		return e.decide(false)
	}
	if !e.rateLimitOK(rec.ChatJID, rule) {
		return e.decide(false)
	}

	if rule.RequirePrefixForAll {
		return e.decide(MatchesPrefix(rule.GroupPrefix, textForRules))
	}

	if rec.IsGroup {
		switch rule.GroupMode {
		case "all":
			return e.decide(true)
		case "prefix", "":
			return e.decide(MatchesPrefix(rule.GroupPrefix, textForRules))
		}
	}
	return e.decide(true)
}

func (e *RuleEngine) decide(allow bool) bool {
	if allow {
		forwardDecisionCounter.WithLabelValues("allow").Inc()
	} else {
		forwardDecisionCounter.WithLabelValues("block").Inc()
	}
	return allow
}

// withinQuietHours checks the rule's quiet window in its configured
// timezone. Overnight windows wrap midnight; an equal start and end
// means the window never applies.
func (e *RuleEngine) withinQuietHours(rule domain.Rule) bool {
	q := rule.QuietHours
	if !q.Enabled {
		return false
	}
	loc, err := time.LoadLocation(q.TZ)
	if err != nil {
		e.logger.Warn("invalid quiet hours timezone", "tz", q.TZ, "error", err)
		loc = time.UTC
	}
	t := e.now().In(loc)
	now := t.Hour()*60 + t.Minute()

	start := parseClockMinutes(q.Start)
	end := parseClockMinutes(q.End)
	if start == end {
		return false
	}
	if start < end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

func parseClockMinutes(s string) int {
	hh, mm := 0, 0
	parts := strings.SplitN(s, ":", 2)
	if len(parts) > 0 {
		hh = atoiSafe(parts[0])
	}
	if len(parts) > 1 {
		mm = atoiSafe(parts[1])
	}
	return hh*60 + mm
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// rateLimitOK consumes one slot of the chat's fixed minute window. The
// window starts at the first message and resets sixty seconds later.
func (e *RuleEngine) rateLimitOK(chatJID string, rule domain.Rule) bool {
	rl := rule.RateLimit
	if !rl.Enabled {
		return true
	}
	max := rl.MaxPerMinute
	if max < 1 {
		max = 30
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	win, ok := e.windows[chatJID]
	if !ok {
		win = &rateWindow{start: now}
		e.windows[chatJID] = win
	}
	if now.Sub(win.start) >= time.Minute {
		win.start = now
		win.count = 0
	}
	if win.count >= max {
		return false
	}
	win.count++
	return true
}

// MatchesPrefix reports whether text begins with the command prefix.
// "!bot hi", "!bot: hi", "!bot, hi" and "!bot - hi" all match, as does
// the bare prefix on its own. An empty prefix matches everything.
func MatchesPrefix(prefix, text string) bool {
	p := strings.TrimSpace(prefix)
	if p == "" {
		return true
	}
	t := strings.TrimSpace(text)
	re := prefixPattern(p)
	return re.MatchString(t) || strings.EqualFold(t, p)
}

// StripPrefix removes the command prefix from text. The second return is
// false when the text does not carry the prefix.
func StripPrefix(prefix, text string) (string, bool) {
	p := strings.TrimSpace(prefix)
	t := strings.TrimSpace(text)
	if p == "" {
		return t, true
	}
	re := prefixPattern(p)
	if loc := re.FindStringIndex(t); loc != nil {
		return strings.TrimSpace(t[loc[1]:]), true
	}
	if strings.EqualFold(t, p) {
		return "", true
	}
	return t, false
}

func prefixPattern(p string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(p) + `(?:\s|:|,|-)+`)
}
