package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/domain"
)

func newTestAutoReplier(t *testing.T, cfg AutoReplyConfig) (*AutoReplier, *DeliveryQueue) {
	t.Helper()
	client := chatclient.NewMockClient(testLogger())
	client.SetState(chatclient.StateOpen)
	queue := NewDeliveryQueue(100, &memJobs{}, testLogger())
	resolver := newTestResolver(t, domain.ContactBook{}, nil)
	sender := NewSendService(resolver, queue, newTestMessageService(&memMessages{}), client, testLogger())
	return NewAutoReplier(cfg, sender, testLogger()), queue
}

func dmRec(text string) domain.MessageRecord {
	return domain.MessageRecord{
		ID:        "in_1",
		Ts:        domain.NowMillis(),
		Direction: domain.DirectionIn,
		ChatJID:   "27820000001@s.whatsapp.net",
		SenderJID: "27820000001@s.whatsapp.net",
		Type:      domain.MessageTypeText,
		Text:      text,
	}
}

func TestAutoReplyEqualsMatch(t *testing.T) {
	replier, queue := newTestAutoReplier(t, AutoReplyConfig{
		Enabled:    true,
		Scope:      "all",
		MatchType:  "equals",
		MatchValue: "hours",
		ReplyText:  "We are open 9-5.",
		Cooldown:   time.Minute,
	})

	replier.Handle(context.Background(), dmRec("HOURS"), "")
	assert.Equal(t, 1, queue.Depth())

	replier.Handle(context.Background(), dmRec("something else"), "")
	assert.Equal(t, 1, queue.Depth())
}

func TestAutoReplyCooldownPerChat(t *testing.T) {
	replier, queue := newTestAutoReplier(t, AutoReplyConfig{
		Enabled:    true,
		Scope:      "all",
		MatchType:  "contains",
		MatchValue: "help",
		ReplyText:  "On it.",
		Cooldown:   time.Minute,
	})

	clock := time.Unix(1_700_000_000, 0)
	replier.now = func() time.Time { return clock }

	replier.Handle(context.Background(), dmRec("help me"), "")
	replier.Handle(context.Background(), dmRec("help again"), "")
	assert.Equal(t, 1, queue.Depth())

	clock = clock.Add(2 * time.Minute)
	replier.Handle(context.Background(), dmRec("help once more"), "")
	assert.Equal(t, 2, queue.Depth())
}

func TestAutoReplyScopeDM(t *testing.T) {
	replier, queue := newTestAutoReplier(t, AutoReplyConfig{
		Enabled:    true,
		Scope:      "dm",
		MatchType:  "equals",
		MatchValue: "ping",
		ReplyText:  "pong",
		Cooldown:   time.Minute,
	})

	grp := dmRec("ping")
	grp.ChatJID = "120363000000000001@g.us"
	grp.IsGroup = true
	replier.Handle(context.Background(), grp, "")
	assert.Equal(t, 0, queue.Depth())

	replier.Handle(context.Background(), dmRec("ping"), "")
	assert.Equal(t, 1, queue.Depth())
}

func TestAutoReplyGroupRequiresPrefix(t *testing.T) {
	replier, queue := newTestAutoReplier(t, AutoReplyConfig{
		Enabled:     true,
		Scope:       "group",
		MatchType:   "equals",
		MatchValue:  "ping",
		ReplyText:   "pong",
		GroupPrefix: "!bot",
		Cooldown:    time.Minute,
	})

	grp := dmRec("ping")
	grp.ChatJID = "120363000000000001@g.us"
	grp.IsGroup = true
	replier.Handle(context.Background(), grp, "")
	assert.Equal(t, 0, queue.Depth())

	withPrefix := grp
	withPrefix.Text = "!bot ping"
	replier.Handle(context.Background(), withPrefix, "")
	assert.Equal(t, 1, queue.Depth())
}

func TestAutoReplyBadRegexNeverMatches(t *testing.T) {
	replier, queue := newTestAutoReplier(t, AutoReplyConfig{
		Enabled:    true,
		Scope:      "all",
		MatchType:  "regex",
		MatchValue: "([unclosed",
		ReplyText:  "never",
		Cooldown:   time.Minute,
	})

	replier.Handle(context.Background(), dmRec("([unclosed"), "")
	assert.Equal(t, 0, queue.Depth())
}

func TestAutoReplyRegexMatch(t *testing.T) {
	replier, queue := newTestAutoReplier(t, AutoReplyConfig{
		Enabled:    true,
		Scope:      "all",
		MatchType:  "regex",
		MatchValue: "^(hi|hello)\\b",
		ReplyText:  "Hello!",
		Cooldown:   time.Minute,
	})

	replier.Handle(context.Background(), dmRec("Hello there"), "")
	require.Equal(t, 1, queue.Depth())
}
