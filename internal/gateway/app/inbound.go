package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/domain"
)

// InboundProcessor is the pipeline for received messages: persist, run
// the forwarding decision, and hand the message to the auto replier.
type InboundProcessor struct {
	messages *MessageService
	rules    *RuleEngine
	fwd      *Forwarder
	reply    *AutoReplier
	logger   *slog.Logger
}

func NewInboundProcessor(messages *MessageService, rules *RuleEngine, fwd *Forwarder, reply *AutoReplier, logger *slog.Logger) *InboundProcessor {
	return &InboundProcessor{
		messages: messages,
		rules:    rules,
		fwd:      fwd,
		reply:    reply,
		logger:   logger.With("service", "InboundProcessor"),
	}
}

// Handle processes one inbound message. Plain text messages with no text
// are dropped.
func (p *InboundProcessor) Handle(ctx context.Context, msg chatclient.InboundMessage) {
	text := messageText(msg)
	if msg.Type == domain.MessageTypeText && text == "" {
		return
	}
	inboundMessagesCounter.WithLabelValues(string(msg.Type)).Inc()

	rec := domain.MessageRecord{
		ID:        msg.ID,
		Ts:        msg.Ts,
		Direction: domain.DirectionIn,
		ChatJID:   msg.ChatJID,
		SenderJID: msg.SenderJID,
		IsGroup:   msg.IsGroup,
		Type:      msg.Type,
		Text:      text,
		Media:     msg.Media,
	}
	if rec.ID == "" {
		rec.ID = domain.NewID("in")
	}
	if rec.Ts == 0 {
		rec.Ts = domain.NowMillis()
	}
	rec = p.messages.Record(ctx, rec)
	p.logger.InfoContext(ctx, "inbound message stored", "message_id", rec.ID, "chat_jid", rec.ChatJID, "type", rec.Type)

	// Rule checks run against the bare text, not the display placeholder.
	textForRules := text
	if msg.Type != domain.MessageTypeText {
		textForRules = strings.TrimSpace(msg.RawText)
	}
	if p.rules.ShouldForward(rec, textForRules) {
		p.fwd.Enqueue(p.fwd.BuildEvent(rec, textForRules))
	}

	if p.reply != nil {
		p.reply.Handle(ctx, rec, msg.RawText)
	}
}

// messageText derives the stored display text: the trimmed body for text
// messages, the caption or a placeholder for media.
func messageText(msg chatclient.InboundMessage) string {
	switch msg.Type {
	case domain.MessageTypeText:
		return strings.TrimSpace(msg.Text)
	case domain.MessageTypeImage:
		if t := strings.TrimSpace(msg.Text); t != "" {
			return t
		}
		return "[image]"
	case domain.MessageTypeDocument:
		if msg.Media != nil && msg.Media.FileName != "" {
			return "[document] " + msg.Media.FileName
		}
		return "[document]"
	}
	return strings.TrimSpace(msg.Text)
}
