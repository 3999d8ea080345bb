package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction of a message relative to this gateway.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// MessageType classifies a message payload.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
	MessageTypeUnknown  MessageType = "unknown"
)

// MessageStatus tracks outbound delivery progress. Inbound messages carry
// no status. Transitions are monotonic:
// queued -> (retrying)* -> sent | failed.
type MessageStatus string

const (
	MessageStatusQueued   MessageStatus = "queued"
	MessageStatusSent     MessageStatus = "sent"
	MessageStatusRetrying MessageStatus = "retrying"
	MessageStatusFailed   MessageStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s MessageStatus) Terminal() bool {
	return s == MessageStatusSent || s == MessageStatusFailed
}

// Media references a stored media file attached to a message.
type Media struct {
	LocalPath string `json:"localPath,omitempty"`
	LocalURL  string `json:"localUrl,omitempty"` // signed /media URL
	Mimetype  string `json:"mimetype,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// MessageRecord is one entry in the message history, inbound or outbound.
// Timestamps are unix milliseconds. StatusTs is stamped on every status
// patch so polling clients can detect changes without rescanning history.
type MessageRecord struct {
	ID        string        `json:"id"`
	Ts        int64         `json:"ts"`
	Direction Direction     `json:"direction"`
	ChatJID   string        `json:"chatJid"`
	SenderJID string        `json:"senderJid,omitempty"`
	IsGroup   bool          `json:"isGroup"`
	Type      MessageType   `json:"type"`
	Text      string        `json:"text,omitempty"`
	Media     *Media        `json:"media,omitempty"`
	Status    MessageStatus `json:"status,omitempty"`
	StatusTs  int64         `json:"statusTs,omitempty"`
}

// LastActivity is the timestamp clients compare "since" against: the later
// of creation and the last status change.
func (m *MessageRecord) LastActivity() int64 {
	if m.StatusTs > m.Ts {
		return m.StatusTs
	}
	return m.Ts
}

// ChatSummary is the derived per-chat index entry. Rebuildable from the
// message history; never persisted on its own.
type ChatSummary struct {
	ChatJID       string `json:"chatJid"`
	IsGroup       bool   `json:"isGroup"`
	Count         int    `json:"count"`
	LastTs        int64  `json:"lastTs"`
	LastText      string `json:"lastText,omitempty"`
	LastSenderJID string `json:"lastSenderJid,omitempty"`
}

// GroupInfo identifies a group chat on the network.
type GroupInfo struct {
	JID     string `json:"jid"`
	Subject string `json:"subject"`
}

// Payload is the tagged union carried by a delivery job. Exactly one of
// Text, Image or Document is set.
type Payload struct {
	Text     string       `json:"text,omitempty"`
	Image    *ImageRef    `json:"image,omitempty"`
	Document *DocumentRef `json:"document,omitempty"`
}

// ImageRef points at an image to send, by local path or remote URL.
type ImageRef struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// DocumentRef points at a document to send.
type DocumentRef struct {
	URL      string `json:"url"`
	Mimetype string `json:"mimetype,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// Type classifies the payload.
func (p Payload) Type() MessageType {
	switch {
	case p.Text != "":
		return MessageTypeText
	case p.Image != nil:
		return MessageTypeImage
	case p.Document != nil:
		return MessageTypeDocument
	default:
		return MessageTypeUnknown
	}
}

// PreviewText is the text stored on the message record for this payload.
func (p Payload) PreviewText() string {
	switch p.Type() {
	case MessageTypeText:
		return p.Text
	case MessageTypeImage:
		if c := strings.TrimSpace(p.Image.Caption); c != "" {
			return c
		}
		return "[image]"
	case MessageTypeDocument:
		if p.Document.FileName != "" {
			return fmt.Sprintf("[document] %s", p.Document.FileName)
		}
		return "[document]"
	default:
		return ""
	}
}

// IsGroupJID reports whether the address identifies a group chat.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}

// NewID generates a unique id with a readable prefix, e.g. "msg_<uuid>".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// NowMillis is the canonical timestamp representation for records.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
