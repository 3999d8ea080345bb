// Package chatclient defines the contract for the underlying chat-network
// session client. Pairing, socket lifecycle and protocol parsing live
// behind this interface; the gateway only needs send, connectivity state,
// group listing and a normalized inbound event stream.
package chatclient

import (
	"context"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// ConnState is the observable connectivity state of the session.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateOpen         ConnState = "open"
	StateDisconnected ConnState = "disconnected"
)

// InboundMessage is a raw protocol message normalized by the client
// adapter. RawText carries the original text (e.g. a media caption) used
// for rule matching even when Text holds a placeholder.
type InboundMessage struct {
	ID        string
	Ts        int64
	ChatJID   string
	SenderJID string
	IsGroup   bool
	Type      domain.MessageType
	Text      string
	RawText   string
	Media     *domain.Media
}

// InboundHandler receives every inbound message exactly once.
type InboundHandler func(msg InboundMessage)

// Client is the chat-network session collaborator.
type Client interface {
	// Send delivers the payload to the recipient address, returning an
	// error on rejection or transport failure.
	Send(ctx context.Context, jid string, payload domain.Payload) error
	// Status reports the current connectivity state.
	Status() ConnState
	// ListGroups returns all groups the account participates in.
	ListGroups(ctx context.Context) ([]domain.GroupInfo, error)
	// SetInboundHandler registers the inbound event callback. Must be
	// called before the session starts delivering events.
	SetInboundHandler(h InboundHandler)
}
