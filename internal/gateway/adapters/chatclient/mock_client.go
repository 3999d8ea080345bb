package chatclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// MockClient is a simulated chat-network client for development and tests.
// It records sends, exposes a settable connectivity state, and lets tests
// inject failures and inbound messages.
type MockClient struct {
	logger *slog.Logger

	mu       sync.Mutex
	state    ConnState
	groups   []domain.GroupInfo
	sent     []MockSend
	handler  InboundHandler
	sendHook func(jid string, payload domain.Payload) error
}

// MockSend is one recorded Send invocation.
type MockSend struct {
	JID     string
	Payload domain.Payload
}

func NewMockClient(logger *slog.Logger) *MockClient {
	return &MockClient{
		logger: logger.With("client", "mock"),
		state:  StateOpen,
	}
}

func (c *MockClient) Send(ctx context.Context, jid string, payload domain.Payload) error {
	c.mu.Lock()
	hook := c.sendHook
	state := c.state
	c.mu.Unlock()

	if state != StateOpen {
		return fmt.Errorf("mock client: send while %s: %w", state, domain.ErrNotConnected)
	}
	if hook != nil {
		if err := hook(jid, payload); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.sent = append(c.sent, MockSend{JID: jid, Payload: payload})
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "mock send", "jid", jid, "type", payload.Type())
	return nil
}

func (c *MockClient) Status() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *MockClient) ListGroups(ctx context.Context) ([]domain.GroupInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.GroupInfo, len(c.groups))
	copy(out, c.groups)
	return out, nil
}

func (c *MockClient) SetInboundHandler(h InboundHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// SetState changes the simulated connectivity state.
func (c *MockClient) SetState(state ConnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// SetGroups sets the group list returned by ListGroups.
func (c *MockClient) SetGroups(groups []domain.GroupInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = groups
}

// SetSendHook installs a function consulted before each send; returning an
// error simulates a delivery failure.
func (c *MockClient) SetSendHook(hook func(jid string, payload domain.Payload) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendHook = hook
}

// Sent returns a copy of all recorded sends.
func (c *MockClient) Sent() []MockSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MockSend, len(c.sent))
	copy(out, c.sent)
	return out
}

// Deliver pushes an inbound message through the registered handler, as the
// real session would on a network event.
func (c *MockClient) Deliver(msg InboundMessage) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(msg)
	}
}
