package repository

import (
	"context"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// MessageRepository is the durable message history: append-mostly with a
// FIFO size cap, plus in-place status patches.
type MessageRepository interface {
	// Append stores the record, filling ID and Ts defaults, and trims the
	// oldest entries once the cap is exceeded. Returns the stored record.
	Append(ctx context.Context, rec *domain.MessageRecord) (*domain.MessageRecord, error)
	// UpdateStatus patches the record's status and stamps StatusTs.
	// Returns domain.ErrNotFound when the id is unknown.
	UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) (*domain.MessageRecord, error)
	// Recent returns the most recent records, oldest first, at most limit.
	Recent(ctx context.Context, limit int) ([]*domain.MessageRecord, error)
}

// ContactRepository manages the admin contacts/group-aliases document.
type ContactRepository interface {
	Book(ctx context.Context) (*domain.ContactBook, error)
	UpsertContact(ctx context.Context, c domain.Contact) (*domain.ContactBook, error)
	DeleteContact(ctx context.Context, name string) (bool, error)
	UpsertGroupAlias(ctx context.Context, g domain.GroupAlias) (*domain.ContactBook, error)
	DeleteGroupAlias(ctx context.Context, name string) (bool, error)
}

// AutomationRepository persists the automation configuration document.
type AutomationRepository interface {
	Load(ctx context.Context) (*domain.AutomationConfig, error)
	Save(ctx context.Context, cfg *domain.AutomationConfig) error
}

// LastSendRepository tracks the durable per-recipient last-send timestamp
// (unix milliseconds) used by the rate gate. Get returns 0 for an unseen
// recipient.
type LastSendRepository interface {
	Get(ctx context.Context, jid string) (int64, error)
	Set(ctx context.Context, jid string, ts int64) error
}

// JobRepository persists the pending delivery jobs so the queue survives
// restarts. The whole pending set is rewritten on every mutation.
type JobRepository interface {
	SavePending(ctx context.Context, jobs []*domain.DeliveryJob) error
	LoadPending(ctx context.Context) ([]*domain.DeliveryJob, error)
}
