// Package file implements the gateway repositories on top of whole-document
// JSON files with atomic replace semantics.
package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/platform/docstore"
)

type messagesDoc struct {
	Messages  []*domain.MessageRecord `json:"messages"`
	UpdatedAt int64                   `json:"updatedAt"`
}

// MessageRepositoryFile stores message history in one JSON document,
// trimming the oldest entries once maxMessages is exceeded.
type MessageRepositoryFile struct {
	store       *docstore.Store
	maxMessages int
	logger      *slog.Logger
	now         func() time.Time
	mu          sync.Mutex
}

func NewMessageRepositoryFile(store *docstore.Store, maxMessages int, logger *slog.Logger) *MessageRepositoryFile {
	return &MessageRepositoryFile{
		store:       store,
		maxMessages: maxMessages,
		logger:      logger.With("repository", "messages_file"),
		now:         time.Now,
	}
}

func (r *MessageRepositoryFile) load() (*messagesDoc, error) {
	var doc messagesDoc
	if err := r.store.Load(&doc); err != nil {
		if errors.Is(err, docstore.ErrNotExist) {
			return &messagesDoc{Messages: []*domain.MessageRecord{}}, nil
		}
		return nil, err
	}
	if doc.Messages == nil {
		doc.Messages = []*domain.MessageRecord{}
	}
	return &doc, nil
}

func (r *MessageRepositoryFile) save(doc *messagesDoc) error {
	doc.UpdatedAt = r.now().UnixMilli()
	return r.store.Save(doc)
}

// Append stores rec with id/timestamp defaults and enforces the FIFO cap.
func (r *MessageRepositoryFile) Append(ctx context.Context, rec *domain.MessageRecord) (*domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ChatJID == "" {
		return nil, fmt.Errorf("message record: chat jid required")
	}
	if rec.ID == "" {
		rec.ID = domain.NewID("msg")
	}
	if rec.Ts == 0 {
		rec.Ts = r.now().UnixMilli()
	}
	if rec.Type == "" {
		rec.Type = domain.MessageTypeText
	}
	if rec.Direction == "" {
		rec.Direction = domain.DirectionIn
	}

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	doc.Messages = append(doc.Messages, rec)
	if r.maxMessages > 0 && len(doc.Messages) > r.maxMessages {
		doc.Messages = doc.Messages[len(doc.Messages)-r.maxMessages:]
	}
	if err := r.save(doc); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateStatus patches the record's status and stamps StatusTs.
func (r *MessageRepositoryFile) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) (*domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, m := range doc.Messages {
		if m.ID == id {
			m.Status = status
			m.StatusTs = r.now().UnixMilli()
			if err := r.save(doc); err != nil {
				return nil, err
			}
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Recent returns the tail of the history, oldest first.
func (r *MessageRepositoryFile) Recent(ctx context.Context, limit int) ([]*domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	msgs := doc.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*domain.MessageRecord, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}
