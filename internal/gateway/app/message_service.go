package app

import (
	"context"
	"log/slog"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/gateway/repository"
)

// MessageService records message history. Reads come from the cache;
// writes go to both the cache and the durable store. A persistence
// failure is logged and the service keeps operating from memory.
type MessageService struct {
	repo   repository.MessageRepository
	cache  *MessageCache
	logger *slog.Logger
}

func NewMessageService(repo repository.MessageRepository, cache *MessageCache, logger *slog.Logger) *MessageService {
	return &MessageService{
		repo:   repo,
		cache:  cache,
		logger: logger.With("service", "MessageService"),
	}
}

// Hydrate loads the most recent persisted records into the cache.
func (s *MessageService) Hydrate(ctx context.Context) error {
	recs, err := s.repo.Recent(ctx, s.cache.limit)
	if err != nil {
		return err
	}
	for _, r := range recs {
		s.cache.Upsert(*r)
	}
	s.logger.InfoContext(ctx, "message cache hydrated", "count", len(recs))
	return nil
}

// Record appends a message to the history and returns the stored record
// with its ID and timestamp filled in.
func (s *MessageService) Record(ctx context.Context, rec domain.MessageRecord) domain.MessageRecord {
	stored, err := s.repo.Append(ctx, &rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist message", "message_id", rec.ID, "error", err)
		if rec.ID == "" {
			rec.ID = domain.NewID("msg")
		}
		if rec.Ts == 0 {
			rec.Ts = domain.NowMillis()
		}
		stored = &rec
	}
	s.cache.Upsert(*stored)
	return *stored
}

// SetStatus patches a message's delivery status.
func (s *MessageService) SetStatus(ctx context.Context, id string, status domain.MessageStatus) {
	s.cache.UpdateStatus(id, status, domain.NowMillis())
	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist message status", "message_id", id, "status", status, "error", err)
		return
	}
	s.cache.Upsert(*updated)
}

// Chats lists chat summaries, newest activity first.
func (s *MessageService) Chats(ctx context.Context) []domain.ChatSummary {
	return s.cache.Chats()
}

// ChatMessages lists recent messages for one chat.
func (s *MessageService) ChatMessages(ctx context.Context, jid string, since int64, limit int) []domain.MessageRecord {
	return s.cache.ChatMessages(jid, since, limit)
}

// Get returns a cached record by id.
func (s *MessageService) Get(id string) (domain.MessageRecord, bool) {
	return s.cache.Get(id)
}
