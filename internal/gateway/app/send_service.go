package app

import (
	"context"
	"log/slog"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/domain"
)

// SendResult reports a successfully queued outbound message.
type SendResult struct {
	To     string `json:"to"`
	JID    string `json:"jid"`
	Queued bool   `json:"queued"`
	JobID  string `json:"jobId"`
	MsgID  string `json:"msgId"`
}

// SendService is the public send pipeline: resolve the recipient, record
// the message as queued and hand a delivery job to the queue.
type SendService struct {
	resolver *Resolver
	queue    *DeliveryQueue
	messages *MessageService
	client   chatclient.Client
	logger   *slog.Logger
}

func NewSendService(resolver *Resolver, queue *DeliveryQueue, messages *MessageService, client chatclient.Client, logger *slog.Logger) *SendService {
	return &SendService{
		resolver: resolver,
		queue:    queue,
		messages: messages,
		client:   client,
		logger:   logger.With("service", "SendService"),
	}
}

// Connected reports whether the chat session is open.
func (s *SendService) Connected() bool {
	return s.client.Status() == chatclient.StateOpen
}

// Queue resolves the recipient and enqueues the payload for delivery.
// The message record is stored with status queued before the job is
// handed over, so history never misses an accepted send.
func (s *SendService) Queue(ctx context.Context, to string, payload domain.Payload, media *domain.Media, idPrefix string) (*SendResult, error) {
	jid, err := s.resolver.Resolve(ctx, to)
	if err != nil {
		return nil, err
	}

	msgID := domain.NewID("out_" + idPrefix)
	now := domain.NowMillis()

	rec := domain.MessageRecord{
		ID:        msgID,
		Ts:        now,
		Direction: domain.DirectionOut,
		ChatJID:   jid,
		SenderJID: "me",
		IsGroup:   domain.IsGroupJID(jid),
		Type:      payload.Type(),
		Text:      payload.PreviewText(),
		Media:     media,
		Status:    domain.MessageStatusQueued,
	}
	s.messages.Record(ctx, rec)

	job := &domain.DeliveryJob{
		ID:        domain.NewID("job_" + idPrefix),
		Recipient: jid,
		Payload:   payload,
		CreatedAt: now,
		MessageID: msgID,
		ChatJID:   jid,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.messages.SetStatus(ctx, msgID, domain.MessageStatusFailed)
		return nil, err
	}

	s.logger.InfoContext(ctx, "outbound message queued", "job_id", job.ID, "message_id", msgID, "jid", jid, "type", rec.Type)
	return &SendResult{To: to, JID: jid, Queued: true, JobID: job.ID, MsgID: msgID}, nil
}
