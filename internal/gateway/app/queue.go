package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/gateway/repository"
)

// RetryPolicy controls how delivery failures are retried. Backoff doubles
// on every attempt starting from Initial.
type RetryPolicy struct {
	MaxRetries int
	Initial    time.Duration
}

func (p RetryPolicy) Backoff(attempts int) time.Duration {
	d := p.Initial
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

// queuedJob pairs a job with its retry bookkeeping.
type queuedJob struct {
	job      *domain.DeliveryJob
	attempts int
}

// DeliveryQueue is the single FIFO of pending outbound jobs. Pending jobs
// are mirrored to durable storage so a restart re-enqueues them.
type DeliveryQueue struct {
	mu      sync.Mutex
	jobs    chan *queuedJob
	pending map[string]*domain.DeliveryJob
	repo    repository.JobRepository
	logger  *slog.Logger
}

func NewDeliveryQueue(capacity int, repo repository.JobRepository, logger *slog.Logger) *DeliveryQueue {
	if capacity <= 0 {
		capacity = 10000
	}
	return &DeliveryQueue{
		jobs:    make(chan *queuedJob, capacity),
		pending: make(map[string]*domain.DeliveryJob),
		repo:    repo,
		logger:  logger.With("service", "DeliveryQueue"),
	}
}

var ErrQueueFull = errors.New("delivery queue is full")

// Enqueue adds a job without blocking. ErrQueueFull is returned when the
// channel is at capacity.
func (q *DeliveryQueue) Enqueue(ctx context.Context, job *domain.DeliveryJob) error {
	return q.push(ctx, &queuedJob{job: job})
}

func (q *DeliveryQueue) push(ctx context.Context, qj *queuedJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case q.jobs <- qj:
	default:
		return ErrQueueFull
	}
	q.pending[qj.job.ID] = qj.job
	q.persistLocked(ctx)
	return nil
}

// complete drops a job from the pending set once it reaches a terminal state.
func (q *DeliveryQueue) complete(ctx context.Context, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
	q.persistLocked(ctx)
}

func (q *DeliveryQueue) persistLocked(ctx context.Context) {
	if q.repo == nil {
		return
	}
	jobs := make([]*domain.DeliveryJob, 0, len(q.pending))
	for _, j := range q.pending {
		jobs = append(jobs, j)
	}
	if err := q.repo.SavePending(ctx, jobs); err != nil {
		q.logger.ErrorContext(ctx, "failed to persist pending jobs", "error", err)
	}
}

// Restore re-enqueues jobs persisted by a previous run. Retry counts do
// not survive a restart; restored jobs start from attempt one.
func (q *DeliveryQueue) Restore(ctx context.Context) (int, error) {
	if q.repo == nil {
		return 0, nil
	}
	jobs, err := q.repo.LoadPending(ctx)
	if err != nil {
		return 0, err
	}
	for _, j := range jobs {
		if err := q.push(ctx, &queuedJob{job: j}); err != nil {
			q.logger.ErrorContext(ctx, "failed to restore job", "job_id", j.ID, "error", err)
		}
	}
	return len(jobs), nil
}

// Depth reports how many jobs are pending (queued or awaiting retry).
func (q *DeliveryQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// DeliveryWorker drains the queue one job at a time. It holds sends while
// the chat client is disconnected, paces every send through the rate gate
// and schedules failed jobs for a delayed retry.
type DeliveryWorker struct {
	queue    *DeliveryQueue
	client   chatclient.Client
	gate     *RateGate
	messages *MessageService
	retry    RetryPolicy
	logger   *slog.Logger

	// pollInterval is how often connectivity is re-checked while the
	// client is down. Overridable in tests.
	pollInterval time.Duration
	afterFunc    func(d time.Duration, f func()) *time.Timer
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewDeliveryWorker(queue *DeliveryQueue, client chatclient.Client, gate *RateGate, messages *MessageService, retry RetryPolicy, logger *slog.Logger) *DeliveryWorker {
	return &DeliveryWorker{
		queue:        queue,
		client:       client,
		gate:         gate,
		messages:     messages,
		retry:        retry,
		logger:       logger.With("service", "DeliveryWorker"),
		pollInterval: time.Second,
		afterFunc:    time.AfterFunc,
		sleep:        sleepCtx,
	}
}

// Run processes jobs until the context is cancelled.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "delivery worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "delivery worker stopping")
			return ctx.Err()
		case qj := <-w.queue.jobs:
			if err := w.process(ctx, qj); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
			}
		}
	}
}

func (w *DeliveryWorker) process(ctx context.Context, qj *queuedJob) error {
	if err := w.waitConnected(ctx); err != nil {
		return err
	}
	if err := w.gate.Acquire(ctx, qj.job.Recipient); err != nil {
		return err
	}

	start := time.Now()
	err := w.client.Send(ctx, qj.job.Recipient, qj.job.Payload)
	deliverySendDurationHist.Observe(time.Since(start).Seconds())
	qj.attempts++

	if err == nil {
		deliveryJobsProcessedCounter.WithLabelValues("sent").Inc()
		w.messages.SetStatus(ctx, qj.job.MessageID, domain.MessageStatusSent)
		w.queue.complete(ctx, qj.job.ID)
		w.logger.InfoContext(ctx, "job delivered", "job_id", qj.job.ID, "jid", qj.job.Recipient, "attempts", qj.attempts)
		return w.sleep(ctx, w.gate.PostSendDelay())
	}

	if qj.attempts > w.retry.MaxRetries {
		deliveryJobsProcessedCounter.WithLabelValues("failed").Inc()
		w.messages.SetStatus(ctx, qj.job.MessageID, domain.MessageStatusFailed)
		w.queue.complete(ctx, qj.job.ID)
		w.logger.ErrorContext(ctx, "job failed permanently", "job_id", qj.job.ID, "jid", qj.job.Recipient, "attempts", qj.attempts, "error", err)
		return nil
	}

	deliveryJobsProcessedCounter.WithLabelValues("retry").Inc()
	w.messages.SetStatus(ctx, qj.job.MessageID, domain.MessageStatusRetrying)
	backoff := w.retry.Backoff(qj.attempts)
	w.logger.WarnContext(ctx, "job send failed, scheduling retry",
		"job_id", qj.job.ID, "jid", qj.job.Recipient, "attempts", qj.attempts, "backoff", backoff, "error", err)
	w.afterFunc(backoff, func() {
		select {
		case w.queue.jobs <- qj:
		default:
			// Queue saturated; the job stays in the pending set and will
			// be restored on the next boot.
			w.logger.Error("failed to requeue job after backoff", "job_id", qj.job.ID)
		}
	})
	return nil
}

func (w *DeliveryWorker) waitConnected(ctx context.Context) error {
	for w.client.Status() != chatclient.StateOpen {
		if err := w.sleep(ctx, w.pollInterval); err != nil {
			return err
		}
	}
	return nil
}
