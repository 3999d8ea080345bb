package app

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Naude555/watson/internal/gateway/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memLastSend is an in-memory LastSendRepository.
type memLastSend struct {
	mu sync.Mutex
	m  map[string]int64
}

func newMemLastSend() *memLastSend { return &memLastSend{m: map[string]int64{}} }

func (r *memLastSend) Get(ctx context.Context, jid string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[jid], nil
}

func (r *memLastSend) Set(ctx context.Context, jid string, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[jid] = ts
	return nil
}

// failingLastSend reads normally but rejects every write.
type failingLastSend struct {
	memLastSend
	setErr error
}

func (r *failingLastSend) Set(ctx context.Context, jid string, ts int64) error {
	return r.setErr
}

// memJobs is an in-memory JobRepository.
type memJobs struct {
	mu      sync.Mutex
	pending []*domain.DeliveryJob
}

func (r *memJobs) SavePending(ctx context.Context, jobs []*domain.DeliveryJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = jobs
	return nil
}

func (r *memJobs) LoadPending(ctx context.Context) ([]*domain.DeliveryJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, nil
}

// memAutomations is an in-memory AutomationRepository.
type memAutomations struct {
	mu  sync.Mutex
	cfg *domain.AutomationConfig
}

func (r *memAutomations) Load(ctx context.Context) (*domain.AutomationConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		return nil, domain.ErrNotFound
	}
	c := *r.cfg
	return &c, nil
}

func (r *memAutomations) Save(ctx context.Context, cfg *domain.AutomationConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cfg
	r.cfg = &c
	return nil
}

// memContacts is an in-memory ContactRepository.
type memContacts struct {
	mu   sync.Mutex
	book domain.ContactBook
}

func (r *memContacts) Book(ctx context.Context) (*domain.ContactBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.book
	return &b, nil
}

func (r *memContacts) UpsertContact(ctx context.Context, c domain.Contact) (*domain.ContactBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.book.Contacts = append(r.book.Contacts, c)
	b := r.book
	return &b, nil
}

func (r *memContacts) DeleteContact(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func (r *memContacts) UpsertGroupAlias(ctx context.Context, g domain.GroupAlias) (*domain.ContactBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.book.Groups = append(r.book.Groups, g)
	b := r.book
	return &b, nil
}

func (r *memContacts) DeleteGroupAlias(ctx context.Context, name string) (bool, error) {
	return false, nil
}

// memMessages is an in-memory MessageRepository.
type memMessages struct {
	mu   sync.Mutex
	recs []*domain.MessageRecord
}

func (r *memMessages) Append(ctx context.Context, rec *domain.MessageRecord) (*domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = domain.NewID("msg")
	}
	if rec.Ts == 0 {
		rec.Ts = domain.NowMillis()
	}
	cp := *rec
	r.recs = append(r.recs, &cp)
	return &cp, nil
}

func (r *memMessages) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) (*domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.recs {
		if m.ID == id {
			m.Status = status
			m.StatusTs = domain.NowMillis()
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMessages) Recent(ctx context.Context, limit int) ([]*domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := r.recs
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	out := make([]*domain.MessageRecord, 0, len(recs))
	for _, m := range recs {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMessages) statuses(id string) []domain.MessageStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MessageStatus
	for _, m := range r.recs {
		if m.ID == id {
			out = append(out, m.Status)
		}
	}
	return out
}

func newTestMessageService(repo *memMessages) *MessageService {
	return NewMessageService(repo, NewMessageCache(100), testLogger())
}
