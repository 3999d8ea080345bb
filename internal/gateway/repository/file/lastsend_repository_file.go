package file

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Naude555/watson/internal/platform/docstore"
)

// LastSendRepositoryFile keeps per-recipient last-send timestamps (unix
// milliseconds) in one small JSON document so pacing survives restarts.
type LastSendRepositoryFile struct {
	store  *docstore.Store
	logger *slog.Logger
	mu     sync.Mutex
}

func NewLastSendRepositoryFile(store *docstore.Store, logger *slog.Logger) *LastSendRepositoryFile {
	return &LastSendRepositoryFile{
		store:  store,
		logger: logger.With("repository", "lastsend_file"),
	}
}

func (r *LastSendRepositoryFile) load() (map[string]int64, error) {
	doc := map[string]int64{}
	if err := r.store.Load(&doc); err != nil {
		if errors.Is(err, docstore.ErrNotExist) {
			return map[string]int64{}, nil
		}
		return nil, err
	}
	return doc, nil
}

// Get returns 0 for a recipient that has never been sent to.
func (r *LastSendRepositoryFile) Get(ctx context.Context, jid string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return 0, err
	}
	return doc[jid], nil
}

func (r *LastSendRepositoryFile) Set(ctx context.Context, jid string, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	doc[jid] = ts
	return r.store.Save(doc)
}
