package file

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/platform/docstore"
)

type jobsDoc struct {
	Jobs      []*domain.DeliveryJob `json:"jobs"`
	UpdatedAt int64                 `json:"updatedAt"`
}

// JobRepositoryFile persists the pending delivery jobs. The queue rewrites
// the whole set on every mutation; on boot the survivors are re-enqueued.
type JobRepositoryFile struct {
	store  *docstore.Store
	logger *slog.Logger
}

func NewJobRepositoryFile(store *docstore.Store, logger *slog.Logger) *JobRepositoryFile {
	return &JobRepositoryFile{
		store:  store,
		logger: logger.With("repository", "jobs_file"),
	}
}

func (r *JobRepositoryFile) SavePending(ctx context.Context, jobs []*domain.DeliveryJob) error {
	if jobs == nil {
		jobs = []*domain.DeliveryJob{}
	}
	return r.store.Save(&jobsDoc{Jobs: jobs, UpdatedAt: domain.NowMillis()})
}

func (r *JobRepositoryFile) LoadPending(ctx context.Context) ([]*domain.DeliveryJob, error) {
	var doc jobsDoc
	if err := r.store.Load(&doc); err != nil {
		if errors.Is(err, docstore.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Jobs, nil
}
