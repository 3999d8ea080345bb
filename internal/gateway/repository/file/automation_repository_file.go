package file

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/platform/docstore"
)

// AutomationRepositoryFile persists the automation configuration document.
type AutomationRepositoryFile struct {
	store  *docstore.Store
	logger *slog.Logger
}

func NewAutomationRepositoryFile(store *docstore.Store, logger *slog.Logger) *AutomationRepositoryFile {
	return &AutomationRepositoryFile{
		store:  store,
		logger: logger.With("repository", "automations_file"),
	}
}

// Load returns the stored config, or domain.ErrNotFound when the document
// has never been written.
func (r *AutomationRepositoryFile) Load(ctx context.Context) (*domain.AutomationConfig, error) {
	var cfg domain.AutomationConfig
	if err := r.store.Load(&cfg); err != nil {
		if errors.Is(err, docstore.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if cfg.PerChat == nil {
		cfg.PerChat = map[string]map[string]any{}
	}
	return &cfg, nil
}

func (r *AutomationRepositoryFile) Save(ctx context.Context, cfg *domain.AutomationConfig) error {
	return r.store.Save(cfg)
}
