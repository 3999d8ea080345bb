package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/gateway/repository"
)

// AutomationService owns the automation configuration: the global
// switches, the layered rule defaults and the per-chat overrides. All
// mutations are persisted immediately.
type AutomationService struct {
	repo   repository.AutomationRepository
	logger *slog.Logger

	mu  sync.RWMutex
	cfg domain.AutomationConfig
}

// NewAutomationService loads the stored document, or seeds it from the
// given defaults when none exists yet.
func NewAutomationService(ctx context.Context, repo repository.AutomationRepository, seed domain.AutomationConfig, logger *slog.Logger) (*AutomationService, error) {
	s := &AutomationService{
		repo:   repo,
		logger: logger.With("service", "AutomationService"),
	}
	stored, err := repo.Load(ctx)
	switch {
	case err == nil:
		s.cfg = *stored
	case errors.Is(err, domain.ErrNotFound):
		s.cfg = seed
		if err := repo.Save(ctx, &s.cfg); err != nil {
			return nil, fmt.Errorf("failed to seed automation config: %w", err)
		}
		s.logger.InfoContext(ctx, "seeded automation config", "enabled", seed.Enabled)
	default:
		return nil, fmt.Errorf("failed to load automation config: %w", err)
	}
	if s.cfg.PerChat == nil {
		s.cfg.PerChat = map[string]map[string]any{}
	}
	return s, nil
}

// Config returns a copy of the current configuration.
func (s *AutomationService) Config() domain.AutomationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// EffectiveRule resolves the rule for a chat by merging the defaults with
// its override.
func (s *AutomationService) EffectiveRule(chatJID string) domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.EffectiveRule(chatJID)
}

// Replace merges a partial patch over the whole configuration and
// persists the result. A patch secret of "***" (or an absent secret)
// keeps the stored secret.
func (s *AutomationService) Replace(ctx context.Context, patch map[string]any) (domain.AutomationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sec, ok := patch["sharedSecret"]; !ok || sec == "***" {
		delete(patch, "sharedSecret")
	}

	base, err := domain.ToMap(s.cfg)
	if err != nil {
		return domain.AutomationConfig{}, fmt.Errorf("failed to encode automation config: %w", err)
	}
	merged := domain.MergeMaps(base, patch)

	var next domain.AutomationConfig
	if err := domain.FromMap(merged, &next); err != nil {
		return domain.AutomationConfig{}, fmt.Errorf("invalid automation config patch: %w", err)
	}
	if next.PerChat == nil {
		next.PerChat = map[string]map[string]any{}
	}

	if err := s.repo.Save(ctx, &next); err != nil {
		return domain.AutomationConfig{}, fmt.Errorf("failed to persist automation config: %w", err)
	}
	s.cfg = next
	s.logger.InfoContext(ctx, "automation config updated", "enabled", next.Enabled)
	return next, nil
}

// SetChatOverride merge-patches the partial override for one chat.
func (s *AutomationService) SetChatOverride(ctx context.Context, chatJID string, patch map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.cfg.PerChat[chatJID]
	merged := domain.MergeMaps(current, patch)
	s.cfg.PerChat[chatJID] = merged

	if err := s.repo.Save(ctx, &s.cfg); err != nil {
		return nil, fmt.Errorf("failed to persist chat override: %w", err)
	}
	s.logger.InfoContext(ctx, "chat override updated", "chat_jid", chatJID)
	return merged, nil
}

// DeleteChatOverride removes a chat's override. Reports whether one
// existed.
func (s *AutomationService) DeleteChatOverride(ctx context.Context, chatJID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cfg.PerChat[chatJID]; !ok {
		return false, nil
	}
	delete(s.cfg.PerChat, chatJID)
	if err := s.repo.Save(ctx, &s.cfg); err != nil {
		return false, fmt.Errorf("failed to persist chat override removal: %w", err)
	}
	s.logger.InfoContext(ctx, "chat override removed", "chat_jid", chatJID)
	return true, nil
}
