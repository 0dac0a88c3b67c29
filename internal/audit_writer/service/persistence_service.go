package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/branchday-backoffice/internal/domain/audit"
)

// PersistenceServiceImpl writes facts to the audit store
type PersistenceServiceImpl struct {
	store  audit.Store
	logger *slog.Logger
}

// NewPersistenceService creates a new persistence service
func NewPersistenceService(logger *slog.Logger, store audit.Store) *PersistenceServiceImpl {
	return &PersistenceServiceImpl{
		store:  store,
		logger: logger,
	}
}

// PersistFact writes one fact to the store. Inserts are idempotent on
// the fact id, so redeliveries from the broker are safe.
func (s *PersistenceServiceImpl) PersistFact(ctx context.Context, fact *audit.Fact) error {
	if err := s.store.Insert(ctx, fact); err != nil {
		return fmt.Errorf("failed to persist audit fact %s: %w", fact.ID, err)
	}

	s.logger.Info("Audit fact persisted",
		"fact_id", fact.ID.String(),
		"action", string(fact.Action),
		"entity_id", fact.EntityID,
	)
	return nil
}
