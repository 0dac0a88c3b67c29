package service

import (
	"context"

	"github.com/branchday-backoffice/internal/domain/audit"
)

// PersistenceService defines the interface for persisting audit facts.
type PersistenceService interface {
	PersistFact(ctx context.Context, fact *audit.Fact) error
}
