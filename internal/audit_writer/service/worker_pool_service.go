package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/branchday-backoffice/internal/domain/audit"
)

// WorkerPoolPersistenceService fans fact writes out to a bounded worker
// pool while keeping the per-message error available to the consumer,
// so offsets are only committed for facts that actually landed.
type WorkerPoolPersistenceService struct {
	baseService PersistenceService
	pool        *ants.Pool
	logger      *slog.Logger
	mu          sync.Mutex
	results     map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolPersistenceService(
	baseService PersistenceService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolPersistenceService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolPersistenceService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// PersistFact submits a fact to the worker pool and waits for the outcome.
func (s *WorkerPoolPersistenceService) PersistFact(ctx context.Context, fact *audit.Fact) error {
	resultChan := make(chan error, 1)

	factID := fact.ID.String()
	s.mu.Lock()
	s.results[factID] = resultChan
	s.mu.Unlock()

	factCopy := *fact

	err := s.pool.Submit(func() {
		err := s.baseService.PersistFact(ctx, &factCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, factID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, factID)
		close(resultChan)
		s.mu.Unlock()

		s.logger.Error("Failed to submit audit fact to worker pool",
			"fact_id", factID,
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolPersistenceService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolPersistenceService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolPersistenceService) Capacity() int {
	return s.pool.Cap()
}
