package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/chefstock/backend/internal/application/inventory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BranchProvider provides the branches to sweep
type BranchProvider interface {
	ActiveBranchIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ExpirySchedulerConfig holds configuration for the expiry scheduler
type ExpirySchedulerConfig struct {
	// SweepInterval is how often lots are scanned for passed expiry dates
	SweepInterval time.Duration
}

// DefaultExpirySchedulerConfig returns default expiry scheduler configuration
func DefaultExpirySchedulerConfig() ExpirySchedulerConfig {
	return ExpirySchedulerConfig{
		SweepInterval: time.Hour,
	}
}

// ExpiryScheduler periodically marks lots whose expiry date has passed.
// Expiry is evaluated lazily at consumption time as well; the sweep exists so
// lot status and reporting catch up even for lots nobody touches.
type ExpiryScheduler struct {
	config         ExpirySchedulerConfig
	expiryService  *inventory.ExpiryService
	branchProvider BranchProvider
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewExpiryScheduler creates a new expiry scheduler
func NewExpiryScheduler(
	config ExpirySchedulerConfig,
	expiryService *inventory.ExpiryService,
	branchProvider BranchProvider,
	logger *zap.Logger,
) *ExpiryScheduler {
	return &ExpiryScheduler{
		config:         config,
		expiryService:  expiryService,
		branchProvider: branchProvider,
		logger:         logger,
	}
}

// Start starts the expiry scheduler
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Expiry scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
	)

	return nil
}

// Stop stops the expiry scheduler and waits for the current sweep to finish
func (s *ExpiryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Expiry scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop sweeps on the configured interval
func (s *ExpiryScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	// Run once at startup so a restart doesn't delay the first sweep
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep evaluates expiry for every active branch. Failures on one branch are
// logged and do not stop the sweep for the others.
func (s *ExpiryScheduler) Sweep(ctx context.Context) {
	branchIDs, err := s.branchProvider.ActiveBranchIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to get branch IDs for expiry sweep", zap.Error(err))
		return
	}

	for _, branchID := range branchIDs {
		result, err := s.expiryService.EvaluateExpiry(ctx, branchID, false)
		if err != nil {
			s.logger.Error("Expiry sweep failed for branch",
				zap.String("branch_id", branchID.String()),
				zap.Error(err),
			)
			continue
		}
		if result.LotsMarkedExpired > 0 {
			s.logger.Info("Expiry sweep marked lots",
				zap.String("branch_id", branchID.String()),
				zap.Int("lots_marked_expired", result.LotsMarkedExpired),
			)
		}
	}
}
