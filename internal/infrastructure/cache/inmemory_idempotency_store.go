package cache

import (
	"context"
	"sync"
	"time"

	"github.com/chefstock/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// retryRecord is one committed fast-op key with its expiry deadline
type retryRecord struct {
	seenAt    time.Time
	expiresAt time.Time
}

// InMemoryIdempotencyStore keeps committed retry keys in a process-local map.
// Retries landing on another process instance miss here and fall through to
// the ledger's duplicate lookup, so it is only suitable for single-instance
// deployments and tests.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	records   map[string]retryRecord
	sweep     time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithSweepInterval overrides how often expired records are swept out
func WithSweepInterval(interval time.Duration) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		s.sweep = interval
	}
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		records:  make(map[string]retryRecord),
		sweep:    defaultSweepInterval,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	store.wg.Add(1)
	go store.sweepLoop()

	return store
}

// MarkProcessed records a committed retry key. Returns false when a live
// record already holds the key; an expired record is overwritten.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key shared.RetryKey, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if rec, exists := s.records[key.String()]; exists && now.Before(rec.expiresAt) {
		return false, nil
	}

	s.records[key.String()] = retryRecord{
		seenAt:    now,
		expiresAt: now.Add(ttl),
	}
	return true, nil
}

// IsProcessed reports whether the key holds a live record
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key shared.RetryKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[key.String()]
	return exists && time.Now().Before(rec.expiresAt), nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// sweepLoop drops expired records on every tick until Close
func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.dropExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) dropExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, rec := range s.records {
		if now.After(rec.expiresAt) {
			delete(s.records, key)
		}
	}
}

// Size returns the number of live and expired records still held, for tests
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
