package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/domain/stocktake"
	"github.com/google/uuid"
)

// StocktakeRepository is an in-memory stocktake.Repository
type StocktakeRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]stocktake.Session
}

// NewStocktakeRepository creates an empty in-memory stocktake repository
func NewStocktakeRepository() *StocktakeRepository {
	return &StocktakeRepository{sessions: make(map[uuid.UUID]stocktake.Session)}
}

// FindByID finds a session with its lines
func (r *StocktakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*stocktake.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copySession(&s), nil
}

// FindByIDForUpdate behaves like FindByID; there is no row locking in memory
func (r *StocktakeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stocktake.Session, error) {
	return r.FindByID(ctx, id)
}

// FindBySessionNumber finds a session by its number within a branch
func (r *StocktakeRepository) FindBySessionNumber(ctx context.Context, branchID uuid.UUID, sessionNumber string) (*stocktake.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.sessions {
		s := r.sessions[id]
		if s.BranchID == branchID && s.SessionNumber == sessionNumber {
			return copySession(&s), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindOpenByBranch finds sessions in any non-terminal, non-posted state
func (r *StocktakeRepository) FindOpenByBranch(ctx context.Context, branchID uuid.UUID) ([]stocktake.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []stocktake.Session
	for id := range r.sessions {
		s := r.sessions[id]
		if s.BranchID != branchID {
			continue
		}
		switch s.Status {
		case stocktake.SessionStatusDraft, stocktake.SessionStatusInProgress,
			stocktake.SessionStatusSubmitted, stocktake.SessionStatusApproved:
			result = append(result, *copySession(&s))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// SaveWithLines saves a session and its lines
func (r *StocktakeRepository) SaveWithLines(ctx context.Context, s *stocktake.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = *copySession(s)
	return nil
}

// CountByBranchAndPrefix counts sessions whose number starts with the prefix
func (r *StocktakeRepository) CountByBranchAndPrefix(ctx context.Context, branchID uuid.UUID, prefix string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, s := range r.sessions {
		if s.BranchID == branchID && strings.HasPrefix(s.SessionNumber, prefix) {
			count++
		}
	}
	return count, nil
}

func copySession(s *stocktake.Session) *stocktake.Session {
	c := *s
	c.Lines = make([]stocktake.Line, len(s.Lines))
	copy(c.Lines, s.Lines)
	return &c
}

// Ensure StocktakeRepository implements Repository
var _ stocktake.Repository = (*StocktakeRepository)(nil)
