package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodRepository is an in-memory period.Repository
type PeriodRepository struct {
	mu      sync.RWMutex
	periods map[uuid.UUID]period.InventoryPeriod
}

// NewPeriodRepository creates an empty in-memory period repository
func NewPeriodRepository() *PeriodRepository {
	return &PeriodRepository{periods: make(map[uuid.UUID]period.InventoryPeriod)}
}

// FindByID finds a period with its snapshot and summary rows
func (r *PeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*period.InventoryPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.periods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyPeriod(&p), nil
}

// FindByWindow finds the period for an exact (branch, start, end) window
func (r *PeriodRepository) FindByWindow(ctx context.Context, branchID uuid.UUID, start, end time.Time) (*period.InventoryPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.periods {
		p := r.periods[id]
		if p.BranchID == branchID && p.StartDate.Equal(start) && p.EndDate.Equal(end) {
			return copyPeriod(&p), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindOverlapping finds periods whose window intersects [start, end)
func (r *PeriodRepository) FindOverlapping(ctx context.Context, branchID uuid.UUID, start, end time.Time) ([]period.InventoryPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []period.InventoryPeriod
	for id := range r.periods {
		p := r.periods[id]
		if p.BranchID == branchID && p.StartDate.Before(end) && p.EndDate.After(start) {
			result = append(result, *copyPeriod(&p))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// SaveWithRows saves a period with its derived rows
func (r *PeriodRepository) SaveWithRows(ctx context.Context, p *period.InventoryPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.periods {
		existing := r.periods[id]
		if existing.ID != p.ID && existing.BranchID == p.BranchID &&
			existing.StartDate.Equal(p.StartDate) && existing.EndDate.Equal(p.EndDate) {
			return shared.ErrDuplicatePeriod
		}
	}
	r.periods[p.ID] = *copyPeriod(p)
	return nil
}

func copyPeriod(p *period.InventoryPeriod) *period.InventoryPeriod {
	c := *p
	c.Snapshots = make([]period.ValuationSnapshot, len(p.Snapshots))
	copy(c.Snapshots, p.Snapshots)
	c.Summary = make([]period.MovementSummary, len(p.Summary))
	copy(c.Summary, p.Summary)
	return &c
}

// Ensure PeriodRepository implements Repository
var _ period.Repository = (*PeriodRepository)(nil)
