package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LotRepository is an in-memory lot.Repository. Lots are stored by value so
// callers only see their mutations after Save, matching database behavior.
type LotRepository struct {
	mu   sync.RWMutex
	lots map[uuid.UUID]lot.InventoryLot
}

// NewLotRepository creates an empty in-memory lot repository
func NewLotRepository() *LotRepository {
	return &LotRepository{lots: make(map[uuid.UUID]lot.InventoryLot)}
}

// FindByID finds a lot by its ID
func (r *LotRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

// FindByIDForUpdate behaves like FindByID; there is no row locking in memory
func (r *LotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	return r.FindByID(ctx, id)
}

// FindAllocatable finds ACTIVE lots with stock for one (item, location)
func (r *LotRepository) FindAllocatable(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]lot.InventoryLot, error) {
	return r.filter(func(l *lot.InventoryLot) bool {
		return l.BranchID == branchID && l.ItemID == itemID && l.LocationID == locationID &&
			l.Status == lot.StatusActive && l.RemainingQty.IsPositive()
	}), nil
}

// FindActiveExpiredBefore finds ACTIVE lots whose expiry date precedes the cutoff
func (r *LotRepository) FindActiveExpiredBefore(ctx context.Context, branchID uuid.UUID, cutoff time.Time) ([]lot.InventoryLot, error) {
	return r.filter(func(l *lot.InventoryLot) bool {
		return l.BranchID == branchID && l.Status == lot.StatusActive &&
			l.ExpiryDate != nil && l.ExpiryDate.Before(cutoff)
	}), nil
}

// FindExpiringWithin finds ACTIVE lots with stock expiring on or before the cutoff
func (r *LotRepository) FindExpiringWithin(ctx context.Context, branchID uuid.UUID, cutoff time.Time) ([]lot.InventoryLot, error) {
	return r.filter(func(l *lot.InventoryLot) bool {
		return l.BranchID == branchID && l.Status == lot.StatusActive &&
			l.RemainingQty.IsPositive() &&
			l.ExpiryDate != nil && !l.ExpiryDate.After(cutoff)
	}), nil
}

// FindByItemLocation finds all lots for one (item, location)
func (r *LotRepository) FindByItemLocation(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]lot.InventoryLot, error) {
	return r.filter(func(l *lot.InventoryLot) bool {
		return l.BranchID == branchID && l.ItemID == itemID && l.LocationID == locationID
	}), nil
}

// Save stores the lot's current state
func (r *LotRepository) Save(ctx context.Context, l *lot.InventoryLot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lots[l.ID] = *l
	return nil
}

// SaveAll saves multiple lots
func (r *LotRepository) SaveAll(ctx context.Context, lots []*lot.InventoryLot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range lots {
		r.lots[l.ID] = *l
	}
	return nil
}

func (r *LotRepository) filter(keep func(*lot.InventoryLot) bool) []lot.InventoryLot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []lot.InventoryLot
	for id := range r.lots {
		l := r.lots[id]
		if keep(&l) {
			result = append(result, l)
		}
	}
	// Receipt order, the same order the database queries return
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

// Ensure LotRepository implements Repository
var _ lot.Repository = (*LotRepository)(nil)
