package memory

import (
	"context"
	"sync"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecallRepository is an in-memory lot.RecallRepository
type RecallRepository struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]lot.RecallCase
	links []lot.RecallLotLink
}

// NewRecallRepository creates an empty in-memory recall repository
func NewRecallRepository() *RecallRepository {
	return &RecallRepository{cases: make(map[uuid.UUID]lot.RecallCase)}
}

// FindCaseByID finds a recall case by its ID
func (r *RecallRepository) FindCaseByID(ctx context.Context, id uuid.UUID) (*lot.RecallCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// SaveCase creates or updates a recall case
func (r *RecallRepository) SaveCase(ctx context.Context, c *lot.RecallCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cases[c.ID] = *c
	return nil
}

// Link adds a case-lot link; adding an existing link is a no-op
func (r *RecallRepository) Link(ctx context.Context, caseID, lotID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, link := range r.links {
		if link.CaseID == caseID && link.LotID == lotID {
			return nil
		}
	}
	r.links = append(r.links, lot.RecallLotLink{CaseID: caseID, LotID: lotID})
	return nil
}

// Unlink removes a case-lot link
func (r *RecallRepository) Unlink(ctx context.Context, caseID, lotID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, link := range r.links {
		if link.CaseID == caseID && link.LotID == lotID {
			r.links = append(r.links[:i], r.links[i+1:]...)
			return nil
		}
	}
	return nil
}

// LotIDsForCase returns the IDs of all lots linked to a case
func (r *RecallRepository) LotIDsForCase(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for _, link := range r.links {
		if link.CaseID == caseID {
			ids = append(ids, link.LotID)
		}
	}
	return ids, nil
}

// OpenCaseIDsForLot returns the IDs of OPEN cases linked to a lot
func (r *RecallRepository) OpenCaseIDsForLot(ctx context.Context, lotID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for _, link := range r.links {
		if link.LotID == lotID && r.caseOpenLocked(link.CaseID) {
			ids = append(ids, link.CaseID)
		}
	}
	return ids, nil
}

// OpenCaseIDsForLots returns open case links for many lots in one pass
func (r *RecallRepository) OpenCaseIDsForLots(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(lotIDs))
	for _, id := range lotIDs {
		wanted[id] = true
	}

	result := make(map[uuid.UUID][]uuid.UUID)
	for _, link := range r.links {
		if wanted[link.LotID] && r.caseOpenLocked(link.CaseID) {
			result[link.LotID] = append(result[link.LotID], link.CaseID)
		}
	}
	return result, nil
}

// HasOpenLink reports whether the lot is linked to any OPEN case
func (r *RecallRepository) HasOpenLink(ctx context.Context, lotID uuid.UUID) (bool, error) {
	ids, err := r.OpenCaseIDsForLot(ctx, lotID)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *RecallRepository) caseOpenLocked(caseID uuid.UUID) bool {
	c, ok := r.cases[caseID]
	return ok && c.Status == lot.RecallCaseStatusOpen
}

// Ensure RecallRepository implements RecallRepository
var _ lot.RecallRepository = (*RecallRepository)(nil)
