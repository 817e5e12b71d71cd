// Package memory provides in-memory repository implementations backed by
// mutex-protected maps. They honor the same contracts as the GORM
// repositories, including source uniqueness on the ledger, and back the
// application-service tests without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerRepository is an in-memory ledger.EntryRepository
type LedgerRepository struct {
	mu      sync.RWMutex
	entries []ledger.Entry
}

// NewLedgerRepository creates an empty in-memory ledger repository
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

type sourceKey struct {
	sourceType ledger.SourceType
	sourceID   string
	itemID     uuid.UUID
	locationID uuid.UUID
	lotID      uuid.UUID
}

func entryKey(e *ledger.Entry) sourceKey {
	return sourceKey{e.SourceType, e.SourceID, e.ItemID, e.LocationID, e.LotID}
}

// Append stores a new entry, enforcing the source uniqueness constraint
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(entry)
}

// AppendAll stores multiple entries; either all are appended or none
func (r *LedgerRepository) AppendAll(ctx context.Context, entries []*ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.entries)
	for _, entry := range entries {
		if err := r.appendLocked(entry); err != nil {
			r.entries = r.entries[:before]
			return err
		}
	}
	return nil
}

func (r *LedgerRepository) appendLocked(entry *ledger.Entry) error {
	key := entryKey(entry)
	for i := range r.entries {
		if entryKey(&r.entries[i]) == key {
			return shared.ErrAlreadyExists
		}
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// FindByID finds an entry by its ID
func (r *LedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if r.entries[i].ID == id {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindBySource finds all entries created by one source operation
func (r *LedgerRepository) FindBySource(ctx context.Context, sourceType ledger.SourceType, sourceID string) ([]ledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ledger.Entry
	for _, e := range r.entries {
		if e.SourceType == sourceType && e.SourceID == sourceID {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// ExistsBySource reports whether any entry exists for a source operation
func (r *LedgerRepository) ExistsBySource(ctx context.Context, sourceType ledger.SourceType, sourceID string) (bool, error) {
	entries, err := r.FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// OnHand sums QtyDelta for one (item, location) within a branch
func (r *LedgerRepository) OnHand(ctx context.Context, branchID, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range r.entries {
		if e.BranchID == branchID && e.ItemID == itemID && e.LocationID == locationID {
			sum = sum.Add(e.QtyDelta)
		}
	}
	return sum, nil
}

// OnHandByLocation sums QtyDelta per item for every item at a location
func (r *LedgerRepository) OnHandByLocation(ctx context.Context, branchID, locationID uuid.UUID) ([]ledger.OnHandRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, e := range r.entries {
		if e.BranchID == branchID && e.LocationID == locationID {
			sums[e.ItemID] = sums[e.ItemID].Add(e.QtyDelta)
		}
	}
	return onHandRows(sums, func(itemID uuid.UUID) ledger.OnHandRow {
		return ledger.OnHandRow{ItemID: itemID, LocationID: locationID, OnHand: sums[itemID]}
	}), nil
}

// OnHandByBranch sums QtyDelta per (item, location) for entries that occurred
// strictly before asOf
func (r *LedgerRepository) OnHandByBranch(ctx context.Context, branchID uuid.UUID, asOf time.Time) ([]ledger.OnHandRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type pair struct {
		itemID     uuid.UUID
		locationID uuid.UUID
	}
	sums := make(map[pair]decimal.Decimal)
	for _, e := range r.entries {
		if e.BranchID == branchID && e.OccurredAt.Before(asOf) {
			p := pair{e.ItemID, e.LocationID}
			sums[p] = sums[p].Add(e.QtyDelta)
		}
	}

	rows := make([]ledger.OnHandRow, 0, len(sums))
	for p, sum := range sums {
		rows = append(rows, ledger.OnHandRow{ItemID: p.itemID, LocationID: p.locationID, OnHand: sum})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemID != rows[j].ItemID {
			return rows[i].ItemID.String() < rows[j].ItemID.String()
		}
		return rows[i].LocationID.String() < rows[j].LocationID.String()
	})
	return rows, nil
}

// MovementsInRange lists entries for a branch within [from, to)
func (r *LedgerRepository) MovementsInRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]ledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ledger.Entry
	for _, e := range r.entries {
		if e.BranchID == branchID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// SumByReasonInRange aggregates deltas by movement reason within [from, to)
func (r *LedgerRepository) SumByReasonInRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]ledger.ReasonTotal, error) {
	entries, err := r.MovementsInRange(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}

	totals := make(map[ledger.MovementReason]*ledger.ReasonTotal)
	for _, e := range entries {
		total, ok := totals[e.Reason]
		if !ok {
			total = &ledger.ReasonTotal{Reason: e.Reason}
			totals[e.Reason] = total
		}
		total.QtyDelta = total.QtyDelta.Add(e.QtyDelta)
		total.Value = total.Value.Add(e.CostValue())
		total.Entries++
	}

	result := make([]ledger.ReasonTotal, 0, len(totals))
	for _, total := range totals {
		result = append(result, *total)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Reason < result[j].Reason
	})
	return result, nil
}

// All returns a copy of every stored entry, oldest first
func (r *LedgerRepository) All() []ledger.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ledger.Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

func onHandRows(sums map[uuid.UUID]decimal.Decimal, build func(uuid.UUID) ledger.OnHandRow) []ledger.OnHandRow {
	ids := make([]uuid.UUID, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	rows := make([]ledger.OnHandRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, build(id))
	}
	return rows
}

// Ensure LedgerRepository implements EntryRepository
var _ ledger.EntryRepository = (*LedgerRepository)(nil)
