package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OnHandRow is one (item, location) pair with its derived on-hand quantity
type OnHandRow struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
	OnHand     decimal.Decimal
}

// ReasonTotal is the aggregated delta for one movement reason in a window
type ReasonTotal struct {
	Reason   MovementReason
	QtyDelta decimal.Decimal
	Value    decimal.Decimal
	Entries  int64
}

// EntryRepository defines persistence for the append-only movement ledger.
// There is deliberately no Update or Delete: entries are immutable once
// appended, and corrections go through REVERSAL entries.
type EntryRepository interface {
	// Append persists a new entry. Fails with shared.ErrAlreadyExists when the
	// (source_type, source_id, item, location) uniqueness is violated.
	Append(ctx context.Context, entry *Entry) error

	// AppendAll persists multiple entries in order within the current transaction
	AppendAll(ctx context.Context, entries []*Entry) error

	// FindByID finds an entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)

	// FindBySource finds all entries created by one source operation
	FindBySource(ctx context.Context, sourceType SourceType, sourceID string) ([]Entry, error)

	// ExistsBySource reports whether any entry exists for a source operation
	ExistsBySource(ctx context.Context, sourceType SourceType, sourceID string) (bool, error)

	// OnHand sums QtyDelta for one (item, location) within a branch
	OnHand(ctx context.Context, branchID, itemID, locationID uuid.UUID) (decimal.Decimal, error)

	// OnHandByLocation sums QtyDelta per item for every item at a location
	OnHandByLocation(ctx context.Context, branchID, locationID uuid.UUID) ([]OnHandRow, error)

	// OnHandByBranch sums QtyDelta per (item, location) across a branch
	OnHandByBranch(ctx context.Context, branchID uuid.UUID, asOf time.Time) ([]OnHandRow, error)

	// MovementsInRange lists entries for a branch within [from, to)
	MovementsInRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]Entry, error)

	// SumByReasonInRange aggregates deltas by movement reason within [from, to)
	SumByReasonInRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]ReasonTotal, error)
}
