package ledger

import (
	"time"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityScale is the fixed decimal scale used for every quantity and cost
// comparison in the engine. Stored columns are decimal(18,6).
const QuantityScale = 6

// MovementReason classifies why stock moved
type MovementReason string

const (
	ReasonInitial           MovementReason = "INITIAL"
	ReasonReceive           MovementReason = "RECEIVE"
	ReasonWaste             MovementReason = "WASTE"
	ReasonTransferOut       MovementReason = "TRANSFER_OUT"
	ReasonTransferIn        MovementReason = "TRANSFER_IN"
	ReasonReturn            MovementReason = "RETURN"
	ReasonAdjustment        MovementReason = "ADJUSTMENT"
	ReasonStocktakeVariance MovementReason = "STOCKTAKE_VARIANCE"
	ReasonReversal          MovementReason = "REVERSAL"
)

// String returns the string representation of MovementReason
func (r MovementReason) String() string {
	return string(r)
}

// IsValid returns true if the movement reason is valid
func (r MovementReason) IsValid() bool {
	switch r {
	case ReasonInitial, ReasonReceive, ReasonWaste, ReasonTransferOut,
		ReasonTransferIn, ReasonReturn, ReasonAdjustment,
		ReasonStocktakeVariance, ReasonReversal:
		return true
	}
	return false
}

// IsInbound returns true for reasons that only ever add stock
func (r MovementReason) IsInbound() bool {
	switch r {
	case ReasonInitial, ReasonReceive, ReasonTransferIn:
		return true
	}
	return false
}

// IsOutbound returns true for reasons that only ever remove stock
func (r MovementReason) IsOutbound() bool {
	switch r {
	case ReasonWaste, ReasonTransferOut, ReasonReturn:
		return true
	}
	return false
}

// IsSigned returns true for reasons whose delta may carry either sign
// (manual corrections, count variances and their reversals)
func (r MovementReason) IsSigned() bool {
	switch r {
	case ReasonAdjustment, ReasonStocktakeVariance, ReasonReversal:
		return true
	}
	return false
}

// AllMovementReasons returns every valid movement reason
func AllMovementReasons() []MovementReason {
	return []MovementReason{
		ReasonInitial, ReasonReceive, ReasonWaste, ReasonTransferOut,
		ReasonTransferIn, ReasonReturn, ReasonAdjustment,
		ReasonStocktakeVariance, ReasonReversal,
	}
}

// SourceType identifies the kind of operation that created an entry
type SourceType string

const (
	SourceTypeInitialStock     SourceType = "INITIAL_STOCK"
	SourceTypeReceipt          SourceType = "RECEIPT"
	SourceTypeWaste            SourceType = "WASTE"
	SourceTypeTransfer         SourceType = "TRANSFER"
	SourceTypeVendorReturn     SourceType = "VENDOR_RETURN"
	SourceTypeStocktakeSession SourceType = "STOCKTAKE_SESSION"
	SourceTypeManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
	SourceTypeReversal         SourceType = "REVERSAL"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeInitialStock, SourceTypeReceipt, SourceTypeWaste,
		SourceTypeTransfer, SourceTypeVendorReturn, SourceTypeStocktakeSession,
		SourceTypeManualAdjustment, SourceTypeReversal:
		return true
	}
	return false
}

// Entry is an immutable record of a single stock movement. On-hand for any
// (item, location) pair is the sum of QtyDelta over its entries; it is never
// stored as a mutable counter. Entries are append-only: a posted entry is
// corrected by appending a REVERSAL entry, never by update or delete.
type Entry struct {
	shared.BaseEntity
	OrgID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_org_time,priority:1"`
	BranchID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_branch_time,priority:1"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_item_loc,priority:1;uniqueIndex:uq_ledger_source,priority:3"`
	LocationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_item_loc,priority:2;uniqueIndex:uq_ledger_source,priority:4"`
	// LotID is uuid.Nil for movements not tied to a lot (variance entries and
	// adjustments); keeping it non-null lets it participate in the source
	// uniqueness below.
	LotID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_ledger_source,priority:5"`
	QtyDelta decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Reason   MovementReason  `gorm:"type:varchar(30);not null;index"`
	// (SourceType, SourceID, ItemID, LocationID, LotID) is unique; this
	// constraint is the idempotency marker for variance and compensating
	// entries, and it is what makes re-running a posting a constraint
	// violation instead of a double-apply.
	SourceType     SourceType       `gorm:"type:varchar(30);not null;uniqueIndex:uq_ledger_source,priority:1"`
	SourceID       string           `gorm:"type:varchar(50);not null;uniqueIndex:uq_ledger_source,priority:2"`
	UnitCostAtTime *decimal.Decimal `gorm:"type:decimal(18,6)"`
	OccurredAt     time.Time        `gorm:"type:timestamptz;not null;index:idx_ledger_org_time,priority:2;index:idx_ledger_branch_time,priority:2"`
	CreatedByID    *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "ledger_entries"
}

// NewEntry creates a new ledger entry after validating the reason/sign contract
func NewEntry(
	orgID, branchID, itemID, locationID uuid.UUID,
	qtyDelta decimal.Decimal,
	reason MovementReason,
	sourceType SourceType,
	sourceID string,
) (*Entry, error) {
	if orgID == uuid.Nil || branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Org and branch IDs cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Invalid movement reason")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if sourceID == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}
	if qtyDelta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}
	if reason.IsInbound() && qtyDelta.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Inbound reason requires a positive delta")
	}
	if reason.IsOutbound() && qtyDelta.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Outbound reason requires a negative delta")
	}

	return &Entry{
		BaseEntity: shared.NewBaseEntity(),
		OrgID:      orgID,
		BranchID:   branchID,
		ItemID:     itemID,
		LocationID: locationID,
		QtyDelta:   qtyDelta.Round(QuantityScale),
		Reason:     reason,
		SourceType: sourceType,
		SourceID:   sourceID,
		OccurredAt: time.Now(),
	}, nil
}

// WithLotID sets the lot the movement was allocated against
func (e *Entry) WithLotID(lotID uuid.UUID) *Entry {
	e.LotID = lotID
	return e
}

// HasLot reports whether the entry is tied to a specific lot
func (e *Entry) HasLot() bool {
	return e.LotID != uuid.Nil
}

// WithUnitCost records the unit cost in effect when the entry was created
func (e *Entry) WithUnitCost(cost decimal.Decimal) *Entry {
	rounded := cost.Round(QuantityScale)
	e.UnitCostAtTime = &rounded
	return e
}

// WithCreatedBy sets the acting user
func (e *Entry) WithCreatedBy(userID uuid.UUID) *Entry {
	e.CreatedByID = &userID
	return e
}

// WithOccurredAt overrides the movement timestamp (backdated postings)
func (e *Entry) WithOccurredAt(at time.Time) *Entry {
	e.OccurredAt = at
	return e
}

// Reversal builds the compensating entry that exactly negates this one.
// The reversal is keyed by the reversed entry's ID so re-running a void
// trips the (source_type, source_id) uniqueness instead of double-applying.
func (e *Entry) Reversal() *Entry {
	rev := &Entry{
		BaseEntity: shared.NewBaseEntity(),
		OrgID:      e.OrgID,
		BranchID:   e.BranchID,
		ItemID:     e.ItemID,
		LocationID: e.LocationID,
		LotID:      e.LotID,
		QtyDelta:   e.QtyDelta.Neg(),
		Reason:     ReasonReversal,
		SourceType: SourceTypeReversal,
		SourceID:   e.ID.String(),
		OccurredAt: time.Now(),
	}
	if e.UnitCostAtTime != nil {
		cost := *e.UnitCostAtTime
		rev.UnitCostAtTime = &cost
	}
	return rev
}

// CostValue returns QtyDelta * UnitCostAtTime, zero when no cost was recorded
func (e *Entry) CostValue() decimal.Decimal {
	if e.UnitCostAtTime == nil {
		return decimal.Zero
	}
	return e.QtyDelta.Mul(*e.UnitCostAtTime).Round(QuantityScale)
}
