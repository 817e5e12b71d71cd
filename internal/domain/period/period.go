package period

import (
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of an inventory period
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// IsValid checks if the status is a valid period Status
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// InventoryPeriod is one accounting window for a branch. Closing computes the
// valuation snapshot and movement summary for the window; both are derived
// views regenerated on close, keyed by period so a repeated close for the
// same window returns the stored result instead of recomputing.
type InventoryPeriod struct {
	shared.BranchAggregateRoot
	StartDate time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uq_period_window,priority:2"`
	EndDate   time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uq_period_window,priority:3"`
	Status    Status    `gorm:"type:varchar(10);not null;index"`
	ClosedAt  *time.Time
	// BranchID participates in the window uniqueness through the embedded root
	Snapshots []ValuationSnapshot `gorm:"foreignKey:PeriodID"`
	Summary   []MovementSummary   `gorm:"foreignKey:PeriodID"`
}

// TableName returns the table name for GORM
func (InventoryPeriod) TableName() string {
	return "inventory_periods"
}

// NewInventoryPeriod creates a new open period for a branch window
func NewInventoryPeriod(orgID, branchID uuid.UUID, startDate, endDate time.Time) (*InventoryPeriod, error) {
	if !endDate.After(startDate) {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Period end date must be after start date")
	}
	return &InventoryPeriod{
		BranchAggregateRoot: shared.NewBranchAggregateRoot(orgID, branchID),
		StartDate:           startDate,
		EndDate:             endDate,
		Status:              StatusOpen,
	}, nil
}

// Overlaps reports whether the period window intersects [start, end)
func (p *InventoryPeriod) Overlaps(start, end time.Time) bool {
	return p.StartDate.Before(end) && start.Before(p.EndDate)
}

// MatchesWindow reports whether the period covers exactly [start, end)
func (p *InventoryPeriod) MatchesWindow(start, end time.Time) bool {
	return p.StartDate.Equal(start) && p.EndDate.Equal(end)
}

// IsClosed returns true once the period has been closed
func (p *InventoryPeriod) IsClosed() bool {
	return p.Status == StatusClosed
}

// Close stores the derived rows and flips the period to CLOSED
func (p *InventoryPeriod) Close(snapshots []ValuationSnapshot, summary []MovementSummary) error {
	if p.Status == StatusClosed {
		return shared.ErrInvalidState
	}

	now := time.Now()
	for i := range snapshots {
		snapshots[i].PeriodID = p.ID
	}
	for i := range summary {
		summary[i].PeriodID = p.ID
	}
	p.Snapshots = snapshots
	p.Summary = summary
	p.Status = StatusClosed
	p.ClosedAt = &now
	p.Touch(now)

	p.AddDomainEvent(NewPeriodClosedEvent(p))

	return nil
}

// TotalValue sums the snapshot values of the closed period
func (p *InventoryPeriod) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Snapshots {
		total = total.Add(s.TotalValue)
	}
	return total.Round(ledger.QuantityScale)
}

// ValuationSnapshot is one (item, location) valuation row frozen at close time
type ValuationSnapshot struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PeriodID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null"`
	LocationID uuid.UUID       `gorm:"type:uuid;not null"`
	QtyOnHand  decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	TotalValue decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM
func (ValuationSnapshot) TableName() string {
	return "period_valuation_snapshots"
}

// NewValuationSnapshot builds one valuation row
func NewValuationSnapshot(itemID, locationID uuid.UUID, qtyOnHand, unitCost decimal.Decimal) ValuationSnapshot {
	return ValuationSnapshot{
		ID:         uuid.New(),
		ItemID:     itemID,
		LocationID: locationID,
		QtyOnHand:  qtyOnHand.Round(ledger.QuantityScale),
		UnitCost:   unitCost.Round(ledger.QuantityScale),
		TotalValue: qtyOnHand.Mul(unitCost).Round(ledger.QuantityScale),
		CreatedAt:  time.Now(),
	}
}

// MovementSummary is the aggregated ledger delta for one movement reason
// within the period window
type MovementSummary struct {
	ID        uuid.UUID             `gorm:"type:uuid;primaryKey"`
	PeriodID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	Reason    ledger.MovementReason `gorm:"type:varchar(30);not null"`
	QtyDelta  decimal.Decimal       `gorm:"type:decimal(18,6);not null"`
	Value     decimal.Decimal       `gorm:"type:decimal(18,6);not null"`
	Entries   int64                 `gorm:"not null"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (MovementSummary) TableName() string {
	return "period_movement_summaries"
}

// NewMovementSummary builds one summary row from a ledger aggregate
func NewMovementSummary(total ledger.ReasonTotal) MovementSummary {
	return MovementSummary{
		ID:        uuid.New(),
		Reason:    total.Reason,
		QtyDelta:  total.QtyDelta.Round(ledger.QuantityScale),
		Value:     total.Value.Round(ledger.QuantityScale),
		Entries:   total.Entries,
		CreatedAt: time.Now(),
	}
}

// Event types for the period aggregate
const (
	EventTypePeriodClosed = "period.closed"
)

// PeriodClosedEvent is emitted when a period closes
type PeriodClosedEvent struct {
	shared.BaseDomainEvent
	BranchID  uuid.UUID `json:"branch_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// NewPeriodClosedEvent creates a new PeriodClosedEvent
func NewPeriodClosedEvent(p *InventoryPeriod) *PeriodClosedEvent {
	return &PeriodClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePeriodClosed, "InventoryPeriod", p.ID, p.OrgID),
		BranchID:        p.BranchID,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
	}
}
