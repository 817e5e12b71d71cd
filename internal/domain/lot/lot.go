package lot

import (
	"fmt"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an inventory lot
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusRecalled   Status = "RECALLED"
	StatusQuarantine Status = "QUARANTINE"
	StatusDepleted   Status = "DEPLETED"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is a valid lot Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusRecalled, StatusQuarantine, StatusDepleted:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// Transitions are one-directional except RECALLED, which returns to ACTIVE when
// the last open recall link is removed. DEPLETED is terminal for ordinary
// operations; only a reversal restores a depleted lot (see Restore).
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusActive:
		return target == StatusExpired || target == StatusRecalled ||
			target == StatusQuarantine || target == StatusDepleted
	case StatusRecalled:
		return target == StatusActive
	case StatusExpired, StatusQuarantine, StatusDepleted:
		return false
	}
	return false
}

// InventoryLot is a traceable batch of one item at one location, carrying its
// own expiry, unit cost and remaining quantity. RemainingQty only moves through
// Allocate and Restore, which hold 0 <= RemainingQty <= ReceivedQty.
type InventoryLot struct {
	shared.BranchAggregateRoot
	ItemID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_lot_item_loc,priority:1"`
	LocationID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_lot_item_loc,priority:2"`
	LotNumber    string            `gorm:"type:varchar(50);not null"`
	ReceivedQty  decimal.Decimal   `gorm:"type:decimal(18,6);not null"`
	RemainingQty decimal.Decimal   `gorm:"type:decimal(18,6);not null"`
	UnitCost     decimal.Decimal   `gorm:"type:decimal(18,6);not null"`
	ExpiryDate   *time.Time        `gorm:"type:timestamptz;index"`
	Status       Status            `gorm:"type:varchar(20);not null;index"`
	SourceType   ledger.SourceType `gorm:"type:varchar(30);not null"`
}

// TableName returns the table name for GORM
func (InventoryLot) TableName() string {
	return "inventory_lots"
}

// NewInventoryLot creates a new lot from a receipt
func NewInventoryLot(
	orgID, branchID, itemID, locationID uuid.UUID,
	lotNumber string,
	receivedQty, unitCost decimal.Decimal,
	expiryDate *time.Time,
	sourceType ledger.SourceType,
) (*InventoryLot, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if lotNumber == "" {
		return nil, shared.NewDomainError("INVALID_LOT_NUMBER", "Lot number cannot be empty")
	}
	if receivedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}

	l := &InventoryLot{
		BranchAggregateRoot: shared.NewBranchAggregateRoot(orgID, branchID),
		ItemID:              itemID,
		LocationID:          locationID,
		LotNumber:           lotNumber,
		ReceivedQty:         receivedQty.Round(ledger.QuantityScale),
		RemainingQty:        receivedQty.Round(ledger.QuantityScale),
		UnitCost:            unitCost.Round(ledger.QuantityScale),
		ExpiryDate:          expiryDate,
		Status:              StatusActive,
		SourceType:          sourceType,
	}

	l.AddDomainEvent(NewLotReceivedEvent(l))

	return l, nil
}

// IsExpiredAt returns true if the lot's expiry date has passed at the given time
func (l *InventoryLot) IsExpiredAt(now time.Time) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(now)
}

// WillExpireWithin returns true if the lot will expire within the given duration
func (l *InventoryLot) WillExpireWithin(d time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now().Add(d))
}

// HasStock returns true if the lot has remaining quantity
func (l *InventoryLot) HasStock() bool {
	return l.RemainingQty.GreaterThan(decimal.Zero)
}

// IsAllocatable returns true if ordinary outbound operations may consume the lot
func (l *InventoryLot) IsAllocatable() bool {
	return l.Status == StatusActive && l.HasStock()
}

// Allocate consumes quantity from the lot. The caller must have verified the
// lot is not blocked; Allocate only enforces the quantity bound and flips the
// lot to DEPLETED when remaining reaches zero.
func (l *InventoryLot) Allocate(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity must be positive")
	}
	if qty.GreaterThan(l.RemainingQty) {
		return shared.ErrInsufficientLot
	}

	l.RemainingQty = l.RemainingQty.Sub(qty).Round(ledger.QuantityScale)
	if l.RemainingQty.IsZero() && l.Status == StatusActive {
		l.Status = StatusDepleted
		l.AddDomainEvent(NewLotDepletedEvent(l))
	}
	l.Touch(time.Now())
	return nil
}

// Restore adds quantity back to the lot when a posted allocation is voided.
// The restored quantity can never exceed ReceivedQty, and a lot that was
// depleted by the voided operation returns to ACTIVE. This is the only path
// out of DEPLETED.
func (l *InventoryLot) Restore(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}
	restored := l.RemainingQty.Add(qty).Round(ledger.QuantityScale)
	if restored.GreaterThan(l.ReceivedQty) {
		return shared.NewDomainError("RESTORE_EXCEEDS_RECEIVED",
			fmt.Sprintf("Restoring %s would exceed received quantity %s", qty, l.ReceivedQty))
	}

	l.RemainingQty = restored
	if l.Status == StatusDepleted && l.RemainingQty.GreaterThan(decimal.Zero) {
		l.Status = StatusActive
	}
	l.Touch(time.Now())
	return nil
}

// MarkExpired transitions the lot to EXPIRED
func (l *InventoryLot) MarkExpired() error {
	if !l.Status.CanTransitionTo(StatusExpired) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to EXPIRED", l.Status))
	}
	l.Status = StatusExpired
	l.Touch(time.Now())
	l.AddDomainEvent(NewLotExpiredEvent(l))
	return nil
}

// MarkRecalled transitions the lot to RECALLED
func (l *InventoryLot) MarkRecalled() error {
	if !l.Status.CanTransitionTo(StatusRecalled) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to RECALLED", l.Status))
	}
	l.Status = StatusRecalled
	l.Touch(time.Now())
	return nil
}

// Reactivate returns a RECALLED lot to ACTIVE after its last open link is removed
func (l *InventoryLot) Reactivate() error {
	if !l.Status.CanTransitionTo(StatusActive) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to ACTIVE", l.Status))
	}
	l.Status = StatusActive
	l.Touch(time.Now())
	return nil
}

// Quarantine transitions the lot to QUARANTINE
func (l *InventoryLot) Quarantine() error {
	if !l.Status.CanTransitionTo(StatusQuarantine) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to QUARANTINE", l.Status))
	}
	l.Status = StatusQuarantine
	l.Touch(time.Now())
	return nil
}

// TotalValue returns RemainingQty * UnitCost
func (l *InventoryLot) TotalValue() decimal.Decimal {
	return l.RemainingQty.Mul(l.UnitCost).Round(ledger.QuantityScale)
}
