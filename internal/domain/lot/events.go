package lot

import (
	"time"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the lot aggregate
const (
	EventTypeLotReceived     = "lot.received"
	EventTypeLotDepleted     = "lot.depleted"
	EventTypeLotExpired      = "lot.expired"
	EventTypeLotRecallLinked = "lot.recall_linked"
	EventTypeLotRecallUnlink = "lot.recall_unlinked"
)

const aggregateTypeLot = "InventoryLot"

// LotReceivedEvent is emitted when a new lot enters stock
type LotReceivedEvent struct {
	shared.BaseDomainEvent
	ItemID      uuid.UUID       `json:"item_id"`
	LocationID  uuid.UUID       `json:"location_id"`
	LotNumber   string          `json:"lot_number"`
	ReceivedQty decimal.Decimal `json:"received_qty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
}

// NewLotReceivedEvent creates a new LotReceivedEvent
func NewLotReceivedEvent(l *InventoryLot) *LotReceivedEvent {
	return &LotReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotReceived, aggregateTypeLot, l.ID, l.OrgID),
		ItemID:          l.ItemID,
		LocationID:      l.LocationID,
		LotNumber:       l.LotNumber,
		ReceivedQty:     l.ReceivedQty,
		UnitCost:        l.UnitCost,
		ExpiryDate:      l.ExpiryDate,
	}
}

// LotDepletedEvent is emitted when allocation drains a lot to zero
type LotDepletedEvent struct {
	shared.BaseDomainEvent
	ItemID     uuid.UUID `json:"item_id"`
	LocationID uuid.UUID `json:"location_id"`
	LotNumber  string    `json:"lot_number"`
}

// NewLotDepletedEvent creates a new LotDepletedEvent
func NewLotDepletedEvent(l *InventoryLot) *LotDepletedEvent {
	return &LotDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotDepleted, aggregateTypeLot, l.ID, l.OrgID),
		ItemID:          l.ItemID,
		LocationID:      l.LocationID,
		LotNumber:       l.LotNumber,
	}
}

// LotExpiredEvent is emitted when the expiry evaluator marks a lot expired
type LotExpiredEvent struct {
	shared.BaseDomainEvent
	ItemID       uuid.UUID       `json:"item_id"`
	LocationID   uuid.UUID       `json:"location_id"`
	LotNumber    string          `json:"lot_number"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

// NewLotExpiredEvent creates a new LotExpiredEvent
func NewLotExpiredEvent(l *InventoryLot) *LotExpiredEvent {
	return &LotExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotExpired, aggregateTypeLot, l.ID, l.OrgID),
		ItemID:          l.ItemID,
		LocationID:      l.LocationID,
		LotNumber:       l.LotNumber,
		RemainingQty:    l.RemainingQty,
		ExpiryDate:      l.ExpiryDate,
	}
}

// LotRecallLinkedEvent is emitted when a lot is linked to a recall case
type LotRecallLinkedEvent struct {
	shared.BaseDomainEvent
	CaseID    uuid.UUID `json:"case_id"`
	LotNumber string    `json:"lot_number"`
}

// NewLotRecallLinkedEvent creates a new LotRecallLinkedEvent
func NewLotRecallLinkedEvent(l *InventoryLot, caseID uuid.UUID) *LotRecallLinkedEvent {
	return &LotRecallLinkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotRecallLinked, aggregateTypeLot, l.ID, l.OrgID),
		CaseID:          caseID,
		LotNumber:       l.LotNumber,
	}
}

// LotRecallUnlinkedEvent is emitted when a lot is unlinked from a recall case
type LotRecallUnlinkedEvent struct {
	shared.BaseDomainEvent
	CaseID    uuid.UUID `json:"case_id"`
	LotNumber string    `json:"lot_number"`
}

// NewLotRecallUnlinkedEvent creates a new LotRecallUnlinkedEvent
func NewLotRecallUnlinkedEvent(l *InventoryLot, caseID uuid.UUID) *LotRecallUnlinkedEvent {
	return &LotRecallUnlinkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotRecallUnlink, aggregateTypeLot, l.ID, l.OrgID),
		CaseID:          caseID,
		LotNumber:       l.LotNumber,
	}
}
