package inventory

import (
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// ReceiveStockRequest represents a request to receive stock into a new lot
type ReceiveStockRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	LocationID  uuid.UUID       `json:"location_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"required"`
	LotNumber   string          `json:"lot_number" binding:"required"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	SourceID    string          `json:"source_id" binding:"required"`
	InitialLoad bool            `json:"initial_load"`
	OperatorID  *uuid.UUID      `json:"operator_id"`
}

// WasteStockRequest represents a request to write off stock
type WasteStockRequest struct {
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	SourceID   string          `json:"source_id" binding:"required"`
	Reason     string          `json:"reason"`
	OperatorID *uuid.UUID      `json:"operator_id"`
}

// TransferStockRequest represents a request to move stock between locations
type TransferStockRequest struct {
	ItemID         uuid.UUID       `json:"item_id" binding:"required"`
	FromLocationID uuid.UUID       `json:"from_location_id" binding:"required"`
	ToLocationID   uuid.UUID       `json:"to_location_id" binding:"required"`
	LotID          uuid.UUID       `json:"lot_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	SourceID       string          `json:"source_id" binding:"required"`
	OperatorID     *uuid.UUID      `json:"operator_id"`
}

// VendorReturnRequest represents a request to send stock back to a vendor
type VendorReturnRequest struct {
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	LotID      uuid.UUID       `json:"lot_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	SourceID   string          `json:"source_id" binding:"required"`
	OperatorID *uuid.UUID      `json:"operator_id"`
}

// AdjustStockRequest represents a manual signed correction outside the
// stocktake workflow
type AdjustStockRequest struct {
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	QtyDelta   decimal.Decimal `json:"qty_delta" binding:"required"`
	SourceID   string          `json:"source_id" binding:"required"`
	Reason     string          `json:"reason" binding:"required,min=1,max=255"`
	OperatorID *uuid.UUID      `json:"operator_id"`
}

// VoidOperationRequest represents a request to reverse a posted operation
type VoidOperationRequest struct {
	SourceType ledger.SourceType `json:"source_type" binding:"required"`
	SourceID   string            `json:"source_id" binding:"required"`
	OperatorID *uuid.UUID        `json:"operator_id"`
}

// ===================== Response DTOs =====================

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID             uuid.UUID         `json:"id"`
	ItemID         uuid.UUID         `json:"item_id"`
	LocationID     uuid.UUID         `json:"location_id"`
	LotID          *uuid.UUID        `json:"lot_id,omitempty"`
	QtyDelta       decimal.Decimal   `json:"qty_delta"`
	Reason         string            `json:"reason"`
	SourceType     ledger.SourceType `json:"source_type"`
	SourceID       string            `json:"source_id"`
	UnitCostAtTime *decimal.Decimal  `json:"unit_cost_at_time,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID           uuid.UUID       `json:"id"`
	ItemID       uuid.UUID       `json:"item_id"`
	LocationID   uuid.UUID       `json:"location_id"`
	LotNumber    string          `json:"lot_number"`
	ReceivedQty  decimal.Decimal `json:"received_qty"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalValue   decimal.Decimal `json:"total_value"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LotTakeResponse represents one lot's share of an outbound movement
type LotTakeResponse struct {
	LotID          uuid.UUID       `json:"lot_id"`
	LotNumber      string          `json:"lot_number"`
	QtyTaken       decimal.Decimal `json:"qty_taken"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	RemainingInLot decimal.Decimal `json:"remaining_in_lot"`
	FullyConsumed  bool            `json:"fully_consumed"`
}

// MovementResponse is the result of a stock movement operation
type MovementResponse struct {
	EntryIDs   []uuid.UUID       `json:"entry_ids"`
	Takes      []LotTakeResponse `json:"takes,omitempty"`
	TotalQty   decimal.Decimal   `json:"total_qty"`
	TotalCost  decimal.Decimal   `json:"total_cost"`
	Duplicate  bool              `json:"duplicate"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ReceiveStockResponse is the result of receiving stock
type ReceiveStockResponse struct {
	Lot       LotResponse     `json:"lot"`
	EntryID   uuid.UUID       `json:"entry_id"`
	Duplicate bool            `json:"duplicate"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// VoidOperationResponse is the result of voiding a posted operation
type VoidOperationResponse struct {
	SourceType      ledger.SourceType `json:"source_type"`
	SourceID        string            `json:"source_id"`
	ReversalEntries int               `json:"reversal_entries"`
	LotsRestored    int               `json:"lots_restored"`
	AlreadyVoided   bool              `json:"already_voided"`
}

// OnHandResponse is one (item, location) on-hand row
type OnHandResponse struct {
	ItemID     uuid.UUID       `json:"item_id"`
	LocationID uuid.UUID       `json:"location_id"`
	OnHand     decimal.Decimal `json:"on_hand"`
}

// ===================== Converters =====================

// ToLotResponse converts a domain lot to the response DTO
func ToLotResponse(l *lot.InventoryLot) LotResponse {
	return LotResponse{
		ID:           l.ID,
		ItemID:       l.ItemID,
		LocationID:   l.LocationID,
		LotNumber:    l.LotNumber,
		ReceivedQty:  l.ReceivedQty,
		RemainingQty: l.RemainingQty,
		UnitCost:     l.UnitCost,
		TotalValue:   l.TotalValue(),
		ExpiryDate:   l.ExpiryDate,
		Status:       l.Status.String(),
		CreatedAt:    l.CreatedAt,
	}
}

// ToLedgerEntryResponse converts a ledger entry to the response DTO
func ToLedgerEntryResponse(e *ledger.Entry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:             e.ID,
		ItemID:         e.ItemID,
		LocationID:     e.LocationID,
		QtyDelta:       e.QtyDelta,
		Reason:         e.Reason.String(),
		SourceType:     e.SourceType,
		SourceID:       e.SourceID,
		UnitCostAtTime: e.UnitCostAtTime,
		OccurredAt:     e.OccurredAt,
	}
	if e.HasLot() {
		lotID := e.LotID
		resp.LotID = &lotID
	}
	return resp
}

// ToLotTakeResponses converts allocation plan takes to response DTOs
func ToLotTakeResponses(takes []lot.LotTake) []LotTakeResponse {
	result := make([]LotTakeResponse, 0, len(takes))
	for _, t := range takes {
		result = append(result, LotTakeResponse{
			LotID:          t.LotID,
			LotNumber:      t.LotNumber,
			QtyTaken:       t.QtyTaken,
			UnitCost:       t.UnitCost,
			TotalCost:      t.TotalCost,
			RemainingInLot: t.RemainingInLot,
			FullyConsumed:  t.FullyConsumed,
		})
	}
	return result
}

// ToOnHandResponses converts on-hand rows to response DTOs
func ToOnHandResponses(rows []ledger.OnHandRow) []OnHandResponse {
	result := make([]OnHandResponse, 0, len(rows))
	for _, r := range rows {
		result = append(result, OnHandResponse{
			ItemID:     r.ItemID,
			LocationID: r.LocationID,
			OnHand:     r.OnHand,
		})
	}
	return result
}
