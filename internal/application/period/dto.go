package period

import (
	"time"

	"github.com/chefstock/backend/internal/domain/period"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// ClosePeriodRequest represents a request to close an accounting window
type ClosePeriodRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// ===================== Response DTOs =====================

// ValuationRowResponse is one frozen valuation row
type ValuationRowResponse struct {
	ItemID     uuid.UUID       `json:"item_id"`
	LocationID uuid.UUID       `json:"location_id"`
	QtyOnHand  decimal.Decimal `json:"qty_on_hand"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// MovementSummaryRowResponse is one aggregated movement row
type MovementSummaryRowResponse struct {
	Reason   string          `json:"reason"`
	QtyDelta decimal.Decimal `json:"qty_delta"`
	Value    decimal.Decimal `json:"value"`
	Entries  int64           `json:"entries"`
}

// ClosePeriodResponse is the result of closing a period. A repeat close of
// the same window returns the stored result with AlreadyClosed set.
type ClosePeriodResponse struct {
	PeriodID      uuid.UUID                    `json:"period_id"`
	Status        string                       `json:"status"`
	StartDate     time.Time                    `json:"start_date"`
	EndDate       time.Time                    `json:"end_date"`
	ClosedAt      *time.Time                   `json:"closed_at,omitempty"`
	TotalValue    decimal.Decimal              `json:"total_value"`
	Valuation     []ValuationRowResponse       `json:"valuation"`
	Movements     []MovementSummaryRowResponse `json:"movements"`
	AlreadyClosed bool                         `json:"already_closed"`
}

// Blocker is one condition that should gate a period close
type Blocker struct {
	Kind        string    `json:"kind"`
	ReferenceID uuid.UUID `json:"reference_id"`
	Detail      string    `json:"detail"`
}

// CheckBlockersResponse enumerates close blockers; it is advisory, the caller
// decides whether to proceed
type CheckBlockersResponse struct {
	Blockers []Blocker `json:"blockers"`
	Clear    bool      `json:"clear"`
}

// CategoryComparisonResponse is one category's ledger-vs-journal comparison
type CategoryComparisonResponse struct {
	Category      string          `json:"category"`
	LedgerValue   decimal.Decimal `json:"ledger_value"`
	JournalValue  decimal.Decimal `json:"journal_value"`
	Difference    decimal.Decimal `json:"difference"`
	Status        string          `json:"status"`
	LedgerEntries int64           `json:"ledger_entries"`
}

// ReconciliationResponse is the full reconciliation report for one period
type ReconciliationResponse struct {
	PeriodID   uuid.UUID                    `json:"period_id"`
	Categories []CategoryComparisonResponse `json:"categories"`
	Overall    string                       `json:"overall"`
}

// ===================== Converters =====================

// ToClosePeriodResponse converts a closed period to the response DTO
func ToClosePeriodResponse(p *period.InventoryPeriod, alreadyClosed bool) *ClosePeriodResponse {
	valuation := make([]ValuationRowResponse, 0, len(p.Snapshots))
	for _, snap := range p.Snapshots {
		valuation = append(valuation, ValuationRowResponse{
			ItemID:     snap.ItemID,
			LocationID: snap.LocationID,
			QtyOnHand:  snap.QtyOnHand,
			UnitCost:   snap.UnitCost,
			TotalValue: snap.TotalValue,
		})
	}

	movements := make([]MovementSummaryRowResponse, 0, len(p.Summary))
	for _, row := range p.Summary {
		movements = append(movements, MovementSummaryRowResponse{
			Reason:   row.Reason.String(),
			QtyDelta: row.QtyDelta,
			Value:    row.Value,
			Entries:  row.Entries,
		})
	}

	return &ClosePeriodResponse{
		PeriodID:      p.ID,
		Status:        p.Status.String(),
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		ClosedAt:      p.ClosedAt,
		TotalValue:    p.TotalValue(),
		Valuation:     valuation,
		Movements:     movements,
		AlreadyClosed: alreadyClosed,
	}
}

// ToReconciliationResponse converts a domain report to the response DTO
func ToReconciliationResponse(periodID uuid.UUID, report *period.Report) *ReconciliationResponse {
	categories := make([]CategoryComparisonResponse, 0, len(report.Categories))
	for _, c := range report.Categories {
		categories = append(categories, CategoryComparisonResponse{
			Category:      c.Category.String(),
			LedgerValue:   c.LedgerValue,
			JournalValue:  c.JournalValue,
			Difference:    c.Difference,
			Status:        c.Status.String(),
			LedgerEntries: c.LedgerEntries,
		})
	}
	return &ReconciliationResponse{
		PeriodID:   periodID,
		Categories: categories,
		Overall:    report.Overall.String(),
	}
}
