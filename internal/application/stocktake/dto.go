package stocktake

import (
	"time"

	"github.com/chefstock/backend/internal/domain/stocktake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// CreateSessionLineRequest is one extra item to count beyond what the ledger
// knows at the location, e.g. an item expected on the shelf with no movement
// history yet
type CreateSessionLineRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	UnitCost decimal.Decimal `json:"unit_cost" binding:"required"`
}

// CreateSessionRequest represents a request to create a stocktake session.
// Lines is optional: the session always covers every item the ledger knows
// at the location, and Lines only adds items beyond that set.
type CreateSessionRequest struct {
	LocationID uuid.UUID                  `json:"location_id" binding:"required"`
	BlindCount bool                       `json:"blind_count"`
	Lines      []CreateSessionLineRequest `json:"lines"`
	CreatedBy  *uuid.UUID                 `json:"created_by"`
}

// RecordCountRequest represents a request to record the physical count for an item
type RecordCountRequest struct {
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	CountedQty decimal.Decimal `json:"counted_qty" binding:"required,gte=0"`
}

// RecordCountsRequest represents a bulk request to record counts
type RecordCountsRequest struct {
	Counts []RecordCountRequest `json:"counts" binding:"required,min=1"`
}

// ApproveSessionRequest represents a request to approve a submitted session
type ApproveSessionRequest struct {
	ApproverID uuid.UUID `json:"approver_id" binding:"required"`
}

// ===================== Response DTOs =====================

// LineResponse represents a session line. SnapshotQty and Variance are nil
// while a blind session hides them from the counter.
type LineResponse struct {
	ID          uuid.UUID        `json:"id"`
	ItemID      uuid.UUID        `json:"item_id"`
	LocationID  uuid.UUID        `json:"location_id"`
	SnapshotQty *decimal.Decimal `json:"snapshot_qty,omitempty"`
	CountedQty  *decimal.Decimal `json:"counted_qty,omitempty"`
	Variance    *decimal.Decimal `json:"variance,omitempty"`
	UnitCost    decimal.Decimal  `json:"unit_cost"`
	Counted     bool             `json:"counted"`
}

// SessionResponse represents a stocktake session in API responses
type SessionResponse struct {
	ID            uuid.UUID      `json:"id"`
	SessionNumber string         `json:"session_number"`
	LocationID    uuid.UUID      `json:"location_id"`
	Status        string         `json:"status"`
	BlindCount    bool           `json:"blind_count"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time     `json:"approved_at,omitempty"`
	PostedAt      *time.Time     `json:"posted_at,omitempty"`
	VoidedAt      *time.Time     `json:"voided_at,omitempty"`
	Lines         []LineResponse `json:"lines"`
	CountedLines  int            `json:"counted_lines"`
	TotalLines    int            `json:"total_lines"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PostSessionResponse is the result of posting an approved session. A repeat
// post reports the original outcome with AlreadyPosted set.
type PostSessionResponse struct {
	SessionID            uuid.UUID `json:"session_id"`
	Status               string    `json:"status"`
	LedgerEntriesCreated int       `json:"ledger_entries_created"`
	AlreadyPosted        bool      `json:"already_posted"`
}

// VoidSessionResponse is the result of voiding a session
type VoidSessionResponse struct {
	SessionID              uuid.UUID `json:"session_id"`
	Status                 string    `json:"status"`
	ReversalEntriesCreated int       `json:"reversal_entries_created"`
}

// ===================== Converters =====================

// ToSessionResponse converts a session to the response DTO, hiding snapshot
// quantities and variances while a blind count is underway
func ToSessionResponse(s *stocktake.Session) SessionResponse {
	hidden := s.SnapshotHidden()
	lines := make([]LineResponse, 0, len(s.Lines))
	for i := range s.Lines {
		line := s.Lines[i]
		lr := LineResponse{
			ID:         line.ID,
			ItemID:     line.ItemID,
			LocationID: line.LocationID,
			CountedQty: line.CountedQty,
			UnitCost:   line.UnitCost,
			Counted:    line.Counted,
		}
		if !hidden {
			snapshot := line.SnapshotQty
			lr.SnapshotQty = &snapshot
			if line.Counted {
				variance := line.Variance()
				lr.Variance = &variance
			}
		}
		lines = append(lines, lr)
	}

	return SessionResponse{
		ID:            s.ID,
		SessionNumber: s.SessionNumber,
		LocationID:    s.LocationID,
		Status:        s.Status.String(),
		BlindCount:    s.BlindCount,
		StartedAt:     s.StartedAt,
		SubmittedAt:   s.SubmittedAt,
		ApprovedAt:    s.ApprovedAt,
		PostedAt:      s.PostedAt,
		VoidedAt:      s.VoidedAt,
		Lines:         lines,
		CountedLines:  s.CountedLines(),
		TotalLines:    len(s.Lines),
		CreatedAt:     s.CreatedAt,
	}
}
