package stocktake

import (
	"fmt"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the status of a stocktake session
type SessionStatus string

const (
	SessionStatusDraft      SessionStatus = "DRAFT"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusApproved   SessionStatus = "APPROVED"
	SessionStatusPosted     SessionStatus = "POSTED"
	SessionStatusVoid       SessionStatus = "VOID"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusDraft, SessionStatusInProgress, SessionStatusSubmitted,
		SessionStatusApproved, SessionStatusPosted, SessionStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// VOID is reachable from every non-terminal state (cancel) and from POSTED
// (reversal); VOID itself is terminal.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case SessionStatusDraft:
		return target == SessionStatusInProgress || target == SessionStatusVoid
	case SessionStatusInProgress:
		return target == SessionStatusSubmitted || target == SessionStatusVoid
	case SessionStatusSubmitted:
		return target == SessionStatusApproved || target == SessionStatusVoid
	case SessionStatusApproved:
		return target == SessionStatusPosted || target == SessionStatusVoid
	case SessionStatusPosted:
		return target == SessionStatusVoid
	case SessionStatusVoid:
		return false
	}
	return false
}

// IsTerminal returns true for states the session can never leave
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusVoid
}

// Line is one item's row in a stocktake session. SnapshotQty is written once,
// when the session starts, and never recomputed: it records what the ledger
// said at that instant, regardless of movements that commit afterwards.
type Line struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	ItemID      uuid.UUID        `gorm:"type:uuid;not null"`
	LocationID  uuid.UUID        `gorm:"type:uuid;not null"`
	SnapshotQty decimal.Decimal  `gorm:"type:decimal(18,6);not null"`
	CountedQty  *decimal.Decimal `gorm:"type:decimal(18,6)"`
	UnitCost    decimal.Decimal  `gorm:"type:decimal(18,6);not null"`
	Counted     bool             `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "stocktake_lines"
}

// RecordCount records the physical count for this line
func (l *Line) RecordCount(countedQty decimal.Decimal) error {
	if countedQty.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	rounded := countedQty.Round(ledger.QuantityScale)
	l.CountedQty = &rounded
	l.Counted = true
	l.UpdatedAt = time.Now()
	return nil
}

// Variance returns CountedQty - SnapshotQty, zero until counted
func (l *Line) Variance() decimal.Decimal {
	if l.CountedQty == nil {
		return decimal.Zero
	}
	return l.CountedQty.Sub(l.SnapshotQty).Round(ledger.QuantityScale)
}

// HasVariance returns true if the counted quantity differs from the snapshot
func (l *Line) HasVariance() bool {
	return l.Counted && !l.Variance().IsZero()
}

// Session is a counted-inventory reconciliation session: the aggregate root
// of the stocktake workflow state machine.
type Session struct {
	shared.BranchAggregateRoot
	SessionNumber string        `gorm:"type:varchar(30);not null"`
	LocationID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;index"`
	BlindCount    bool          `gorm:"not null;default:false"`
	StartedAt     *time.Time    `gorm:"type:timestamptz"`
	SubmittedAt   *time.Time    `gorm:"type:timestamptz"`
	ApprovedAt    *time.Time    `gorm:"type:timestamptz"`
	ApprovedByID  *uuid.UUID    `gorm:"type:uuid"`
	PostedAt      *time.Time    `gorm:"type:timestamptz"`
	VoidedAt      *time.Time    `gorm:"type:timestamptz"`
	// EntriesPosted remembers how many variance entries post created, so a
	// repeated post can report the prior result without touching the ledger.
	EntriesPosted int    `gorm:"not null;default:0"`
	Lines         []Line `gorm:"foreignKey:SessionID"`
}

// TableName returns the table name for GORM
func (Session) TableName() string {
	return "stocktake_sessions"
}

// NewSession creates a new stocktake session in DRAFT
func NewSession(orgID, branchID, locationID uuid.UUID, sessionNumber string, blindCount bool) (*Session, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if sessionNumber == "" {
		return nil, shared.NewDomainError("INVALID_SESSION_NUMBER", "Session number cannot be empty")
	}

	s := &Session{
		BranchAggregateRoot: shared.NewBranchAggregateRoot(orgID, branchID),
		SessionNumber:       sessionNumber,
		LocationID:          locationID,
		Status:              SessionStatusDraft,
		BlindCount:          blindCount,
		Lines:               make([]Line, 0),
	}

	s.AddDomainEvent(NewSessionCreatedEvent(s))

	return s, nil
}

// AddLine adds an item line in DRAFT with a zero placeholder snapshot.
// The real snapshot is frozen by Start.
func (s *Session) AddLine(itemID uuid.UUID, unitCost decimal.Decimal) error {
	if s.Status != SessionStatusDraft {
		return shared.NewDomainError("INVALID_STATUS", "Can only add lines in DRAFT status")
	}
	if itemID == uuid.Nil {
		return shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	for _, line := range s.Lines {
		if line.ItemID == itemID {
			return shared.NewDomainError("DUPLICATE_ITEM", "Item already exists in session")
		}
	}

	now := time.Now()
	s.Lines = append(s.Lines, Line{
		ID:          uuid.New(),
		SessionID:   s.ID,
		ItemID:      itemID,
		LocationID:  s.LocationID,
		SnapshotQty: decimal.Zero,
		UnitCost:    unitCost.Round(ledger.QuantityScale),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	s.Touch(now)
	return nil
}

// HasLine reports whether the session already carries a line for the item
func (s *Session) HasLine(itemID uuid.UUID) bool {
	for _, line := range s.Lines {
		if line.ItemID == itemID {
			return true
		}
	}
	return false
}

// Start freezes every line's snapshot to the supplied on-hand rows and moves
// the session to IN_PROGRESS. The rows must be read in the same transaction
// that persists this transition; items absent from the rows freeze at zero.
func (s *Session) Start(onHand []ledger.OnHandRow) error {
	if !s.Status.CanTransitionTo(SessionStatusInProgress) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to IN_PROGRESS", s.Status))
	}
	if len(s.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot start a session with no lines")
	}

	byItem := make(map[uuid.UUID]decimal.Decimal, len(onHand))
	for _, row := range onHand {
		if row.LocationID == s.LocationID {
			byItem[row.ItemID] = row.OnHand
		}
	}

	now := time.Now()
	for i := range s.Lines {
		if qty, ok := byItem[s.Lines[i].ItemID]; ok {
			s.Lines[i].SnapshotQty = qty.Round(ledger.QuantityScale)
		} else {
			s.Lines[i].SnapshotQty = decimal.Zero
		}
		s.Lines[i].UpdatedAt = now
	}

	s.Status = SessionStatusInProgress
	s.StartedAt = &now
	s.Touch(now)

	s.AddDomainEvent(NewSessionStartedEvent(s))

	return nil
}

// RecordCount records the physical count for an item's line
func (s *Session) RecordCount(itemID uuid.UUID, countedQty decimal.Decimal) error {
	if s.Status != SessionStatusInProgress {
		return shared.NewDomainError("INVALID_STATUS", "Can only record counts in IN_PROGRESS status")
	}

	for i := range s.Lines {
		if s.Lines[i].ItemID == itemID {
			if err := s.Lines[i].RecordCount(countedQty); err != nil {
				return err
			}
			s.Touch(time.Now())
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Item not found in session")
}

// Submit moves the session to SUBMITTED once every line is counted
func (s *Session) Submit() error {
	if !s.Status.CanTransitionTo(SessionStatusSubmitted) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to SUBMITTED", s.Status))
	}
	counted := s.CountedLines()
	if counted != len(s.Lines) {
		return shared.NewDomainError("INCOMPLETE_COUNT",
			fmt.Sprintf("Not all lines have been counted (%d/%d)", counted, len(s.Lines)))
	}

	now := time.Now()
	s.Status = SessionStatusSubmitted
	s.SubmittedAt = &now
	s.Touch(now)

	s.AddDomainEvent(NewSessionSubmittedEvent(s))

	return nil
}

// Approve moves the session to APPROVED. The capability check for the higher
// approval privilege happens before the engine is invoked.
func (s *Session) Approve(approverID uuid.UUID) error {
	if !s.Status.CanTransitionTo(SessionStatusApproved) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to APPROVED", s.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}

	now := time.Now()
	s.Status = SessionStatusApproved
	s.ApprovedAt = &now
	s.ApprovedByID = &approverID
	s.Touch(now)

	s.AddDomainEvent(NewSessionApprovedEvent(s))

	return nil
}

// MarkPosted records a successful post and the number of variance entries it
// created. The status flip is the session-scoped posted marker that makes
// repeat posts no-ops.
func (s *Session) MarkPosted(entriesCreated int) error {
	if !s.Status.CanTransitionTo(SessionStatusPosted) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to POSTED", s.Status))
	}

	now := time.Now()
	s.Status = SessionStatusPosted
	s.PostedAt = &now
	s.EntriesPosted = entriesCreated
	s.Touch(now)

	s.AddDomainEvent(NewSessionPostedEvent(s, entriesCreated))

	return nil
}

// MarkVoid flips the session to VOID. From POSTED the caller must have
// appended the reversal entries in the same transaction; from earlier states
// there is no ledger effect.
func (s *Session) MarkVoid() error {
	if !s.Status.CanTransitionTo(SessionStatusVoid) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	wasPosted := s.Status == SessionStatusPosted
	s.Status = SessionStatusVoid
	s.VoidedAt = &now
	s.Touch(now)

	s.AddDomainEvent(NewSessionVoidedEvent(s, wasPosted))

	return nil
}

// IsPosted returns true if the session has been posted
func (s *Session) IsPosted() bool {
	return s.Status == SessionStatusPosted
}

// CountedLines returns the number of counted lines
func (s *Session) CountedLines() int {
	counted := 0
	for _, line := range s.Lines {
		if line.Counted {
			counted++
		}
	}
	return counted
}

// VarianceLines returns lines whose counted quantity differs from the snapshot
func (s *Session) VarianceLines() []Line {
	result := make([]Line, 0)
	for _, line := range s.Lines {
		if line.HasVariance() {
			result = append(result, line)
		}
	}
	return result
}

// Progress returns the counting progress as a percentage
func (s *Session) Progress() float64 {
	if len(s.Lines) == 0 {
		return 0
	}
	return float64(s.CountedLines()) / float64(len(s.Lines)) * 100
}

// SnapshotHidden reports whether snapshot quantities must be omitted from
// read paths serving counters: blind sessions hide them while counting is in
// progress, and reveal them once the session leaves IN_PROGRESS.
func (s *Session) SnapshotHidden() bool {
	return s.BlindCount && (s.Status == SessionStatusDraft || s.Status == SessionStatusInProgress)
}
