package lot

import (
	"time"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecallCaseStatus represents the status of a recall case
type RecallCaseStatus string

const (
	RecallCaseStatusOpen   RecallCaseStatus = "OPEN"
	RecallCaseStatusClosed RecallCaseStatus = "CLOSED"
)

// IsValid checks if the status is a valid RecallCaseStatus
func (s RecallCaseStatus) IsValid() bool {
	return s == RecallCaseStatusOpen || s == RecallCaseStatusClosed
}

// String returns the string representation of RecallCaseStatus
func (s RecallCaseStatus) String() string {
	return string(s)
}

// RecallCase groups the lots pulled from circulation for one supplier or
// regulatory recall. A lot is "under recall" while it has at least one link
// to an OPEN case; the blocked state is derived from the links, never stored
// on the lot, because a lot can be linked to and unlinked from several cases
// over time.
type RecallCase struct {
	shared.BranchAggregateRoot
	Status RecallCaseStatus `gorm:"type:varchar(10);not null;index"`
	Reason string           `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (RecallCase) TableName() string {
	return "recall_cases"
}

// NewRecallCase opens a new recall case
func NewRecallCase(orgID, branchID uuid.UUID, reason string) (*RecallCase, error) {
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Recall reason cannot be empty")
	}
	return &RecallCase{
		BranchAggregateRoot: shared.NewBranchAggregateRoot(orgID, branchID),
		Status:              RecallCaseStatusOpen,
		Reason:              reason,
	}, nil
}

// IsOpen returns true while the case still blocks its linked lots
func (c *RecallCase) IsOpen() bool {
	return c.Status == RecallCaseStatusOpen
}

// Close closes the recall case
func (c *RecallCase) Close() error {
	if c.Status == RecallCaseStatusClosed {
		return shared.ErrInvalidState
	}
	c.Status = RecallCaseStatusClosed
	c.Touch(time.Now())
	return nil
}

// RecallLotLink is the many-to-many join between recall cases and lots
type RecallLotLink struct {
	CaseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_recall_link,priority:1"`
	LotID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_recall_link,priority:2;index"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (RecallLotLink) TableName() string {
	return "recall_lot_links"
}

// BlockKind classifies why a lot cannot be consumed
type BlockKind string

const (
	BlockKindNone     BlockKind = "NONE"
	BlockKindRecalled BlockKind = "RECALLED"
	BlockKindExpired  BlockKind = "EXPIRED"
	BlockKindInactive BlockKind = "INACTIVE"
)

// Block is the allocation-time verdict on whether a lot may be consumed.
// Recall linkage is checked through the join table at the moment of
// allocation, not through the lot's status field.
type Block struct {
	Kind   BlockKind
	CaseID *uuid.UUID
}

// NoBlock reports the lot as consumable
func NoBlock() Block {
	return Block{Kind: BlockKindNone}
}

// RecallBlock reports the lot as blocked by an open recall case
func RecallBlock(caseID uuid.UUID) Block {
	return Block{Kind: BlockKindRecalled, CaseID: &caseID}
}

// ExpiredBlock reports the lot as blocked by expiry
func ExpiredBlock() Block {
	return Block{Kind: BlockKindExpired}
}

// InactiveBlock reports the lot as blocked by a non-ACTIVE status
func InactiveBlock() Block {
	return Block{Kind: BlockKindInactive}
}

// Blocks returns true when the lot may not be consumed
func (b Block) Blocks() bool {
	return b.Kind != BlockKindNone
}

// Err maps the block to its domain error, nil when not blocked
func (b Block) Err() error {
	switch b.Kind {
	case BlockKindRecalled:
		return shared.ErrLotUnderRecall
	case BlockKindExpired:
		return shared.ErrLotExpired
	case BlockKindInactive:
		return shared.ErrInvalidState
	}
	return nil
}

// EvaluateBlock computes the allocation-time block for a lot given its open
// recall links. Expiry is judged against the supplied clock so previews and
// tests can pin time.
func EvaluateBlock(l *InventoryLot, openCaseIDs []uuid.UUID, now time.Time) Block {
	if len(openCaseIDs) > 0 {
		return RecallBlock(openCaseIDs[0])
	}
	if l.Status == StatusExpired || l.IsExpiredAt(now) {
		return ExpiredBlock()
	}
	if l.Status != StatusActive {
		return InactiveBlock()
	}
	return NoBlock()
}
