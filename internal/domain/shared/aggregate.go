package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot provides the mutation bookkeeping shared by all
// aggregates: an optimistic-lock version and a pending domain event list.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot creates a new base aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// Touch records a state change: the optimistic-lock version advances and
// the update timestamp moves to the mutation time. Every aggregate mutation
// ends with a Touch so version and timestamp never drift apart.
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.Version++
	a.UpdatedAt = at
}

// AddDomainEvent queues a domain event for publication after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// BranchAggregateRoot extends BaseAggregateRoot with org/branch scoping.
// Every aggregate in the engine is owned by exactly one branch of one org;
// the resolved scope is assumed to be validated before the engine is invoked.
type BranchAggregateRoot struct {
	BaseAggregateRoot
	OrgID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	BranchID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// NewBranchAggregateRoot creates a new branch-scoped aggregate root
func NewBranchAggregateRoot(orgID, branchID uuid.UUID) BranchAggregateRoot {
	return BranchAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		OrgID:             orgID,
		BranchID:          branchID,
	}
}

// SetCreatedBy sets the creator user ID
func (a *BranchAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	a.CreatedBy = &userID
}
