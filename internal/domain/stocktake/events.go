package stocktake

import (
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the stocktake session aggregate
const (
	EventTypeSessionCreated   = "stocktake.created"
	EventTypeSessionStarted   = "stocktake.started"
	EventTypeSessionSubmitted = "stocktake.submitted"
	EventTypeSessionApproved  = "stocktake.approved"
	EventTypeSessionPosted    = "stocktake.posted"
	EventTypeSessionVoided    = "stocktake.voided"
)

const aggregateTypeSession = "StocktakeSession"

// SessionCreatedEvent is emitted when a session is created
type SessionCreatedEvent struct {
	shared.BaseDomainEvent
	SessionNumber string    `json:"session_number"`
	LocationID    uuid.UUID `json:"location_id"`
	BlindCount    bool      `json:"blind_count"`
}

// NewSessionCreatedEvent creates a new SessionCreatedEvent
func NewSessionCreatedEvent(s *Session) *SessionCreatedEvent {
	return &SessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCreated, aggregateTypeSession, s.ID, s.OrgID),
		SessionNumber:   s.SessionNumber,
		LocationID:      s.LocationID,
		BlindCount:      s.BlindCount,
	}
}

// SessionStartedEvent is emitted when counting starts and snapshots freeze
type SessionStartedEvent struct {
	shared.BaseDomainEvent
	SessionNumber string `json:"session_number"`
	LineCount     int    `json:"line_count"`
}

// NewSessionStartedEvent creates a new SessionStartedEvent
func NewSessionStartedEvent(s *Session) *SessionStartedEvent {
	return &SessionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionStarted, aggregateTypeSession, s.ID, s.OrgID),
		SessionNumber:   s.SessionNumber,
		LineCount:       len(s.Lines),
	}
}

// SessionSubmittedEvent is emitted when all lines are counted and submitted
type SessionSubmittedEvent struct {
	shared.BaseDomainEvent
	SessionNumber string `json:"session_number"`
	VarianceLines int    `json:"variance_lines"`
}

// NewSessionSubmittedEvent creates a new SessionSubmittedEvent
func NewSessionSubmittedEvent(s *Session) *SessionSubmittedEvent {
	return &SessionSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionSubmitted, aggregateTypeSession, s.ID, s.OrgID),
		SessionNumber:   s.SessionNumber,
		VarianceLines:   len(s.VarianceLines()),
	}
}

// SessionApprovedEvent is emitted when a submitted session is approved
type SessionApprovedEvent struct {
	shared.BaseDomainEvent
	SessionNumber string     `json:"session_number"`
	ApprovedByID  *uuid.UUID `json:"approved_by_id,omitempty"`
}

// NewSessionApprovedEvent creates a new SessionApprovedEvent
func NewSessionApprovedEvent(s *Session) *SessionApprovedEvent {
	return &SessionApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionApproved, aggregateTypeSession, s.ID, s.OrgID),
		SessionNumber:   s.SessionNumber,
		ApprovedByID:    s.ApprovedByID,
	}
}

// SessionPostedEvent is emitted when variance entries are appended
type SessionPostedEvent struct {
	shared.BaseDomainEvent
	SessionNumber  string `json:"session_number"`
	EntriesCreated int    `json:"entries_created"`
}

// NewSessionPostedEvent creates a new SessionPostedEvent
func NewSessionPostedEvent(s *Session, entriesCreated int) *SessionPostedEvent {
	return &SessionPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionPosted, aggregateTypeSession, s.ID, s.OrgID),
		SessionNumber:   s.SessionNumber,
		EntriesCreated:  entriesCreated,
	}
}

// SessionVoidedEvent is emitted on cancel or reversal
type SessionVoidedEvent struct {
	shared.BaseDomainEvent
	SessionNumber string `json:"session_number"`
	WasPosted     bool   `json:"was_posted"`
}

// NewSessionVoidedEvent creates a new SessionVoidedEvent
func NewSessionVoidedEvent(s *Session, wasPosted bool) *SessionVoidedEvent {
	return &SessionVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionVoided, aggregateTypeSession, s.ID, s.OrgID),
		SessionNumber:   s.SessionNumber,
		WasPosted:       wasPosted,
	}
}
