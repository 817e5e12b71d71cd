package lot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for inventory lots
type Repository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryLot, error)

	// FindByIDForUpdate finds a lot by ID and takes a row lock so reads that
	// feed an invariant check serialize with the subsequent write
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*InventoryLot, error)

	// FindAllocatable finds ACTIVE lots with stock for one (item, location),
	// row-locked, in receipt order; the caller applies FEFO ordering and
	// recall filtering
	FindAllocatable(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]InventoryLot, error)

	// FindActiveExpiredBefore finds ACTIVE lots whose expiry date precedes the
	// cutoff, for the expiry evaluator
	FindActiveExpiredBefore(ctx context.Context, branchID uuid.UUID, cutoff time.Time) ([]InventoryLot, error)

	// FindExpiringWithin finds ACTIVE lots that will expire within the window
	FindExpiringWithin(ctx context.Context, branchID uuid.UUID, cutoff time.Time) ([]InventoryLot, error)

	// FindByItemLocation finds all lots for one (item, location)
	FindByItemLocation(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]InventoryLot, error)

	// Save creates or updates a lot
	Save(ctx context.Context, l *InventoryLot) error

	// SaveAll saves multiple lots within the current transaction
	SaveAll(ctx context.Context, lots []*InventoryLot) error
}

// RecallRepository defines persistence for recall cases and their lot links
type RecallRepository interface {
	// FindCaseByID finds a recall case by its ID
	FindCaseByID(ctx context.Context, id uuid.UUID) (*RecallCase, error)

	// SaveCase creates or updates a recall case
	SaveCase(ctx context.Context, c *RecallCase) error

	// Link adds a case-lot link; adding an existing link is a no-op
	Link(ctx context.Context, caseID, lotID uuid.UUID) error

	// Unlink removes a case-lot link
	Unlink(ctx context.Context, caseID, lotID uuid.UUID) error

	// LotIDsForCase returns the IDs of all lots linked to a case
	LotIDsForCase(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error)

	// OpenCaseIDsForLot returns the IDs of OPEN cases linked to a lot
	OpenCaseIDsForLot(ctx context.Context, lotID uuid.UUID) ([]uuid.UUID, error)

	// OpenCaseIDsForLots returns open case links for many lots in one query
	OpenCaseIDsForLots(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)

	// HasOpenLink reports whether the lot is linked to any OPEN case
	HasOpenLink(ctx context.Context, lotID uuid.UUID) (bool, error)
}
