package period

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for inventory periods
type Repository interface {
	// FindByID finds a period with its snapshot and summary rows
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryPeriod, error)

	// FindByWindow finds the period for an exact (branch, start, end) window
	FindByWindow(ctx context.Context, branchID uuid.UUID, start, end time.Time) (*InventoryPeriod, error)

	// FindOverlapping finds periods whose window intersects [start, end)
	FindOverlapping(ctx context.Context, branchID uuid.UUID, start, end time.Time) ([]InventoryPeriod, error)

	// SaveWithRows saves a period with its derived snapshot and summary rows,
	// replacing any rows from a previous close attempt
	SaveWithRows(ctx context.Context, p *InventoryPeriod) error
}
