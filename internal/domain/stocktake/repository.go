package stocktake

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for stocktake sessions
type Repository interface {
	// FindByID finds a session with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindByIDForUpdate finds a session with its lines and takes a row lock on
	// the session row so concurrent workflow transitions serialize
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindBySessionNumber finds a session by its number within a branch
	FindBySessionNumber(ctx context.Context, branchID uuid.UUID, sessionNumber string) (*Session, error)

	// FindOpenByBranch finds sessions in any non-terminal, non-posted state,
	// used by the period close blocker check
	FindOpenByBranch(ctx context.Context, branchID uuid.UUID) ([]Session, error)

	// SaveWithLines saves a session and its lines
	SaveWithLines(ctx context.Context, s *Session) error

	// CountByBranchAndPrefix counts sessions whose number starts with the
	// prefix, used to generate the next session number
	CountByBranchAndPrefix(ctx context.Context, branchID uuid.UUID, prefix string) (int64, error)
}
