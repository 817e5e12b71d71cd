package inventory

import (
	"context"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/stocktake"
)

// TransactionScope provides transactional access to the engine repositories.
// Every public engine operation executes inside exactly one scope: all ledger
// appends, lot mutations and status flips commit together or not at all.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all engine repositories within
// a transaction. All repositories returned share the same underlying database
// transaction, so reads that feed invariant checks (on-hand before an
// allocation, remaining quantity before a reversal) see the same snapshot the
// subsequent writes commit against.
type TransactionalRepositories interface {
	// LedgerRepo returns the append-only ledger repository scoped to the current transaction
	LedgerRepo() ledger.EntryRepository
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() lot.Repository
	// RecallRepo returns the recall case/link repository scoped to the current transaction
	RecallRepo() lot.RecallRepository
	// StocktakeRepo returns the stocktake session repository scoped to the current transaction
	StocktakeRepo() stocktake.Repository
	// PeriodRepo returns the inventory period repository scoped to the current transaction
	PeriodRepo() period.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	ledgerRepo    ledger.EntryRepository
	lotRepo       lot.Repository
	recallRepo    lot.RecallRepository
	stocktakeRepo stocktake.Repository
	periodRepo    period.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	ledgerRepo ledger.EntryRepository,
	lotRepo lot.Repository,
	recallRepo lot.RecallRepository,
	stocktakeRepo stocktake.Repository,
	periodRepo period.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		ledgerRepo:    ledgerRepo,
		lotRepo:       lotRepo,
		recallRepo:    recallRepo,
		stocktakeRepo: stocktakeRepo,
		periodRepo:    periodRepo,
	}
}

// Execute runs the function directly without a transaction.
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LedgerRepo returns the ledger repository
func (s *NoOpTransactionScope) LedgerRepo() ledger.EntryRepository {
	return s.ledgerRepo
}

// LotRepo returns the lot repository
func (s *NoOpTransactionScope) LotRepo() lot.Repository {
	return s.lotRepo
}

// RecallRepo returns the recall repository
func (s *NoOpTransactionScope) RecallRepo() lot.RecallRepository {
	return s.recallRepo
}

// StocktakeRepo returns the stocktake repository
func (s *NoOpTransactionScope) StocktakeRepo() stocktake.Repository {
	return s.stocktakeRepo
}

// PeriodRepo returns the period repository
func (s *NoOpTransactionScope) PeriodRepo() period.Repository {
	return s.periodRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
