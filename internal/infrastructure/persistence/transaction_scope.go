package persistence

import (
	"context"

	appinv "github.com/chefstock/backend/internal/application/inventory"
	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/stocktake"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LedgerRepo returns the ledger entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() ledger.EntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// LotRepo returns the inventory lot repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LotRepo() lot.Repository {
	return NewGormLotRepository(r.tx)
}

// RecallRepo returns the recall repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RecallRepo() lot.RecallRepository {
	return NewGormRecallRepository(r.tx)
}

// StocktakeRepo returns the stocktake session repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StocktakeRepo() stocktake.Repository {
	return NewGormStocktakeRepository(r.tx)
}

// PeriodRepo returns the inventory period repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PeriodRepo() period.Repository {
	return NewGormPeriodRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
