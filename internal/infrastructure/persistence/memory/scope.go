package memory

import (
	appinv "github.com/chefstock/backend/internal/application/inventory"
)

// Store bundles one in-memory repository of each kind behind a shared scope
type Store struct {
	Ledger    *LedgerRepository
	Lots      *LotRepository
	Recalls   *RecallRepository
	Stocktake *StocktakeRepository
	Periods   *PeriodRepository

	scope *appinv.NoOpTransactionScope
}

// NewStore creates a fresh in-memory store
func NewStore() *Store {
	s := &Store{
		Ledger:    NewLedgerRepository(),
		Lots:      NewLotRepository(),
		Recalls:   NewRecallRepository(),
		Stocktake: NewStocktakeRepository(),
		Periods:   NewPeriodRepository(),
	}
	s.scope = appinv.NewNoOpTransactionScope(s.Ledger, s.Lots, s.Recalls, s.Stocktake, s.Periods)
	return s
}

// Scope returns a TransactionScope over the store. There is no rollback: a
// failed operation may leave earlier writes behind, which is acceptable for
// the tests this store exists for.
func (s *Store) Scope() appinv.TransactionScope {
	return s.scope
}
