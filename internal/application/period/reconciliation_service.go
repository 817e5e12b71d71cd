package period

import (
	"context"

	appinv "github.com/chefstock/backend/internal/application/inventory"
	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReconciliationService cross-checks a period's ledger movement totals
// against externally-posted journal amounts. The comparison is pure: it
// mutates neither the ledger nor the journal side.
type ReconciliationService struct {
	scope appinv.TransactionScope
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(scope appinv.TransactionScope) *ReconciliationService {
	return &ReconciliationService{scope: scope}
}

// Reconcile builds the report for a period. For a CLOSED period the stored
// movement summary is used so the report matches what the close froze; for an
// OPEN period the ledger is aggregated live.
func (s *ReconciliationService) Reconcile(ctx context.Context, branchID, periodID uuid.UUID, postings []period.JournalPosting) (*ReconciliationResponse, error) {
	var resp *ReconciliationResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		p, err := repos.PeriodRepo().FindByID(ctx, periodID)
		if err != nil {
			return err
		}
		if p.BranchID != branchID {
			return shared.ErrLocationMismatch
		}

		var totals []ledger.ReasonTotal
		if p.IsClosed() {
			totals = make([]ledger.ReasonTotal, 0, len(p.Summary))
			for _, row := range p.Summary {
				totals = append(totals, ledger.ReasonTotal{
					Reason:   row.Reason,
					QtyDelta: row.QtyDelta,
					Value:    row.Value,
					Entries:  row.Entries,
				})
			}
		} else {
			totals, err = repos.LedgerRepo().SumByReasonInRange(ctx, branchID, p.StartDate, p.EndDate)
			if err != nil {
				return err
			}
		}

		report := period.BuildReport(totals, postings)
		resp = ToReconciliationResponse(p.ID, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
