package period

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/chefstock/backend/internal/application/inventory"
	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CloseService closes accounting periods: it freezes the valuation snapshot
// and movement summary for the window in one transaction and flips the period
// to CLOSED. Closing the same window again returns the stored result instead
// of recomputing it.
type CloseService struct {
	scope          appinv.TransactionScope
	eventPublisher shared.EventPublisher
}

// NewCloseService creates a new CloseService
func NewCloseService(scope appinv.TransactionScope) *CloseService {
	return &CloseService{scope: scope}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CloseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CheckBlockers enumerates conditions that should gate a close for the
// window. It is read-only and advisory: it reports what it finds and leaves
// the decision to the caller, who may force-close with a documented override.
func (s *CloseService) CheckBlockers(ctx context.Context, branchID uuid.UUID, startDate, endDate time.Time) (*CheckBlockersResponse, error) {
	resp := &CheckBlockersResponse{Blockers: make([]Blocker, 0)}
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		open, err := repos.StocktakeRepo().FindOpenByBranch(ctx, branchID)
		if err != nil {
			return err
		}
		for i := range open {
			session := open[i]
			if session.CreatedAt.After(endDate) {
				continue
			}
			resp.Blockers = append(resp.Blockers, Blocker{
				Kind:        "OPEN_STOCKTAKE",
				ReferenceID: session.ID,
				Detail:      fmt.Sprintf("Stocktake %s is %s", session.SessionNumber, session.Status),
			})
		}

		overlapping, err := repos.PeriodRepo().FindOverlapping(ctx, branchID, startDate, endDate)
		if err != nil {
			return err
		}
		for i := range overlapping {
			p := overlapping[i]
			if p.MatchesWindow(startDate, endDate) {
				continue
			}
			resp.Blockers = append(resp.Blockers, Blocker{
				Kind:        "OVERLAPPING_PERIOD",
				ReferenceID: p.ID,
				Detail: fmt.Sprintf("Period %s..%s overlaps this window",
					p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp.Clear = len(resp.Blockers) == 0
	return resp, nil
}

// Close closes the window for a branch. An exact-window period that is
// already CLOSED is returned unchanged; a window overlapping a different
// period fails with the duplicate-period error.
func (s *CloseService) Close(ctx context.Context, orgID, branchID uuid.UUID, req ClosePeriodRequest) (*ClosePeriodResponse, error) {
	var resp *ClosePeriodResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		existing, err := repos.PeriodRepo().FindByWindow(ctx, branchID, req.StartDate, req.EndDate)
		if err != nil && err != shared.ErrNotFound {
			return err
		}
		if existing != nil && existing.IsClosed() {
			resp = ToClosePeriodResponse(existing, true)
			return nil
		}

		overlapping, err := repos.PeriodRepo().FindOverlapping(ctx, branchID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		for i := range overlapping {
			if !overlapping[i].MatchesWindow(req.StartDate, req.EndDate) {
				return shared.ErrDuplicatePeriod
			}
		}

		p := existing
		if p == nil {
			p, err = period.NewInventoryPeriod(orgID, branchID, req.StartDate, req.EndDate)
			if err != nil {
				return err
			}
		}

		snapshots, err := s.buildValuation(ctx, repos, branchID, req.EndDate)
		if err != nil {
			return err
		}
		totals, err := repos.LedgerRepo().SumByReasonInRange(ctx, branchID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		summary := make([]period.MovementSummary, 0, len(totals))
		for _, t := range totals {
			summary = append(summary, period.NewMovementSummary(t))
		}

		if err := p.Close(snapshots, summary); err != nil {
			return err
		}
		if err := repos.PeriodRepo().SaveWithRows(ctx, p); err != nil {
			return err
		}

		s.publishEvents(ctx, p.GetDomainEvents())
		p.ClearDomainEvents()
		resp = ToClosePeriodResponse(p, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetByID retrieves a period with its stored rows
func (s *CloseService) GetByID(ctx context.Context, branchID, id uuid.UUID) (*ClosePeriodResponse, error) {
	var resp *ClosePeriodResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		p, err := repos.PeriodRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p.BranchID != branchID {
			return shared.ErrLocationMismatch
		}
		resp = ToClosePeriodResponse(p, p.IsClosed())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// buildValuation freezes one valuation row per (item, location) with stock,
// costing on-hand at the weighted average unit cost of the remaining lots
func (s *CloseService) buildValuation(ctx context.Context, repos appinv.TransactionalRepositories, branchID uuid.UUID, asOf time.Time) ([]period.ValuationSnapshot, error) {
	rows, err := repos.LedgerRepo().OnHandByBranch(ctx, branchID, asOf)
	if err != nil {
		return nil, err
	}

	snapshots := make([]period.ValuationSnapshot, 0, len(rows))
	for _, row := range rows {
		if row.OnHand.IsZero() {
			continue
		}
		unitCost, err := s.averageUnitCost(ctx, repos, branchID, row.ItemID, row.LocationID)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, period.NewValuationSnapshot(row.ItemID, row.LocationID, row.OnHand, unitCost))
	}
	return snapshots, nil
}

// averageUnitCost computes the remaining-quantity-weighted unit cost across
// the lots at one (item, location), zero when no lot carries stock
func (s *CloseService) averageUnitCost(ctx context.Context, repos appinv.TransactionalRepositories, branchID, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	lots, err := repos.LotRepo().FindByItemLocation(ctx, branchID, itemID, locationID)
	if err != nil {
		return decimal.Zero, err
	}

	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for i := range lots {
		if !lots[i].HasStock() {
			continue
		}
		totalQty = totalQty.Add(lots[i].RemainingQty)
		totalValue = totalValue.Add(lots[i].TotalValue())
	}
	if totalQty.IsZero() {
		return decimal.Zero, nil
	}
	return totalValue.Div(totalQty).Round(ledger.QuantityScale), nil
}

// publishEvents publishes domain events, best effort
func (s *CloseService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
