package stocktake

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/chefstock/backend/internal/application/inventory"
	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/domain/stocktake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service drives the stocktake workflow: DRAFT sessions freeze a ledger
// snapshot when they start, collect blind or open counts, and on posting turn
// the variances into STOCKTAKE_VARIANCE ledger entries in one transaction.
type Service struct {
	scope          appinv.TransactionScope
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewService creates a new stocktake Service
func NewService(scope appinv.TransactionScope) *Service {
	return &Service{
		scope: scope,
		now:   time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source, used by tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ===================== Queries =====================

// GetByID retrieves a session by ID
func (s *Service) GetByID(ctx context.Context, branchID, id uuid.UUID) (*SessionResponse, error) {
	var resp *SessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		session, err := s.loadSession(ctx, repos, branchID, id, false)
		if err != nil {
			return err
		}
		r := ToSessionResponse(session)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBySessionNumber retrieves a session by its number
func (s *Service) GetBySessionNumber(ctx context.Context, branchID uuid.UUID, sessionNumber string) (*SessionResponse, error) {
	var resp *SessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		session, err := repos.StocktakeRepo().FindBySessionNumber(ctx, branchID, sessionNumber)
		if err != nil {
			return err
		}
		r := ToSessionResponse(session)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListOpen retrieves sessions that are neither POSTED nor VOID, the set that
// blocks a period close
func (s *Service) ListOpen(ctx context.Context, branchID uuid.UUID) ([]SessionResponse, error) {
	var result []SessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		sessions, err := repos.StocktakeRepo().FindOpenByBranch(ctx, branchID)
		if err != nil {
			return err
		}
		result = make([]SessionResponse, 0, len(sessions))
		for i := range sessions {
			result = append(result, ToSessionResponse(&sessions[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ===================== Commands =====================

// Create creates a new DRAFT session. Its lines cover every item the ledger
// knows at the target location, so shrinkage on an item the caller did not
// think of cannot escape the count; explicitly requested lines add items the
// ledger has no history for yet.
func (s *Service) Create(ctx context.Context, orgID, branchID uuid.UUID, req CreateSessionRequest) (*SessionResponse, error) {
	var resp *SessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		sessionNumber, err := s.generateSessionNumber(ctx, repos, branchID)
		if err != nil {
			return err
		}

		session, err := stocktake.NewSession(orgID, branchID, req.LocationID, sessionNumber, req.BlindCount)
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			session.SetCreatedBy(*req.CreatedBy)
		}
		if err := s.populateLines(ctx, repos, session, req.Lines); err != nil {
			return err
		}

		if err := repos.StocktakeRepo().SaveWithLines(ctx, session); err != nil {
			return err
		}

		s.publishEvents(ctx, session.GetDomainEvents())
		session.ClearDomainEvents()
		r := ToSessionResponse(session)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Start freezes every line's snapshot to the current ledger on-hand and moves
// the session to IN_PROGRESS. The snapshot read and the transition commit in
// the same transaction, and the frozen values never change afterwards no
// matter what the ledger does.
func (s *Service) Start(ctx context.Context, branchID, id uuid.UUID) (*SessionResponse, error) {
	return s.transition(ctx, branchID, id, func(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session) error {
		onHand, err := repos.LedgerRepo().OnHandByLocation(ctx, branchID, session.LocationID)
		if err != nil {
			return err
		}
		return session.Start(onHand)
	})
}

// RecordCount records the physical count for one item
func (s *Service) RecordCount(ctx context.Context, branchID, id uuid.UUID, req RecordCountRequest) (*SessionResponse, error) {
	return s.transition(ctx, branchID, id, func(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session) error {
		return session.RecordCount(req.ItemID, req.CountedQty)
	})
}

// RecordCounts records counts for multiple items in one transaction
func (s *Service) RecordCounts(ctx context.Context, branchID, id uuid.UUID, req RecordCountsRequest) (*SessionResponse, error) {
	return s.transition(ctx, branchID, id, func(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session) error {
		for _, count := range req.Counts {
			if err := session.RecordCount(count.ItemID, count.CountedQty); err != nil {
				return err
			}
		}
		return nil
	})
}

// Submit moves a fully counted session to SUBMITTED
func (s *Service) Submit(ctx context.Context, branchID, id uuid.UUID) (*SessionResponse, error) {
	return s.transition(ctx, branchID, id, func(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session) error {
		return session.Submit()
	})
}

// Approve moves a submitted session to APPROVED
func (s *Service) Approve(ctx context.Context, branchID, id uuid.UUID, req ApproveSessionRequest) (*SessionResponse, error) {
	return s.transition(ctx, branchID, id, func(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session) error {
		return session.Approve(req.ApproverID)
	})
}

// Post turns the approved session's variances into STOCKTAKE_VARIANCE ledger
// entries and flips the session to POSTED, all in one transaction. Posting an
// already POSTED session is an idempotent success that reports the original
// entry count and touches nothing.
func (s *Service) Post(ctx context.Context, branchID, id uuid.UUID) (*PostSessionResponse, error) {
	var resp *PostSessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		session, err := s.loadSession(ctx, repos, branchID, id, true)
		if err != nil {
			return err
		}

		if session.IsPosted() {
			resp = &PostSessionResponse{
				SessionID:            session.ID,
				Status:               session.Status.String(),
				LedgerEntriesCreated: session.EntriesPosted,
				AlreadyPosted:        true,
			}
			return nil
		}

		entries := make([]*ledger.Entry, 0)
		for _, line := range session.VarianceLines() {
			entry, err := ledger.NewEntry(
				session.OrgID, session.BranchID, line.ItemID, line.LocationID,
				line.Variance(), ledger.ReasonStocktakeVariance,
				ledger.SourceTypeStocktakeSession, session.ID.String(),
			)
			if err != nil {
				return err
			}
			entry.WithUnitCost(line.UnitCost).WithOccurredAt(s.now())
			if session.ApprovedByID != nil {
				entry.WithCreatedBy(*session.ApprovedByID)
			}
			entries = append(entries, entry)
		}

		if err := session.MarkPosted(len(entries)); err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := repos.LedgerRepo().AppendAll(ctx, entries); err != nil {
				return err
			}
		}
		if err := repos.StocktakeRepo().SaveWithLines(ctx, session); err != nil {
			return err
		}

		s.publishEvents(ctx, session.GetDomainEvents())
		session.ClearDomainEvents()
		resp = &PostSessionResponse{
			SessionID:            session.ID,
			Status:               session.Status.String(),
			LedgerEntriesCreated: len(entries),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Void cancels a session. From POSTED the variance entries are exactly
// negated by REVERSAL entries in the same transaction; from any earlier state
// there is no ledger effect and the reversal count reports zero.
func (s *Service) Void(ctx context.Context, branchID, id uuid.UUID) (*VoidSessionResponse, error) {
	var resp *VoidSessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		session, err := s.loadSession(ctx, repos, branchID, id, true)
		if err != nil {
			return err
		}

		reversals := make([]*ledger.Entry, 0)
		if session.IsPosted() {
			posted, err := repos.LedgerRepo().FindBySource(ctx, ledger.SourceTypeStocktakeSession, session.ID.String())
			if err != nil {
				return err
			}
			for i := range posted {
				reversals = append(reversals, posted[i].Reversal())
			}
		}

		if err := session.MarkVoid(); err != nil {
			return err
		}
		if len(reversals) > 0 {
			if err := repos.LedgerRepo().AppendAll(ctx, reversals); err != nil {
				return err
			}
		}
		if err := repos.StocktakeRepo().SaveWithLines(ctx, session); err != nil {
			return err
		}

		s.publishEvents(ctx, session.GetDomainEvents())
		session.ClearDomainEvents()
		resp = &VoidSessionResponse{
			SessionID:              session.ID,
			Status:                 session.Status.String(),
			ReversalEntriesCreated: len(reversals),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ===================== Internals =====================

// transition runs a workflow step against a locked session and saves it
func (s *Service) transition(
	ctx context.Context,
	branchID, id uuid.UUID,
	step func(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session) error,
) (*SessionResponse, error) {
	var resp *SessionResponse
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		session, err := s.loadSession(ctx, repos, branchID, id, true)
		if err != nil {
			return err
		}
		if err := step(ctx, repos, session); err != nil {
			return err
		}
		if err := repos.StocktakeRepo().SaveWithLines(ctx, session); err != nil {
			return err
		}

		s.publishEvents(ctx, session.GetDomainEvents())
		session.ClearDomainEvents()
		r := ToSessionResponse(session)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// loadSession loads a session, optionally with a row lock, and verifies the
// branch scope
func (s *Service) loadSession(ctx context.Context, repos appinv.TransactionalRepositories, branchID, id uuid.UUID, forUpdate bool) (*stocktake.Session, error) {
	var (
		session *stocktake.Session
		err     error
	)
	if forUpdate {
		session, err = repos.StocktakeRepo().FindByIDForUpdate(ctx, id)
	} else {
		session, err = repos.StocktakeRepo().FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if session.BranchID != branchID {
		return nil, shared.ErrLocationMismatch
	}
	return session, nil
}

// populateLines seeds the session's count lines: one line per item the
// ledger knows at the session's location, then the explicitly requested
// lines for items not already present. A requested line for a known item
// overrides the derived unit cost.
func (s *Service) populateLines(ctx context.Context, repos appinv.TransactionalRepositories, session *stocktake.Session, requested []CreateSessionLineRequest) error {
	for _, line := range requested {
		if err := session.AddLine(line.ItemID, line.UnitCost); err != nil {
			return err
		}
	}

	rows, err := repos.LedgerRepo().OnHandByLocation(ctx, session.BranchID, session.LocationID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if session.HasLine(row.ItemID) {
			continue
		}
		unitCost, err := s.averageUnitCost(ctx, repos, session.BranchID, row.ItemID, session.LocationID)
		if err != nil {
			return err
		}
		if err := session.AddLine(row.ItemID, unitCost); err != nil {
			return err
		}
	}
	return nil
}

// averageUnitCost computes the remaining-quantity-weighted unit cost across
// the lots at one (item, location), zero when no lot carries stock
func (s *Service) averageUnitCost(ctx context.Context, repos appinv.TransactionalRepositories, branchID, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
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

// generateSessionNumber builds the next CNT-YYYYMMDD-NNN number for the branch
func (s *Service) generateSessionNumber(ctx context.Context, repos appinv.TransactionalRepositories, branchID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("CNT-%s-", s.now().Format("20060102"))
	count, err := repos.StocktakeRepo().CountByBranchAndPrefix(ctx, branchID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}

// publishEvents publishes domain events, best effort
func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
