package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryService handles stock movement operations. Every command runs in a
// single transaction: the ledger append, the lot mutations and the status
// flips commit together or not at all, so partial failures cannot occur.
type InventoryService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
	now            func() time.Time
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(scope TransactionScope) *InventoryService {
	return &InventoryService{
		scope:          scope,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore sets the fast-path duplicate guard for client retries.
// The durable guarantee stays with the ledger's source uniqueness; the store
// only lets a retry skip row locks.
func (s *InventoryService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idempotencyCfg = cfg
}

// SetClock overrides the time source, used by tests and expiry previews
func (s *InventoryService) SetClock(now func() time.Time) {
	s.now = now
}

// ===================== Commands =====================

// Receive books new stock into a freshly created lot and appends the matching
// inbound ledger entry. Retries with the same source ID return the original
// result instead of receiving twice.
func (s *InventoryService) Receive(ctx context.Context, orgID, branchID uuid.UUID, req ReceiveStockRequest) (*ReceiveStockResponse, error) {
	sourceType := ledger.SourceTypeReceipt
	reason := ledger.ReasonReceive
	if req.InitialLoad {
		sourceType = ledger.SourceTypeInitialStock
		reason = ledger.ReasonInitial
	}

	if s.seenRetry(ctx, sourceType, req.SourceID) {
		if dup := s.storedReceipt(ctx, sourceType, req.SourceID); dup != nil {
			return dup, nil
		}
	}

	var resp *ReceiveStockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		dup, err := s.findDuplicateReceipt(ctx, repos, sourceType, req.SourceID)
		if err != nil {
			return err
		}
		if dup != nil {
			resp = dup
			return nil
		}

		newLot, err := lot.NewInventoryLot(
			orgID, branchID, req.ItemID, req.LocationID,
			req.LotNumber, req.Quantity, req.UnitCost,
			req.ExpiryDate, sourceType,
		)
		if err != nil {
			return err
		}
		if req.OperatorID != nil {
			newLot.SetCreatedBy(*req.OperatorID)
		}
		if err := repos.LotRepo().Save(ctx, newLot); err != nil {
			return err
		}

		entry, err := ledger.NewEntry(orgID, branchID, req.ItemID, req.LocationID,
			req.Quantity, reason, sourceType, req.SourceID)
		if err != nil {
			return err
		}
		entry.WithLotID(newLot.ID).WithUnitCost(req.UnitCost).WithOccurredAt(s.now())
		if req.OperatorID != nil {
			entry.WithCreatedBy(*req.OperatorID)
		}
		if err := repos.LedgerRepo().Append(ctx, entry); err != nil {
			return err
		}

		resp = &ReceiveStockResponse{
			Lot:       ToLotResponse(newLot),
			EntryID:   entry.ID,
			TotalCost: entry.CostValue(),
		}
		s.publishEvents(ctx, newLot.GetDomainEvents())
		newLot.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, sourceType, req.SourceID)
	return resp, nil
}

// Waste writes off stock, consuming lots in FEFO order. Lots under an open
// recall, expired lots and non-ACTIVE lots are excluded before planning, and
// the whole request fails with no ledger effect when the remaining candidates
// cannot cover it.
func (s *InventoryService) Waste(ctx context.Context, orgID, branchID uuid.UUID, req WasteStockRequest) (*MovementResponse, error) {
	if dup := s.fastPathDuplicate(ctx, ledger.SourceTypeWaste, req.SourceID); dup != nil {
		return dup, nil
	}

	var resp *MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if dup, err := s.findDuplicate(ctx, repos, ledger.SourceTypeWaste, req.SourceID); err != nil || dup != nil {
			resp = dup
			return err
		}

		lots, err := repos.LotRepo().FindAllocatable(ctx, branchID, req.ItemID, req.LocationID)
		if err != nil {
			return err
		}
		candidates, err := s.consumableCandidates(ctx, repos, lots)
		if err != nil {
			return err
		}

		strategy := lot.NewFEFOAllocationStrategy()
		plan, err := strategy.Plan(req.Quantity, candidates)
		if err != nil {
			return err
		}
		if !plan.FullyFulfilled {
			return shared.ErrInsufficientStock
		}

		if err := s.applyAndSave(ctx, repos, lots, plan); err != nil {
			return err
		}

		entries := make([]*ledger.Entry, 0, len(plan.Takes))
		for _, take := range plan.Takes {
			entry, err := ledger.NewEntry(orgID, branchID, req.ItemID, req.LocationID,
				take.QtyTaken.Neg(), ledger.ReasonWaste, ledger.SourceTypeWaste, req.SourceID)
			if err != nil {
				return err
			}
			entry.WithLotID(take.LotID).WithUnitCost(take.UnitCost).WithOccurredAt(s.now())
			if req.OperatorID != nil {
				entry.WithCreatedBy(*req.OperatorID)
			}
			entries = append(entries, entry)
		}
		if err := repos.LedgerRepo().AppendAll(ctx, entries); err != nil {
			return err
		}

		resp = movementResponse(entries, plan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, ledger.SourceTypeWaste, req.SourceID)
	return resp, nil
}

// Transfer moves quantity from a named lot to another location. The source
// lot is deducted and a sibling lot is created at the destination carrying
// the same lot number, cost and expiry, so traceability survives the move.
func (s *InventoryService) Transfer(ctx context.Context, orgID, branchID uuid.UUID, req TransferStockRequest) (*MovementResponse, error) {
	if dup := s.fastPathDuplicate(ctx, ledger.SourceTypeTransfer, req.SourceID); dup != nil {
		return dup, nil
	}

	var resp *MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if dup, err := s.findDuplicate(ctx, repos, ledger.SourceTypeTransfer, req.SourceID); err != nil || dup != nil {
			resp = dup
			return err
		}

		src, err := s.lockConsumableLot(ctx, repos, branchID, req.ItemID, req.FromLocationID, req.LotID)
		if err != nil {
			return err
		}

		strategy := lot.NewSpecifiedAllocationStrategy(req.LotID)
		plan, err := strategy.Plan(req.Quantity, []lot.InventoryLot{*src})
		if err != nil {
			return err
		}
		if err := lot.ApplyPlan([]*lot.InventoryLot{src}, plan); err != nil {
			return err
		}

		dest, err := lot.NewInventoryLot(
			orgID, branchID, req.ItemID, req.ToLocationID,
			src.LotNumber, req.Quantity, src.UnitCost,
			src.ExpiryDate, ledger.SourceTypeTransfer,
		)
		if err != nil {
			return err
		}
		if req.OperatorID != nil {
			dest.SetCreatedBy(*req.OperatorID)
		}
		if err := repos.LotRepo().SaveAll(ctx, []*lot.InventoryLot{src, dest}); err != nil {
			return err
		}

		out, err := ledger.NewEntry(orgID, branchID, req.ItemID, req.FromLocationID,
			req.Quantity.Neg(), ledger.ReasonTransferOut, ledger.SourceTypeTransfer, req.SourceID)
		if err != nil {
			return err
		}
		out.WithLotID(src.ID).WithUnitCost(src.UnitCost).WithOccurredAt(s.now())

		in, err := ledger.NewEntry(orgID, branchID, req.ItemID, req.ToLocationID,
			req.Quantity, ledger.ReasonTransferIn, ledger.SourceTypeTransfer, req.SourceID)
		if err != nil {
			return err
		}
		in.WithLotID(dest.ID).WithUnitCost(src.UnitCost).WithOccurredAt(s.now())

		if req.OperatorID != nil {
			out.WithCreatedBy(*req.OperatorID)
			in.WithCreatedBy(*req.OperatorID)
		}

		entries := []*ledger.Entry{out, in}
		if err := repos.LedgerRepo().AppendAll(ctx, entries); err != nil {
			return err
		}

		resp = movementResponse(entries, plan)
		s.publishEvents(ctx, dest.GetDomainEvents())
		dest.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, ledger.SourceTypeTransfer, req.SourceID)
	return resp, nil
}

// VendorReturn sends quantity from a named lot back to the vendor. The recall
// check runs against the live link table at allocation time, so a lot linked
// to an open case after receipt is still refused.
func (s *InventoryService) VendorReturn(ctx context.Context, orgID, branchID uuid.UUID, req VendorReturnRequest) (*MovementResponse, error) {
	if dup := s.fastPathDuplicate(ctx, ledger.SourceTypeVendorReturn, req.SourceID); dup != nil {
		return dup, nil
	}

	var resp *MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if dup, err := s.findDuplicate(ctx, repos, ledger.SourceTypeVendorReturn, req.SourceID); err != nil || dup != nil {
			resp = dup
			return err
		}

		l, err := s.lockConsumableLot(ctx, repos, branchID, req.ItemID, req.LocationID, req.LotID)
		if err != nil {
			return err
		}

		strategy := lot.NewSpecifiedAllocationStrategy(req.LotID)
		plan, err := strategy.Plan(req.Quantity, []lot.InventoryLot{*l})
		if err != nil {
			return err
		}
		if err := lot.ApplyPlan([]*lot.InventoryLot{l}, plan); err != nil {
			return err
		}
		if err := repos.LotRepo().Save(ctx, l); err != nil {
			return err
		}

		entry, err := ledger.NewEntry(orgID, branchID, req.ItemID, req.LocationID,
			req.Quantity.Neg(), ledger.ReasonReturn, ledger.SourceTypeVendorReturn, req.SourceID)
		if err != nil {
			return err
		}
		entry.WithLotID(l.ID).WithUnitCost(l.UnitCost).WithOccurredAt(s.now())
		if req.OperatorID != nil {
			entry.WithCreatedBy(*req.OperatorID)
		}
		if err := repos.LedgerRepo().Append(ctx, entry); err != nil {
			return err
		}

		resp = movementResponse([]*ledger.Entry{entry}, plan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, ledger.SourceTypeVendorReturn, req.SourceID)
	return resp, nil
}

// Adjust appends a signed manual correction outside the stocktake workflow.
// Adjustments are the escape hatch for untracked shrinkage and data fixes, so
// they may drive on-hand negative; every other consuming operation pre-checks
// sufficiency inside its transaction.
func (s *InventoryService) Adjust(ctx context.Context, orgID, branchID uuid.UUID, req AdjustStockRequest) (*MovementResponse, error) {
	if dup := s.fastPathDuplicate(ctx, ledger.SourceTypeManualAdjustment, req.SourceID); dup != nil {
		return dup, nil
	}

	var resp *MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if dup, err := s.findDuplicate(ctx, repos, ledger.SourceTypeManualAdjustment, req.SourceID); err != nil || dup != nil {
			resp = dup
			return err
		}

		entry, err := ledger.NewEntry(orgID, branchID, req.ItemID, req.LocationID,
			req.QtyDelta, ledger.ReasonAdjustment, ledger.SourceTypeManualAdjustment, req.SourceID)
		if err != nil {
			return err
		}
		entry.WithOccurredAt(s.now())
		if req.OperatorID != nil {
			entry.WithCreatedBy(*req.OperatorID)
		}
		if err := repos.LedgerRepo().Append(ctx, entry); err != nil {
			return err
		}

		resp = &MovementResponse{
			EntryIDs:   []uuid.UUID{entry.ID},
			TotalQty:   entry.QtyDelta,
			TotalCost:  decimal.Zero,
			OccurredAt: entry.OccurredAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, ledger.SourceTypeManualAdjustment, req.SourceID)
	return resp, nil
}

// VoidOperation reverses a posted operation: every ledger entry it created is
// negated by a REVERSAL entry and every lot it touched is restored to its
// prior quantity. Re-running a void reports the prior outcome without
// appending anything.
func (s *InventoryService) VoidOperation(ctx context.Context, orgID, branchID uuid.UUID, req VoidOperationRequest) (*VoidOperationResponse, error) {
	if req.SourceType == ledger.SourceTypeReversal {
		return nil, shared.ErrInvalidState
	}

	var resp *VoidOperationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		originals, err := repos.LedgerRepo().FindBySource(ctx, req.SourceType, req.SourceID)
		if err != nil {
			return err
		}
		if len(originals) == 0 {
			return shared.ErrNotFound
		}
		if originals[0].BranchID != branchID {
			return shared.ErrLocationMismatch
		}

		// A void is keyed by the reversed entries' IDs, so one existing
		// reversal means the whole operation was already voided.
		voided, err := repos.LedgerRepo().ExistsBySource(ctx, ledger.SourceTypeReversal, originals[0].ID.String())
		if err != nil {
			return err
		}
		if voided {
			resp = &VoidOperationResponse{
				SourceType:      req.SourceType,
				SourceID:        req.SourceID,
				ReversalEntries: len(originals),
				AlreadyVoided:   true,
			}
			return nil
		}

		reversals := make([]*ledger.Entry, 0, len(originals))
		lotsTouched := make([]*lot.InventoryLot, 0, len(originals))
		for i := range originals {
			e := originals[i]
			rev := e.Reversal()
			rev.OccurredAt = s.now()
			if req.OperatorID != nil {
				rev.WithCreatedBy(*req.OperatorID)
			}
			reversals = append(reversals, rev)

			if !e.HasLot() {
				continue
			}
			l, err := repos.LotRepo().FindByIDForUpdate(ctx, e.LotID)
			if err != nil {
				return err
			}
			if e.QtyDelta.IsNegative() {
				// Voiding an outbound movement puts the quantity back.
				if err := l.Restore(e.QtyDelta.Neg()); err != nil {
					return err
				}
			} else {
				// Voiding an inbound movement takes the quantity out again;
				// this fails once the received stock has been consumed.
				if err := l.Allocate(e.QtyDelta); err != nil {
					return err
				}
			}
			lotsTouched = append(lotsTouched, l)
		}

		if len(lotsTouched) > 0 {
			if err := repos.LotRepo().SaveAll(ctx, lotsTouched); err != nil {
				return err
			}
		}
		if err := repos.LedgerRepo().AppendAll(ctx, reversals); err != nil {
			return err
		}

		resp = &VoidOperationResponse{
			SourceType:      req.SourceType,
			SourceID:        req.SourceID,
			ReversalEntries: len(reversals),
			LotsRestored:    len(lotsTouched),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ===================== Queries =====================

// OnHand returns the derived on-hand quantity for one (item, location)
func (s *InventoryService) OnHand(ctx context.Context, branchID, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		qty, err = repos.LedgerRepo().OnHand(ctx, branchID, itemID, locationID)
		return err
	})
	return qty, err
}

// OnHandByLocation returns on-hand per item for every item at a location
func (s *InventoryService) OnHandByLocation(ctx context.Context, branchID, locationID uuid.UUID) ([]OnHandResponse, error) {
	var rows []ledger.OnHandRow
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rows, err = repos.LedgerRepo().OnHandByLocation(ctx, branchID, locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToOnHandResponses(rows), nil
}

// ListLots returns every lot for one (item, location)
func (s *InventoryService) ListLots(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]LotResponse, error) {
	var lots []lot.InventoryLot
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		lots, err = repos.LotRepo().FindByItemLocation(ctx, branchID, itemID, locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]LotResponse, 0, len(lots))
	for i := range lots {
		result = append(result, ToLotResponse(&lots[i]))
	}
	return result, nil
}

// Movements lists ledger entries for a branch within [from, to)
func (s *InventoryService) Movements(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]LedgerEntryResponse, error) {
	var entries []ledger.Entry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entries, err = repos.LedgerRepo().MovementsInRange(ctx, branchID, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, ToLedgerEntryResponse(&entries[i]))
	}
	return result, nil
}

// ===================== Internals =====================

// retryKey builds the fast-path key mirroring the ledger's source uniqueness
func retryKey(sourceType ledger.SourceType, sourceID string) shared.RetryKey {
	return shared.RetryKey{
		Service:    "inventory",
		SourceType: string(sourceType),
		SourceID:   sourceID,
	}
}

// seenRetry consults the fast-path store. A hit means a prior attempt
// committed under this key; a miss proves nothing and the in-transaction
// duplicate lookup still runs.
func (s *InventoryService) seenRetry(ctx context.Context, sourceType ledger.SourceType, sourceID string) bool {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled {
		return false
	}
	seen, err := s.idempotency.IsProcessed(ctx, retryKey(sourceType, sourceID))
	return err == nil && seen
}

// fastPathDuplicate answers a retry from the stored ledger result without
// taking row locks. Nil means run the full operation: either the store has
// not seen the key or the ledger could not confirm it.
func (s *InventoryService) fastPathDuplicate(ctx context.Context, sourceType ledger.SourceType, sourceID string) *MovementResponse {
	if !s.seenRetry(ctx, sourceType, sourceID) {
		return nil
	}
	var dup *MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		dup, err = s.findDuplicate(ctx, repos, sourceType, sourceID)
		return err
	})
	if err != nil {
		return nil
	}
	return dup
}

// storedReceipt is the receive-shaped counterpart of fastPathDuplicate
func (s *InventoryService) storedReceipt(ctx context.Context, sourceType ledger.SourceType, sourceID string) *ReceiveStockResponse {
	var dup *ReceiveStockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		dup, err = s.findDuplicateReceipt(ctx, repos, sourceType, sourceID)
		return err
	})
	if err != nil {
		return nil
	}
	return dup
}

// findDuplicateReceipt returns the stored result of a prior receive with the
// same source key, nil when this is the first run
func (s *InventoryService) findDuplicateReceipt(ctx context.Context, repos TransactionalRepositories, sourceType ledger.SourceType, sourceID string) (*ReceiveStockResponse, error) {
	existing, err := repos.LedgerRepo().FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}

	e := existing[0]
	priorLot, err := repos.LotRepo().FindByID(ctx, e.LotID)
	if err != nil {
		return nil, err
	}
	return &ReceiveStockResponse{
		Lot:       ToLotResponse(priorLot),
		EntryID:   e.ID,
		Duplicate: true,
		TotalCost: e.CostValue(),
	}, nil
}

// findDuplicate returns the stored result of a prior run with the same source
// key, nil when this is the first run
func (s *InventoryService) findDuplicate(ctx context.Context, repos TransactionalRepositories, sourceType ledger.SourceType, sourceID string) (*MovementResponse, error) {
	existing, err := repos.LedgerRepo().FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}

	resp := &MovementResponse{
		EntryIDs:   make([]uuid.UUID, 0, len(existing)),
		TotalQty:   decimal.Zero,
		TotalCost:  decimal.Zero,
		Duplicate:  true,
		OccurredAt: existing[0].OccurredAt,
	}
	for i := range existing {
		resp.EntryIDs = append(resp.EntryIDs, existing[i].ID)
		resp.TotalQty = resp.TotalQty.Add(existing[i].QtyDelta)
		resp.TotalCost = resp.TotalCost.Add(existing[i].CostValue())
	}
	return resp, nil
}

// consumableCandidates filters out lots blocked by open recall links, expiry
// or a non-ACTIVE status
func (s *InventoryService) consumableCandidates(ctx context.Context, repos TransactionalRepositories, lots []lot.InventoryLot) ([]lot.InventoryLot, error) {
	if len(lots) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(lots))
	for i := range lots {
		ids = append(ids, lots[i].ID)
	}
	openCases, err := repos.RecallRepo().OpenCaseIDsForLots(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	candidates := make([]lot.InventoryLot, 0, len(lots))
	for i := range lots {
		if block := lot.EvaluateBlock(&lots[i], openCases[lots[i].ID], now); block.Blocks() {
			continue
		}
		candidates = append(candidates, lots[i])
	}
	return candidates, nil
}

// lockConsumableLot loads a lot with a row lock, verifies it matches the
// requested scope and refuses blocked lots
func (s *InventoryService) lockConsumableLot(ctx context.Context, repos TransactionalRepositories, branchID, itemID, locationID, lotID uuid.UUID) (*lot.InventoryLot, error) {
	l, err := repos.LotRepo().FindByIDForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if l.BranchID != branchID || l.LocationID != locationID {
		return nil, shared.ErrLocationMismatch
	}
	if l.ItemID != itemID {
		return nil, shared.NewDomainError("ITEM_MISMATCH",
			fmt.Sprintf("Lot %s does not hold item %s", lotID, itemID))
	}

	openCases, err := repos.RecallRepo().OpenCaseIDsForLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if block := lot.EvaluateBlock(l, openCases, s.now()); block.Blocks() {
		return nil, block.Err()
	}
	return l, nil
}

// applyAndSave executes the plan against the live lot rows and persists them
func (s *InventoryService) applyAndSave(ctx context.Context, repos TransactionalRepositories, lots []lot.InventoryLot, plan *lot.AllocationPlan) error {
	ptrs := make([]*lot.InventoryLot, 0, len(lots))
	for i := range lots {
		ptrs = append(ptrs, &lots[i])
	}
	if err := lot.ApplyPlan(ptrs, plan); err != nil {
		return err
	}

	touched := make([]*lot.InventoryLot, 0, len(plan.Takes))
	byID := make(map[uuid.UUID]*lot.InventoryLot, len(ptrs))
	for _, p := range ptrs {
		byID[p.ID] = p
	}
	for _, take := range plan.Takes {
		touched = append(touched, byID[take.LotID])
	}
	if len(touched) == 0 {
		return nil
	}
	return repos.LotRepo().SaveAll(ctx, touched)
}

// movementResponse assembles the result DTO for a completed movement
func movementResponse(entries []*ledger.Entry, plan *lot.AllocationPlan) *MovementResponse {
	resp := &MovementResponse{
		EntryIDs:  make([]uuid.UUID, 0, len(entries)),
		Takes:     ToLotTakeResponses(plan.Takes),
		TotalQty:  decimal.Zero,
		TotalCost: plan.TotalCost,
	}
	for _, e := range entries {
		resp.EntryIDs = append(resp.EntryIDs, e.ID)
		resp.TotalQty = resp.TotalQty.Add(e.QtyDelta)
		resp.OccurredAt = e.OccurredAt
	}
	return resp
}

// markProcessed records the retry key in the fast-path store, best effort
func (s *InventoryService) markProcessed(ctx context.Context, sourceType ledger.SourceType, sourceID string) {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled {
		return
	}
	_, _ = s.idempotency.MarkProcessed(ctx, retryKey(sourceType, sourceID), s.idempotencyCfg.TTL)
}

// publishEvents publishes domain events, best effort
func (s *InventoryService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
