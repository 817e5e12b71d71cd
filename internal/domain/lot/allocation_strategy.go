package lot

import (
	"sort"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStrategyType defines the type of lot allocation strategy
type AllocationStrategyType string

const (
	// AllocationStrategyTypeFEFO uses First Expire First Out (earliest expiry first, nil expiry last)
	AllocationStrategyTypeFEFO AllocationStrategyType = "FEFO"
	// AllocationStrategyTypeSpecified allocates from a single caller-named lot
	AllocationStrategyTypeSpecified AllocationStrategyType = "SPECIFIED"
)

// IsValid checks if the strategy type is valid
func (t AllocationStrategyType) IsValid() bool {
	switch t {
	case AllocationStrategyTypeFEFO, AllocationStrategyTypeSpecified:
		return true
	}
	return false
}

// String returns the string representation
func (t AllocationStrategyType) String() string {
	return string(t)
}

// LotTake is one lot's share of an allocation plan
type LotTake struct {
	LotID          uuid.UUID
	LotNumber      string
	QtyTaken       decimal.Decimal
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
	RemainingInLot decimal.Decimal
	FullyConsumed  bool
}

// AllocationPlan is the complete result of planning an allocation across lots
type AllocationPlan struct {
	Takes             []LotTake
	TotalAllocated    decimal.Decimal
	TotalCost         decimal.Decimal
	RemainingQuantity decimal.Decimal
	FullyFulfilled    bool
	LotsConsumed      []uuid.UUID
	LotsPartial       []uuid.UUID
}

// AllocationStrategy is the interface for lot allocation strategies
type AllocationStrategy interface {
	strategy.Strategy
	// StrategyType returns the allocation strategy type
	StrategyType() AllocationStrategyType
	// Plan calculates which lots to consume and how much to take from each.
	// Lots that are blocked (recall, expiry, non-ACTIVE status) must be
	// excluded by the caller before planning; Plan only sees candidates.
	Plan(requestedQty decimal.Decimal, candidates []InventoryLot) (*AllocationPlan, error)
}

// FEFOAllocationStrategy consumes lots in expiry order so the stock closest to
// expiring leaves first. Lots without an expiry date sort last, tied lots fall
// back to receipt order.
type FEFOAllocationStrategy struct {
	strategy.BaseStrategy
}

// NewFEFOAllocationStrategy creates a new FEFO allocation strategy
func NewFEFOAllocationStrategy() *FEFOAllocationStrategy {
	return &FEFOAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fefo_allocation",
			strategy.StrategyTypeAllocation,
			"FEFO allocation strategy - consumes lots closest to expiry first, nil expiry last",
		),
	}
}

// StrategyType returns the allocation strategy type
func (s *FEFOAllocationStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyTypeFEFO
}

// Plan selects lots in FEFO order
func (s *FEFOAllocationStrategy) Plan(requestedQty decimal.Decimal, candidates []InventoryLot) (*AllocationPlan, error) {
	if requestedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	available := filterWithStock(candidates)
	if len(available) == 0 {
		return emptyPlan(requestedQty), nil
	}

	sorted := make([]InventoryLot, len(available))
	copy(sorted, available)
	sort.Slice(sorted, func(i, j int) bool {
		// Expiry first; lots without expiry go last
		if sorted[i].ExpiryDate != nil && sorted[j].ExpiryDate != nil {
			if !sorted[i].ExpiryDate.Equal(*sorted[j].ExpiryDate) {
				return sorted[i].ExpiryDate.Before(*sorted[j].ExpiryDate)
			}
		} else if sorted[i].ExpiryDate != nil {
			return true
		} else if sorted[j].ExpiryDate != nil {
			return false
		}
		// Fall back to receipt order
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	return buildPlan(requestedQty, sorted), nil
}

// SpecifiedAllocationStrategy allocates from a single lot the caller named,
// used by vendor returns and transfers that identify the physical lot.
type SpecifiedAllocationStrategy struct {
	strategy.BaseStrategy
	lotID uuid.UUID
}

// NewSpecifiedAllocationStrategy creates a new specified-lot allocation strategy
func NewSpecifiedAllocationStrategy(lotID uuid.UUID) *SpecifiedAllocationStrategy {
	return &SpecifiedAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"specified_allocation",
			strategy.StrategyTypeAllocation,
			"Specified allocation strategy - consumes exactly the caller-named lot",
		),
		lotID: lotID,
	}
}

// StrategyType returns the allocation strategy type
func (s *SpecifiedAllocationStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyTypeSpecified
}

// LotID returns the configured lot ID
func (s *SpecifiedAllocationStrategy) LotID() uuid.UUID {
	return s.lotID
}

// Plan allocates the full requested quantity from the named lot or nothing
func (s *SpecifiedAllocationStrategy) Plan(requestedQty decimal.Decimal, candidates []InventoryLot) (*AllocationPlan, error) {
	if requestedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	for i := range candidates {
		if candidates[i].ID != s.lotID {
			continue
		}
		l := candidates[i]
		if requestedQty.GreaterThan(l.RemainingQty) {
			return nil, shared.ErrInsufficientLot
		}
		remainingInLot := l.RemainingQty.Sub(requestedQty)
		take := LotTake{
			LotID:          l.ID,
			LotNumber:      l.LotNumber,
			QtyTaken:       requestedQty,
			UnitCost:       l.UnitCost,
			TotalCost:      requestedQty.Mul(l.UnitCost).Round(ledger.QuantityScale),
			RemainingInLot: remainingInLot,
			FullyConsumed:  remainingInLot.IsZero(),
		}
		plan := &AllocationPlan{
			Takes:             []LotTake{take},
			TotalAllocated:    requestedQty,
			TotalCost:         take.TotalCost,
			RemainingQuantity: decimal.Zero,
			FullyFulfilled:    true,
			LotsConsumed:      make([]uuid.UUID, 0, 1),
			LotsPartial:       make([]uuid.UUID, 0, 1),
		}
		if take.FullyConsumed {
			plan.LotsConsumed = append(plan.LotsConsumed, l.ID)
		} else {
			plan.LotsPartial = append(plan.LotsPartial, l.ID)
		}
		return plan, nil
	}

	return nil, shared.ErrNotFound
}

// filterWithStock returns lots that still carry quantity
func filterWithStock(lots []InventoryLot) []InventoryLot {
	available := make([]InventoryLot, 0, len(lots))
	for _, l := range lots {
		if l.HasStock() {
			available = append(available, l)
		}
	}
	return available
}

// emptyPlan is the result when no candidate lot carries stock
func emptyPlan(requestedQty decimal.Decimal) *AllocationPlan {
	return &AllocationPlan{
		Takes:             make([]LotTake, 0),
		TotalAllocated:    decimal.Zero,
		TotalCost:         decimal.Zero,
		RemainingQuantity: requestedQty,
		FullyFulfilled:    false,
		LotsConsumed:      make([]uuid.UUID, 0),
		LotsPartial:       make([]uuid.UUID, 0),
	}
}

// buildPlan greedily consumes sorted lots until the request is satisfied
func buildPlan(requestedQty decimal.Decimal, sorted []InventoryLot) *AllocationPlan {
	takes := make([]LotTake, 0)
	consumed := make([]uuid.UUID, 0)
	partial := make([]uuid.UUID, 0)
	remaining := requestedQty
	totalAllocated := decimal.Zero
	totalCost := decimal.Zero

	for _, l := range sorted {
		if remaining.IsZero() {
			break
		}
		if l.RemainingQty.LessThanOrEqual(decimal.Zero) {
			continue
		}

		qtyTaken := decimal.Min(remaining, l.RemainingQty)
		remainingInLot := l.RemainingQty.Sub(qtyTaken)
		fullyConsumed := remainingInLot.IsZero()
		lotCost := qtyTaken.Mul(l.UnitCost).Round(ledger.QuantityScale)

		takes = append(takes, LotTake{
			LotID:          l.ID,
			LotNumber:      l.LotNumber,
			QtyTaken:       qtyTaken,
			UnitCost:       l.UnitCost,
			TotalCost:      lotCost,
			RemainingInLot: remainingInLot,
			FullyConsumed:  fullyConsumed,
		})

		totalAllocated = totalAllocated.Add(qtyTaken)
		totalCost = totalCost.Add(lotCost)
		remaining = remaining.Sub(qtyTaken)

		if fullyConsumed {
			consumed = append(consumed, l.ID)
		} else {
			partial = append(partial, l.ID)
		}
	}

	return &AllocationPlan{
		Takes:             takes,
		TotalAllocated:    totalAllocated,
		TotalCost:         totalCost,
		RemainingQuantity: remaining,
		FullyFulfilled:    remaining.IsZero(),
		LotsConsumed:      consumed,
		LotsPartial:       partial,
	}
}

// ApplyPlan executes a plan against the live lot entities, deducting each take
// exactly. It fails if any planned lot is missing or the deduction would not
// be exact, which indicates the candidate set changed between plan and apply.
func ApplyPlan(lots []*InventoryLot, plan *AllocationPlan) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_PLAN", "Allocation plan cannot be nil")
	}

	byID := make(map[uuid.UUID]*InventoryLot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}

	for _, take := range plan.Takes {
		l, ok := byID[take.LotID]
		if !ok {
			return shared.NewDomainError("LOT_NOT_FOUND", "Lot not found: "+take.LotID.String())
		}
		if err := l.Allocate(take.QtyTaken); err != nil {
			return err
		}
	}

	return nil
}

// TotalAvailable sums remaining quantity over allocatable lots
func TotalAvailable(lots []InventoryLot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l.HasStock() {
			total = total.Add(l.RemainingQty)
		}
	}
	return total
}
