package lot

import (
	"testing"
	"time"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateLot(t *testing.T, lotNumber string, remaining float64, unitCost float64, expiry *time.Time, createdAt time.Time) InventoryLot {
	t.Helper()
	l := newTestLot(t, decimal.NewFromFloat(remaining), expiry)
	l.LotNumber = lotNumber
	l.UnitCost = decimal.NewFromFloat(unitCost)
	l.CreatedAt = createdAt
	return *l
}

func TestFEFOAllocationStrategy_Plan(t *testing.T) {
	s := NewFEFOAllocationStrategy()
	base := time.Now()

	t.Run("consumes earliest expiry first", func(t *testing.T) {
		far := candidateLot(t, "FAR", 10, 2, timePtr(base.Add(72*time.Hour)), base)
		near := candidateLot(t, "NEAR", 10, 3, timePtr(base.Add(24*time.Hour)), base)

		plan, err := s.Plan(decimal.NewFromInt(12), []InventoryLot{far, near})
		require.NoError(t, err)

		require.Len(t, plan.Takes, 2)
		assert.Equal(t, "NEAR", plan.Takes[0].LotNumber)
		assert.Equal(t, "FAR", plan.Takes[1].LotNumber)
		assert.True(t, plan.Takes[0].QtyTaken.Equal(decimal.NewFromInt(10)))
		assert.True(t, plan.Takes[1].QtyTaken.Equal(decimal.NewFromInt(2)))
		assert.True(t, plan.FullyFulfilled)
		assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(12)))
		// 10 @ 3 + 2 @ 2
		assert.True(t, plan.TotalCost.Equal(decimal.NewFromInt(34)))
		assert.Equal(t, []uuid.UUID{near.ID}, plan.LotsConsumed)
		assert.Equal(t, []uuid.UUID{far.ID}, plan.LotsPartial)
	})

	t.Run("lots without expiry sort last", func(t *testing.T) {
		noExpiry := candidateLot(t, "NOEXP", 10, 1, nil, base)
		dated := candidateLot(t, "DATED", 10, 1, timePtr(base.Add(24*time.Hour)), base.Add(time.Minute))

		plan, err := s.Plan(decimal.NewFromInt(5), []InventoryLot{noExpiry, dated})
		require.NoError(t, err)

		require.Len(t, plan.Takes, 1)
		assert.Equal(t, "DATED", plan.Takes[0].LotNumber)
	})

	t.Run("equal expiry falls back to receipt order", func(t *testing.T) {
		expiry := base.Add(24 * time.Hour)
		newer := candidateLot(t, "NEWER", 10, 1, timePtr(expiry), base.Add(time.Hour))
		older := candidateLot(t, "OLDER", 10, 1, timePtr(expiry), base)

		plan, err := s.Plan(decimal.NewFromInt(5), []InventoryLot{newer, older})
		require.NoError(t, err)

		require.Len(t, plan.Takes, 1)
		assert.Equal(t, "OLDER", plan.Takes[0].LotNumber)
	})

	t.Run("partial fulfillment reports the shortfall", func(t *testing.T) {
		only := candidateLot(t, "ONLY", 4, 1, nil, base)

		plan, err := s.Plan(decimal.NewFromInt(10), []InventoryLot{only})
		require.NoError(t, err)

		assert.False(t, plan.FullyFulfilled)
		assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(4)))
		assert.True(t, plan.RemainingQuantity.Equal(decimal.NewFromInt(6)))
	})

	t.Run("no candidates yields an empty plan", func(t *testing.T) {
		plan, err := s.Plan(decimal.NewFromInt(3), nil)
		require.NoError(t, err)

		assert.Empty(t, plan.Takes)
		assert.False(t, plan.FullyFulfilled)
		assert.True(t, plan.RemainingQuantity.Equal(decimal.NewFromInt(3)))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := s.Plan(decimal.Zero, nil)
		assert.Error(t, err)
	})
}

func TestSpecifiedAllocationStrategy_Plan(t *testing.T) {
	base := time.Now()

	t.Run("allocates from exactly the named lot", func(t *testing.T) {
		target := candidateLot(t, "TARGET", 10, 2, timePtr(base.Add(time.Hour)), base)
		other := candidateLot(t, "OTHER", 10, 2, timePtr(base.Add(time.Minute)), base)

		s := NewSpecifiedAllocationStrategy(target.ID)
		plan, err := s.Plan(decimal.NewFromInt(10), []InventoryLot{other, target})
		require.NoError(t, err)

		require.Len(t, plan.Takes, 1)
		assert.Equal(t, target.ID, plan.Takes[0].LotID)
		assert.True(t, plan.Takes[0].FullyConsumed)
		assert.True(t, plan.FullyFulfilled)
		assert.Equal(t, []uuid.UUID{target.ID}, plan.LotsConsumed)
	})

	t.Run("insufficient quantity in the named lot", func(t *testing.T) {
		target := candidateLot(t, "TARGET", 4, 2, nil, base)

		s := NewSpecifiedAllocationStrategy(target.ID)
		_, err := s.Plan(decimal.NewFromInt(5), []InventoryLot{target})
		assert.ErrorIs(t, err, shared.ErrInsufficientLot)
	})

	t.Run("named lot absent from candidates", func(t *testing.T) {
		s := NewSpecifiedAllocationStrategy(uuid.New())
		_, err := s.Plan(decimal.NewFromInt(1), []InventoryLot{candidateLot(t, "OTHER", 4, 2, nil, base)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestApplyPlan(t *testing.T) {
	t.Run("deducts each take from the live lots", func(t *testing.T) {
		a := newTestLot(t, decimal.NewFromInt(10), nil)
		b := newTestLot(t, decimal.NewFromInt(10), nil)

		plan, err := NewFEFOAllocationStrategy().Plan(decimal.NewFromInt(14), []InventoryLot{*a, *b})
		require.NoError(t, err)

		require.NoError(t, ApplyPlan([]*InventoryLot{a, b}, plan))
		assert.True(t, a.RemainingQty.Add(b.RemainingQty).Equal(decimal.NewFromInt(6)))
		assert.Equal(t, StatusDepleted, a.Status)
	})

	t.Run("fails when a planned lot is missing", func(t *testing.T) {
		a := newTestLot(t, decimal.NewFromInt(10), nil)
		plan, err := NewFEFOAllocationStrategy().Plan(decimal.NewFromInt(5), []InventoryLot{*a})
		require.NoError(t, err)

		err = ApplyPlan([]*InventoryLot{}, plan)
		assert.Error(t, err)
	})

	t.Run("rejects a nil plan", func(t *testing.T) {
		assert.Error(t, ApplyPlan(nil, nil))
	})
}

func TestTotalAvailable(t *testing.T) {
	a := newTestLot(t, decimal.NewFromInt(10), nil)
	b := newTestLot(t, decimal.NewFromInt(3), nil)
	depleted := newTestLot(t, decimal.NewFromInt(5), nil)
	require.NoError(t, depleted.Allocate(decimal.NewFromInt(5)))

	total := TotalAvailable([]InventoryLot{*a, *b, *depleted})
	assert.True(t, total.Equal(decimal.NewFromInt(13)))
}
