package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(t *testing.T, qty decimal.Decimal, reason MovementReason, sourceType SourceType) *Entry {
	t.Helper()
	entry, err := NewEntry(uuid.New(), uuid.New(), uuid.New(), uuid.New(), qty, reason, sourceType, "SRC-1")
	require.NoError(t, err)
	return entry
}

func TestMovementReason(t *testing.T) {
	t.Run("IsValid accepts every declared reason", func(t *testing.T) {
		for _, reason := range AllMovementReasons() {
			assert.True(t, reason.IsValid(), reason.String())
		}
	})

	t.Run("IsValid rejects unknown reason", func(t *testing.T) {
		assert.False(t, MovementReason("SHRINKAGE").IsValid())
	})

	t.Run("each reason has exactly one sign class", func(t *testing.T) {
		for _, reason := range AllMovementReasons() {
			classes := 0
			if reason.IsInbound() {
				classes++
			}
			if reason.IsOutbound() {
				classes++
			}
			if reason.IsSigned() {
				classes++
			}
			assert.Equal(t, 1, classes, reason.String())
		}
	})
}

func TestNewEntry(t *testing.T) {
	orgID := uuid.New()
	branchID := uuid.New()
	itemID := uuid.New()
	locationID := uuid.New()

	t.Run("creates a valid inbound entry", func(t *testing.T) {
		entry, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.NewFromInt(10), ReasonReceive, SourceTypeReceipt, "PO-1")
		require.NoError(t, err)
		assert.True(t, entry.QtyDelta.Equal(decimal.NewFromInt(10)))
		assert.False(t, entry.HasLot())
		assert.False(t, entry.OccurredAt.IsZero())
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		_, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.Zero, ReasonAdjustment, SourceTypeManualAdjustment, "ADJ-1")
		assert.Error(t, err)
	})

	t.Run("rejects negative delta for inbound reason", func(t *testing.T) {
		_, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.NewFromInt(-5), ReasonReceive, SourceTypeReceipt, "PO-1")
		assert.Error(t, err)
	})

	t.Run("rejects positive delta for outbound reason", func(t *testing.T) {
		_, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.NewFromInt(5), ReasonWaste, SourceTypeWaste, "W-1")
		assert.Error(t, err)
	})

	t.Run("signed reasons accept either sign", func(t *testing.T) {
		_, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.NewFromInt(-5), ReasonAdjustment, SourceTypeManualAdjustment, "ADJ-1")
		assert.NoError(t, err)

		_, err = NewEntry(orgID, branchID, itemID, locationID,
			decimal.NewFromInt(5), ReasonAdjustment, SourceTypeManualAdjustment, "ADJ-2")
		assert.NoError(t, err)
	})

	t.Run("rejects empty source ID", func(t *testing.T) {
		_, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.NewFromInt(5), ReasonReceive, SourceTypeReceipt, "")
		assert.Error(t, err)
	})

	t.Run("rounds delta to the quantity scale", func(t *testing.T) {
		entry, err := NewEntry(orgID, branchID, itemID, locationID,
			decimal.RequireFromString("1.23456789"), ReasonReceive, SourceTypeReceipt, "PO-2")
		require.NoError(t, err)
		assert.Equal(t, "1.234568", entry.QtyDelta.String())
	})
}

func TestEntryBuilders(t *testing.T) {
	entry := newTestEntry(t, decimal.NewFromInt(4), ReasonReceive, SourceTypeReceipt)

	t.Run("WithLotID ties the entry to a lot", func(t *testing.T) {
		lotID := uuid.New()
		entry.WithLotID(lotID)
		assert.True(t, entry.HasLot())
		assert.Equal(t, lotID, entry.LotID)
	})

	t.Run("WithUnitCost records a rounded cost", func(t *testing.T) {
		entry.WithUnitCost(decimal.RequireFromString("2.9999999"))
		require.NotNil(t, entry.UnitCostAtTime)
		assert.Equal(t, "3", entry.UnitCostAtTime.String())
	})

	t.Run("WithOccurredAt overrides the timestamp", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		entry.WithOccurredAt(at)
		assert.True(t, entry.OccurredAt.Equal(at))
	})
}

func TestEntryReversal(t *testing.T) {
	entry := newTestEntry(t, decimal.NewFromInt(-7), ReasonWaste, SourceTypeWaste)
	entry.WithLotID(uuid.New())
	entry.WithUnitCost(decimal.NewFromInt(3))

	rev := entry.Reversal()

	t.Run("negates the delta exactly", func(t *testing.T) {
		assert.True(t, rev.QtyDelta.Equal(decimal.NewFromInt(7)))
	})

	t.Run("keys the reversal by the reversed entry", func(t *testing.T) {
		assert.Equal(t, SourceTypeReversal, rev.SourceType)
		assert.Equal(t, entry.ID.String(), rev.SourceID)
		assert.Equal(t, ReasonReversal, rev.Reason)
	})

	t.Run("keeps item, location, lot and cost", func(t *testing.T) {
		assert.Equal(t, entry.ItemID, rev.ItemID)
		assert.Equal(t, entry.LocationID, rev.LocationID)
		assert.Equal(t, entry.LotID, rev.LotID)
		require.NotNil(t, rev.UnitCostAtTime)
		assert.True(t, rev.UnitCostAtTime.Equal(*entry.UnitCostAtTime))
	})

	t.Run("reversal and original sum to zero", func(t *testing.T) {
		assert.True(t, entry.QtyDelta.Add(rev.QtyDelta).IsZero())
		assert.True(t, entry.CostValue().Add(rev.CostValue()).IsZero())
	})
}

func TestEntryCostValue(t *testing.T) {
	t.Run("zero when no cost recorded", func(t *testing.T) {
		entry := newTestEntry(t, decimal.NewFromInt(4), ReasonReceive, SourceTypeReceipt)
		assert.True(t, entry.CostValue().IsZero())
	})

	t.Run("delta times unit cost", func(t *testing.T) {
		entry := newTestEntry(t, decimal.NewFromInt(-4), ReasonWaste, SourceTypeWaste)
		entry.WithUnitCost(decimal.RequireFromString("2.5"))
		assert.Equal(t, "-10", entry.CostValue().String())
	})
}
