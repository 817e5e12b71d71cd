package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&ledger.Entry{})
	require.NoError(t, err)

	return db
}

func mustEntry(t *testing.T, branchID, itemID, locationID uuid.UUID, qty decimal.Decimal, reason ledger.MovementReason, sourceType ledger.SourceType, sourceID string) *ledger.Entry {
	t.Helper()
	entry, err := ledger.NewEntry(uuid.New(), branchID, itemID, locationID, qty, reason, sourceType, sourceID)
	require.NoError(t, err)
	return entry
}

func TestGormLedgerEntryRepository_Append(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()

	t.Run("appends and finds an entry", func(t *testing.T) {
		branchID := uuid.New()
		entry := mustEntry(t, branchID, uuid.New(), uuid.New(),
			decimal.NewFromInt(10), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-100")
		entry.WithUnitCost(decimal.NewFromFloat(2.5))

		require.NoError(t, repo.Append(ctx, entry))

		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, found.ID)
		assert.True(t, found.QtyDelta.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, ledger.ReasonReceive, found.Reason)
	})

	t.Run("rejects a second entry for the same source slot", func(t *testing.T) {
		branchID := uuid.New()
		itemID := uuid.New()
		locationID := uuid.New()

		first := mustEntry(t, branchID, itemID, locationID,
			decimal.NewFromInt(5), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-DUP")
		require.NoError(t, repo.Append(ctx, first))

		second := mustEntry(t, branchID, itemID, locationID,
			decimal.NewFromInt(5), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-DUP")
		err := repo.Append(ctx, second)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("returns not found for unknown ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormLedgerEntryRepository_FindBySource(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	locationID := uuid.New()

	entryA := mustEntry(t, branchID, itemA, locationID,
		decimal.NewFromInt(-3), ledger.ReasonTransferOut, ledger.SourceTypeTransfer, "TRF-1")
	entryB := mustEntry(t, branchID, itemB, locationID,
		decimal.NewFromInt(3), ledger.ReasonTransferIn, ledger.SourceTypeTransfer, "TRF-1")
	require.NoError(t, repo.AppendAll(ctx, []*ledger.Entry{entryA, entryB}))

	t.Run("finds all entries for one source", func(t *testing.T) {
		entries, err := repo.FindBySource(ctx, ledger.SourceTypeTransfer, "TRF-1")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("reports existence by source", func(t *testing.T) {
		exists, err := repo.ExistsBySource(ctx, ledger.SourceTypeTransfer, "TRF-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySource(ctx, ledger.SourceTypeTransfer, "TRF-MISSING")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormLedgerEntryRepository_OnHand(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	itemID := uuid.New()
	locationID := uuid.New()
	otherLocation := uuid.New()

	seed := []*ledger.Entry{
		mustEntry(t, branchID, itemID, locationID, decimal.NewFromInt(100), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-1"),
		mustEntry(t, branchID, itemID, locationID, decimal.NewFromInt(-30), ledger.ReasonWaste, ledger.SourceTypeWaste, "W-1"),
		mustEntry(t, branchID, itemID, otherLocation, decimal.NewFromInt(50), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-2"),
	}
	require.NoError(t, repo.AppendAll(ctx, seed))

	t.Run("sums deltas for one item and location", func(t *testing.T) {
		onHand, err := repo.OnHand(ctx, branchID, itemID, locationID)
		require.NoError(t, err)
		assert.True(t, onHand.Equal(decimal.NewFromInt(70)), "got %s", onHand)
	})

	t.Run("returns zero when no entries exist", func(t *testing.T) {
		onHand, err := repo.OnHand(ctx, branchID, uuid.New(), locationID)
		require.NoError(t, err)
		assert.True(t, onHand.IsZero())
	})

	t.Run("groups by item for a location", func(t *testing.T) {
		rows, err := repo.OnHandByLocation(ctx, branchID, locationID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, itemID, rows[0].ItemID)
		assert.True(t, rows[0].OnHand.Equal(decimal.NewFromInt(70)))
	})

	t.Run("groups by item and location across the branch", func(t *testing.T) {
		rows, err := repo.OnHandByBranch(ctx, branchID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("asOf excludes later entries", func(t *testing.T) {
		rows, err := repo.OnHandByBranch(ctx, branchID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestGormLedgerEntryRepository_SumByReasonInRange(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	itemID := uuid.New()
	locationID := uuid.New()

	receive := mustEntry(t, branchID, itemID, locationID,
		decimal.NewFromInt(20), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-10")
	receive.WithUnitCost(decimal.NewFromInt(3))
	waste := mustEntry(t, branchID, itemID, locationID,
		decimal.NewFromInt(-4), ledger.ReasonWaste, ledger.SourceTypeWaste, "W-10")
	waste.WithUnitCost(decimal.NewFromInt(3))
	require.NoError(t, repo.AppendAll(ctx, []*ledger.Entry{receive, waste}))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	totals, err := repo.SumByReasonInRange(ctx, branchID, from, to)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byReason := make(map[ledger.MovementReason]ledger.ReasonTotal, len(totals))
	for _, total := range totals {
		byReason[total.Reason] = total
	}

	assert.True(t, byReason[ledger.ReasonReceive].QtyDelta.Equal(decimal.NewFromInt(20)))
	assert.True(t, byReason[ledger.ReasonReceive].Value.Equal(decimal.NewFromInt(60)))
	assert.EqualValues(t, 1, byReason[ledger.ReasonReceive].Entries)
	assert.True(t, byReason[ledger.ReasonWaste].QtyDelta.Equal(decimal.NewFromInt(-4)))
	assert.True(t, byReason[ledger.ReasonWaste].Value.Equal(decimal.NewFromInt(-12)))
}

func TestGormLedgerEntryRepository_MovementsInRange(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	entry := mustEntry(t, branchID, uuid.New(), uuid.New(),
		decimal.NewFromInt(7), ledger.ReasonReceive, ledger.SourceTypeReceipt, "PO-20")
	require.NoError(t, repo.Append(ctx, entry))

	inRange, err := repo.MovementsInRange(ctx, branchID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	outOfRange, err := repo.MovementsInRange(ctx, branchID, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, outOfRange)
}
