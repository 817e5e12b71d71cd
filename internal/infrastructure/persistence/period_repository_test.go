package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPeriodTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&period.InventoryPeriod{}, &period.ValuationSnapshot{}, &period.MovementSummary{})
	require.NoError(t, err)

	return db
}

func mustPeriod(t *testing.T, branchID uuid.UUID, start, end time.Time) *period.InventoryPeriod {
	t.Helper()
	p, err := period.NewInventoryPeriod(uuid.New(), branchID, start, end)
	require.NoError(t, err)
	return p
}

func TestGormPeriodRepository_SaveWithRows(t *testing.T) {
	db := setupPeriodTestDB(t)
	repo := NewGormPeriodRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	p := mustPeriod(t, branchID, start, end)
	snapshots := []period.ValuationSnapshot{
		period.NewValuationSnapshot(uuid.New(), uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(2)),
	}
	summary := []period.MovementSummary{
		period.NewMovementSummary(ledger.ReasonTotal{
			Reason:   ledger.ReasonReceive,
			QtyDelta: decimal.NewFromInt(10),
			Value:    decimal.NewFromInt(20),
			Entries:  1,
		}),
	}
	require.NoError(t, p.Close(snapshots, summary))
	require.NoError(t, repo.SaveWithRows(ctx, p))

	t.Run("loads period with rows", func(t *testing.T) {
		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, found.IsClosed())
		require.Len(t, found.Snapshots, 1)
		require.Len(t, found.Summary, 1)
		assert.True(t, found.Snapshots[0].TotalValue.Equal(decimal.NewFromInt(20)))
	})

	t.Run("resave replaces rows instead of appending", func(t *testing.T) {
		require.NoError(t, repo.SaveWithRows(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, found.Snapshots, 1)
		assert.Len(t, found.Summary, 1)
	})

	t.Run("returns not found for unknown period", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPeriodRepository_FindByWindow(t *testing.T) {
	db := setupPeriodTestDB(t)
	repo := NewGormPeriodRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	p := mustPeriod(t, branchID, start, end)
	require.NoError(t, repo.SaveWithRows(ctx, p))

	t.Run("finds the exact window", func(t *testing.T) {
		found, err := repo.FindByWindow(ctx, branchID, start, end)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
	})

	t.Run("different window is not found", func(t *testing.T) {
		_, err := repo.FindByWindow(ctx, branchID, start, end.Add(24*time.Hour))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPeriodRepository_FindOverlapping(t *testing.T) {
	db := setupPeriodTestDB(t)
	repo := NewGormPeriodRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	julStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	augStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sepStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	july := mustPeriod(t, branchID, julStart, augStart)
	require.NoError(t, repo.SaveWithRows(ctx, july))

	t.Run("adjacent windows do not overlap", func(t *testing.T) {
		periods, err := repo.FindOverlapping(ctx, branchID, augStart, sepStart)
		require.NoError(t, err)
		assert.Empty(t, periods)
	})

	t.Run("straddling window overlaps", func(t *testing.T) {
		periods, err := repo.FindOverlapping(ctx, branchID,
			julStart.Add(15*24*time.Hour), sepStart)
		require.NoError(t, err)
		require.Len(t, periods, 1)
		assert.Equal(t, july.ID, periods[0].ID)
	})

	t.Run("other branches are ignored", func(t *testing.T) {
		periods, err := repo.FindOverlapping(ctx, uuid.New(), julStart, sepStart)
		require.NoError(t, err)
		assert.Empty(t, periods)
	})
}
