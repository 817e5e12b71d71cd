package persistence

import (
	"context"
	"testing"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/domain/stocktake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStocktakeTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&stocktake.Session{}, &stocktake.Line{})
	require.NoError(t, err)

	return db
}

func mustSession(t *testing.T, branchID uuid.UUID, sessionNumber string) *stocktake.Session {
	t.Helper()
	s, err := stocktake.NewSession(uuid.New(), branchID, uuid.New(), sessionNumber, false)
	require.NoError(t, err)
	return s
}

func TestGormStocktakeRepository_SaveWithLines(t *testing.T) {
	db := setupStocktakeTestDB(t)
	repo := NewGormStocktakeRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	itemID := uuid.New()

	s := mustSession(t, branchID, "CNT-20260801-001")
	require.NoError(t, s.AddLine(itemID, decimal.NewFromInt(3)))
	require.NoError(t, repo.SaveWithLines(ctx, s))

	t.Run("loads session with its lines", func(t *testing.T) {
		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, stocktake.SessionStatusDraft, found.Status)
		require.Len(t, found.Lines, 1)
		assert.Equal(t, itemID, found.Lines[0].ItemID)
	})

	t.Run("replaces lines on resave", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)

		onHand := []ledger.OnHandRow{
			{ItemID: itemID, LocationID: loaded.LocationID, OnHand: decimal.NewFromInt(12)},
		}
		require.NoError(t, loaded.Start(onHand))
		require.NoError(t, loaded.RecordCount(itemID, decimal.NewFromInt(11)))
		require.NoError(t, repo.SaveWithLines(ctx, loaded))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, stocktake.SessionStatusInProgress, found.Status)
		require.Len(t, found.Lines, 1)
		assert.True(t, found.Lines[0].SnapshotQty.Equal(decimal.NewFromInt(12)))
		require.NotNil(t, found.Lines[0].CountedQty)
		assert.True(t, found.Lines[0].CountedQty.Equal(decimal.NewFromInt(11)))
	})

	t.Run("returns not found for unknown session", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormStocktakeRepository_FindBySessionNumber(t *testing.T) {
	db := setupStocktakeTestDB(t)
	repo := NewGormStocktakeRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	s := mustSession(t, branchID, "CNT-20260802-001")
	require.NoError(t, repo.SaveWithLines(ctx, s))

	found, err := repo.FindBySessionNumber(ctx, branchID, "CNT-20260802-001")
	require.NoError(t, err)
	assert.Equal(t, s.ID, found.ID)

	_, err = repo.FindBySessionNumber(ctx, uuid.New(), "CNT-20260802-001")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStocktakeRepository_FindOpenByBranch(t *testing.T) {
	db := setupStocktakeTestDB(t)
	repo := NewGormStocktakeRepository(db)
	ctx := context.Background()

	branchID := uuid.New()

	open := mustSession(t, branchID, "CNT-20260803-001")
	require.NoError(t, repo.SaveWithLines(ctx, open))

	voided := mustSession(t, branchID, "CNT-20260803-002")
	require.NoError(t, voided.MarkVoid())
	require.NoError(t, repo.SaveWithLines(ctx, voided))

	otherBranch := mustSession(t, uuid.New(), "CNT-20260803-001")
	require.NoError(t, repo.SaveWithLines(ctx, otherBranch))

	sessions, err := repo.FindOpenByBranch(ctx, branchID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, open.ID, sessions[0].ID)
}

func TestGormStocktakeRepository_CountByBranchAndPrefix(t *testing.T) {
	db := setupStocktakeTestDB(t)
	repo := NewGormStocktakeRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	require.NoError(t, repo.SaveWithLines(ctx, mustSession(t, branchID, "CNT-20260804-001")))
	require.NoError(t, repo.SaveWithLines(ctx, mustSession(t, branchID, "CNT-20260804-002")))
	require.NoError(t, repo.SaveWithLines(ctx, mustSession(t, branchID, "CNT-20260805-001")))

	count, err := repo.CountByBranchAndPrefix(ctx, branchID, "CNT-20260804-")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountByBranchAndPrefix(ctx, uuid.New(), "CNT-20260804-")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
