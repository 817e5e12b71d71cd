package period_test

import (
	"context"
	"testing"
	"time"

	"github.com/chefstock/backend/internal/application/inventory"
	appperiod "github.com/chefstock/backend/internal/application/period"
	appstocktake "github.com/chefstock/backend/internal/application/stocktake"
	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type periodFixture struct {
	store     *memory.Store
	service   *appperiod.CloseService
	inventory *inventory.InventoryService
	orgID     uuid.UUID
	branchID  uuid.UUID
	itemID    uuid.UUID
	location  uuid.UUID
	jan1      time.Time
	feb1      time.Time
	mar1      time.Time
}

func newPeriodFixture(t *testing.T) *periodFixture {
	t.Helper()
	store := memory.NewStore()
	f := &periodFixture{
		store:     store,
		service:   appperiod.NewCloseService(store.Scope()),
		inventory: inventory.NewInventoryService(store.Scope()),
		orgID:     uuid.New(),
		branchID:  uuid.New(),
		itemID:    uuid.New(),
		location:  uuid.New(),
		jan1:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		feb1:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		mar1:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	return f
}

// move books a receive or waste dated inside the window under test
func (f *periodFixture) move(t *testing.T, sourceID string, qty float64, at time.Time) {
	t.Helper()
	f.inventory.SetClock(func() time.Time { return at })
	if qty > 0 {
		_, err := f.inventory.Receive(context.Background(), f.orgID, f.branchID, inventory.ReceiveStockRequest{
			ItemID:     f.itemID,
			LocationID: f.location,
			Quantity:   decimal.NewFromFloat(qty),
			UnitCost:   decimal.NewFromInt(3),
			LotNumber:  "LOT-" + sourceID,
			SourceID:   sourceID,
		})
		require.NoError(t, err)
		return
	}
	_, err := f.inventory.Waste(context.Background(), f.orgID, f.branchID, inventory.WasteStockRequest{
		ItemID:     f.itemID,
		LocationID: f.location,
		Quantity:   decimal.NewFromFloat(-qty),
		SourceID:   sourceID,
	})
	require.NoError(t, err)
}

func TestCloseService_Close(t *testing.T) {
	t.Run("freezes valuation and movement summary", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.move(t, "po-1", 100, f.jan1.Add(24*time.Hour))
		f.move(t, "waste-1", -20, f.jan1.Add(48*time.Hour))

		resp, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		assert.Equal(t, "CLOSED", resp.Status)
		assert.False(t, resp.AlreadyClosed)
		require.Len(t, resp.Valuation, 1)
		assert.True(t, resp.Valuation[0].QtyOnHand.Equal(decimal.NewFromInt(80)))
		assert.True(t, resp.Valuation[0].UnitCost.Equal(decimal.NewFromInt(3)))
		assert.True(t, resp.TotalValue.Equal(decimal.NewFromInt(240)))

		byReason := make(map[string]appperiod.MovementSummaryRowResponse)
		for _, m := range resp.Movements {
			byReason[m.Reason] = m
		}
		require.Contains(t, byReason, "RECEIVE")
		assert.True(t, byReason["RECEIVE"].Value.Equal(decimal.NewFromInt(300)))
		require.Contains(t, byReason, "WASTE")
		assert.True(t, byReason["WASTE"].QtyDelta.Equal(decimal.NewFromInt(-20)))
		assert.Equal(t, int64(1), byReason["WASTE"].Entries)
	})

	t.Run("repeat close returns the stored result", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.move(t, "po-1", 50, f.jan1.Add(time.Hour))

		first, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		// Movements after the close must not leak into the stored rows.
		f.move(t, "po-2", 10, f.jan1.Add(2*time.Hour))

		second, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		assert.True(t, second.AlreadyClosed)
		assert.Equal(t, first.PeriodID, second.PeriodID)
		assert.True(t, second.TotalValue.Equal(first.TotalValue))
	})

	t.Run("overlapping window is refused", func(t *testing.T) {
		f := newPeriodFixture(t)
		_, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		_, err = f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1.Add(15 * 24 * time.Hour),
			EndDate:   f.mar1,
		})
		assert.ErrorIs(t, err, shared.ErrDuplicatePeriod)
	})

	t.Run("adjacent window closes cleanly", func(t *testing.T) {
		f := newPeriodFixture(t)
		_, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		resp, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.feb1,
			EndDate:   f.mar1,
		})
		require.NoError(t, err)
		assert.Equal(t, "CLOSED", resp.Status)
	})

	t.Run("valuation excludes entries at the window end", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.move(t, "po-1", 10, f.jan1)
		f.move(t, "po-2", 5, f.feb1)

		resp, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		require.Len(t, resp.Valuation, 1)
		assert.True(t, resp.Valuation[0].QtyOnHand.Equal(decimal.NewFromInt(10)))
	})
}

func TestCloseService_CheckBlockers(t *testing.T) {
	t.Run("clear when nothing gates the close", func(t *testing.T) {
		f := newPeriodFixture(t)
		resp, err := f.service.CheckBlockers(context.Background(), f.branchID, f.jan1, f.feb1)
		require.NoError(t, err)
		assert.True(t, resp.Clear)
		assert.Empty(t, resp.Blockers)
	})

	t.Run("reports open stocktakes and overlapping periods", func(t *testing.T) {
		f := newPeriodFixture(t)

		stocktakeService := appstocktake.NewService(f.store.Scope())
		_, err := stocktakeService.Create(context.Background(), f.orgID, f.branchID, appstocktake.CreateSessionRequest{
			LocationID: f.location,
			Lines: []appstocktake.CreateSessionLineRequest{
				{ItemID: f.itemID, UnitCost: decimal.Zero},
			},
		})
		require.NoError(t, err)

		_, err = f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		// The window end sits in the future so the just-created session,
		// stamped with wall-clock time, falls inside it.
		resp, err := f.service.CheckBlockers(context.Background(), f.branchID,
			f.jan1.Add(15*24*time.Hour), time.Now().Add(24*time.Hour))
		require.NoError(t, err)

		assert.False(t, resp.Clear)
		kinds := make([]string, 0, len(resp.Blockers))
		for _, b := range resp.Blockers {
			kinds = append(kinds, b.Kind)
		}
		assert.Contains(t, kinds, "OPEN_STOCKTAKE")
		assert.Contains(t, kinds, "OVERLAPPING_PERIOD")
	})
}

func TestReconciliationService_Reconcile(t *testing.T) {
	t.Run("closed period reconciles against the stored summary", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.move(t, "po-1", 100, f.jan1.Add(time.Hour))
		f.move(t, "waste-1", -20, f.jan1.Add(2*time.Hour))

		closed, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		recon := appperiod.NewReconciliationService(f.store.Scope())
		resp, err := recon.Reconcile(context.Background(), f.branchID, closed.PeriodID, []period.JournalPosting{
			{Category: period.CategoryPurchases, Amount: decimal.NewFromInt(300)},
			{Category: period.CategoryWaste, Amount: decimal.NewFromInt(-60)},
		})
		require.NoError(t, err)

		assert.Equal(t, "BALANCED", resp.Overall)
	})

	t.Run("mismatched journal shows a discrepancy", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.move(t, "po-1", 100, f.jan1.Add(time.Hour))

		closed, err := f.service.Close(context.Background(), f.orgID, f.branchID, appperiod.ClosePeriodRequest{
			StartDate: f.jan1,
			EndDate:   f.feb1,
		})
		require.NoError(t, err)

		recon := appperiod.NewReconciliationService(f.store.Scope())
		resp, err := recon.Reconcile(context.Background(), f.branchID, closed.PeriodID, []period.JournalPosting{
			{Category: period.CategoryPurchases, Amount: decimal.NewFromInt(299)},
		})
		require.NoError(t, err)

		assert.Equal(t, "DISCREPANCY", resp.Overall)
		for _, c := range resp.Categories {
			if c.Category == "PURCHASES" {
				assert.True(t, c.Difference.Equal(decimal.NewFromInt(1)))
			}
		}
	})

	t.Run("unknown period", func(t *testing.T) {
		f := newPeriodFixture(t)
		recon := appperiod.NewReconciliationService(f.store.Scope())
		_, err := recon.Reconcile(context.Background(), f.branchID, uuid.New(), nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
