package stocktake_test

import (
	"context"
	"testing"
	"time"

	"github.com/chefstock/backend/internal/application/inventory"
	"github.com/chefstock/backend/internal/application/stocktake"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stocktakeFixture struct {
	store     *memory.Store
	service   *stocktake.Service
	inventory *inventory.InventoryService
	orgID     uuid.UUID
	branchID  uuid.UUID
	location  uuid.UUID
	itemID    uuid.UUID
	now       time.Time
}

func newStocktakeFixture(t *testing.T) *stocktakeFixture {
	t.Helper()
	store := memory.NewStore()
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	service := stocktake.NewService(store.Scope())
	service.SetClock(func() time.Time { return now })

	inventoryService := inventory.NewInventoryService(store.Scope())
	inventoryService.SetClock(func() time.Time { return now })

	return &stocktakeFixture{
		store:     store,
		service:   service,
		inventory: inventoryService,
		orgID:     uuid.New(),
		branchID:  uuid.New(),
		location:  uuid.New(),
		itemID:    uuid.New(),
		now:       now,
	}
}

func (f *stocktakeFixture) stock(t *testing.T, sourceID string, qty float64) {
	t.Helper()
	_, err := f.inventory.Receive(context.Background(), f.orgID, f.branchID, inventory.ReceiveStockRequest{
		ItemID:     f.itemID,
		LocationID: f.location,
		Quantity:   decimal.NewFromFloat(qty),
		UnitCost:   decimal.NewFromInt(2),
		LotNumber:  "LOT-" + sourceID,
		SourceID:   sourceID,
	})
	require.NoError(t, err)
}

func (f *stocktakeFixture) create(t *testing.T, blind bool) *stocktake.SessionResponse {
	t.Helper()
	resp, err := f.service.Create(context.Background(), f.orgID, f.branchID, stocktake.CreateSessionRequest{
		LocationID: f.location,
		BlindCount: blind,
		Lines: []stocktake.CreateSessionLineRequest{
			{ItemID: f.itemID, UnitCost: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	return resp
}

func (f *stocktakeFixture) approvedSession(t *testing.T, countedQty float64) *stocktake.SessionResponse {
	t.Helper()
	created := f.create(t, false)
	_, err := f.service.Start(context.Background(), f.branchID, created.ID)
	require.NoError(t, err)
	_, err = f.service.RecordCount(context.Background(), f.branchID, created.ID, stocktake.RecordCountRequest{
		ItemID:     f.itemID,
		CountedQty: decimal.NewFromFloat(countedQty),
	})
	require.NoError(t, err)
	_, err = f.service.Submit(context.Background(), f.branchID, created.ID)
	require.NoError(t, err)
	resp, err := f.service.Approve(context.Background(), f.branchID, created.ID, stocktake.ApproveSessionRequest{
		ApproverID: uuid.New(),
	})
	require.NoError(t, err)
	return resp
}

func (f *stocktakeFixture) onHand(t *testing.T) decimal.Decimal {
	t.Helper()
	qty, err := f.inventory.OnHand(context.Background(), f.branchID, f.itemID, f.location)
	require.NoError(t, err)
	return qty
}

func TestStocktakeService_Create(t *testing.T) {
	t.Run("numbers sessions per branch and day", func(t *testing.T) {
		f := newStocktakeFixture(t)

		first := f.create(t, false)
		assert.Equal(t, "CNT-20260410-001", first.SessionNumber)
		assert.Equal(t, "DRAFT", first.Status)
		assert.Equal(t, 1, first.TotalLines)

		other, err := f.service.Create(context.Background(), f.orgID, f.branchID, stocktake.CreateSessionRequest{
			LocationID: f.location,
			Lines: []stocktake.CreateSessionLineRequest{
				{ItemID: uuid.New(), UnitCost: decimal.Zero},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "CNT-20260410-002", other.SessionNumber)
	})

	t.Run("rejects duplicate items", func(t *testing.T) {
		f := newStocktakeFixture(t)
		_, err := f.service.Create(context.Background(), f.orgID, f.branchID, stocktake.CreateSessionRequest{
			LocationID: f.location,
			Lines: []stocktake.CreateSessionLineRequest{
				{ItemID: f.itemID, UnitCost: decimal.Zero},
				{ItemID: f.itemID, UnitCost: decimal.Zero},
			},
		})
		assert.Error(t, err)
	})
}

func TestStocktakeService_Start(t *testing.T) {
	t.Run("freezes the ledger on-hand into the lines", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)
		created := f.create(t, false)

		started, err := f.service.Start(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)

		assert.Equal(t, "IN_PROGRESS", started.Status)
		require.NotNil(t, started.Lines[0].SnapshotQty)
		assert.True(t, started.Lines[0].SnapshotQty.Equal(decimal.NewFromInt(25)))

		// Movements after the start do not move the frozen snapshot.
		f.stock(t, "po-2", 10)
		reloaded, err := f.service.GetByID(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.Lines[0].SnapshotQty.Equal(decimal.NewFromInt(25)))
	})

	t.Run("wrong branch", func(t *testing.T) {
		f := newStocktakeFixture(t)
		created := f.create(t, false)
		_, err := f.service.Start(context.Background(), uuid.New(), created.ID)
		assert.ErrorIs(t, err, shared.ErrLocationMismatch)
	})
}

func TestStocktakeService_BlindCount(t *testing.T) {
	f := newStocktakeFixture(t)
	f.stock(t, "po-1", 25)
	created := f.create(t, true)

	started, err := f.service.Start(context.Background(), f.branchID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, started.Lines[0].SnapshotQty)
	assert.Nil(t, started.Lines[0].Variance)

	counted, err := f.service.RecordCount(context.Background(), f.branchID, created.ID, stocktake.RecordCountRequest{
		ItemID:     f.itemID,
		CountedQty: decimal.NewFromInt(23),
	})
	require.NoError(t, err)
	assert.Nil(t, counted.Lines[0].SnapshotQty)

	submitted, err := f.service.Submit(context.Background(), f.branchID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, submitted.Lines[0].SnapshotQty)
	assert.True(t, submitted.Lines[0].SnapshotQty.Equal(decimal.NewFromInt(25)))
	require.NotNil(t, submitted.Lines[0].Variance)
	assert.True(t, submitted.Lines[0].Variance.Equal(decimal.NewFromInt(-2)))
}

func TestStocktakeService_Post(t *testing.T) {
	t.Run("posts the variance to the ledger", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)
		session := f.approvedSession(t, 22)

		resp, err := f.service.Post(context.Background(), f.branchID, session.ID)
		require.NoError(t, err)

		assert.Equal(t, "POSTED", resp.Status)
		assert.Equal(t, 1, resp.LedgerEntriesCreated)
		assert.False(t, resp.AlreadyPosted)
		assert.True(t, f.onHand(t).Equal(decimal.NewFromInt(22)))
	})

	t.Run("repeat post is an idempotent success", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)
		session := f.approvedSession(t, 22)

		_, err := f.service.Post(context.Background(), f.branchID, session.ID)
		require.NoError(t, err)

		second, err := f.service.Post(context.Background(), f.branchID, session.ID)
		require.NoError(t, err)
		assert.True(t, second.AlreadyPosted)
		assert.Equal(t, 1, second.LedgerEntriesCreated)
		assert.True(t, f.onHand(t).Equal(decimal.NewFromInt(22)))
	})

	t.Run("exact count posts no entries", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)
		session := f.approvedSession(t, 25)

		resp, err := f.service.Post(context.Background(), f.branchID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.LedgerEntriesCreated)
		assert.True(t, f.onHand(t).Equal(decimal.NewFromInt(25)))
	})

	t.Run("cannot post before approval", func(t *testing.T) {
		f := newStocktakeFixture(t)
		created := f.create(t, false)
		_, err := f.service.Post(context.Background(), f.branchID, created.ID)
		assert.Error(t, err)
	})
}

func TestStocktakeService_Void(t *testing.T) {
	t.Run("void after post reverses the variance entries", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)
		session := f.approvedSession(t, 22)
		_, err := f.service.Post(context.Background(), f.branchID, session.ID)
		require.NoError(t, err)
		require.True(t, f.onHand(t).Equal(decimal.NewFromInt(22)))

		resp, err := f.service.Void(context.Background(), f.branchID, session.ID)
		require.NoError(t, err)

		assert.Equal(t, "VOID", resp.Status)
		assert.Equal(t, 1, resp.ReversalEntriesCreated)
		assert.True(t, f.onHand(t).Equal(decimal.NewFromInt(25)))
	})

	t.Run("void before post has no ledger effect", func(t *testing.T) {
		f := newStocktakeFixture(t)
		created := f.create(t, false)

		resp, err := f.service.Void(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.ReversalEntriesCreated)
	})

	t.Run("void is terminal", func(t *testing.T) {
		f := newStocktakeFixture(t)
		created := f.create(t, false)
		_, err := f.service.Void(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)

		_, err = f.service.Void(context.Background(), f.branchID, created.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestStocktakeService_ListOpen(t *testing.T) {
	f := newStocktakeFixture(t)
	f.stock(t, "po-1", 25)

	open := f.create(t, false)
	posted := f.approvedSession(t, 25)
	_, err := f.service.Post(context.Background(), f.branchID, posted.ID)
	require.NoError(t, err)

	voided := f.create(t, false)
	_, err = f.service.Void(context.Background(), f.branchID, voided.ID)
	require.NoError(t, err)

	sessions, err := f.service.ListOpen(context.Background(), f.branchID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, open.ID, sessions[0].ID)
}

func TestStocktakeService_DerivedLines(t *testing.T) {
	lineFor := func(lines []stocktake.LineResponse, itemID uuid.UUID) *stocktake.LineResponse {
		for i := range lines {
			if lines[i].ItemID == itemID {
				return &lines[i]
			}
		}
		return nil
	}

	t.Run("covers every item the ledger knows at the location", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)

		secondItem := uuid.New()
		for _, r := range []struct {
			sourceID string
			qty      int64
			cost     int64
		}{{"po-2", 10, 3}, {"po-3", 30, 5}} {
			_, err := f.inventory.Receive(context.Background(), f.orgID, f.branchID, inventory.ReceiveStockRequest{
				ItemID:     secondItem,
				LocationID: f.location,
				Quantity:   decimal.NewFromInt(r.qty),
				UnitCost:   decimal.NewFromInt(r.cost),
				LotNumber:  "LOT-" + r.sourceID,
				SourceID:   r.sourceID,
			})
			require.NoError(t, err)
		}

		// An item at another location must not leak into this session.
		_, err := f.inventory.Receive(context.Background(), f.orgID, f.branchID, inventory.ReceiveStockRequest{
			ItemID:     uuid.New(),
			LocationID: uuid.New(),
			Quantity:   decimal.NewFromInt(5),
			UnitCost:   decimal.NewFromInt(1),
			LotNumber:  "LOT-elsewhere",
			SourceID:   "po-elsewhere",
		})
		require.NoError(t, err)

		created, err := f.service.Create(context.Background(), f.orgID, f.branchID, stocktake.CreateSessionRequest{
			LocationID: f.location,
		})
		require.NoError(t, err)

		require.Equal(t, 2, created.TotalLines)
		require.NotNil(t, lineFor(created.Lines, f.itemID))

		second := lineFor(created.Lines, secondItem)
		require.NotNil(t, second)
		// 10@3 + 30@5 across the remaining lots averages to 4.5.
		assert.True(t, second.UnitCost.Equal(decimal.NewFromFloat(4.5)),
			"derived unit cost should be the lot-weighted average, got %s", second.UnitCost)
	})

	t.Run("requested lines add items beyond the ledger set", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)

		newItem := uuid.New()
		created, err := f.service.Create(context.Background(), f.orgID, f.branchID, stocktake.CreateSessionRequest{
			LocationID: f.location,
			Lines: []stocktake.CreateSessionLineRequest{
				{ItemID: newItem, UnitCost: decimal.NewFromInt(7)},
			},
		})
		require.NoError(t, err)

		require.Equal(t, 2, created.TotalLines)
		require.NotNil(t, lineFor(created.Lines, f.itemID), "ledger-known item must still be counted")
		extra := lineFor(created.Lines, newItem)
		require.NotNil(t, extra)
		assert.True(t, extra.UnitCost.Equal(decimal.NewFromInt(7)))
	})

	t.Run("shrinkage on an item the caller did not list is posted", func(t *testing.T) {
		f := newStocktakeFixture(t)
		f.stock(t, "po-1", 25)

		created, err := f.service.Create(context.Background(), f.orgID, f.branchID, stocktake.CreateSessionRequest{
			LocationID: f.location,
		})
		require.NoError(t, err)

		_, err = f.service.Start(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)
		_, err = f.service.RecordCount(context.Background(), f.branchID, created.ID, stocktake.RecordCountRequest{
			ItemID:     f.itemID,
			CountedQty: decimal.NewFromInt(20),
		})
		require.NoError(t, err)
		_, err = f.service.Submit(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)
		_, err = f.service.Approve(context.Background(), f.branchID, created.ID, stocktake.ApproveSessionRequest{
			ApproverID: uuid.New(),
		})
		require.NoError(t, err)

		posted, err := f.service.Post(context.Background(), f.branchID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, posted.LedgerEntriesCreated)
		assert.True(t, f.onHand(t).Equal(decimal.NewFromInt(20)),
			"the missing 5 units must be written off even though no line was requested")
	})
}
