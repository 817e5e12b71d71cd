package period

import (
	"testing"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPeriod(t *testing.T, start, end time.Time) *InventoryPeriod {
	t.Helper()
	p, err := NewInventoryPeriod(uuid.New(), uuid.New(), start, end)
	require.NoError(t, err)
	return p
}

func TestNewInventoryPeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("opens for a valid window", func(t *testing.T) {
		p := newTestPeriod(t, start, end)
		assert.Equal(t, StatusOpen, p.Status)
		assert.False(t, p.IsClosed())
	})

	t.Run("rejects an inverted or empty window", func(t *testing.T) {
		_, err := NewInventoryPeriod(uuid.New(), uuid.New(), end, start)
		assert.Error(t, err)
		_, err = NewInventoryPeriod(uuid.New(), uuid.New(), start, start)
		assert.Error(t, err)
	})
}

func TestInventoryPeriod_Windows(t *testing.T) {
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := newTestPeriod(t, jan1, feb1)

	t.Run("adjacent windows do not overlap", func(t *testing.T) {
		assert.False(t, p.Overlaps(feb1, mar1))
	})

	t.Run("straddling windows overlap", func(t *testing.T) {
		assert.True(t, p.Overlaps(jan1.Add(24*time.Hour), mar1))
		assert.True(t, p.Overlaps(jan1, feb1))
	})

	t.Run("window match is exact", func(t *testing.T) {
		assert.True(t, p.MatchesWindow(jan1, feb1))
		assert.False(t, p.MatchesWindow(jan1, mar1))
	})
}

func TestInventoryPeriod_Close(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("stores derived rows keyed by the period", func(t *testing.T) {
		p := newTestPeriod(t, start, end)
		snapshots := []ValuationSnapshot{
			NewValuationSnapshot(uuid.New(), uuid.New(), decimal.NewFromInt(10), decimal.NewFromFloat(2.5)),
			NewValuationSnapshot(uuid.New(), uuid.New(), decimal.NewFromInt(4), decimal.NewFromInt(3)),
		}
		summary := []MovementSummary{
			NewMovementSummary(ledger.ReasonTotal{
				Reason:   ledger.ReasonReceive,
				QtyDelta: decimal.NewFromInt(14),
				Value:    decimal.NewFromInt(37),
				Entries:  2,
			}),
		}

		require.NoError(t, p.Close(snapshots, summary))

		assert.True(t, p.IsClosed())
		require.NotNil(t, p.ClosedAt)
		for _, s := range p.Snapshots {
			assert.Equal(t, p.ID, s.PeriodID)
		}
		for _, m := range p.Summary {
			assert.Equal(t, p.ID, m.PeriodID)
		}
		// 10 * 2.5 + 4 * 3
		assert.True(t, p.TotalValue().Equal(decimal.NewFromInt(37)))
		assert.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("close is one-way", func(t *testing.T) {
		p := newTestPeriod(t, start, end)
		require.NoError(t, p.Close(nil, nil))
		assert.ErrorIs(t, p.Close(nil, nil), shared.ErrInvalidState)
	})
}

func TestNewValuationSnapshot(t *testing.T) {
	s := NewValuationSnapshot(uuid.New(), uuid.New(), decimal.NewFromFloat(3.5), decimal.NewFromFloat(1.2))
	assert.True(t, s.TotalValue.Equal(decimal.NewFromFloat(4.2)))
	assert.NotEqual(t, uuid.Nil, s.ID)
}
