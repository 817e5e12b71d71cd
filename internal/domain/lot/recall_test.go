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

func TestRecallCase(t *testing.T) {
	t.Run("opens with a reason", func(t *testing.T) {
		c, err := NewRecallCase(uuid.New(), uuid.New(), "Supplier recall of batch 42")
		require.NoError(t, err)
		assert.Equal(t, RecallCaseStatusOpen, c.Status)
		assert.True(t, c.IsOpen())
	})

	t.Run("rejects an empty reason", func(t *testing.T) {
		_, err := NewRecallCase(uuid.New(), uuid.New(), "")
		assert.Error(t, err)
	})

	t.Run("close is one-way", func(t *testing.T) {
		c, err := NewRecallCase(uuid.New(), uuid.New(), "Contamination")
		require.NoError(t, err)

		require.NoError(t, c.Close())
		assert.False(t, c.IsOpen())
		assert.ErrorIs(t, c.Close(), shared.ErrInvalidState)
	})
}

func TestEvaluateBlock(t *testing.T) {
	now := time.Now()

	t.Run("active lot with no links is consumable", func(t *testing.T) {
		l := newTestLot(t, decimal.NewFromInt(5), nil)
		b := EvaluateBlock(l, nil, now)
		assert.Equal(t, BlockKindNone, b.Kind)
		assert.False(t, b.Blocks())
		assert.NoError(t, b.Err())
	})

	t.Run("open recall link blocks first", func(t *testing.T) {
		// Recall precedence holds even when the lot is also expired.
		l := newTestLot(t, decimal.NewFromInt(5), timePtr(now.Add(-time.Hour)))
		caseID := uuid.New()

		b := EvaluateBlock(l, []uuid.UUID{caseID}, now)
		assert.Equal(t, BlockKindRecalled, b.Kind)
		require.NotNil(t, b.CaseID)
		assert.Equal(t, caseID, *b.CaseID)
		assert.ErrorIs(t, b.Err(), shared.ErrLotUnderRecall)
	})

	t.Run("expired by date", func(t *testing.T) {
		l := newTestLot(t, decimal.NewFromInt(5), timePtr(now.Add(-time.Hour)))
		b := EvaluateBlock(l, nil, now)
		assert.Equal(t, BlockKindExpired, b.Kind)
		assert.ErrorIs(t, b.Err(), shared.ErrLotExpired)
	})

	t.Run("expired by status", func(t *testing.T) {
		l := newTestLot(t, decimal.NewFromInt(5), nil)
		require.NoError(t, l.MarkExpired())
		b := EvaluateBlock(l, nil, now)
		assert.Equal(t, BlockKindExpired, b.Kind)
	})

	t.Run("non-active status blocks as inactive", func(t *testing.T) {
		l := newTestLot(t, decimal.NewFromInt(5), nil)
		require.NoError(t, l.Quarantine())
		b := EvaluateBlock(l, nil, now)
		assert.Equal(t, BlockKindInactive, b.Kind)
		assert.ErrorIs(t, b.Err(), shared.ErrInvalidState)
	})

	t.Run("expiry is judged against the supplied clock", func(t *testing.T) {
		expiry := now.Add(time.Hour)
		l := newTestLot(t, decimal.NewFromInt(5), &expiry)

		assert.Equal(t, BlockKindNone, EvaluateBlock(l, nil, now).Kind)
		assert.Equal(t, BlockKindExpired, EvaluateBlock(l, nil, now.Add(2*time.Hour)).Kind)
	})
}
