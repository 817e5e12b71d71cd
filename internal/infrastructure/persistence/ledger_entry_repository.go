package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements ledger.EntryRepository using GORM.
// The table is append-only: this repository never issues UPDATE or DELETE.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append persists a new entry
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// AppendAll persists multiple entries in order within the current transaction
func (r *GormLedgerEntryRepository) AppendAll(ctx context.Context, entries []*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds an entry by its ID
func (r *GormLedgerEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindBySource finds all entries created by one source operation
func (r *GormLedgerEntryRepository) FindBySource(ctx context.Context, sourceType ledger.SourceType, sourceID string) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ExistsBySource reports whether any entry exists for a source operation
func (r *GormLedgerEntryRepository) ExistsBySource(ctx context.Context, sourceType ledger.SourceType, sourceID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.Entry{}).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// OnHand sums QtyDelta for one (item, location) within a branch
func (r *GormLedgerEntryRepository) OnHand(ctx context.Context, branchID, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.Entry{}).
		Select("COALESCE(SUM(qty_delta), 0) as total").
		Where("branch_id = ? AND item_id = ? AND location_id = ?", branchID, itemID, locationID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// OnHandByLocation sums QtyDelta per item for every item at a location
func (r *GormLedgerEntryRepository) OnHandByLocation(ctx context.Context, branchID, locationID uuid.UUID) ([]ledger.OnHandRow, error) {
	var rows []ledger.OnHandRow
	if err := r.db.WithContext(ctx).
		Model(&ledger.Entry{}).
		Select("item_id, location_id, COALESCE(SUM(qty_delta), 0) as on_hand").
		Where("branch_id = ? AND location_id = ?", branchID, locationID).
		Group("item_id, location_id").
		Order("item_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// OnHandByBranch sums QtyDelta per (item, location) across a branch,
// counting only entries that occurred strictly before asOf
func (r *GormLedgerEntryRepository) OnHandByBranch(ctx context.Context, branchID uuid.UUID, asOf time.Time) ([]ledger.OnHandRow, error) {
	var rows []ledger.OnHandRow
	if err := r.db.WithContext(ctx).
		Model(&ledger.Entry{}).
		Select("item_id, location_id, COALESCE(SUM(qty_delta), 0) as on_hand").
		Where("branch_id = ? AND occurred_at < ?", branchID, asOf).
		Group("item_id, location_id").
		Order("item_id ASC, location_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MovementsInRange lists entries for a branch within [from, to)
func (r *GormLedgerEntryRepository) MovementsInRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND occurred_at >= ? AND occurred_at < ?", branchID, from, to).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumByReasonInRange aggregates deltas by movement reason within [from, to)
func (r *GormLedgerEntryRepository) SumByReasonInRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]ledger.ReasonTotal, error) {
	var totals []ledger.ReasonTotal
	if err := r.db.WithContext(ctx).
		Model(&ledger.Entry{}).
		Select("reason, COALESCE(SUM(qty_delta), 0) as qty_delta, COALESCE(SUM(qty_delta * COALESCE(unit_cost_at_time, 0)), 0) as value, COUNT(*) as entries").
		Where("branch_id = ? AND occurred_at >= ? AND occurred_at < ?", branchID, from, to).
		Group("reason").
		Order("reason ASC").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// Ensure GormLedgerEntryRepository implements EntryRepository
var _ ledger.EntryRepository = (*GormLedgerEntryRepository)(nil)
