package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chefstock/backend/internal/domain/period"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPeriodRepository implements period.Repository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByID finds a period with its snapshot and summary rows
func (r *GormPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*period.InventoryPeriod, error) {
	var p period.InventoryPeriod
	if err := r.db.WithContext(ctx).
		Preload("Snapshots").
		Preload("Summary").
		First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByWindow finds the period for an exact (branch, start, end) window
func (r *GormPeriodRepository) FindByWindow(ctx context.Context, branchID uuid.UUID, start, end time.Time) (*period.InventoryPeriod, error) {
	var p period.InventoryPeriod
	if err := r.db.WithContext(ctx).
		Preload("Snapshots").
		Preload("Summary").
		First(&p, "branch_id = ? AND start_date = ? AND end_date = ?", branchID, start, end).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindOverlapping finds periods whose [start_date, end_date) window
// intersects [start, end)
func (r *GormPeriodRepository) FindOverlapping(ctx context.Context, branchID uuid.UUID, start, end time.Time) ([]period.InventoryPeriod, error) {
	var periods []period.InventoryPeriod
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND start_date < ? AND end_date > ?", branchID, end, start).
		Order("start_date ASC").
		Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

// SaveWithRows saves a period with its derived snapshot and summary rows,
// replacing any rows from a previous close attempt
func (r *GormPeriodRepository) SaveWithRows(ctx context.Context, p *period.InventoryPeriod) error {
	if err := r.db.WithContext(ctx).
		Omit("Snapshots", "Summary").
		Save(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDuplicatePeriod
		}
		return err
	}

	if err := r.db.WithContext(ctx).
		Where("period_id = ?", p.ID).
		Delete(&period.ValuationSnapshot{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("period_id = ?", p.ID).
		Delete(&period.MovementSummary{}).Error; err != nil {
		return err
	}

	if len(p.Snapshots) > 0 {
		if err := r.db.WithContext(ctx).Create(&p.Snapshots).Error; err != nil {
			return err
		}
	}
	if len(p.Summary) > 0 {
		if err := r.db.WithContext(ctx).Create(&p.Summary).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormPeriodRepository implements Repository
var _ period.Repository = (*GormPeriodRepository)(nil)
