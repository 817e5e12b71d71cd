package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLotRepository implements lot.Repository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	var l lot.InventoryLot
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindByIDForUpdate finds a lot by ID and takes a FOR UPDATE row lock
func (r *GormLotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	var l lot.InventoryLot
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindAllocatable finds ACTIVE lots with stock for one (item, location),
// row-locked so concurrent allocations serialize on the same candidates.
// Rows come back in receipt order; FEFO ordering is applied by the caller.
func (r *GormLotRepository) FindAllocatable(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]lot.InventoryLot, error) {
	var lots []lot.InventoryLot
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND item_id = ? AND location_id = ? AND status = ? AND remaining_qty > 0",
			branchID, itemID, locationID, lot.StatusActive).
		Order("created_at ASC, id ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindActiveExpiredBefore finds ACTIVE lots whose expiry date precedes the cutoff
func (r *GormLotRepository) FindActiveExpiredBefore(ctx context.Context, branchID uuid.UUID, cutoff time.Time) ([]lot.InventoryLot, error) {
	var lots []lot.InventoryLot
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ? AND expiry_date IS NOT NULL AND expiry_date < ?",
			branchID, lot.StatusActive, cutoff).
		Order("expiry_date ASC, id ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiringWithin finds ACTIVE lots that will expire on or before the cutoff
func (r *GormLotRepository) FindExpiringWithin(ctx context.Context, branchID uuid.UUID, cutoff time.Time) ([]lot.InventoryLot, error) {
	var lots []lot.InventoryLot
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ? AND remaining_qty > 0 AND expiry_date IS NOT NULL AND expiry_date <= ?",
			branchID, lot.StatusActive, cutoff).
		Order("expiry_date ASC, id ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByItemLocation finds all lots for one (item, location)
func (r *GormLotRepository) FindByItemLocation(ctx context.Context, branchID, itemID, locationID uuid.UUID) ([]lot.InventoryLot, error) {
	var lots []lot.InventoryLot
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND item_id = ? AND location_id = ?", branchID, itemID, locationID).
		Order("created_at ASC, id ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Save creates or updates a lot
func (r *GormLotRepository) Save(ctx context.Context, l *lot.InventoryLot) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// SaveAll saves multiple lots within the current transaction
func (r *GormLotRepository) SaveAll(ctx context.Context, lots []*lot.InventoryLot) error {
	for _, l := range lots {
		if err := r.db.WithContext(ctx).Save(l).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormLotRepository implements Repository
var _ lot.Repository = (*GormLotRepository)(nil)
