package persistence

import (
	"context"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBranchProvider lists the branches that currently hold lots, for
// schedulers that fan out over every branch
type GormBranchProvider struct {
	db *gorm.DB
}

// NewGormBranchProvider creates a new GormBranchProvider
func NewGormBranchProvider(db *gorm.DB) *GormBranchProvider {
	return &GormBranchProvider{db: db}
}

// ActiveBranchIDs returns the distinct branch IDs across all lots
func (p *GormBranchProvider) ActiveBranchIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := p.db.WithContext(ctx).
		Model(&lot.InventoryLot{}).
		Distinct("branch_id").
		Order("branch_id ASC").
		Pluck("branch_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
