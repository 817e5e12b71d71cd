package persistence

import (
	"context"
	"errors"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecallRepository implements lot.RecallRepository using GORM
type GormRecallRepository struct {
	db *gorm.DB
}

// NewGormRecallRepository creates a new GormRecallRepository
func NewGormRecallRepository(db *gorm.DB) *GormRecallRepository {
	return &GormRecallRepository{db: db}
}

// FindCaseByID finds a recall case by its ID
func (r *GormRecallRepository) FindCaseByID(ctx context.Context, id uuid.UUID) (*lot.RecallCase, error) {
	var c lot.RecallCase
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SaveCase creates or updates a recall case
func (r *GormRecallRepository) SaveCase(ctx context.Context, c *lot.RecallCase) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Link adds a case-lot link; adding an existing link is a no-op
func (r *GormRecallRepository) Link(ctx context.Context, caseID, lotID uuid.UUID) error {
	link := lot.RecallLotLink{CaseID: caseID, LotID: lotID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

// Unlink removes a case-lot link
func (r *GormRecallRepository) Unlink(ctx context.Context, caseID, lotID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("case_id = ? AND lot_id = ?", caseID, lotID).
		Delete(&lot.RecallLotLink{}).Error
}

// LotIDsForCase returns the IDs of all lots linked to a case
func (r *GormRecallRepository) LotIDsForCase(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&lot.RecallLotLink{}).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Pluck("lot_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// OpenCaseIDsForLot returns the IDs of OPEN cases linked to a lot
func (r *GormRecallRepository) OpenCaseIDsForLot(ctx context.Context, lotID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&lot.RecallLotLink{}).
		Joins("JOIN recall_cases ON recall_cases.id = recall_lot_links.case_id").
		Where("recall_lot_links.lot_id = ? AND recall_cases.status = ?", lotID, lot.RecallCaseStatusOpen).
		Pluck("recall_lot_links.case_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// OpenCaseIDsForLots returns open case links for many lots in one query
func (r *GormRecallRepository) OpenCaseIDsForLots(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(lotIDs))
	if len(lotIDs) == 0 {
		return result, nil
	}

	var links []lot.RecallLotLink
	if err := r.db.WithContext(ctx).
		Joins("JOIN recall_cases ON recall_cases.id = recall_lot_links.case_id").
		Where("recall_lot_links.lot_id IN ? AND recall_cases.status = ?", lotIDs, lot.RecallCaseStatusOpen).
		Find(&links).Error; err != nil {
		return nil, err
	}

	for _, link := range links {
		result[link.LotID] = append(result[link.LotID], link.CaseID)
	}
	return result, nil
}

// HasOpenLink reports whether the lot is linked to any OPEN case
func (r *GormRecallRepository) HasOpenLink(ctx context.Context, lotID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&lot.RecallLotLink{}).
		Joins("JOIN recall_cases ON recall_cases.id = recall_lot_links.case_id").
		Where("recall_lot_links.lot_id = ? AND recall_cases.status = ?", lotID, lot.RecallCaseStatusOpen).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormRecallRepository implements RecallRepository
var _ lot.RecallRepository = (*GormRecallRepository)(nil)
