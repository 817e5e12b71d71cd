package persistence

import (
	"context"
	"errors"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/domain/stocktake"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStocktakeRepository implements stocktake.Repository using GORM
type GormStocktakeRepository struct {
	db *gorm.DB
}

// NewGormStocktakeRepository creates a new GormStocktakeRepository
func NewGormStocktakeRepository(db *gorm.DB) *GormStocktakeRepository {
	return &GormStocktakeRepository{db: db}
}

// FindByID finds a session with its lines
func (r *GormStocktakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*stocktake.Session, error) {
	var s stocktake.Session
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByIDForUpdate finds a session with its lines and locks the session row.
// The lock is taken on the session row only; line rows are rewritten under the
// same transaction by SaveWithLines, so the session lock is sufficient to
// serialize workflow transitions.
func (r *GormStocktakeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stocktake.Session, error) {
	var s stocktake.Session
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "stocktake_sessions"}}).
		Preload("Lines").
		First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindBySessionNumber finds a session by its number within a branch
func (r *GormStocktakeRepository) FindBySessionNumber(ctx context.Context, branchID uuid.UUID, sessionNumber string) (*stocktake.Session, error) {
	var s stocktake.Session
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&s, "branch_id = ? AND session_number = ?", branchID, sessionNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindOpenByBranch finds sessions in any non-terminal, non-posted state
func (r *GormStocktakeRepository) FindOpenByBranch(ctx context.Context, branchID uuid.UUID) ([]stocktake.Session, error) {
	openStatuses := []stocktake.SessionStatus{
		stocktake.SessionStatusDraft,
		stocktake.SessionStatusInProgress,
		stocktake.SessionStatusSubmitted,
		stocktake.SessionStatusApproved,
	}

	var sessions []stocktake.Session
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("branch_id = ? AND status IN ?", branchID, openStatuses).
		Order("created_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveWithLines saves a session and its lines. Lines are replaced wholesale:
// the line set is small (one per counted item) and rewriting it avoids
// tracking per-line dirty state through the workflow.
func (r *GormStocktakeRepository) SaveWithLines(ctx context.Context, s *stocktake.Session) error {
	if err := r.db.WithContext(ctx).
		Omit("Lines").
		Save(s).Error; err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Where("session_id = ?", s.ID).
		Delete(&stocktake.Line{}).Error; err != nil {
		return err
	}

	if len(s.Lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&s.Lines).Error
}

// CountByBranchAndPrefix counts sessions whose number starts with the prefix
func (r *GormStocktakeRepository) CountByBranchAndPrefix(ctx context.Context, branchID uuid.UUID, prefix string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stocktake.Session{}).
		Where("branch_id = ? AND session_number LIKE ?", branchID, prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormStocktakeRepository implements Repository
var _ stocktake.Repository = (*GormStocktakeRepository)(nil)
