package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
	syncdomain "github.com/sellerdesk/backend/internal/domain/sync"
)

// GormRunRepository implements sync.RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Create inserts a new run
func (r *GormRunRepository) Create(ctx context.Context, run *syncdomain.Run) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update persists the current run state and counters
func (r *GormRunRepository) Update(ctx context.Context, run *syncdomain.Run) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindByID finds a run by id
func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.Run, error) {
	var run syncdomain.Run
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindAll lists runs matching the filter, newest first
func (r *GormRunRepository) FindAll(ctx context.Context, filter syncdomain.RunFilter) ([]syncdomain.Run, error) {
	var runs []syncdomain.Run
	query := r.applyFilter(ctx, filter).Order("created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Count counts runs matching the filter
func (r *GormRunRepository) Count(ctx context.Context, filter syncdomain.RunFilter) (int64, error) {
	var count int64
	err := r.applyFilter(ctx, filter).Count(&count).Error
	return count, err
}

// CountRunning counts non-terminal runs for one (account, resource) pair
func (r *GormRunRepository) CountRunning(ctx context.Context, account marketplace.AccountType, resource marketplace.ResourceKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&syncdomain.Run{}).
		Where("account_type = ? AND resource_kind = ? AND status IN ?",
			account, resource, []syncdomain.RunStatus{syncdomain.RunStatusPending, syncdomain.RunStatusRunning}).
		Count(&count).Error
	return count, err
}

func (r *GormRunRepository) applyFilter(ctx context.Context, filter syncdomain.RunFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&syncdomain.Run{})
	if filter.AccountType != nil {
		query = query.Where("account_type = ?", *filter.AccountType)
	}
	if filter.Resource != nil {
		query = query.Where("resource_kind = ?", *filter.Resource)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure interface compliance
var _ syncdomain.RunRepository = (*GormRunRepository)(nil)
