package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

// GormDuplicateGroupRepository implements marketplace.DuplicateGroupRepository
type GormDuplicateGroupRepository struct {
	db *gorm.DB
}

// NewGormDuplicateGroupRepository creates a new GormDuplicateGroupRepository
func NewGormDuplicateGroupRepository(db *gorm.DB) *GormDuplicateGroupRepository {
	return &GormDuplicateGroupRepository{db: db}
}

// FindByID finds a group by id
func (r *GormDuplicateGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.DuplicateGroup, error) {
	var group marketplace.DuplicateGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// FindByMatchingKey finds the most recent group for a matching key
func (r *GormDuplicateGroupRepository) FindByMatchingKey(ctx context.Context, key string) (*marketplace.DuplicateGroup, error) {
	var group marketplace.DuplicateGroup
	if err := r.db.WithContext(ctx).
		Where("matching_key = ?", key).
		Order("detected_at DESC").
		First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// FindAll lists groups, optionally filtered by resolution status
func (r *GormDuplicateGroupRepository) FindAll(ctx context.Context, status *marketplace.ResolutionStatus, filter shared.Filter) ([]marketplace.DuplicateGroup, error) {
	var groups []marketplace.DuplicateGroup
	query := r.db.WithContext(ctx).
		Model(&marketplace.DuplicateGroup{}).
		Order("detected_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit := filter.Limit(); limit > 0 {
		query = query.Limit(limit).Offset(filter.Offset())
	}
	if err := query.Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Save creates or updates a group
func (r *GormDuplicateGroupRepository) Save(ctx context.Context, group *marketplace.DuplicateGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// Count counts groups matching the status filter
func (r *GormDuplicateGroupRepository) Count(ctx context.Context, status *marketplace.ResolutionStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&marketplace.DuplicateGroup{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Count(&count).Error
	return count, err
}

// Ensure interface compliance
var _ marketplace.DuplicateGroupRepository = (*GormDuplicateGroupRepository)(nil)
