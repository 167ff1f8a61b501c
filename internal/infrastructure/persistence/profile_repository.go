package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scholarconnect/backend/internal/domain/profile"
	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/infrastructure/persistence/models"
)

// GormProfileRepository implements profile.Repository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// Create creates a new profile. Each account holds at most one profile,
// so a duplicate account ID maps to ErrAlreadyExists.
func (r *GormProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	model := models.ProfileModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing profile
func (r *GormProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	model := models.ProfileModelFromDomain(p)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a profile by ID
func (r *GormProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProfileModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a profile by its own ID
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var model models.ProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAccountID finds the profile owned by an account
func (r *GormProfileRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	var model models.ProfileModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByAccountID checks whether an account already has a profile
func (r *GormProfileRepository) ExistsByAccountID(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProfileModel{}).
		Where("account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormProfileRepository implements profile.Repository
var _ profile.Repository = (*GormProfileRepository)(nil)
